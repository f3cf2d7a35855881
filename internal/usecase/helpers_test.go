package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"contacts-api/internal/data/cached"
	"contacts-api/internal/data/entity"
	"contacts-api/internal/data/repository/repotest"
	"contacts-api/pkg/cache"
	"contacts-api/pkg/mailer"
	"contacts-api/pkg/token"
	"contacts-api/pkg/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errStoreDown = errors.New("connection refused")

type downBackend struct{}

func (downBackend) Get(context.Context, string) ([]byte, error) { return nil, errors.New("redis down") }
func (downBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis down")
}
func (downBackend) Delete(context.Context, ...string) error { return errors.New("redis down") }
func (downBackend) Ping(context.Context) error              { return errors.New("redis down") }
func (downBackend) Close() error                            { return nil }

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type fixture struct {
	store   *repotest.Store
	cache   *cache.Cache
	entity  *cached.EntityCache
	tokens  *token.Manager
	mail    *recordingMailer
	config  *utils.Config
	service *Service
}

func newFixture(t *testing.T, backend cache.Backend) *fixture {
	t.Helper()

	c := cache.New(backend, zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })

	f := &fixture{
		store:  repotest.NewStore(),
		cache:  c,
		tokens: token.NewManager("test-secret", "contacts-api"),
		mail:   &recordingMailer{},
		config: &utils.Config{
			JWT:   utils.JWTConfig{Secret: "test-secret", AccessTTLMinutes: 30, ResetTTLHours: 1},
			OTP:   utils.OTPConfig{ExpiryMinutes: 10, Length: 6},
			Email: utils.EmailConfig{ServerHost: "http://localhost:8080"},
		},
	}
	f.entity = cached.NewEntityCache(c, utils.CacheConfig{})
	f.service = NewService(f.store.Repository(), f.entity, f.tokens, f.mail, f.config, zap.NewNop())
	return f
}

func newMemFixture(t *testing.T) *fixture {
	return newFixture(t, cache.NewInMemoryBackend())
}

func (f *fixture) seedUser(t *testing.T, email string, role entity.UserRole) *entity.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	return f.store.PutUser(&entity.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		Role:         role,
	})
}

func (f *fixture) accessToken(t *testing.T, email string) string {
	t.Helper()
	tok, err := f.tokens.Issue(email, token.PurposeAccess, time.Minute)
	require.NoError(t, err)
	return tok
}

func ptr[T any](v T) *T { return &v }
