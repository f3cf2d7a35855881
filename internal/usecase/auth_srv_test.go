package usecase

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"contacts-api/internal/data/entity"
	"contacts-api/internal/dto/request"
	"contacts-api/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()

	user, err := f.service.Auth.Register(ctx, &request.RegisterRequest{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsVerified)

	stored, err := f.store.Repository().User.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	_, err = f.service.Auth.Register(ctx, &request.RegisterRequest{Email: "alice@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLogin(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "alice@example.com", entity.RoleUser)

	resp, err := f.service.Auth.Login(ctx, &request.LoginRequest{Email: u.Email, Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)

	claims, err := f.tokens.Verify(resp.AccessToken, token.PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, u.Email, claims.Subject)

	_, err = f.service.Auth.Login(ctx, &request.LoginRequest{Email: u.Email, Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.service.Auth.Login(ctx, &request.LoginRequest{Email: "ghost@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLogin_InactiveUser(t *testing.T) {
	f := newMemFixture(t)
	u := f.seedUser(t, "alice@example.com", entity.RoleUser)
	_, err := f.service.User.UpdateUser(context.Background(), u.ID, &request.AdminUpdateUserRequest{IsActive: ptr(false)})
	require.NoError(t, err)

	_, err = f.service.Auth.Login(context.Background(), &request.LoginRequest{Email: u.Email, Password: "password123"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSendOTPAndVerifyEmail(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "alice@example.com", entity.RoleUser)

	identity, err := f.service.Identity.Resolve(ctx, f.accessToken(t, u.Email))
	require.NoError(t, err)
	require.False(t, identity.IsVerified)

	require.NoError(t, f.service.Auth.SendOTP(ctx, u.Email))
	require.Len(t, f.mail.sent, 1)

	code, ok := f.store.LatestOTP(u.Email)
	require.True(t, ok)
	assert.Contains(t, f.mail.sent[0].Body, code)

	err = f.service.Auth.VerifyEmail(ctx, &request.VerifyEmailRequest{Email: u.Email, OTP: "000000x"})
	assert.ErrorIs(t, err, ErrBadRequest)

	require.NoError(t, f.service.Auth.VerifyEmail(ctx, &request.VerifyEmailRequest{Email: u.Email, OTP: code}))

	identity, err = f.service.Identity.Resolve(ctx, f.accessToken(t, u.Email))
	require.NoError(t, err)
	assert.True(t, identity.IsVerified)

	err = f.service.Auth.VerifyEmail(ctx, &request.VerifyEmailRequest{Email: u.Email, OTP: code})
	assert.ErrorIs(t, err, ErrBadRequest, "codes are single use")

	assert.ErrorIs(t, f.service.Auth.SendOTP(ctx, u.Email), ErrBadRequest)
	assert.ErrorIs(t, f.service.Auth.SendOTP(ctx, "ghost@example.com"), ErrNotFound)
}

func TestPasswordReset(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "alice@example.com", entity.RoleUser)

	resp, err := f.service.Auth.RequestPasswordReset(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Equal(t, passwordResetMessage, resp.Message)
	assert.Empty(t, f.mail.sent)

	resp, err = f.service.Auth.RequestPasswordReset(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, passwordResetMessage, resp.Message)
	require.Len(t, f.mail.sent, 1)

	body := f.mail.sent[0].Body
	idx := strings.Index(body, "token=")
	require.NotEqual(t, -1, idx)
	resetToken, err := url.QueryUnescape(strings.TrimSpace(body[idx+len("token="):]))
	require.NoError(t, err)

	_, err = f.service.Auth.ResetPassword(ctx, &request.PasswordResetConfirmRequest{
		Token:       f.accessToken(t, u.Email),
		NewPassword: "brand-new",
	})
	assert.ErrorIs(t, err, ErrBadRequest, "access tokens cannot reset passwords")

	_, err = f.service.Auth.ResetPassword(ctx, &request.PasswordResetConfirmRequest{
		Token:       resetToken,
		NewPassword: "brand-new",
	})
	require.NoError(t, err)

	_, err = f.service.Auth.Login(ctx, &request.LoginRequest{Email: u.Email, Password: "brand-new"})
	assert.NoError(t, err)
	_, err = f.service.Auth.Login(ctx, &request.LoginRequest{Email: u.Email, Password: "password123"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
