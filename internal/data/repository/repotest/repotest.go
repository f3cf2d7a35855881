// Package repotest provides in-memory repositories for service and HTTP tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"contacts-api/internal/data/entity"
	"contacts-api/internal/data/repository"
)

// Store is a shared in-memory database. Setting Err makes every call fail
// with it; Calls counts calls per method name.
type Store struct {
	mu       sync.Mutex
	users    map[int64]*entity.User
	contacts map[int64]*entity.Contact
	otps     map[int64]*entity.OTP
	nextID   int64
	calls    map[string]int

	Err error
	Now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]*entity.User),
		contacts: make(map[int64]*entity.Contact),
		otps:     make(map[int64]*entity.OTP),
		calls:    make(map[string]int),
		Now:      time.Now,
	}
}

// Repository bundles the three repositories over s.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		User:    &UserRepo{s},
		Contact: &ContactRepo{s},
		OTP:     &OTPRepo{s},
	}
}

func (s *Store) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// enter locks the store and records the call. Callers defer the unlock.
func (s *Store) enter(method string) error {
	s.mu.Lock()
	s.calls[method]++
	return s.Err
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func cloneUser(u *entity.User) *entity.User {
	cp := *u
	return &cp
}

func cloneContact(c *entity.Contact) *entity.Contact {
	cp := *c
	if c.Birthday != nil {
		b := *c.Birthday
		cp.Birthday = &b
	}
	if c.Notes != nil {
		n := *c.Notes
		cp.Notes = &n
	}
	return &cp
}

func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

// ==================== USERS ====================

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	defer r.s.mu.Unlock()
	if err := r.s.enter("User.Create"); err != nil {
		return err
	}

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}

	now := r.s.Now()
	user.ID = r.s.id()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("User.FindByID"); err != nil {
		return nil, err
	}

	if u, ok := r.s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("User.FindByEmail"); err != nil {
		return nil, err
	}

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) sorted(role entity.UserRole) []*entity.User {
	users := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if role == "" || u.Role == role {
			users = append(users, cloneUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (r *UserRepo) FindAll(_ context.Context, skip, limit int) ([]*entity.User, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("User.FindAll"); err != nil {
		return nil, err
	}

	return page(r.sorted(""), skip, limit), nil
}

func (r *UserRepo) FindByRole(_ context.Context, role entity.UserRole, skip, limit int) ([]*entity.User, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("User.FindByRole"); err != nil {
		return nil, err
	}

	return page(r.sorted(role), skip, limit), nil
}

func (r *UserRepo) CountAll(_ context.Context) (int64, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("User.CountAll"); err != nil {
		return 0, err
	}

	return int64(len(r.s.users)), nil
}

func (r *UserRepo) CountByRole(_ context.Context, role entity.UserRole) (int64, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("User.CountByRole"); err != nil {
		return 0, err
	}

	return int64(len(r.sorted(role))), nil
}

func (r *UserRepo) Update(_ context.Context, user *entity.User) error {
	defer r.s.mu.Unlock()
	if err := r.s.enter("User.Update"); err != nil {
		return err
	}

	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNoRowsAffected
	}
	for _, u := range r.s.users {
		if u.Email == user.Email && u.ID != user.ID {
			return repository.ErrDuplicate
		}
	}

	user.UpdatedAt = r.s.Now()
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

// Delete cascades to the user's contacts and OTPs like the foreign keys do.
func (r *UserRepo) Delete(_ context.Context, id int64) error {
	defer r.s.mu.Unlock()
	if err := r.s.enter("User.Delete"); err != nil {
		return err
	}

	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNoRowsAffected
	}
	delete(r.s.users, id)
	for cid, c := range r.s.contacts {
		if c.UserID == id {
			delete(r.s.contacts, cid)
		}
	}
	for oid, o := range r.s.otps {
		if o.UserID == id {
			delete(r.s.otps, oid)
		}
	}
	return nil
}

// ==================== CONTACTS ====================

type ContactRepo struct{ s *Store }

func (r *ContactRepo) owned(userID int64, match func(*entity.Contact) bool) []*entity.Contact {
	out := make([]*entity.Contact, 0)
	for _, c := range r.s.contacts {
		if c.UserID == userID && (match == nil || match(c)) {
			out = append(out, cloneContact(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *ContactRepo) Create(_ context.Context, contact *entity.Contact) error {
	defer r.s.mu.Unlock()
	if err := r.s.enter("Contact.Create"); err != nil {
		return err
	}

	now := r.s.Now()
	contact.ID = r.s.id()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	r.s.contacts[contact.ID] = cloneContact(contact)
	return nil
}

func (r *ContactRepo) FindByIDAndUser(_ context.Context, id, userID int64) (*entity.Contact, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("Contact.FindByIDAndUser"); err != nil {
		return nil, err
	}

	if c, ok := r.s.contacts[id]; ok && c.UserID == userID {
		return cloneContact(c), nil
	}
	return nil, nil
}

func (r *ContactRepo) FindByUser(_ context.Context, userID int64, skip, limit int) ([]*entity.Contact, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("Contact.FindByUser"); err != nil {
		return nil, err
	}

	return page(r.owned(userID, nil), skip, limit), nil
}

func (r *ContactRepo) CountByUser(_ context.Context, userID int64) (int64, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("Contact.CountByUser"); err != nil {
		return 0, err
	}

	return int64(len(r.owned(userID, nil))), nil
}

func (r *ContactRepo) Search(_ context.Context, userID int64, query string, skip, limit int) ([]*entity.Contact, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("Contact.Search"); err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	matches := r.owned(userID, func(c *entity.Contact) bool {
		return strings.Contains(strings.ToLower(c.FirstName), q) ||
			strings.Contains(strings.ToLower(c.LastName), q) ||
			strings.Contains(strings.ToLower(c.Email), q)
	})
	return page(matches, skip, limit), nil
}

func (r *ContactRepo) FindUpcomingBirthdays(_ context.Context, userID int64, from time.Time, days int) ([]*entity.Contact, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("Contact.FindUpcomingBirthdays"); err != nil {
		return nil, err
	}

	end := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)

	matches := r.owned(userID, func(c *entity.Contact) bool {
		if c.Birthday == nil {
			return false
		}
		return !entity.NextBirthday(*c.Birthday, from).After(end)
	})
	entity.SortByNextBirthday(matches, from)
	return matches, nil
}

func (r *ContactRepo) Update(_ context.Context, contact *entity.Contact) error {
	defer r.s.mu.Unlock()
	if err := r.s.enter("Contact.Update"); err != nil {
		return err
	}

	existing, ok := r.s.contacts[contact.ID]
	if !ok || existing.UserID != contact.UserID {
		return repository.ErrNoRowsAffected
	}

	contact.UpdatedAt = r.s.Now()
	r.s.contacts[contact.ID] = cloneContact(contact)
	return nil
}

func (r *ContactRepo) DeleteByIDAndUser(_ context.Context, id, userID int64) (*entity.Contact, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("Contact.DeleteByIDAndUser"); err != nil {
		return nil, err
	}

	c, ok := r.s.contacts[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	delete(r.s.contacts, id)
	return cloneContact(c), nil
}

// ==================== OTPS ====================

type OTPRepo struct{ s *Store }

func (r *OTPRepo) Create(_ context.Context, otp *entity.OTP) error {
	defer r.s.mu.Unlock()
	if err := r.s.enter("OTP.Create"); err != nil {
		return err
	}

	otp.ID = r.s.id()
	otp.CreatedAt = r.s.Now()
	cp := *otp
	r.s.otps[otp.ID] = &cp
	return nil
}

func (r *OTPRepo) FindValidOTP(_ context.Context, email, otpCode string, otpType entity.OTPType) (*entity.OTP, error) {
	defer r.s.mu.Unlock()
	if err := r.s.enter("OTP.FindValidOTP"); err != nil {
		return nil, err
	}

	now := r.s.Now()
	var found *entity.OTP
	for _, o := range r.s.otps {
		if o.Email != email || o.OTPCode != otpCode || o.OTPType != otpType || o.IsUsed || !o.ExpiresAt.After(now) {
			continue
		}
		if found == nil || o.ID > found.ID {
			found = o
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (r *OTPRepo) MarkAsUsed(_ context.Context, otpID int64) error {
	defer r.s.mu.Unlock()
	if err := r.s.enter("OTP.MarkAsUsed"); err != nil {
		return err
	}

	o, ok := r.s.otps[otpID]
	if !ok {
		return repository.ErrNoRowsAffected
	}
	o.IsUsed = true
	return nil
}

// LatestOTP returns the newest code issued to email, for tests that read
// the code a user would get by mail.
func (s *Store) LatestOTP(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *entity.OTP
	for _, o := range s.otps {
		if o.Email == email && (found == nil || o.ID > found.ID) {
			found = o
		}
	}
	if found == nil {
		return "", false
	}
	return found.OTPCode, true
}

// PutUser inserts u directly, bypassing Create. Used to seed admins.
func (s *Store) PutUser(u *entity.User) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	u.ID = s.id()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = cloneUser(u)
	return cloneUser(u)
}
