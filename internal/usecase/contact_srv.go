package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"contacts-api/internal/data/cached"
	"contacts-api/internal/data/entity"
	"contacts-api/internal/data/repository"
	"contacts-api/internal/dto/request"
	"contacts-api/internal/dto/response"

	"go.uber.org/zap"
)

const (
	birthdayLayout      = "2006-01-02"
	defaultBirthdayDays = 7
	maxBirthdayDays     = 366
)

type ContactService interface {
	CreateContact(ctx context.Context, userID int64, req *request.CreateContactRequest) (*response.ContactResponse, error)
	ListContacts(ctx context.Context, userID int64, req request.PaginatedRequest) (*response.PaginatedResponse[response.ContactResponse], error)
	GetContact(ctx context.Context, userID, contactID int64) (*response.ContactResponse, error)
	UpdateContact(ctx context.Context, userID, contactID int64, req *request.UpdateContactRequest) (*response.ContactResponse, error)
	DeleteContact(ctx context.Context, userID, contactID int64) (*response.ContactResponse, error)
	SearchContacts(ctx context.Context, userID int64, query string, req request.PaginatedRequest) ([]response.ContactResponse, error)
	UpcomingBirthdays(ctx context.Context, userID int64, days int) ([]response.ContactResponse, error)
}

type contactService struct {
	repo  repository.ContactRepository
	cache *cached.EntityCache
	log   *zap.Logger
	now   func() time.Time
}

func NewContactService(repo repository.ContactRepository, cache *cached.EntityCache, log *zap.Logger) ContactService {
	return &contactService{
		repo:  repo,
		cache: cache,
		log:   log.With(zap.String("service", "contact")),
		now:   time.Now,
	}
}

func (s *contactService) CreateContact(ctx context.Context, userID int64, req *request.CreateContactRequest) (*response.ContactResponse, error) {
	birthday, err := parseBirthday(req.Birthday)
	if err != nil {
		return nil, err
	}

	contact := &entity.Contact{
		UserID:    userID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Phone:     req.Phone,
		Birthday:  birthday,
		Notes:     req.AdditionalData,
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		s.log.Error("Failed to create contact", zap.Error(err), zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to create contact")
	}

	s.cache.InvalidateContactList(ctx, userID)

	s.log.Info("Contact created",
		zap.Int64("contact_id", contact.ID),
		zap.Int64("user_id", userID))

	resp := response.ContactToResponse(contact)
	return &resp, nil
}

// ListContacts serves a page from the cache when the owner's list generation
// still has it, otherwise from the store.
func (s *contactService) ListContacts(ctx context.Context, userID int64, req request.PaginatedRequest) (*response.PaginatedResponse[response.ContactResponse], error) {
	req = req.Normalize()

	generation := s.cache.ListGeneration(ctx, userID)
	if contacts, total, ok := s.cache.ContactPage(ctx, userID, generation, req.Skip, req.Limit); ok {
		return response.NewPaginatedResponse(response.ContactsToResponse(contacts), req.Skip, req.Limit, total), nil
	}

	contacts, err := s.repo.FindByUser(ctx, userID, req.Skip, req.Limit)
	if err != nil {
		s.log.Error("Failed to list contacts", zap.Error(err), zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to get contacts")
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		s.log.Error("Failed to count contacts", zap.Error(err), zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to get contacts")
	}

	s.cache.PutContactPage(ctx, userID, generation, req.Skip, req.Limit, contacts, total)
	s.cache.PutContacts(ctx, contacts)

	return response.NewPaginatedResponse(response.ContactsToResponse(contacts), req.Skip, req.Limit, total), nil
}

func (s *contactService) GetContact(ctx context.Context, userID, contactID int64) (*response.ContactResponse, error) {
	if contact, ok := s.cache.Contact(ctx, userID, contactID); ok {
		resp := response.ContactToResponse(contact)
		return &resp, nil
	}

	contact, err := s.repo.FindByIDAndUser(ctx, contactID, userID)
	if err != nil {
		s.log.Error("Failed to get contact",
			zap.Error(err),
			zap.Int64("contact_id", contactID),
			zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to get contact")
	}
	if contact == nil {
		return nil, newError(ErrNotFound, "Contact not found")
	}

	s.cache.PutContact(ctx, contact)

	resp := response.ContactToResponse(contact)
	return &resp, nil
}

// UpdateContact applies only the supplied fields to the stored record.
func (s *contactService) UpdateContact(ctx context.Context, userID, contactID int64, req *request.UpdateContactRequest) (*response.ContactResponse, error) {
	birthday, err := parseBirthday(req.Birthday.Value)
	if err != nil {
		return nil, err
	}

	contact, err := s.repo.FindByIDAndUser(ctx, contactID, userID)
	if err != nil {
		s.log.Error("Failed to load contact for update",
			zap.Error(err),
			zap.Int64("contact_id", contactID),
			zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to update contact")
	}
	if contact == nil {
		return nil, newError(ErrNotFound, "Contact not found")
	}

	patch := entity.ContactPatch{
		FirstName: trimmed(req.FirstName),
		LastName:  trimmed(req.LastName),
		Email:     req.Email,
		Phone:     req.Phone,
		Birthday:  birthday,
		Notes:     req.AdditionalData.Value,

		ClearBirthday: req.Birthday.Null(),
		ClearNotes:    req.AdditionalData.Null(),
	}

	if patch.Apply(contact) {
		if err := s.repo.Update(ctx, contact); err != nil {
			if errors.Is(err, repository.ErrNoRowsAffected) {
				s.cache.InvalidateContact(ctx, userID, contactID)
				return nil, newError(ErrNotFound, "Contact not found")
			}
			s.log.Error("Failed to update contact",
				zap.Error(err),
				zap.Int64("contact_id", contactID))
			return nil, newError(ErrStoreUnavailable, "Failed to update contact")
		}

		s.cache.InvalidateContact(ctx, userID, contactID)

		s.log.Info("Contact updated",
			zap.Int64("contact_id", contactID),
			zap.Int64("user_id", userID))
	}

	resp := response.ContactToResponse(contact)
	return &resp, nil
}

func (s *contactService) DeleteContact(ctx context.Context, userID, contactID int64) (*response.ContactResponse, error) {
	contact, err := s.repo.DeleteByIDAndUser(ctx, contactID, userID)
	if err != nil {
		s.log.Error("Failed to delete contact",
			zap.Error(err),
			zap.Int64("contact_id", contactID),
			zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to delete contact")
	}
	if contact == nil {
		return nil, newError(ErrNotFound, "Contact not found")
	}

	s.cache.InvalidateContact(ctx, userID, contactID)

	s.log.Info("Contact deleted",
		zap.Int64("contact_id", contactID),
		zap.Int64("user_id", userID))

	resp := response.ContactToResponse(contact)
	return &resp, nil
}

func (s *contactService) SearchContacts(ctx context.Context, userID int64, query string, req request.PaginatedRequest) ([]response.ContactResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newError(ErrBadRequest, "Search query is required")
	}
	req = req.Normalize()

	contacts, err := s.repo.Search(ctx, userID, query, req.Skip, req.Limit)
	if err != nil {
		s.log.Error("Failed to search contacts", zap.Error(err), zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to search contacts")
	}

	s.cache.PutContacts(ctx, contacts)

	return response.ContactsToResponse(contacts), nil
}

func (s *contactService) UpcomingBirthdays(ctx context.Context, userID int64, days int) ([]response.ContactResponse, error) {
	if days <= 0 {
		days = defaultBirthdayDays
	}
	if days > maxBirthdayDays {
		return nil, newError(ErrBadRequest, "days must be at most 366")
	}

	today := s.now().UTC().Truncate(24 * time.Hour)

	contacts, err := s.repo.FindUpcomingBirthdays(ctx, userID, today, days)
	if err != nil {
		s.log.Error("Failed to get upcoming birthdays", zap.Error(err), zap.Int64("user_id", userID))
		return nil, newError(ErrStoreUnavailable, "Failed to get upcoming birthdays")
	}

	s.cache.PutContacts(ctx, contacts)

	return response.ContactsToResponse(contacts), nil
}

func parseBirthday(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := time.Parse(birthdayLayout, *value)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"birthday": "must be a date formatted as YYYY-MM-DD"}}
	}
	return &t, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
