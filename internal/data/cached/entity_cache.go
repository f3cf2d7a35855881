// Package cached maps domain entities onto cache entries: key scheme,
// fixed-shape projections and per-entity TTLs.
package cached

import (
	"context"
	"time"

	"contacts-api/internal/data/entity"
	"contacts-api/pkg/cache"
	"contacts-api/pkg/utils"

	"github.com/google/uuid"
)

// EntityCache is safe to use with a nil or closed *cache.Cache; every read is
// then a miss and every write a no-op.
type EntityCache struct {
	cache      *cache.Cache
	userTTL    time.Duration
	sessionTTL time.Duration
	contactTTL time.Duration
}

func NewEntityCache(c *cache.Cache, config utils.CacheConfig) *EntityCache {
	ec := &EntityCache{
		cache:      c,
		userTTL:    config.UserTTL,
		sessionTTL: config.SessionTTL,
		contactTTL: config.ContactTTL,
	}
	if ec.userTTL <= 0 {
		ec.userTTL = time.Hour
	}
	if ec.sessionTTL <= 0 {
		ec.sessionTTL = 15 * time.Minute
	}
	if ec.contactTTL <= 0 {
		ec.contactTTL = 30 * time.Minute
	}
	return ec
}

// ==================== USERS ====================

func (ec *EntityCache) UserByEmail(ctx context.Context, email string) (*entity.User, bool) {
	return ec.getUser(ctx, UserEmailKey(email))
}

// PutUserByEmail stores the identity snapshot used by token validation.
func (ec *EntityCache) PutUserByEmail(ctx context.Context, u *entity.User) {
	cache.PutJSON(ctx, ec.cache, UserEmailKey(u.Email), ProjectUser(u), ec.sessionTTL)
}

func (ec *EntityCache) UserByID(ctx context.Context, id int64) (*entity.User, bool) {
	return ec.getUser(ctx, UserIDKey(id))
}

func (ec *EntityCache) PutUserByID(ctx context.Context, u *entity.User) {
	cache.PutJSON(ctx, ec.cache, UserIDKey(u.ID), ProjectUser(u), ec.userTTL)
}

// InvalidateUser drops every key that may hold the user, including each of
// the given emails (current and previous).
func (ec *EntityCache) InvalidateUser(ctx context.Context, id int64, emails ...string) {
	keys := make([]string, 0, len(emails)+1)
	keys = append(keys, UserIDKey(id))
	for _, email := range emails {
		if email != "" {
			keys = append(keys, UserEmailKey(email))
		}
	}
	ec.cache.Delete(ctx, keys...)
}

func (ec *EntityCache) getUser(ctx context.Context, key string) (*entity.User, bool) {
	p, ok := cache.GetJSON[UserProjection](ctx, ec.cache, key)
	if !ok {
		return nil, false
	}
	if err := p.Validate(); err != nil {
		ec.cache.Delete(ctx, key)
		return nil, false
	}
	return p.ToEntity(), true
}

// ==================== CONTACTS ====================

func (ec *EntityCache) Contact(ctx context.Context, ownerID, contactID int64) (*entity.Contact, bool) {
	key := ContactKey(contactID, ownerID)

	p, ok := cache.GetJSON[ContactProjection](ctx, ec.cache, key)
	if !ok {
		return nil, false
	}
	if err := p.Validate(); err != nil || p.UserID != ownerID || p.ID != contactID {
		ec.cache.Delete(ctx, key)
		return nil, false
	}
	return p.ToEntity(), true
}

func (ec *EntityCache) PutContact(ctx context.Context, c *entity.Contact) {
	cache.PutJSON(ctx, ec.cache, ContactKey(c.ID, c.UserID), ProjectContact(c), ec.contactTTL)
}

func (ec *EntityCache) PutContacts(ctx context.Context, contacts []*entity.Contact) {
	for _, c := range contacts {
		ec.PutContact(ctx, c)
	}
}

// InvalidateContact drops the single-contact key together with the owner's
// list marker.
func (ec *EntityCache) InvalidateContact(ctx context.Context, ownerID, contactID int64) {
	ec.cache.Delete(ctx, ContactKey(contactID, ownerID), ContactListMarkerKey(ownerID))
}

// InvalidateContactList drops the list marker. Pages of the old generation
// become unreachable and age out by TTL.
func (ec *EntityCache) InvalidateContactList(ctx context.Context, ownerID int64) {
	ec.cache.Delete(ctx, ContactListMarkerKey(ownerID))
}

// ListGeneration returns the owner's current list generation, starting a new
// one when none is cached. An empty result means the cache is unavailable and
// pages must not be cached.
func (ec *EntityCache) ListGeneration(ctx context.Context, ownerID int64) string {
	key := ContactListMarkerKey(ownerID)

	if raw, ok := ec.cache.Get(ctx, key); ok && len(raw) > 0 {
		return string(raw)
	}

	gen := uuid.NewString()
	if !ec.cache.Put(ctx, key, []byte(gen), ec.contactTTL) {
		return ""
	}
	return gen
}

func (ec *EntityCache) ContactPage(ctx context.Context, ownerID int64, generation string, skip, limit int) ([]*entity.Contact, int64, bool) {
	if generation == "" {
		return nil, 0, false
	}

	key := ContactPageKey(ownerID, generation, skip, limit)
	page, ok := cache.GetJSON[ContactPage](ctx, ec.cache, key)
	if !ok {
		return nil, 0, false
	}
	if err := page.Validate(ownerID); err != nil {
		ec.cache.Delete(ctx, key)
		return nil, 0, false
	}

	contacts := make([]*entity.Contact, len(page.Items))
	for i, item := range page.Items {
		contacts[i] = item.ToEntity()
	}
	return contacts, page.Total, true
}

func (ec *EntityCache) PutContactPage(ctx context.Context, ownerID int64, generation string, skip, limit int, contacts []*entity.Contact, total int64) {
	if generation == "" {
		return
	}

	page := ContactPage{
		Items: make([]ContactProjection, len(contacts)),
		Total: total,
	}
	for i, c := range contacts {
		page.Items[i] = ProjectContact(c)
	}
	cache.PutJSON(ctx, ec.cache, ContactPageKey(ownerID, generation, skip, limit), page, ec.contactTTL)
}
