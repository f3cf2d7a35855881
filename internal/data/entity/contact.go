package entity

import (
	"sort"
	"time"
)

type Contact struct {
	Base
	UserID    int64      `db:"user_id"`
	FirstName string     `db:"first_name"`
	LastName  string     `db:"last_name"`
	Email     string     `db:"email"`
	Phone     string     `db:"phone"`
	Birthday  *time.Time `db:"birthday"`
	Notes     *string    `db:"additional_data"`
}

// NextBirthday returns the first anniversary of birthday on or after the day of from.
// A Feb 29 birthday falls on Mar 1 in common years.
func NextBirthday(birthday, from time.Time) time.Time {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)

	next := time.Date(start.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(start) {
		next = time.Date(start.Year()+1, birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	}
	return next
}

// SortByNextBirthday orders contacts by their next birthday after from, then by id.
// Contacts without a birthday go last.
func SortByNextBirthday(contacts []*Contact, from time.Time) {
	sort.SliceStable(contacts, func(i, j int) bool {
		a, b := contacts[i], contacts[j]
		if a.Birthday == nil || b.Birthday == nil {
			return a.Birthday != nil && b.Birthday == nil
		}
		na, nb := NextBirthday(*a.Birthday, from), NextBirthday(*b.Birthday, from)
		if !na.Equal(nb) {
			return na.Before(nb)
		}
		return a.ID < b.ID
	})
}

// ContactPatch carries the fields of a partial update. Nil means "not supplied";
// ClearBirthday and ClearNotes remove the optional fields.
type ContactPatch struct {
	FirstName     *string
	LastName      *string
	Email         *string
	Phone         *string
	Birthday      *time.Time
	ClearBirthday bool
	Notes         *string
	ClearNotes    bool
}

// Apply overwrites only the supplied fields and reports whether anything changed.
func (p ContactPatch) Apply(c *Contact) bool {
	changed := false

	if p.FirstName != nil && *p.FirstName != c.FirstName {
		c.FirstName = *p.FirstName
		changed = true
	}
	if p.LastName != nil && *p.LastName != c.LastName {
		c.LastName = *p.LastName
		changed = true
	}
	if p.Email != nil && *p.Email != c.Email {
		c.Email = *p.Email
		changed = true
	}
	if p.Phone != nil && *p.Phone != c.Phone {
		c.Phone = *p.Phone
		changed = true
	}
	switch {
	case p.Birthday != nil:
		b := *p.Birthday
		c.Birthday = &b
		changed = true
	case p.ClearBirthday && c.Birthday != nil:
		c.Birthday = nil
		changed = true
	}
	switch {
	case p.Notes != nil:
		n := *p.Notes
		c.Notes = &n
		changed = true
	case p.ClearNotes && c.Notes != nil:
		c.Notes = nil
		changed = true
	}

	return changed
}
