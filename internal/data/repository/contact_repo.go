package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contacts-api/internal/data/entity"
	"contacts-api/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ContactRepository scopes every query by owner; a contact of another user
// behaves exactly like a missing one.
type ContactRepository interface {
	Create(ctx context.Context, contact *entity.Contact) error
	FindByIDAndUser(ctx context.Context, id, userID int64) (*entity.Contact, error)
	FindByUser(ctx context.Context, userID int64, skip, limit int) ([]*entity.Contact, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	Search(ctx context.Context, userID int64, query string, skip, limit int) ([]*entity.Contact, error)
	FindUpcomingBirthdays(ctx context.Context, userID int64, from time.Time, days int) ([]*entity.Contact, error)
	Update(ctx context.Context, contact *entity.Contact) error
	DeleteByIDAndUser(ctx context.Context, id, userID int64) (*entity.Contact, error)
}

type contactRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewContactRepository(db database.PgxIface, log *zap.Logger) ContactRepository {
	return &contactRepository{
		db:  db,
		log: log.With(zap.String("repository", "contact")),
	}
}

const contactColumns = `id, user_id, first_name, last_name, email, phone, birthday, additional_data, created_at, updated_at`

func scanContact(row pgx.Row) (*entity.Contact, error) {
	var c entity.Contact
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Birthday,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contactRepository) Create(ctx context.Context, contact *entity.Contact) error {
	query := `
		INSERT INTO contacts (user_id, first_name, last_name, email, phone, birthday, additional_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.Notes,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)

	if err != nil {
		r.log.Error("Failed to create contact",
			zap.Error(err),
			zap.Int64("user_id", contact.UserID),
		)
		return fmt.Errorf("create contact for user %d: %w", contact.UserID, err)
	}

	return nil
}

func (r *contactRepository) FindByIDAndUser(ctx context.Context, id, userID int64) (*entity.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND user_id = $2`

	contact, err := scanContact(r.db.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find contact",
			zap.Error(err),
			zap.Int64("contact_id", id),
			zap.Int64("user_id", userID),
		)
		return nil, fmt.Errorf("find contact %d of user %d: %w", id, userID, err)
	}

	return contact, nil
}

func (r *contactRepository) FindByUser(ctx context.Context, userID int64, skip, limit int) ([]*entity.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		ORDER BY id
		OFFSET $2 LIMIT $3
	`

	return r.queryContacts(ctx, query, userID, skip, limit)
}

func (r *contactRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contacts WHERE user_id = $1`, userID).Scan(&count); err != nil {
		r.log.Error("Database error counting contacts",
			zap.Error(err),
			zap.Int64("user_id", userID),
		)
		return 0, fmt.Errorf("count contacts of user %d: %w", userID, err)
	}

	return count, nil
}

// Search matches first name, last name or email case-insensitively.
func (r *contactRepository) Search(ctx context.Context, userID int64, q string, skip, limit int) ([]*entity.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		  AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
		ORDER BY id
		OFFSET $3 LIMIT $4
	`

	return r.queryContacts(ctx, query, userID, "%"+escapeLike(q)+"%", skip, limit)
}

// FindUpcomingBirthdays returns contacts whose next birthday falls within
// [from, from+days], wrapping around the end of the year. Matching is on
// month and day so the birth year being a leap year does not shift the date.
func (r *contactRepository) FindUpcomingBirthdays(ctx context.Context, userID int64, from time.Time, days int) ([]*entity.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		  AND birthday IS NOT NULL
		  AND (EXTRACT(MONTH FROM birthday)::int, EXTRACT(DAY FROM birthday)::int) IN (
		    SELECT w.month, w.day FROM unnest($2::int[], $3::int[]) AS w(month, day)
		  )
	`

	months, monthDays := birthdayWindow(from, days)

	contacts, err := r.queryContacts(ctx, query, userID, months, monthDays)
	if err != nil {
		return nil, err
	}

	entity.SortByNextBirthday(contacts, from)
	return contacts, nil
}

// birthdayWindow lists the (month, day) pairs of every date in [from, from+days].
// Mar 1 of a common year also matches Feb 29 birthdays.
func birthdayWindow(from time.Time, days int) ([]int32, []int32) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)

	months := make([]int32, 0, days+2)
	monthDays := make([]int32, 0, days+2)
	for i := 0; i <= days; i++ {
		d := start.AddDate(0, 0, i)
		months = append(months, int32(d.Month()))
		monthDays = append(monthDays, int32(d.Day()))

		if d.Month() == time.March && d.Day() == 1 && !isLeapYear(d.Year()) {
			months = append(months, int32(time.February))
			monthDays = append(monthDays, 29)
		}
	}
	return months, monthDays
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func (r *contactRepository) queryContacts(ctx context.Context, query string, args ...any) ([]*entity.Contact, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query contacts", zap.Error(err))
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]*entity.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			r.log.Error("Failed to scan contact row", zap.Error(err))
			return nil, fmt.Errorf("scan contact row: %w", err)
		}
		contacts = append(contacts, contact)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate contact rows: %w", err)
	}

	return contacts, nil
}

// Update is scoped by owner as well as id.
func (r *contactRepository) Update(ctx context.Context, contact *entity.Contact) error {
	query := `
		UPDATE contacts
		SET first_name = $3, last_name = $4, email = $5, phone = $6,
		    birthday = $7, additional_data = $8, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		contact.ID,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.Notes,
	).Scan(&contact.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update contact %d: %w", contact.ID, ErrNoRowsAffected)
	}
	if err != nil {
		r.log.Error("Failed to update contact",
			zap.Error(err),
			zap.Int64("contact_id", contact.ID),
		)
		return fmt.Errorf("update contact %d: %w", contact.ID, err)
	}

	return nil
}

// DeleteByIDAndUser returns the deleted row, or nil when the owner has no such contact.
func (r *contactRepository) DeleteByIDAndUser(ctx context.Context, id, userID int64) (*entity.Contact, error) {
	query := `DELETE FROM contacts WHERE id = $1 AND user_id = $2 RETURNING ` + contactColumns

	contact, err := scanContact(r.db.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to delete contact",
			zap.Error(err),
			zap.Int64("contact_id", id),
			zap.Int64("user_id", userID),
		)
		return nil, fmt.Errorf("delete contact %d of user %d: %w", id, userID, err)
	}

	return contact, nil
}
