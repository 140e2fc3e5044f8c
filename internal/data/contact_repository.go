package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ContactRepository stores contact form submissions.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// SaveMessage inserts a contact message.
func (r *ContactRepository) SaveMessage(ctx context.Context, m *ContactMessage) error {
	m.CreatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx,
		`INSERT INTO contact_messages (first_name, last_name, email, phone, subject, message, ip_address, created_at)
		VALUES (:first_name, :last_name, :email, :phone, :subject, :message, :ip_address, :created_at)`, m)
	if err != nil {
		return fmt.Errorf("failed to save contact message: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read contact message id: %w", err)
	}
	return nil
}
