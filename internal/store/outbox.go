package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fentz26/ordertasks/internal/models"
)

// --- Mail Outbox Operations ---

// EnqueueMail stores an outbound message for a mail relay to pick up.
func (s *Store) EnqueueMail(ctx context.Context, to, subject, body string) (*models.MailMessage, error) {
	msg := &models.MailMessage{
		ID:        uuid.New().String(),
		To:        to,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mail_outbox (id, recipient, subject, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.To, msg.Subject, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert mail: %w", err)
	}
	return msg, nil
}

// ListMail returns queued messages, oldest first.
func (s *Store) ListMail(ctx context.Context) ([]models.MailMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recipient, subject, body, created_at FROM mail_outbox ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query mail: %w", err)
	}
	defer rows.Close()

	var out []models.MailMessage
	for rows.Next() {
		var m models.MailMessage
		if err := rows.Scan(&m.ID, &m.To, &m.Subject, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mail: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- PDR Operations ---

// WritePDR writes a Process Decision Record.
func (s *Store) WritePDR(ctx context.Context, action, inputsHash, outcome string, orderID int64, details string) (*models.PDREntry, error) {
	pdr := &models.PDREntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		OrderID:    orderID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pdr (id, action, inputs_hash, outcome, order_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pdr.ID, pdr.Action, pdr.InputsHash, pdr.Outcome, pdr.OrderID, pdr.Details, pdr.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert pdr: %w", err)
	}
	return pdr, nil
}

// ListPDR returns the records of one order, oldest first.
func (s *Store) ListPDR(ctx context.Context, orderID int64) ([]models.PDREntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, inputs_hash, outcome, order_id, details, timestamp FROM pdr WHERE order_id = ? ORDER BY timestamp, rowid`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query pdr: %w", err)
	}
	defer rows.Close()

	var out []models.PDREntry
	for rows.Next() {
		var (
			e       models.PDREntry
			details sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &e.OrderID, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan pdr: %w", err)
		}
		e.Details = details.String
		out = append(out, e)
	}
	return out, rows.Err()
}
