package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mkline/careshift/internal/model"
)

const magicLinkTTL = 15 * time.Minute

type MagicLinkStore struct {
	db *sql.DB
}

func NewMagicLinkStore(db *sql.DB) *MagicLinkStore {
	return &MagicLinkStore{db: db}
}

func (s *MagicLinkStore) Create(email string) (*model.MagicLink, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(magicLinkTTL)
	result, err := s.db.Exec(
		`INSERT INTO magic_links (token, email, expires_at) VALUES (?, ?, ?)`,
		token, email, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert magic link: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var link model.MagicLink
	err = s.db.QueryRow(
		`SELECT id, token, email, expires_at, used_at, created_at FROM magic_links WHERE id = ?`, id,
	).Scan(&link.ID, &link.Token, &link.Email, &link.ExpiresAt, &link.UsedAt, &link.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get magic link: %w", err)
	}
	return &link, nil
}

// Consume marks a token used and returns it. Returns nil for tokens that are
// unknown, expired, or already used.
func (s *MagicLinkStore) Consume(token string) (*model.MagicLink, error) {
	var link model.MagicLink
	err := s.db.QueryRow(
		`SELECT id, token, email, expires_at, used_at, created_at FROM magic_links WHERE token = ?`, token,
	).Scan(&link.ID, &link.Token, &link.Email, &link.ExpiresAt, &link.UsedAt, &link.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get magic link: %w", err)
	}

	now := time.Now().UTC()
	if link.UsedAt != nil || now.After(link.ExpiresAt) {
		return nil, nil
	}

	if _, err := s.db.Exec(`UPDATE magic_links SET used_at = ? WHERE id = ?`, now, link.ID); err != nil {
		return nil, fmt.Errorf("mark magic link used: %w", err)
	}
	link.UsedAt = &now
	return &link, nil
}

// DeleteExpired removes expired and used links; run periodically.
func (s *MagicLinkStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM magic_links WHERE expires_at < ? OR used_at IS NOT NULL`,
		time.Now().UTC().Add(-time.Hour),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired magic links: %w", err)
	}
	return result.RowsAffected()
}
