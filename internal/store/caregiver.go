package store

import (
	"database/sql"
	"fmt"

	"github.com/mkline/careshift/internal/model"
)

type CaregiverStore struct {
	db *sql.DB
}

func NewCaregiverStore(db *sql.DB) *CaregiverStore {
	return &CaregiverStore{db: db}
}

func scanCaregiver(scanner interface{ Scan(...any) error }) (*model.Caregiver, error) {
	var c model.Caregiver
	err := scanner.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.IsPaid, &c.PayRateCents,
		&c.HasPIN, &c.SortOrder, &c.Archived, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const caregiverCols = `id, name, phone, email, is_paid, pay_rate_cents, pin IS NOT NULL, sort_order, archived, created_at, updated_at`

func (s *CaregiverStore) Create(name, phone, email string, isPaid bool, payRateCents int64) (*model.Caregiver, error) {
	var maxOrder int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(sort_order), -1) FROM caregivers`).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO caregivers (name, phone, email, is_paid, pay_rate_cents, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
		name, phone, email, isPaid, payRateCents, maxOrder+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert caregiver: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// List returns active caregivers in roster order. Roster order is the stable
// last tie-break of the schedule builder, so it must be deterministic.
func (s *CaregiverStore) List() ([]model.Caregiver, error) {
	return s.list(`SELECT ` + caregiverCols + ` FROM caregivers WHERE archived = 0 ORDER BY sort_order, id`)
}

// ListAll returns every caregiver including archived ones.
func (s *CaregiverStore) ListAll() ([]model.Caregiver, error) {
	return s.list(`SELECT ` + caregiverCols + ` FROM caregivers ORDER BY sort_order, id`)
}

func (s *CaregiverStore) list(query string) ([]model.Caregiver, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query caregivers: %w", err)
	}
	defer rows.Close()

	var caregivers []model.Caregiver
	for rows.Next() {
		c, err := scanCaregiver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan caregiver: %w", err)
		}
		caregivers = append(caregivers, *c)
	}
	return caregivers, rows.Err()
}

func (s *CaregiverStore) GetByID(id int64) (*model.Caregiver, error) {
	row := s.db.QueryRow(`SELECT `+caregiverCols+` FROM caregivers WHERE id = ?`, id)
	c, err := scanCaregiver(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get caregiver: %w", err)
	}
	return c, nil
}

func (s *CaregiverStore) Update(id int64, name, phone, email string, isPaid bool, payRateCents int64) (*model.Caregiver, error) {
	_, err := s.db.Exec(
		`UPDATE caregivers SET name = ?, phone = ?, email = ?, is_paid = ?, pay_rate_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, phone, email, isPaid, payRateCents, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update caregiver: %w", err)
	}
	return s.GetByID(id)
}

// SetArchived hides a caregiver from the active roster without deleting their
// assignment history.
func (s *CaregiverStore) SetArchived(id int64, archived bool) error {
	_, err := s.db.Exec(
		`UPDATE caregivers SET archived = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		archived, id,
	)
	if err != nil {
		return fmt.Errorf("set archived: %w", err)
	}
	return nil
}

func (s *CaregiverStore) UpdateSortOrder(ids []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE caregivers SET sort_order = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.Exec(i, id); err != nil {
			return fmt.Errorf("update sort order for id %d: %w", id, err)
		}
	}

	return tx.Commit()
}

func (s *CaregiverStore) SetPIN(id int64, hashedPIN string) error {
	_, err := s.db.Exec(`UPDATE caregivers SET pin = ? WHERE id = ?`, hashedPIN, id)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *CaregiverStore) ClearPIN(id int64) error {
	_, err := s.db.Exec(`UPDATE caregivers SET pin = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

func (s *CaregiverStore) GetPINHash(id int64) (string, error) {
	var pin sql.NullString
	err := s.db.QueryRow(`SELECT pin FROM caregivers WHERE id = ?`, id).Scan(&pin)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("caregiver not found")
	}
	if err != nil {
		return "", fmt.Errorf("query pin: %w", err)
	}
	if !pin.Valid {
		return "", nil
	}
	return pin.String, nil
}

func (s *CaregiverStore) NameExists(name string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM caregivers WHERE name = ? AND id != ?`,
		name, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check name exists: %w", err)
	}
	return count > 0, nil
}
