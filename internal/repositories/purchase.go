package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/albumgate/internal/gate"
	"github.com/desertthunder/albumgate/internal/models"
	"github.com/desertthunder/albumgate/internal/shared"
)

// PurchaseRepository persists purchase records and implements [gate.PurchaseStore].
type PurchaseRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ gate.PurchaseStore = (*PurchaseRepository)(nil)

// NewPurchaseRepository creates a new PurchaseRepository with the given database connection
func NewPurchaseRepository(db *sql.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db, now: time.Now}
}

// Purchased reports whether a non-empty token is stored for albumID
func (r *PurchaseRepository) Purchased(albumID string) (bool, error) {
	var token string
	err := r.db.QueryRow(`SELECT token FROM purchases WHERE purchase_key = ?`, gate.PurchaseKey(albumID)).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query purchase: %w", err)
	}
	return token != "", nil
}

// Record inserts the purchase record for albumID or replaces its token
func (r *PurchaseRepository) Record(albumID, token string) error {
	if albumID == "" {
		return fmt.Errorf("%w: album id is required", shared.ErrInvalidInput)
	}

	now := r.now()
	query := `
		INSERT INTO purchases (purchase_key, album_id, token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(purchase_key) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, gate.PurchaseKey(albumID), albumID, token, now, now); err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	return nil
}

// Clear removes the record for albumID. Clearing a missing record is not an error.
func (r *PurchaseRepository) Clear(albumID string) error {
	if _, err := r.db.Exec(`DELETE FROM purchases WHERE purchase_key = ?`, gate.PurchaseKey(albumID)); err != nil {
		return fmt.Errorf("failed to clear purchase: %w", err)
	}
	return nil
}

// Get retrieves the record for albumID
func (r *PurchaseRepository) Get(albumID string) (*models.Purchase, error) {
	query := `
		SELECT purchase_key, album_id, token, created_at, updated_at
		FROM purchases
		WHERE purchase_key = ?
	`

	p, err := scanPurchase(r.db.QueryRow(query, gate.PurchaseKey(albumID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, albumID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan purchase: %w", err)
	}
	return p, nil
}

// List retrieves every purchase record, oldest first
func (r *PurchaseRepository) List() ([]*models.Purchase, error) {
	query := `
		SELECT purchase_key, album_id, token, created_at, updated_at
		FROM purchases
		ORDER BY created_at ASC, album_id ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return purchases, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row scanner) (*models.Purchase, error) {
	var p models.Purchase
	if err := row.Scan(&p.Key, &p.AlbumID, &p.Token, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
