package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vntravel/booking-backend/internal/models"
)

// VoucherRepository manages discount vouchers. Redemption goes through
// a single conditional UPDATE that re-checks every validity rule at
// write time, so a voucher's usage cap can never be exceeded by
// concurrent redemptions.
type VoucherRepository struct {
	db *sqlx.DB
}

// NewVoucherRepository creates a new VoucherRepository
func NewVoucherRepository(db *sqlx.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

// Create inserts a new voucher. Codes are stored uppercase and must
// be unique.
func (r *VoucherRepository) Create(voucher *models.Voucher) error {
	if voucher.ID == "" {
		voucher.ID = uuid.New().String()
	}
	voucher.Code = models.NormalizeVoucherCode(voucher.Code)

	query := `
		INSERT INTO vouchers (
			id, code, discount_type, value, max_discount,
			expires_at, usage_limit, used_count, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 0, TRUE)
		RETURNING created_at
	`

	err := r.db.QueryRow(query,
		voucher.ID, voucher.Code, voucher.Type, voucher.Value, voucher.MaxDiscount,
		voucher.ExpiresAt, voucher.UsageLimit,
	).Scan(&voucher.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrVoucherCodeTaken
		}
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	voucher.UsedCount = 0
	voucher.IsActive = true
	return nil
}

// GetByCode retrieves a voucher by its normalized code
func (r *VoucherRepository) GetByCode(code string) (*models.Voucher, error) {
	query := `
		SELECT id, code, discount_type, value, max_discount,
			   expires_at, usage_limit, used_count, is_active, created_at
		FROM vouchers
		WHERE code = $1
	`

	voucher := &models.Voucher{}
	err := r.db.Get(voucher, query, models.NormalizeVoucherCode(code))
	if err == sql.ErrNoRows {
		return nil, models.ErrVoucherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch voucher: %w", err)
	}

	return voucher, nil
}

// List retrieves all vouchers, newest first
func (r *VoucherRepository) List() ([]models.Voucher, error) {
	query := `
		SELECT id, code, discount_type, value, max_discount,
			   expires_at, usage_limit, used_count, is_active, created_at
		FROM vouchers
		ORDER BY created_at DESC
	`

	vouchers := []models.Voucher{}
	if err := r.db.Select(&vouchers, query); err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}

	return vouchers, nil
}

// Redeem atomically consumes one use of a voucher. The UPDATE only
// matches while the voucher is active, unexpired and under its usage
// cap, which makes redemption at-most-once under any interleaving.
func (r *VoucherRepository) Redeem(code string, now time.Time) (*models.Voucher, error) {
	return r.redeem(r.db, code, now)
}

// RedeemTx is Redeem inside a caller-owned transaction. On rollback
// the used_count increment is undone with everything else.
func (r *VoucherRepository) RedeemTx(tx *sqlx.Tx, code string, now time.Time) (*models.Voucher, error) {
	return r.redeem(tx, code, now)
}

func (r *VoucherRepository) redeem(ext sqlx.Ext, code string, now time.Time) (*models.Voucher, error) {
	normalized := models.NormalizeVoucherCode(code)

	query := `
		UPDATE vouchers
		SET used_count = used_count + 1
		WHERE code = $1
		  AND is_active = TRUE
		  AND (expires_at IS NULL OR expires_at >= $2)
		  AND (usage_limit IS NULL OR used_count < usage_limit)
		RETURNING id, code, discount_type, value, max_discount,
				  expires_at, usage_limit, used_count, is_active, created_at
	`

	voucher := &models.Voucher{}
	err := ext.QueryRowx(query, normalized, now).StructScan(voucher)
	if err == nil {
		return voucher, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to redeem voucher: %w", err)
	}

	// Nothing matched. Re-read the row to report why, in the fixed
	// order: missing, inactive, expired, exhausted.
	current := &models.Voucher{}
	err = sqlx.Get(ext, current, `
		SELECT id, code, discount_type, value, max_discount,
			   expires_at, usage_limit, used_count, is_active, created_at
		FROM vouchers
		WHERE code = $1
	`, normalized)
	if err == sql.ErrNoRows {
		return nil, models.ErrVoucherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check voucher: %w", err)
	}
	if verr := current.Validity(now); verr != nil {
		return nil, verr
	}

	// The row became redeemable between the two statements. Treat it
	// as a transient conflict so the caller's retry loop runs again.
	return nil, models.ErrConflict
}

// SetActive toggles a voucher on or off. Deactivation does not touch
// used_count.
func (r *VoucherRepository) SetActive(voucherID string, active bool) error {
	result, err := r.db.Exec(`UPDATE vouchers SET is_active = $2 WHERE id = $1`, voucherID, active)
	if err != nil {
		return fmt.Errorf("failed to update voucher: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrVoucherNotFound
	}

	return nil
}

// Delete removes a voucher. Bookings keep their stored voucher code.
func (r *VoucherRepository) Delete(voucherID string) error {
	result, err := r.db.Exec(`DELETE FROM vouchers WHERE id = $1`, voucherID)
	if err != nil {
		return fmt.Errorf("failed to delete voucher: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrVoucherNotFound
	}

	return nil
}
