package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vntravel/booking-backend/internal/models"
)

var voucherColumns = []string{
	"id", "code", "discount_type", "value", "max_discount",
	"expires_at", "usage_limit", "used_count", "is_active", "created_at",
}

func TestRedeemVoucher(t *testing.T) {
	db, mock := newMockSqlxDB(t)
	repo := NewVoucherRepository(db)
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		voucherID := uuid.New().String()

		mock.ExpectQuery(`UPDATE vouchers`).
			WithArgs("SUMMER2024", now).
			WillReturnRows(sqlmock.NewRows(voucherColumns).AddRow(
				voucherID, "SUMMER2024", "PERCENT", 15.0, 300000.0,
				nil, 100, 43, true, now,
			))

		voucher, err := repo.Redeem("summer2024", now)
		require.NoError(t, err)
		assert.Equal(t, "SUMMER2024", voucher.Code)
		assert.Equal(t, 43, voucher.UsedCount)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE vouchers`).
			WithArgs("MISSING", now).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT (.+) FROM vouchers`).
			WithArgs("MISSING").
			WillReturnError(sql.ErrNoRows)

		voucher, err := repo.Redeem("missing", now)
		assert.ErrorIs(t, err, models.ErrVoucherNotFound)
		assert.Nil(t, voucher)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Inactive", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE vouchers`).
			WithArgs("PAUSED", now).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT (.+) FROM vouchers`).
			WithArgs("PAUSED").
			WillReturnRows(sqlmock.NewRows(voucherColumns).AddRow(
				uuid.New().String(), "PAUSED", "FIXED", 50000.0, nil,
				nil, nil, 0, false, now,
			))

		_, err := repo.Redeem("PAUSED", now)
		assert.ErrorIs(t, err, models.ErrVoucherInactive)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Expired", func(t *testing.T) {
		expired := now.Add(-24 * time.Hour)

		mock.ExpectQuery(`UPDATE vouchers`).
			WithArgs("OLD", now).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT (.+) FROM vouchers`).
			WithArgs("OLD").
			WillReturnRows(sqlmock.NewRows(voucherColumns).AddRow(
				uuid.New().String(), "OLD", "FIXED", 50000.0, nil,
				expired, nil, 0, true, now,
			))

		_, err := repo.Redeem("OLD", now)
		assert.ErrorIs(t, err, models.ErrVoucherExpired)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Exhausted", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE vouchers`).
			WithArgs("FULL", now).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT (.+) FROM vouchers`).
			WithArgs("FULL").
			WillReturnRows(sqlmock.NewRows(voucherColumns).AddRow(
				uuid.New().String(), "FULL", "PERCENT", 10.0, nil,
				nil, 100, 100, true, now,
			))

		_, err := repo.Redeem("FULL", now)
		assert.ErrorIs(t, err, models.ErrVoucherExhausted)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Race Becomes Conflict", func(t *testing.T) {
		// The voucher was redeemable again by the time the
		// diagnostic read ran. The caller should retry.
		mock.ExpectQuery(`UPDATE vouchers`).
			WithArgs("RACY", now).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT (.+) FROM vouchers`).
			WithArgs("RACY").
			WillReturnRows(sqlmock.NewRows(voucherColumns).AddRow(
				uuid.New().String(), "RACY", "PERCENT", 10.0, nil,
				nil, 100, 50, true, now,
			))

		_, err := repo.Redeem("RACY", now)
		assert.ErrorIs(t, err, models.ErrConflict)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateVoucher(t *testing.T) {
	db, mock := newMockSqlxDB(t)
	repo := NewVoucherRepository(db)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		voucher := &models.Voucher{
			Code:  "welcome50k",
			Type:  models.DiscountFixed,
			Value: 50000,
		}

		mock.ExpectQuery(`INSERT INTO vouchers`).
			WithArgs(sqlmock.AnyArg(), "WELCOME50K", models.DiscountFixed, 50000.0,
				nil, nil, nil).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

		err := repo.Create(voucher)
		require.NoError(t, err)
		assert.Equal(t, "WELCOME50K", voucher.Code)
		assert.True(t, voucher.IsActive)
		assert.Zero(t, voucher.UsedCount)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Code", func(t *testing.T) {
		voucher := &models.Voucher{
			Code:  "WELCOME50K",
			Type:  models.DiscountFixed,
			Value: 50000,
		}

		mock.ExpectQuery(`INSERT INTO vouchers`).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(voucher)
		assert.ErrorIs(t, err, models.ErrVoucherCodeTaken)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetVoucherByCode(t *testing.T) {
	db, mock := newMockSqlxDB(t)
	repo := NewVoucherRepository(db)

	t.Run("Normalizes Code", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM vouchers`).
			WithArgs("SUMMER2024").
			WillReturnRows(sqlmock.NewRows(voucherColumns).AddRow(
				uuid.New().String(), "SUMMER2024", "PERCENT", 15.0, 300000.0,
				nil, 100, 10, true, now,
			))

		voucher, err := repo.GetByCode("  summer2024 ")
		require.NoError(t, err)
		assert.Equal(t, "SUMMER2024", voucher.Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM vouchers`).
			WithArgs("MISSING").
			WillReturnError(sql.ErrNoRows)

		voucher, err := repo.GetByCode("missing")
		assert.ErrorIs(t, err, models.ErrVoucherNotFound)
		assert.Nil(t, voucher)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
