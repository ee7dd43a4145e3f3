package database

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// newMockSqlxDB wraps a sqlmock connection in sqlx for repositories
// that need transactions.
func newMockSqlxDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

// mockDatabase adapts a sqlmock connection to the DB interface for
// repositories that take it.
type mockDatabase struct {
	db *sql.DB
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Get not implemented in mock")
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Select not implemented in mock")
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}
