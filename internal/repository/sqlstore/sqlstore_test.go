package sqlstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), SQLite, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
