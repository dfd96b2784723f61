package persistence

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vendora/vendora/domain/entity"
	"github.com/vendora/vendora/infrastructure/service/logger"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, dialect, err := Open(ctx, DBConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "vendora.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = NewMigrator(db, dialect, logger.NewNopLogger()).Up(ctx)
	require.NoError(t, err)
	return db
}

func newProduct(id, ssn string) *entity.Product {
	actor := "admin-1"
	p := entity.NewProduct(id, "Product "+id, "Description "+id, 10, 0, ssn, &actor)
	p.CreatedOn = p.CreatedOn.Truncate(time.Microsecond)
	p.UpdatedOn = p.CreatedOn
	return p
}
