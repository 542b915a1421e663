package sqlite

import (
	"context"
	"strings"

	"github.com/amelia751/cloudly/internal/store/sqlstore"
)

type dialect struct{}

func (dialect) Name() string               { return "sqlite" }
func (dialect) NumberedPlaceholders() bool { return false }

func (dialect) IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// New opens the database at path, applies the schema and returns a store.
func New(ctx context.Context, path string) (*sqlstore.SQLStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sqlstore.New(db, dialect{}), nil
}
