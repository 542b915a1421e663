package store

import (
	"database/sql"
	"errors"

	"github.com/amelia751/cloudly/internal/model"
)

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
