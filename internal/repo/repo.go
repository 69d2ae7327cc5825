package repo

import (
	"database/sql"

	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
)

const (
	StateNormal  = 1
	StateDeleted = 2
)

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func normalizePage(limit, offset int, def, max int) (uint, uint) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return uint(limit), uint(offset)
}
