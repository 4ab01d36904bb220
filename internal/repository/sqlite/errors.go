package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/kirinyoku/park-go/internal/repository"
)

func translateDBErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		switch {
		case se.Code == sqlite3.ErrBusy, se.Code == sqlite3.ErrLocked:
			return errors.Join(repository.ErrSerialization, err)
		case se.ExtendedCode == sqlite3.ErrConstraintUnique,
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return errors.Join(repository.ErrConflict, err)
		}
	}

	return err
}

func wrapDBErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, translateDBErr(err))
}
