// Package store is the GORM-backed persistence layer for users and groups.
// Handlers depend on small interfaces (see package handlers) that these types
// satisfy, so HTTP code never builds SQL itself and can be tested without a database.
package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested user or group does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique constraint (e.g. users.email) is violated.
	ErrDuplicate = errors.New("store: duplicate")
	// ErrNotOwner is returned when a user tries to change a group they don't own.
	ErrNotOwner = errors.New("store: not the group owner")
)

// translate maps GORM's sentinel errors onto ours. It relies on the connection
// being opened with TranslateError (see database.Connect).
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, gorm.ErrForeignKeyViolated):
		return errors.Join(ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}
