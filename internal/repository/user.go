package repository

import (
	"context"
	"errors"

	"finassist/internal/model"
)

var (
	// ErrNotFound is returned when no user matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when an insert or update would give two
	// users the same email. Implementations rely on a unique index, never on a
	// prior existence check.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines persistence for users. No business logic here.
type UserRepository interface {
	// Create inserts a new user. Email uniqueness is enforced atomically by the store.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByID returns the user with the given ID.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail returns the user with the given email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// ApplyUpdate writes the fields of upd onto the user with the given ID in a
	// single conditional statement and returns the resulting record together
	// with the document key the row held immediately before the write.
	// Columns not carried by upd keep their stored values.
	ApplyUpdate(ctx context.Context, id string, upd model.ProfileUpdate) (updated *model.User, prevDocumentKey *string, err error)

	// Ping checks connectivity with the backing store.
	Ping(ctx context.Context) error
}
