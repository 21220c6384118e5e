// Package repository holds the MySQL access for admin accounts and their
// refresh tokens.  Bookings are not stored here.
package repository

import "errors"

// ErrEmailExists is returned when an admin with the same email already
// exists.  Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenInvalid covers unknown, revoked and expired refresh tokens.
var ErrTokenInvalid = errors.New("refresh token invalid")
