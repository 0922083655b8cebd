package domain

import (
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserAlreadyExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")

type User struct {
	ID           string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries the mutable profile fields; nil means "leave unchanged".
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	PasswordHash *string
}
