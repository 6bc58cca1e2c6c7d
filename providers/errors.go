package providers

import "errors"

var (
	// ErrAuthTokenIsRequired is returned if you are trying to initialize
	// a provider which requires some token to work.
	ErrAuthTokenIsRequired = errors.New("auth token is required")

	// ErrDatabasePathIsRequired is returned if offline provider has no
	// path to its database file.
	ErrDatabasePathIsRequired = errors.New("database path is required")

	// ErrIncorrectIP is returned if a provider was asked to fetch data
	// for something which is not an IP address.
	ErrIncorrectIP = errors.New("incorrect ip address")
)
