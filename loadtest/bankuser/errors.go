package bankuser

import "errors"

var (
	// ErrCouldNotRegister is returned when authentication failed and the fallback registration failed too.
	ErrCouldNotRegister = errors.New("could not register")

	// ErrCouldNotAuthenticate is returned when authentication failed right after a successful registration.
	ErrCouldNotAuthenticate = errors.New("could not authenticate")

	// ErrCouldNotListServices is returned when the owned accounts cannot be listed during bootstrap.
	ErrCouldNotListServices = errors.New("could not list services")

	// ErrCouldNotCreateService is returned when the first account of a user cannot be opened.
	ErrCouldNotCreateService = errors.New("could not create service")

	// ErrNotBootstrapped is returned when a transfer is attempted before a successful Bootstrap.
	ErrNotBootstrapped = errors.New("session is not bootstrapped")

	// ErrNilDependency is returned when NewUser is called without a store, an api or a random source.
	ErrNilDependency = errors.New("store, api and rng must not be nil")

	// ErrInvalidBalanceRange is returned when the initial balance range is empty or not positive.
	ErrInvalidBalanceRange = errors.New("invalid initial balance range")
)
