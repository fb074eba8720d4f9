package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDeviceNotApproved indicates the device is not currently authorized
	// to submit to the canonical ledger
	ErrDeviceNotApproved = errors.New("device not approved")

	// ErrDeliveryBlocked indicates the producer already has a delivery for
	// this session and date under a different workflow
	ErrDeliveryBlocked = errors.New("producer already delivered this session")

	// ErrGateBusy indicates a reconciliation pass is already running or the
	// debounce window has not elapsed
	ErrGateBusy = errors.New("sync pass already in progress")

	// ErrOffline indicates the ledger backend is not reachable
	ErrOffline = errors.New("backend offline")

	// ErrInvalidCredentials indicates a wrong clerk id/PIN combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)
