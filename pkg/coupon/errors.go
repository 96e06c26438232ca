package coupon

import "errors"

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid coupon client config")

	// ErrNetworkError is returned when the endpoint could not be reached
	ErrNetworkError = errors.New("network error")

	// ErrInvalidResponse is returned when the body is not a valid coupon answer
	ErrInvalidResponse = errors.New("invalid coupon response")
)
