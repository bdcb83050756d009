package domain

import "errors"

var (
	// ErrPlaceNotFound is returned when the places directory has no match for a query
	ErrPlaceNotFound = errors.New("no matching place in directory")

	// ErrPlacesAPIFailure is returned when a places directory request fails
	ErrPlacesAPIFailure = errors.New("places API request failed")

	// ErrNeighborhoodNotFound is returned when no neighborhood is registered for a postal code
	ErrNeighborhoodNotFound = errors.New("neighborhood not found for postal code")

	// ErrNeighborhoodAPIFailure is returned when a neighborhood lookup request fails
	ErrNeighborhoodAPIFailure = errors.New("neighborhood API request failed")

	// ErrPostalCodeNotFound is returned when no supported address shape yields a postal code
	ErrPostalCodeNotFound = errors.New("could not extract postal code")

	// ErrSubmissionUnavailable is returned when the bulk endpoint is unreachable or does not exist
	ErrSubmissionUnavailable = errors.New("submission endpoint unavailable")

	// ErrSubmissionRejected is returned when the bulk endpoint answers without a success indicator
	ErrSubmissionRejected = errors.New("submission rejected by endpoint")

	// ErrSubmissionContract is returned when the bulk endpoint response cannot be interpreted at all
	ErrSubmissionContract = errors.New("submission response violates contract")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
