package meetupcom

import (
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the API key was rejected
var ErrUnauthorized = errors.New("meetup.com API key rejected")

// ErrRateLimited indicates the API rate limit was exceeded
var ErrRateLimited = errors.New("meetup.com API rate limit exceeded")

// ErrTooManyGroups indicates a request carried more group IDs than the API accepts
var ErrTooManyGroups = errors.New("too many group IDs in one request")

// APIError represents any other non-200 response
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("meetup.com API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("meetup.com API returned status %d: %s", e.StatusCode, e.Body)
}
