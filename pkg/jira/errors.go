package jira

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("authentication failed, check JIRA_EMAIL and JIRA_API_TOKEN")
	ErrForbidden    = errors.New("access denied, the account lacks permission for this resource")
	ErrRateLimited  = errors.New("rate limited, retries exhausted")
)

// APIError is returned for any response the client cannot use.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("GET %s returned status %d", e.URL, e.StatusCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += "\n" + e.Body
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort a whole run rather than a single
// sub-resource fetch.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrRateLimited)
}
