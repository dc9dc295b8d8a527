package platform

import "fmt"

// StatusError is a non-2xx response from the platform API.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("platform returned %d for %s: %s", e.Code, e.URL, e.Body)
	}
	return fmt.Sprintf("platform returned %d for %s", e.Code, e.URL)
}

// IsClientError reports whether the failure is a 4xx validation-class
// response. Scope probing treats these as "not this kind" rather than
// a hard failure.
func (e *StatusError) IsClientError() bool {
	return e.Code >= 400 && e.Code < 500
}
