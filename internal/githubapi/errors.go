package githubapi

import (
	"errors"
	"fmt"

	"github.com/google/go-github/v82/github"
)

// ErrNotFound means the repository or resource is missing or inaccessible.
var ErrNotFound = errors.New("github: not found")

// ErrRateLimited means the API quota is exhausted. Distinguished from a
// generic 403 so callers can present an actionable message.
var ErrRateLimited = errors.New("github: rate limit exhausted")

// ErrNoRelease means the repository has no published releases. Not fatal to
// version resolution; callers fall back to the commit SHA.
var ErrNoRelease = errors.New("github: no release")

// ErrVersionUndeterminable means every step of the version fallback chain
// came up empty.
var ErrVersionUndeterminable = errors.New("github: version undeterminable")

// UpstreamError wraps any other remote-source failure (network errors and
// unexpected non-2xx responses alike).
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("github %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// mapError translates go-github failures into the typed taxonomy. A 403 with
// zero remaining quota is rate limiting; a bare 403 is not.
func mapError(op string, resp *github.Response, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return ErrRateLimited
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return ErrRateLimited
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case 404:
			return ErrNotFound
		case 403:
			if resp != nil && resp.Rate.Remaining == 0 {
				return ErrRateLimited
			}
		}
	}

	return &UpstreamError{Op: op, Err: err}
}
