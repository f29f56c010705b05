package schema

import "errors"

// ErrEmptyBody is the cause reported for responses without a body.
var ErrEmptyBody = errors.New("response body is empty")
