package validator

import "errors"

// ErrPanic wraps a value recovered from a panic during a run.
var ErrPanic = errors.New("panic during validation")

// ErrUnexpectedModel means the schema layer returned a model of the wrong
// type for an endpoint.
var ErrUnexpectedModel = errors.New("unexpected response model")
