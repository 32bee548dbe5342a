package domain

import "errors"

// ErrEmptyCompletion reports an upstream reply that carried no choices.
var ErrEmptyCompletion = errors.New("upstream returned no choices")
