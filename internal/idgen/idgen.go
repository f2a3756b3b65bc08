package idgen

import "github.com/google/uuid"

// NewFunc produces identifiers; swap it out in tests that need stable ids.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier as string.
func New() string { return NewFunc() }
