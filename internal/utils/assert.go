package utils

import "github.com/pkg/errors"

// Assert panics when condition does not hold. Only used for invariants that
// are fixed at construction time; runtime failures are returned as errors.
func Assert(condition bool, message string) {
	if !condition {
		panic(errors.Errorf("[assertion failed] %s", message))
	}
}

type Assertion struct {
	Message   string
	Condition bool
}

// AssertMultiple checks every assertion and panics with the first failure,
// prefixed with the caller's name.
func AssertMultiple(prefix string, assertions []Assertion) {
	for _, a := range assertions {
		if !a.Condition {
			panic(errors.Errorf("[assertion failed] %s: %s", prefix, a.Message))
		}
	}
}
