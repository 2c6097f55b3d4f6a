package resolver

import "fmt"

// QueryError reports a store failure during resolution.
// Error returns the store's message unchanged so it can be shown to the user as is.
type QueryError struct {
	// Stage is the name of the stage whose query failed.
	Stage string
	// Err is the underlying store error.
	Err error
}

func (e *QueryError) Error() string {
	return e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Describe returns the message together with the failing stage, for logs.
func (e *QueryError) Describe() string {
	return fmt.Sprintf("query failed at stage %s: %v", e.Stage, e.Err)
}
