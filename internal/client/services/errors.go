// Package services contains application services for the SanderCoin client:
// account registration and verification, balance fetching and the token
// value watcher.
package services

// OperationError is a failed remote operation. Message is what the user
// should see: the server's text when it sent one, otherwise a fallback.
type OperationError struct {
	Op      string
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Message
}

func (e *OperationError) Unwrap() error { return e.Err }
