// Package errors provides common domain error types for the triage engine.
//
// It defines sentinel errors for the failure taxonomy of the dispatch
// pipeline so that callers can use errors.Is() checks instead of string
// matching when deciding whether to drop, retry, or back off.
package errors

import "errors"

// Domain errors - sentinel errors for the pipeline failure taxonomy.
var (
	// ErrDuplicateDelivery indicates the ticket's idempotency lock is
	// already held: an expected consequence of at-least-once delivery,
	// not a failure.
	ErrDuplicateDelivery = errors.New("duplicate delivery")

	// ErrMalformedRecord indicates an unparsable raw queue payload.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrConnectivity indicates a transient queue or lock-store
	// connectivity failure; the intake loop backs off and retries.
	ErrConnectivity = errors.New("connectivity failure")

	// ErrClassification indicates the classifier failed or timed out for
	// a single ticket.
	ErrClassification = errors.New("classification failure")

	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")
)

// IsDuplicateDelivery reports whether any error in err's chain is ErrDuplicateDelivery.
func IsDuplicateDelivery(err error) bool {
	return errors.Is(err, ErrDuplicateDelivery)
}

// IsMalformedRecord reports whether any error in err's chain is ErrMalformedRecord.
func IsMalformedRecord(err error) bool {
	return errors.Is(err, ErrMalformedRecord)
}

// IsConnectivity reports whether any error in err's chain is ErrConnectivity.
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrConnectivity)
}

// IsClassification reports whether any error in err's chain is ErrClassification.
func IsClassification(err error) bool {
	return errors.Is(err, ErrClassification)
}

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
