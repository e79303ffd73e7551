package entity

import "errors"

// Domain errors - sentinel errors for business logic validation.
var (
	// ErrReceiverNotFound indicates no contact point exists with the requested name.
	ErrReceiverNotFound = errors.New("receiver not found")

	// ErrDuplicateReceiver indicates two contact points share a name.
	ErrDuplicateReceiver = errors.New("duplicate receiver")

	// ErrEmptyAlertGroup indicates a dispatch was requested without alerts.
	ErrEmptyAlertGroup = errors.New("alert group is empty")
)

// IsNotFound checks if the error indicates a not-found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrReceiverNotFound)
}
