package services

import "errors"

var (
	// ErrMessageNotFound indicates no message has the requested id
	ErrMessageNotFound = errors.New("message not found")

	// ErrConversationNotFound indicates a phone has no messages to delete
	ErrConversationNotFound = errors.New("no messages found for this phone")

	// ErrContactNotFound indicates a phone has no directory override
	ErrContactNotFound = errors.New("contact not found")

	// ErrInvalidDirection indicates a direction outside the accepted vocabulary
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrPhoneRequired indicates a missing or blank phone
	ErrPhoneRequired = errors.New("phone is required")

	// ErrBodyRequired indicates a missing or blank message body
	ErrBodyRequired = errors.New("message is required")

	// ErrInvalidDeliveryStatus indicates a status outside sent/queued/delivered/read/failed
	ErrInvalidDeliveryStatus = errors.New("invalid delivery status")

	// ErrMalformedStatusEvent indicates a delivery callback without the expected nesting
	ErrMalformedStatusEvent = errors.New("malformed delivery status event")
)
