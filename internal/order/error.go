package order

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrUnauthorized  = errors.New("unauthorized")

	// ErrConflict means the persisted status no longer matched the
	// transition's expected source states (another writer won the race).
	ErrConflict = errors.New("order state changed, please refresh")

	// ErrDuplicateSession means an order already exists for the
	// payment session reference (unique constraint on session_id).
	ErrDuplicateSession = errors.New("order already exists for session")

	// -- Constants (External Systems) --
	PgUniqueViolation = "23505"
)
