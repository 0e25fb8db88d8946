package checkout

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrCartEmpty           = errors.New("cart is empty")
	ErrInvalidQuantity     = errors.New("item quantity must be at least 1")
	ErrBelowMinimum        = errors.New("order total is below the minimum order amount")
	ErrPickupTimeRequired  = errors.New("pickup time is required")
	ErrPickupOutsideHours  = errors.New("pickup time is outside canteen hours")
	ErrPaymentNotCompleted = errors.New("payment has not been completed")
	ErrDraftNotFound       = errors.New("checkout draft not found")

	// ErrReconciliationGap means payment settled but the order row could
	// not be written. The caller must show a support-contact message and
	// never retry blindly.
	ErrReconciliationGap = errors.New("payment succeeded but order could not be recorded, please contact the canteen")
)
