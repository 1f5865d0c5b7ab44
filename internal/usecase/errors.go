package usecase

import (
	"github.com/go-faster/errors"
)

// Kind classifies a failure so the transport layer can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindExpired
	KindPreconditionFailed
	KindExternalService
	KindInvalidTransition
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindExpired:
		return "expired"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindExternalService:
		return "external_service_error"
	case KindInvalidTransition:
		return "invalid_transition"
	default:
		return "internal"
	}
}

// Error is returned by every usecase. Code is stable for clients, Message is
// for humans, and Err (never serialised) keeps the internal cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors with the same kind and code, so wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func NewError(kind Kind, code string, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func AsError(err error) (*Error, bool) {
	var ue *Error
	ok := errors.As(err, &ue)
	return ue, ok
}

// internalError hides the cause behind a generic message.
func internalError(err error, op string) error {
	return &Error{Kind: KindInternal, Code: "internal", Message: "internal error", Err: errors.Wrap(err, op)}
}

func invalidInput(message string) error {
	return NewError(KindInvalidInput, "invalid_input", message)
}

var (
	ErrUnauthorized = NewError(KindUnauthorized, "unauthorized", "unauthorized")
	ErrForbidden    = NewError(KindForbidden, "forbidden", "forbidden")
	ErrAdminOnly    = NewError(KindForbidden, "admin_only", "admin only")
	ErrUserOnly     = NewError(KindForbidden, "user_only", "this action is only available to customers")

	ErrProductNotFound  = NewError(KindNotFound, "product_not_found", "product not found")
	ErrCartItemNotFound = NewError(KindNotFound, "cart_item_not_found", "item is not in the cart")
	ErrOrderNotFound    = NewError(KindNotFound, "order_not_found", "order not found")
	ErrCouponNotFound   = NewError(KindNotFound, "coupon_not_found", "invalid coupon code")
	ErrWalletNotFound   = NewError(KindNotFound, "wallet_not_found", "wallet not found")

	ErrInsufficientStock  = NewError(KindConflict, "insufficient_stock", "requested quantity exceeds available stock")
	ErrCouponAlreadyUsed  = NewError(KindConflict, "coupon_already_used", "coupon already used")
	ErrCheckoutInProgress = NewError(KindConflict, "checkout_in_progress", "another checkout is in progress")
	ErrEmailTaken         = NewError(KindConflict, "email_taken", "email already registered")
	ErrDuplicateCoupon    = NewError(KindConflict, "duplicate_coupon", "coupon code already exists")
	ErrOrderChanged       = NewError(KindConflict, "order_changed", "order was updated concurrently")
	ErrCartChanged        = NewError(KindConflict, "cart_changed", "cart was checked out by another request")

	ErrCouponExpired       = NewError(KindExpired, "coupon_expired", "coupon expired")
	ErrCouponNotApplicable = NewError(KindPreconditionFailed, "coupon_not_applicable", "coupon does not apply to any item in the cart")

	ErrCartEmpty           = NewError(KindPreconditionFailed, "cart_empty", "cart is empty")
	ErrShippingInfoMissing = NewError(KindPreconditionFailed, "shipping_info_missing", "shipping address not found")
	ErrMinimumOrderNotMet  = NewError(KindPreconditionFailed, "minimum_order_not_met", "order amount must be at least 100")

	ErrPaymentGateway     = NewError(KindExternalService, "payment_gateway_error", "payment provider unavailable")
	ErrInvalidTransition  = NewError(KindInvalidTransition, "invalid_transition", "order status can only move forward")
	ErrInvalidCredentials = NewError(KindUnauthorized, "invalid_credentials", "invalid email or password")
)
