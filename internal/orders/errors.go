package orders

import "errors"

// Client-visible failures. Handlers map these to 4xx responses; anything
// else coming out of the service is treated as an internal fault.
var (
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrNotFound              = errors.New("not found")
	ErrInvalidTransition     = errors.New("invalid order status transition")
	ErrOrderNotPayable       = errors.New("order is not payable")
	ErrUnknownItemReference  = errors.New("invalid item id for this order")
	ErrGatewayConfigInvalid  = errors.New("invalid gateway config")
	ErrGatewayHasPayments    = errors.New("gateway cannot be deleted because it has payments")
	ErrOrderHasPayment       = errors.New("orders with payments cannot be deleted")
	ErrGatewayNotImplemented = errors.New("gateway driver not implemented")
	ErrMalformedWebhook      = errors.New("malformed webhook payload")
	ErrPaymentNotFound       = errors.New("payment not found for given gateway_payment_id")
	ErrValidation            = errors.New("validation failed")
)
