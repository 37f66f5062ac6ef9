package redisx

import "time"

const (
	// Cache of an order's current status: order_status:{order_id}
	KeyOrderStatus = "order_status:%s"

	// Receipt cache written by the notifier: payment_receipt:{order_id}
	KeyPaymentReceipt = "payment_receipt:%s"

	// Dedup of consumed events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Revoked bearer tokens by jti: token_revoked:{jti}
	KeyTokenRevoked = "token_revoked:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLReceipt     = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
