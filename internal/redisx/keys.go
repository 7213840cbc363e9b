package redisx

import "time"

const (
	// Idempotency create order: idem:order:create:{idempotency_key} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Cached dashboard payloads: dashboard:{view}[:{params}] -> JSON
	KeyDashboard       = "dashboard:%s"
	KeyDashboardPrefix = "dashboard:*"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Set of product ids at or below the low-stock threshold.
	KeyLowStock = "stock:low"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
