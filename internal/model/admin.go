package model

// AdminContext holds the authenticated admin caller.
// It is injected into the request context by the admin auth middleware.
type AdminContext struct {
	KeyPrefix string
	CacheHit  bool
}
