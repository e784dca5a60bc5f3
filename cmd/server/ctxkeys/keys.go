// Package ctxkeys names the fiber Locals set by the JWT middleware.
package ctxkeys

const (
	UserIDKey    = "userID"
	UserEmailKey = "userEmail"
)
