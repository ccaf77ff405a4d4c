package auth

import "context"

// Identity holds the authenticated account information extracted from a
// verified token. It is attached by the auth middleware and is the only
// trusted source of "who is making this request"; request bodies never
// assert identity.
type Identity struct {
	UserID int64
	Email  string
}

// identityKey is the key type for storing Identity in context.Context.
type identityKey struct{}

// WithIdentity returns a new context with the Identity attached.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext retrieves the Identity from the context, returning nil if
// the request was not authenticated.
func FromContext(ctx context.Context) *Identity {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	if !ok {
		return nil
	}
	return id
}
