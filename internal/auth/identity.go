package auth

import "context"

// Identity is the caller identity resolved for one request. It is a closed
// variant: TokenIdentity when resolved from a bearer token, ProfileIdentity
// when resolved through the login path. Consumers type-switch when they need
// more than the subject.
type Identity interface {
	Subject() string
	isIdentity()
}

// TokenIdentity carries only the token subject. It grants no authority
// beyond "authenticated".
type TokenIdentity struct {
	Sub string
}

func (t TokenIdentity) Subject() string { return t.Sub }
func (TokenIdentity) isIdentity()       {}

// ProfileIdentity carries the richer profile resolved by the login path.
type ProfileIdentity struct {
	ID          string
	Email       string
	DisplayName string
	Sub         string
}

func (p ProfileIdentity) Subject() string { return p.Sub }
func (ProfileIdentity) isIdentity()       {}

type identityCtxKey int

const identityKey identityCtxKey = 1

// WithIdentity populates the request's identity slot. The slot is write-once:
// if an identity is already present the context is returned unchanged, so
// neither the login path nor the token path can clobber the other.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if id == nil {
		return ctx
	}
	if _, ok := IdentityFrom(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity established for this request, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
