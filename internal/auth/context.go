package auth

import "context"

type contextKey string

const callerContextKey contextKey = "caller"

// Caller describes an authenticated request.
type Caller struct {
	// Fingerprint identifies the presented token without revealing it.
	Fingerprint string
}

// ContextWithCaller adds Caller to the context.
func ContextWithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// CallerFromContext retrieves the Caller from the context.
// Returns nil if the request was not authenticated.
func CallerFromContext(ctx context.Context) *Caller {
	caller, ok := ctx.Value(callerContextKey).(*Caller)
	if !ok {
		return nil
	}
	return caller
}

// FingerprintFromContext returns the caller's token fingerprint, or "".
func FingerprintFromContext(ctx context.Context) string {
	if c := CallerFromContext(ctx); c != nil {
		return c.Fingerprint
	}
	return ""
}
