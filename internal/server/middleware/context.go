package middleware

import "context"

type contextKey struct{ name string }

var (
	subjectKey       = contextKey{"subject"}
	walletAddressKey = contextKey{"wallet_address"}
)

// WithIdentity returns a context with the authenticated subject and wallet address set.
// Handlers read these via GetSubject and GetWalletAddress.
func WithIdentity(ctx context.Context, subject, walletAddress string) context.Context {
	ctx = context.WithValue(ctx, subjectKey, subject)
	ctx = context.WithValue(ctx, walletAddressKey, walletAddress)
	return ctx
}

// GetSubject returns the subject from context and true if set; otherwise "", false.
func GetSubject(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey).(string)
	return v, ok
}

// GetWalletAddress returns the wallet address from context and true if set; otherwise "", false.
func GetWalletAddress(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(walletAddressKey).(string)
	return v, ok
}
