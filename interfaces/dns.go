package interfaces

import "context"

type DNSVerifier interface {
	// VerifyTrackingCNAME reports whether hostname's CNAME resolves to this
	// server's canonical hostname. Lookup failures count as not verified.
	VerifyTrackingCNAME(ctx context.Context, hostname string) bool
}
