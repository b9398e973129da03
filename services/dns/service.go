package dns

import (
	"context"
	"net"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"

	"github.com/cuttlefish/cuttlefish/interfaces"
	"github.com/cuttlefish/cuttlefish/internal/logger"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
)

type dnsVerifier struct {
	resolver *net.Resolver
	// the hostname customer CNAMEs must point at, with trailing dot
	canonicalHostname string
	lookupTimeout     time.Duration
	log               logger.Logger
}

func NewDNSVerifier(canonicalHostname string, lookupTimeout time.Duration, log logger.Logger) interfaces.DNSVerifier {
	return &dnsVerifier{
		resolver:          net.DefaultResolver,
		canonicalHostname: canonicalHostname,
		lookupTimeout:     lookupTimeout,
		log:               log,
	}
}

// VerifyTrackingCNAME proves the customer has delegated the hostname to
// this server. A lookup that fails or times out is treated the same as a
// CNAME pointing elsewhere; there are no retries.
func (s *dnsVerifier) VerifyTrackingCNAME(ctx context.Context, hostname string) bool {
	span, ctx := opentracing.StartSpanFromContext(ctx, "dnsVerifier.VerifyTrackingCNAME")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("request.hostname", hostname)

	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	cname, err := s.resolver.LookupCNAME(ctx, hostname)
	if err != nil {
		span.LogFields(tracingLog.String("result.lookup_error", err.Error()))
		s.log.Infof("CNAME lookup for %s failed: %v", hostname, err)
		return false
	}

	span.LogFields(
		tracingLog.String("result.cname", cname),
		tracingLog.String("result.expected", s.canonicalHostname),
	)
	return cname == s.canonicalHostname
}
