package dnsx

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailfwd/pkg/metrics"
)

// VerificationLabel is the fixed subdomain the ownership token is published
// under, e.g. _verify.example.com.
const VerificationLabel = "_verify"

// RecordResolver fetches the records the verification engine scores. Every
// lookup degrades to an empty list: for a domain mid-setup, absent records
// are an expected state, not an error.
type RecordResolver struct {
	lookuper Lookuper
	timeout  time.Duration
	logger   *zap.Logger
}

func NewRecordResolver(lookuper Lookuper, timeout time.Duration, logger *zap.Logger) *RecordResolver {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &RecordResolver{
		lookuper: lookuper,
		timeout:  timeout,
		logger:   logger,
	}
}

// ResolveMX returns MX target hostnames with the trailing dot stripped.
func (r *RecordResolver) ResolveMX(ctx context.Context, domain string) []string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	hosts, err := r.lookuper.LookupMX(ctx, domain)
	if err != nil {
		metrics.RecordDNSLookup("mx", "empty", time.Since(start))
		r.logger.Debug("MX lookup returned nothing",
			zap.String("domain", domain),
			zap.Error(err),
		)
		return nil
	}
	metrics.RecordDNSLookup("mx", "ok", time.Since(start))

	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, strings.TrimSuffix(h, "."))
	}
	return out
}

// ResolveTXT returns the root TXT records of the domain.
func (r *RecordResolver) ResolveTXT(ctx context.Context, domain string) []string {
	return r.resolveTXT(ctx, domain, "txt")
}

// ResolveVerificationTXT returns the TXT records published at the
// verification subdomain of the domain.
func (r *RecordResolver) ResolveVerificationTXT(ctx context.Context, domain string) []string {
	return r.resolveTXT(ctx, VerificationLabel+"."+domain, "verification_txt")
}

func (r *RecordResolver) resolveTXT(ctx context.Context, name, recordType string) []string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	records, err := r.lookuper.LookupTXT(ctx, name)
	if err != nil {
		metrics.RecordDNSLookup(recordType, "empty", time.Since(start))
		r.logger.Debug("TXT lookup returned nothing",
			zap.String("name", name),
			zap.Error(err),
		)
		return nil
	}
	metrics.RecordDNSLookup(recordType, "ok", time.Since(start))
	return records
}
