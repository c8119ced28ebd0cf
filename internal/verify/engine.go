package verify

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"mailfwd/internal/dnsx"
	"mailfwd/internal/model"
)

// Engine scores a domain's live DNS against the records the relay needs:
// both relay MX hosts present, an SPF record including the relay, and the
// ownership token published under the verification subdomain.
type Engine struct {
	resolver   *dnsx.RecordResolver
	expectedMX []string
	spfInclude string
	logger     *zap.Logger
}

func NewEngine(resolver *dnsx.RecordResolver, expectedMX []string, spfInclude string, logger *zap.Logger) *Engine {
	return &Engine{
		resolver:   resolver,
		expectedMX: expectedMX,
		spfInclude: spfInclude,
		logger:     logger,
	}
}

// VerifyDomainRecords resolves MX, root TXT and verification TXT concurrently
// and scores them. It never fails: unresolvable records score as absent.
func (e *Engine) VerifyDomainRecords(ctx context.Context, domain, token string) model.DomainVerificationResult {
	domain = strings.ToLower(strings.TrimSpace(domain))

	var (
		mxRecords  []string
		txtRecords []string
		verifyTXT  []string
		wg         sync.WaitGroup
	)

	// The three lookups are independent; join before scoring.
	wg.Add(3)
	go func() {
		defer wg.Done()
		mxRecords = e.resolver.ResolveMX(ctx, domain)
	}()
	go func() {
		defer wg.Done()
		txtRecords = e.resolver.ResolveTXT(ctx, domain)
	}()
	go func() {
		defer wg.Done()
		verifyTXT = e.resolver.ResolveVerificationTXT(ctx, domain)
	}()
	wg.Wait()

	result := model.DomainVerificationResult{
		Domain:                  domain,
		MXRecordsValid:          e.checkMX(mxRecords),
		SPFRecordValid:          e.checkSPF(txtRecords),
		VerificationRecordValid: checkVerificationToken(verifyTXT, token),
		Details: model.VerificationDetails{
			MXRecords:                 mxRecords,
			TXTRecords:                txtRecords,
			ExpectedVerificationToken: token,
		},
	}
	result.AllRecordsValid = result.MXRecordsValid && result.SPFRecordValid && result.VerificationRecordValid
	result.Details.FoundVerificationToken = result.VerificationRecordValid

	e.logger.Debug("Domain records verified",
		zap.String("domain", domain),
		zap.Bool("mx_valid", result.MXRecordsValid),
		zap.Bool("spf_valid", result.SPFRecordValid),
		zap.Bool("verification_valid", result.VerificationRecordValid),
	)

	return result
}

// checkMX requires every expected relay host to be present. Extra MX records
// are tolerated; comparison ignores case and trailing dots.
func (e *Engine) checkMX(records []string) bool {
	if len(records) == 0 {
		return false
	}

	found := make(map[string]bool, len(records))
	for _, r := range records {
		found[normalizeHost(r)] = true
	}

	for _, want := range e.expectedMX {
		if !found[normalizeHost(want)] {
			return false
		}
	}
	return true
}

// checkSPF passes when one single TXT record carries both the SPF marker and
// the relay include domain. Marker and include split across records fail.
func (e *Engine) checkSPF(records []string) bool {
	for _, r := range records {
		if strings.Contains(r, "v=spf1") && strings.Contains(r, e.spfInclude) {
			return true
		}
	}
	return false
}

// checkVerificationToken requires an exact byte-for-byte match.
func checkVerificationToken(records []string, token string) bool {
	for _, r := range records {
		if r == token {
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

// IsDomainReady reports whether every record check passes. DNS trouble of any
// kind reads as not ready, never as an error.
func (e *Engine) IsDomainReady(ctx context.Context, domain, token string) bool {
	return e.VerifyDomainRecords(ctx, domain, token).AllRecordsValid
}
