package verify

import (
	"fmt"

	"mailfwd/internal/dnsx"
	"mailfwd/internal/model"
)

// Readiness states surfaced to the domain owner.
const (
	StatusVerified = "verified"
	StatusPartial  = "partial"
	StatusPending  = "pending"
)

// VerificationStatus is the human-facing readiness summary for a domain.
// NextSteps holds one remediation instruction per failing check, each naming
// the exact value to publish.
type VerificationStatus struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	NextSteps []string `json:"next_steps,omitempty"`
}

// GetVerificationStatus folds a verification result into a tri-state status:
// verified when everything passes, pending when nothing does, partial in
// between.
func (e *Engine) GetVerificationStatus(result model.DomainVerificationResult) VerificationStatus {
	passing := 0
	for _, ok := range []bool{result.MXRecordsValid, result.SPFRecordValid, result.VerificationRecordValid} {
		if ok {
			passing++
		}
	}

	status := VerificationStatus{}
	switch passing {
	case 3:
		status.Status = StatusVerified
		status.Message = fmt.Sprintf("All DNS records for %s are correctly configured.", result.Domain)
		return status
	case 0:
		status.Status = StatusPending
		status.Message = fmt.Sprintf("No DNS records for %s are configured yet.", result.Domain)
	default:
		status.Status = StatusPartial
		status.Message = fmt.Sprintf("Some DNS records for %s are missing or incorrect.", result.Domain)
	}

	if !result.MXRecordsValid {
		status.NextSteps = append(status.NextSteps, fmt.Sprintf(
			"Add MX records for %s pointing to %s.",
			result.Domain, joinHosts(e.expectedMX),
		))
	}
	if !result.SPFRecordValid {
		status.NextSteps = append(status.NextSteps, fmt.Sprintf(
			"Add a TXT record for %s with the value %q.",
			result.Domain, e.SPFRecordValue(),
		))
	}
	if !result.VerificationRecordValid {
		status.NextSteps = append(status.NextSteps, fmt.Sprintf(
			"Add a TXT record for %s.%s with the exact value %q.",
			dnsx.VerificationLabel, result.Domain, result.Details.ExpectedVerificationToken,
		))
	}

	return status
}

// SPFRecordValue is the exact SPF line domain owners must publish.
func (e *Engine) SPFRecordValue() string {
	return fmt.Sprintf("v=spf1 include:%s ~all", e.spfInclude)
}

// ExpectedMXHosts returns the relay MX hostnames owners must publish.
func (e *Engine) ExpectedMXHosts() []string {
	return e.expectedMX
}

func joinHosts(hosts []string) string {
	switch len(hosts) {
	case 0:
		return ""
	case 1:
		return hosts[0]
	}
	out := hosts[0]
	for _, h := range hosts[1 : len(hosts)-1] {
		out += ", " + h
	}
	return out + " and " + hosts[len(hosts)-1]
}
