package model

// VerificationDetails carries the raw records seen during a verification run
// so remediation messages can show the owner what DNS actually returned.
type VerificationDetails struct {
	MXRecords                 []string `json:"mx_records"`
	TXTRecords                []string `json:"txt_records"`
	ExpectedVerificationToken string   `json:"expected_verification_token"`
	FoundVerificationToken    bool     `json:"found_verification_token"`
}

// DomainVerificationResult is computed per request and never persisted.
// AllRecordsValid is always the conjunction of the three record checks.
type DomainVerificationResult struct {
	Domain                  string              `json:"domain"`
	MXRecordsValid          bool                `json:"mx_records_valid"`
	SPFRecordValid          bool                `json:"spf_record_valid"`
	VerificationRecordValid bool                `json:"verification_record_valid"`
	AllRecordsValid         bool                `json:"all_records_valid"`
	Details                 VerificationDetails `json:"details"`
}
