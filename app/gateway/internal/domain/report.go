package domain

// ReportSummary one archived run in a listing
type ReportSummary struct {
	ID             string `json:"id"`
	ResponseID     string `json:"response_id"`
	Company        string `json:"company"`
	VisitDate      string `json:"visit_date,omitempty"`
	Status         string `json:"status"`
	RecipientCount int    `json:"recipient_count"`
	CreatedAt      string `json:"created_at"`
}

// Recipient one mail address of a run
type Recipient struct {
	Address   string `json:"address"`
	Kind      string `json:"kind"`
	Delivered bool   `json:"delivered"`
}

// ReportDetail full archived run
type ReportDetail struct {
	ReportSummary
	FilePath      string      `json:"file_path"`
	Substitutions int         `json:"substitutions"`
	Images        int         `json:"images"`
	Digest        string      `json:"digest,omitempty"`
	Error         string      `json:"error,omitempty"`
	Recipients    []Recipient `json:"recipients"`
}

// SubmitResult outcome of a submission handled by the gateway
type SubmitResult struct {
	ReportID  string   `json:"report_id,omitempty"`
	FilePath  string   `json:"file_path"`
	Status    string   `json:"status"`
	Leftovers []string `json:"leftovers,omitempty"`
}
