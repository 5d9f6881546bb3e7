package domain

import "time"

// RunStatus is the persisted progress of a batch run.
type RunStatus struct {
	BatchLabel  string    `json:"batch_label"`
	Start       int       `json:"start"`
	End         int       `json:"end"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
	CasesTotal  int       `json:"cases_total"`
	CasesDone   int       `json:"cases_done"`
	CasesFailed int       `json:"cases_failed"`
	LastCase    string    `json:"last_case,omitempty"`
	FailedCase  string    `json:"failed_case,omitempty"`
	Error       string    `json:"error,omitempty"`
	TablePath   string    `json:"table_path,omitempty"`
	Host        HostInfo  `json:"host"`
}

// HostInfo is a snapshot of the machine a batch ran on.
type HostInfo struct {
	Hostname    string `json:"hostname,omitempty"`
	Platform    string `json:"platform,omitempty"`
	Arch        string `json:"arch,omitempty"`
	LogicalCPUs int    `json:"logical_cpus,omitempty"`
	TotalMemory uint64 `json:"total_memory,omitempty"`
	AvailMemory uint64 `json:"avail_memory,omitempty"`
}

// Done reports whether the run reached its end, successfully or not.
func (s RunStatus) Done() bool {
	return !s.FinishedAt.IsZero()
}

// MarkCase records a processed case.
func (s *RunStatus) MarkCase(caseID string, ok bool) {
	s.LastCase = caseID
	if ok {
		s.CasesDone++
		return
	}
	s.CasesFailed++
	s.FailedCase = caseID
}
