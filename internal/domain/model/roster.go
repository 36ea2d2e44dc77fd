//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// RosterEntry is one supporter in the ranked roster.
type RosterEntry struct {
	AccountID   int64  `json:"account_id"`
	DisplayName string `json:"display_name"`
	Tier        int    `json:"tier"`
}

// RosterPage is one page returned by the roster source.
// TotalPages and TotalCount are meaningful on page 1.
type RosterPage struct {
	Number     int           `json:"number"`
	Top        []RosterEntry `json:"top,omitempty"`
	Entries    []RosterEntry `json:"entries"`
	TotalPages int           `json:"total_pages"`
	TotalCount int           `json:"total_count"`
}

// RosterSnapshot is the result of one successful ingestion cycle.
type RosterSnapshot struct {
	CycleID    string        `json:"cycle_id"`
	FetchedAt  time.Time     `json:"fetched_at"`
	TotalPages int           `json:"total_pages"`
	TotalCount int           `json:"total_count"`
	LostPages  []int         `json:"lost_pages,omitempty"`
	Entries    []RosterEntry `json:"entries"`
}

// SuccessRatio is collected entries over the reported roster size.
// An empty upstream roster counts as fully collected.
func (s *RosterSnapshot) SuccessRatio() float64 {
	if s == nil {
		return 0
	}
	if s.TotalCount <= 0 {
		return 1
	}
	return float64(len(s.Entries)) / float64(s.TotalCount)
}

// Index returns entries keyed by account id.
func (s *RosterSnapshot) Index() map[int64]RosterEntry {
	if s == nil {
		return map[int64]RosterEntry{}
	}
	idx := make(map[int64]RosterEntry, len(s.Entries))
	for _, e := range s.Entries {
		idx[e.AccountID] = e
	}
	return idx
}

// SnapshotSummary is the snapshot metadata without entries.
type SnapshotSummary struct {
	CycleID      string    `json:"cycle_id"`
	FetchedAt    time.Time `json:"fetched_at"`
	TotalPages   int       `json:"total_pages"`
	TotalCount   int       `json:"total_count"`
	Collected    int       `json:"collected"`
	LostPages    []int     `json:"lost_pages,omitempty"`
	SuccessRatio float64   `json:"success_ratio"`
}

// Summary returns snapshot metadata.
func (s *RosterSnapshot) Summary() SnapshotSummary {
	return SnapshotSummary{
		CycleID:      s.CycleID,
		FetchedAt:    s.FetchedAt,
		TotalPages:   s.TotalPages,
		TotalCount:   s.TotalCount,
		Collected:    len(s.Entries),
		LostPages:    s.LostPages,
		SuccessRatio: s.SuccessRatio(),
	}
}

// ReconcileSummary counts what one reconciliation pass did.
type ReconcileSummary struct {
	Examined int `json:"examined"`
	Changed  int `json:"changed"`
	Granted  int `json:"granted"`
	Revoked  int `json:"revoked"`
	Failures int `json:"failures"`
}

// RosterCycleReport is the outcome of one ingestion plus reconciliation run.
type RosterCycleReport struct {
	Snapshot  SnapshotSummary  `json:"snapshot"`
	Reconcile ReconcileSummary `json:"reconcile"`
	Elapsed   time.Duration    `json:"elapsed"`
}
