package model

// ErrorStats counts entries that could not be classified during scans.
type ErrorStats struct {
	PermissionErrors uint64 `json:"permission_errors"`
	NotFoundErrors   uint64 `json:"not_found_errors"`
	OtherErrors      uint64 `json:"other_errors"`
}

// Total returns the sum of all counters.
func (s ErrorStats) Total() uint64 {
	return s.PermissionErrors + s.NotFoundErrors + s.OtherErrors
}
