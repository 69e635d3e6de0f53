package scanner

import "time"

// Progress is a point-in-time snapshot of a running walk. Counters only
// grow; the final snapshot of a walk has Done set.
type Progress struct {
	FilesScanned int64
	DirsScanned  int64
	BytesFound   int64
	Errors       int64

	// CurrentPath is the directory most recently entered by any worker.
	CurrentPath string
	Elapsed     time.Duration
	Done        bool
}

// Items is the number of entries visited so far.
func (p Progress) Items() int64 { return p.FilesScanned + p.DirsScanned }

// Rate is the average number of entries visited per second.
func (p Progress) Rate() float64 {
	secs := p.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(p.Items()) / secs
}
