package recorder

import (
	"time"

	"TokenBank/internal/model"
)

// Snapshot is a periodic summary of the ledger's aggregates and counters.
// Amounts are decimal integer strings in their respective precisions.
type Snapshot struct {
	NetStable       string
	TotalDeposited  string
	CapRemaining    string
	DepositCount    uint64
	WithdrawalCount uint64
	Aggregates      map[model.Asset]string
	At              time.Time
}

// Recorder persists the observable ledger history for analysis.
type Recorder interface {
	RecordEvent(evt *model.Event) error
	RecordSnapshot(snap *Snapshot) error
	Close() error
}
