package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"TokenBank/internal/bank"
	"TokenBank/internal/model"
	"TokenBank/internal/recorder"
)

// Scheduler runs the periodic ledger snapshot task.
type Scheduler struct {
	Cron     *cron.Cron
	Bank     *bank.Service
	Recorder recorder.Recorder
}

// NewScheduler creates a new Scheduler.
func NewScheduler(svc *bank.Service, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Bank:     svc,
		Recorder: rec,
	}
}

// Register wires the snapshot task onto the given cron spec.
func (s *Scheduler) Register(snapshotCron string) error {
	if _, err := s.Cron.AddFunc(snapshotCron, s.snapshotTask); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Info().Msg("scheduler stopped")
}

// RunSnapshotNow records a snapshot immediately (manual trigger / startup).
func (s *Scheduler) RunSnapshotNow() {
	s.snapshotTask()
}

func (s *Scheduler) snapshotTask() {
	st := s.Bank.Stats()

	snap := &recorder.Snapshot{
		NetStable:       st.NetStable.String(),
		TotalDeposited:  st.TotalDeposited.String(),
		CapRemaining:    st.CapRemaining.String(),
		DepositCount:    st.DepositCount,
		WithdrawalCount: st.WithdrawalCount,
		Aggregates:      make(map[model.Asset]string, len(st.Aggregates)),
		At:              time.Now().UTC(),
	}
	for asset, total := range st.Aggregates {
		snap.Aggregates[asset] = total.String()
	}

	if err := s.Recorder.RecordSnapshot(snap); err != nil {
		log.Err(err).Msg("record snapshot")
		return
	}
	log.Info().Msgf("snapshot recorded: net %s stable units, cap headroom %s, %d deposits / %d withdrawals",
		snap.NetStable, snap.CapRemaining, snap.DepositCount, snap.WithdrawalCount)
}
