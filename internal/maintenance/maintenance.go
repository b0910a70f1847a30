// Package maintenance runs scheduled housekeeping jobs.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Pruner deletes scan events older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler prunes the scan event log on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	pruner    Pruner
	retention time.Duration
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewScheduler registers the prune job under spec (standard five-field cron).
func NewScheduler(spec string, retention time.Duration, p Pruner, log logrus.FieldLogger) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(time.Local)),
		pruner:    p,
		retention: retention,
		log:       log.WithField("component", "maintenance"),
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.runPrune); err != nil {
		return nil, fmt.Errorf("schedule prune %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.log.Info("Starting maintenance scheduler")
	s.cron.Start()
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// PruneNow deletes events older than the retention window.
func (s *Scheduler) PruneNow(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.pruner.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"deleted": n, "cutoff": cutoff.Format(time.RFC3339)}).Info("Pruned scan events")
	return n, nil
}

func (s *Scheduler) runPrune() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := s.PruneNow(ctx); err != nil {
		s.log.WithError(err).Error("Scan event prune failed")
	}
}
