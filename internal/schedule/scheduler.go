// Package schedule sends robot notifications at a fixed time or on a cron
// expression.
package schedule

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// TriggerFunc delivers a schedule when it fires.
type TriggerFunc func(ctx context.Context, s *Schedule) error

// Scheduler runs the enabled schedules of a Store.
type Scheduler struct {
	store   *Store
	trigger TriggerFunc

	mu     sync.Mutex
	ctx    context.Context
	cron   *cron.Cron    // TypePeriodic
	timers []*time.Timer // TypeOnce
}

// New creates a Scheduler that calls trigger whenever a schedule fires.
func New(store *Store, trigger TriggerFunc) *Scheduler {
	return &Scheduler{store: store, trigger: trigger}
}

// Start registers the stored schedules. Triggers receive ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("schedule: scheduler already started")
	}

	s.ctx = ctx
	s.cron = cron.New()
	if err := s.loadLocked(); err != nil {
		s.cron = nil
		return err
	}
	s.cron.Start()
	log.Printf("[scheduler] started")
	return nil
}

// Stop cancels pending timers and waits for running cron jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	log.Printf("[scheduler] stopped")
}

// Reload re-reads the store and re-registers every schedule.
func (s *Scheduler) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return errors.New("schedule: scheduler not started")
	}

	s.stopLocked()
	s.cron = cron.New()
	if err := s.loadLocked(); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[scheduler] reloaded")
	return nil
}

// Entries reports how many timers and cron jobs are registered.
func (s *Scheduler) Entries() (once, periodic int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		periodic = len(s.cron.Entries())
	}
	return len(s.timers), periodic
}

// stopLocked must be called with s.mu held.
func (s *Scheduler) stopLocked() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
}

// loadLocked must be called with s.mu held.
func (s *Scheduler) loadLocked() error {
	schedules, err := s.store.List()
	if err != nil {
		return err
	}

	now := time.Now()
	for _, sc := range schedules {
		if !sc.Enabled {
			continue
		}
		switch sc.Type {
		case TypeOnce:
			s.registerOnce(sc, now)
		case TypePeriodic:
			s.registerPeriodic(sc)
		default:
			log.Printf("[scheduler] unknown schedule type %q for id=%s, skipping", sc.Type, sc.ID)
		}
	}
	return nil
}

func (s *Scheduler) registerOnce(sc *Schedule, now time.Time) {
	if sc.At == nil {
		log.Printf("[scheduler] once schedule id=%s has no 'at' time, skipping", sc.ID)
		return
	}
	delay := sc.At.Sub(now)
	if delay <= 0 {
		log.Printf("[scheduler] once schedule id=%s is past due, firing now", sc.ID)
		delay = 0
	}
	t := time.AfterFunc(delay, func() {
		s.fire(sc)
		if err := s.store.Remove(sc.ID); err != nil && !errors.Is(err, ErrNotFound) {
			log.Printf("[scheduler] failed to remove once schedule id=%s: %v", sc.ID, err)
		}
	})
	s.timers = append(s.timers, t)
}

func (s *Scheduler) registerPeriodic(sc *Schedule) {
	_, err := s.cron.AddFunc(sc.Cron, func() {
		s.fire(sc)
		if err := s.store.markRun(sc.ID, time.Now()); err != nil {
			log.Printf("[scheduler] failed to record run of id=%s: %v", sc.ID, err)
		}
	})
	if err != nil {
		log.Printf("[scheduler] failed to register cron for schedule id=%s expr=%q: %v", sc.ID, sc.Cron, err)
		return
	}
	log.Printf("[scheduler] registered periodic schedule id=%s cron=%q", sc.ID, sc.Cron)
}

func (s *Scheduler) fire(sc *Schedule) {
	log.Printf("[scheduler] schedule id=%s fired", sc.ID)
	if err := s.trigger(s.ctx, sc); err != nil {
		log.Printf("[scheduler] schedule id=%s failed: %v", sc.ID, err)
	}
}
