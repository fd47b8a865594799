package schedule

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Type distinguishes one-shot and recurring schedules.
type Type string

const (
	TypeOnce     Type = "once"
	TypePeriodic Type = "periodic"
)

// ErrNotFound is returned when no schedule has the given ID.
var ErrNotFound = errors.New("schedule: not found")

// Schedule is a notification sent to one robot at a time or on a cron
// expression.
type Schedule struct {
	ID      string   `json:"id"`
	Type    Type     `json:"type"`
	Robot   string   `json:"robot,omitempty"` // default robot when empty
	Title   string   `json:"title,omitempty"` // plain text when empty
	Message string   `json:"message"`
	AtAll   bool     `json:"at_all,omitempty"`
	Mobiles []string `json:"at_mobiles,omitempty"`

	// TypeOnce
	At   *time.Time `json:"at,omitempty"`
	// TypePeriodic: 5-field cron expression or descriptor such as @hourly.
	Cron string     `json:"cron,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	Enabled   bool       `json:"enabled"`
}

// Validate checks that the schedule can be registered.
func (s *Schedule) Validate() error {
	if s.Message == "" {
		return errors.New("schedule: message is required")
	}
	switch s.Type {
	case TypeOnce:
		if s.At == nil {
			return errors.New("schedule: once schedule needs an 'at' time")
		}
	case TypePeriodic:
		if _, err := cron.ParseStandard(s.Cron); err != nil {
			return fmt.Errorf("schedule: invalid cron %q: %w", s.Cron, err)
		}
	default:
		return fmt.Errorf("schedule: unknown type %q", s.Type)
	}
	return nil
}

// Store keeps schedules in a JSON file. It is safe for concurrent use
// within one process.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a store backed by path. The file is created on first
// write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (st *Store) Path() string { return st.path }

// List reads all schedules. A missing file is an empty list.
func (st *Store) List() ([]*Schedule, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.load()
}

// Save atomically replaces the schedule list.
func (st *Store) Save(schedules []*Schedule) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.save(schedules)
}

func (st *Store) load() ([]*Schedule, error) {
	data, err := os.ReadFile(st.path)
	if os.IsNotExist(err) {
		return []*Schedule{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read schedules: %w", err)
	}
	var schedules []*Schedule
	if err := json.Unmarshal(data, &schedules); err != nil {
		return nil, fmt.Errorf("parse schedules %s: %w", st.path, err)
	}
	return schedules, nil
}

func (st *Store) save(schedules []*Schedule) error {
	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	data, err := json.MarshalIndent(schedules, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schedules: %w", err)
	}
	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Add validates s, fills in ID and CreatedAt, and appends it.
func (st *Store) Add(s *Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		s.ID = id
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	schedules, err := st.load()
	if err != nil {
		return err
	}
	return st.save(append(schedules, s))
}

// Remove deletes the schedule with id.
func (st *Store) Remove(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	schedules, err := st.load()
	if err != nil {
		return err
	}
	filtered := schedules[:0]
	for _, s := range schedules {
		if s.ID != id {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == len(schedules) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return st.save(filtered)
}

// markRun records the last run time of id. Unknown IDs are ignored.
func (st *Store) markRun(id string, t time.Time) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	schedules, err := st.load()
	if err != nil {
		return err
	}
	for _, s := range schedules {
		if s.ID == id {
			s.LastRunAt = &t
			return st.save(schedules)
		}
	}
	return nil
}

// randRead is the entropy source for schedule IDs, replaced in tests.
var randRead = rand.Read

func newID() (string, error) {
	b := make([]byte, 8)
	if _, err := randRead(b); err != nil {
		return "", fmt.Errorf("schedule: generate id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
