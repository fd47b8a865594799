package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"dingtalk/internal/config"
	"dingtalk/internal/notify"
	"dingtalk/internal/output"
	"dingtalk/internal/schedule"
	"dingtalk/internal/ui"
)

// scheduleStore lives next to the profile store.
func scheduleStore() *schedule.Store {
	return schedule.NewStore(filepath.Join(filepath.Dir(config.ConfigPath), "schedules.json"))
}

type scheduleAddOptions struct {
	Message string
	Title   string
	Cron    string
	At      string
	In      time.Duration
	AtAll   bool
	Mobiles []string
}

func (o scheduleAddOptions) schedule(robotName string) (*schedule.Schedule, error) {
	s := &schedule.Schedule{
		Robot:   robotName,
		Title:   o.Title,
		Message: o.Message,
		AtAll:   o.AtAll,
		Mobiles: o.Mobiles,
		Enabled: true,
	}

	set := 0
	for _, v := range []bool{o.Cron != "", o.At != "", o.In > 0} {
		if v {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("exactly one of --cron, --at or --in is required")
	}

	switch {
	case o.Cron != "":
		s.Type = schedule.TypePeriodic
		s.Cron = o.Cron
	case o.At != "":
		at, err := time.Parse(time.RFC3339, o.At)
		if err != nil {
			return nil, fmt.Errorf("invalid --at %q: want RFC 3339, e.g. 2026-01-02T09:00:00+08:00", o.At)
		}
		s.Type = schedule.TypeOnce
		s.At = &at
	default:
		at := now().Add(o.In)
		s.Type = schedule.TypeOnce
		s.At = &at
	}
	return s, nil
}

// RunScheduleAdd stores a scheduled notification.
func RunScheduleAdd(robotName string, opts scheduleAddOptions) error {
	if robotName != "" {
		if _, err := config.GetRobot(robotName); err != nil {
			return err
		}
	}
	s, err := opts.schedule(robotName)
	if err != nil {
		return err
	}
	if err := scheduleStore().Add(s); err != nil {
		return err
	}

	output.Print(s, func() {
		ui.ShowSuccess("Schedule %s saved", s.ID)
		ui.ShowField("When", scheduleWhen(s))
	})
	return nil
}

func scheduleWhen(s *schedule.Schedule) string {
	if s.Type == schedule.TypePeriodic {
		return "cron " + s.Cron
	}
	return s.At.Local().Format(time.DateTime)
}

// RunScheduleList prints the stored schedules.
func RunScheduleList() error {
	schedules, err := scheduleStore().List()
	if err != nil {
		return err
	}

	output.Print(schedules, func() {
		if len(schedules) == 0 {
			ui.ShowInfo("No schedules. Add one with: dingtalk schedule add ROBOT --cron \"0 9 * * 1-5\" -m TEXT")
			return
		}
		ui.ShowHeader("Schedules")
		for _, s := range schedules {
			target := s.Robot
			if target == "" {
				target = "(default)"
			}
			msg := s.Message
			if s.Title != "" {
				msg = s.Title
			}
			fmt.Printf("  %s  %-24s  %-12s  %s\n", s.ID, scheduleWhen(s), target, strings.SplitN(msg, "\n", 2)[0])
		}
	})
	return nil
}

// RunScheduleRemove deletes a schedule.
func RunScheduleRemove(id string) error {
	if err := scheduleStore().Remove(id); err != nil {
		return err
	}
	output.Print(map[string]string{"removed": id}, func() {
		ui.ShowSuccess("Schedule removed: %s", id)
	})
	return nil
}

// fireSchedule delivers s through its robot.
func fireSchedule(ctx context.Context, s *schedule.Schedule) error {
	client, from, err := config.Resolve(config.Source{Robot: s.Robot}, clientOptions()...)
	if err != nil {
		return err
	}
	err = notify.NewRobotNotifier(from, client).Send(ctx, notify.Notification{
		Title:   s.Title,
		Message: s.Message,
		AtAll:   s.AtAll,
		Mobiles: s.Mobiles,
	})
	flushMetrics()
	return err
}

// scheduleTrigger is replaced in tests.
var scheduleTrigger schedule.TriggerFunc = fireSchedule

// startScheduler starts the stored schedules; the caller must Stop it.
func startScheduler(ctx context.Context) (*schedule.Scheduler, error) {
	sched := schedule.New(scheduleStore(), scheduleTrigger)
	if err := sched.Start(ctx); err != nil {
		return nil, err
	}
	return sched, nil
}

// RunScheduleRun runs the scheduler in the foreground until ctx is done.
func RunScheduleRun(ctx context.Context) error {
	sched, err := startScheduler(ctx)
	if err != nil {
		return err
	}
	defer sched.Stop()

	once, periodic := sched.Entries()
	ui.ShowInfo("Scheduler running: %d one-shot, %d periodic. Press Ctrl+C to stop.", once, periodic)
	<-ctx.Done()
	return nil
}

