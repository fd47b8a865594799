package notify

import (
	"context"
	"log"
	"strings"
	"sync"
)

// Notification represents a notification to be sent.
type Notification struct {
	Title   string
	Message string
	AtAll   bool
	Mobiles []string
}

// Notifier sends notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	Name() string
}

// MultiNotifier sends notifications to multiple notifiers concurrently.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a MultiNotifier from the given notifiers.
func NewMultiNotifier(ns ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: ns}
}

// Send dispatches the notification to all registered notifiers.
// Returns the first error in registration order, but attempts all notifiers.
func (m *MultiNotifier) Send(ctx context.Context, n Notification) error {
	errs := make([]error, len(m.notifiers))
	var wg sync.WaitGroup
	for i, notifier := range m.notifiers {
		wg.Add(1)
		go func(i int, notifier Notifier) {
			defer wg.Done()
			if err := notifier.Send(ctx, n); err != nil {
				log.Printf("notify: %s: %v", notifier.Name(), err)
				errs[i] = err
			}
		}(i, notifier)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Name returns the name of this notifier.
func (m *MultiNotifier) Name() string {
	names := make([]string, len(m.notifiers))
	for i, n := range m.notifiers {
		names[i] = n.Name()
	}
	return "multi(" + strings.Join(names, ",") + ")"
}
