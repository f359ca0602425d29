package renderer

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

type teardownStep struct {
	name    string
	release func()
}

// Teardown releases registered objects in the exact reverse of the order
// they were registered. Stages register each object right after creating
// it, so a Teardown always mirrors creation order, including after a
// partially failed setup.
type Teardown struct {
	log      *slog.Logger
	steps    []teardownStep
	released bool
}

func NewTeardown(log *slog.Logger) *Teardown {
	if log == nil {
		log = Logger()
	}
	return &Teardown{log: log}
}

// Defer registers release to run during Release.
func (t *Teardown) Defer(name string, release func()) {
	t.steps = append(t.steps, teardownStep{name: name, release: release})
}

// Len reports how many releases are still pending.
func (t *Teardown) Len() int {
	return len(t.steps)
}

func (t *Teardown) Released() bool {
	return t.released
}

// Release waits for idle, when given, and then runs every registered
// release, newest first. Only the first call does anything. A failed idle
// wait is returned but does not stop the releases: nothing else can be
// done with the objects at that point.
func (t *Teardown) Release(idle func() error) error {
	if t.released {
		return nil
	}
	t.released = true

	var err error
	if idle != nil {
		if waitErr := idle(); waitErr != nil {
			err = errors.Wrap(waitErr, "wait for device idle")
			t.log.Warn("releasing objects without an idle device", slog.Any("error", waitErr))
		}
	}

	for i := len(t.steps) - 1; i >= 0; i-- {
		step := t.steps[i]
		t.log.Log(context.Background(), LevelTrace, "release", slog.String("object", step.name))
		step.release()
	}
	t.steps = nil

	return err
}
