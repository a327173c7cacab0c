package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

func TestRunKeepsOrderAndContinuesPastFailures(t *testing.T) {
	var order []string
	step := func(name string, err error) Step {
		return Step{Name: name, Fn: func(context.Context) error {
			order = append(order, name)
			return err
		}}
	}

	failed := Run(context.Background(), logger.Nop(), time.Second,
		step("http", nil),
		step("finetune_poller", errors.New("2 poll tasks still running")),
		Step{Name: "skipped"},
		step("clients", nil),
	)

	if len(order) != 3 || order[0] != "http" || order[1] != "finetune_poller" || order[2] != "clients" {
		t.Fatalf("order: got=%v", order)
	}
	if len(failed) != 1 || failed[0] != "finetune_poller" {
		t.Fatalf("failed: want=[finetune_poller] got=%v", failed)
	}
}

func TestRunSharesOneDeadline(t *testing.T) {
	var deadlines []time.Time
	record := Step{Name: "s", Fn: func(ctx context.Context) error {
		d, ok := ctx.Deadline()
		if !ok {
			return errors.New("no deadline")
		}
		deadlines = append(deadlines, d)
		return nil
	}}

	if failed := Run(context.Background(), nil, 50*time.Millisecond, record, record); len(failed) != 0 {
		t.Fatalf("failed: got=%v", failed)
	}
	if len(deadlines) != 2 || !deadlines[0].Equal(deadlines[1]) {
		t.Fatalf("deadlines: got=%v", deadlines)
	}
}

func TestNotifyContextStopCancels(t *testing.T) {
	ctx, stop := NotifyContext(context.Background(), logger.Nop())
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("context not cancelled by stop")
	}
}
