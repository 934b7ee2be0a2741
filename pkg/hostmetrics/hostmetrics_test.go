package hostmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	CommandProcessed("inst1", "set")
	CommandProcessed("inst1", "set")
	if got := testutil.ToFloat64(commandsProcessedTotal.WithLabelValues("inst1", "set")); got != 2 {
		t.Errorf("commandsProcessedTotal: got %v want 2", got)
	}

	CommandDropped("inst1", "setn")
	if got := testutil.ToFloat64(commandsDroppedTotal.WithLabelValues("inst1", "setn")); got != 1 {
		t.Errorf("commandsDroppedTotal: got %v want 1", got)
	}

	InboxDrained("inst1")
	InboxContended("inst1")
	if got := testutil.ToFloat64(inboxDrainsTotal.WithLabelValues("inst1")); got != 1 {
		t.Errorf("inboxDrainsTotal: got %v want 1", got)
	}
	if got := testutil.ToFloat64(inboxContendedTotal.WithLabelValues("inst1")); got != 1 {
		t.Errorf("inboxContendedTotal: got %v want 1", got)
	}

	OperationDropped("inst1", "IndexOutOfRange")
	if got := testutil.ToFloat64(droppedOpsTotal.WithLabelValues("inst1", "IndexOutOfRange")); got != 1 {
		t.Errorf("droppedOpsTotal: got %v want 1", got)
	}
}

func TestGaugeAndHistogram(t *testing.T) {
	SetCommandQueueDepth("inst2", 7)
	if got := testutil.ToFloat64(commandQueueDepth.WithLabelValues("inst2")); got != 7 {
		t.Errorf("commandQueueDepth: got %v want 7", got)
	}

	ObserveNextDuration("inst2", 0.0005)
	if n := testutil.CollectAndCount(nextDurationSeconds); n == 0 {
		t.Error("expected histogram to have at least one observed series")
	}
}
