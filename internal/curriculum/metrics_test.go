package curriculum

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func seriesCount(collector prometheus.Collector) int {
	ch := make(chan prometheus.Metric, 1024)
	collector.Collect(ch)
	close(ch)
	return len(ch)
}

func TestUnknownOperationsShareOneSeries(t *testing.T) {
	initMetrics()
	before := seriesCount(operationsTotal)

	c := Seed()
	for i := 0; i < 200; i++ {
		if _, err := c.Apply(Operation{Kind: OperationKind(fmt.Sprintf("junk-%d", i))}); err == nil {
			t.Fatalf("expected junk-%d to be rejected", i)
		}
	}

	if added := seriesCount(operationsTotal) - before; added > 1 {
		t.Fatalf("unknown kinds created %d series", added)
	}
}

func TestKnownOperationKinds(t *testing.T) {
	for _, kind := range []OperationKind{OpAddModule, OpSetLessonType, OpToggleOptionCorrect} {
		if !kind.Known() {
			t.Fatalf("%s should be known", kind)
		}
	}
	if OperationKind("ADD_MODULE").Known() {
		t.Fatalf("kinds are case sensitive")
	}
}
