package reqray

import (
	"testing"
)

func TestCurrentWorkerStableWithinGoroutine(t *testing.T) {
	first := CurrentWorker()
	second := CurrentWorker()
	if first != second {
		t.Errorf("Expected stable worker ID within one goroutine, got %d then %d", first, second)
	}
	if first == 0 {
		t.Error("Expected non-zero worker ID")
	}
}

func TestCurrentWorkerDiffersAcrossGoroutines(t *testing.T) {
	main := CurrentWorker()

	other := make(chan WorkerID)
	go func() {
		other <- CurrentWorker()
	}()

	if got := <-other; got == main {
		t.Errorf("Expected distinct worker IDs across live goroutines, both were %d", got)
	}
}
