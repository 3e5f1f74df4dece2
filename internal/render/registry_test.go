package render_test

import (
	"sync"
	"testing"

	"keylight/internal/render"
)

type fakeCanceller struct {
	mu     sync.Mutex
	killed int
}

func (f *fakeCanceller) Kill() {
	f.mu.Lock()
	f.killed++
	f.mu.Unlock()
}

func (f *fakeCanceller) killCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.killed
}

func TestRegistryCancelUnknownJob(t *testing.T) {
	registry := render.NewRegistry()
	if registry.Cancel("no-such-job") {
		t.Fatal("cancelling an unknown job must report false")
	}
}

func TestRegistryCancelKillsBoundProcess(t *testing.T) {
	registry := render.NewRegistry()
	registry.Register("job")
	if !registry.Live("job") {
		t.Fatal("registered job should be live")
	}

	proc := &fakeCanceller{}
	if !registry.Bind("job", proc) {
		t.Fatal("Bind on a live job must succeed")
	}
	if !registry.Cancel("job") {
		t.Fatal("Cancel on a live job must report true")
	}
	if got := proc.killCount(); got != 1 {
		t.Fatalf("bound process killed %d times, want 1", got)
	}
	if registry.Live("job") {
		t.Fatal("cancelled job must not stay live")
	}
	if registry.Cancel("job") {
		t.Fatal("second cancel must report false")
	}
}

func TestRegistryCancelPendingJobWithoutProcess(t *testing.T) {
	registry := render.NewRegistry()
	registry.Register("pending")
	if !registry.Cancel("pending") {
		t.Fatal("a pending job with no bound process is still cancellable")
	}
	if registry.Size() != 0 {
		t.Fatalf("registry size = %d after cancel, want 0", registry.Size())
	}
}

func TestRegistryReleaseWinsOverCancel(t *testing.T) {
	registry := render.NewRegistry()
	registry.Register("job")
	if !registry.Release("job") {
		t.Fatal("first release must win the removal")
	}
	if registry.Cancel("job") {
		t.Fatal("cancel after release must report false")
	}
	if registry.Release("job") {
		t.Fatal("second release must report false")
	}
}

func TestRegistryBindAfterCancelFails(t *testing.T) {
	registry := render.NewRegistry()
	registry.Register("job")
	registry.Cancel("job")

	proc := &fakeCanceller{}
	if registry.Bind("job", proc) {
		t.Fatal("Bind after cancel must fail so the caller stops its process")
	}
	if got := proc.killCount(); got != 0 {
		t.Fatalf("registry must not kill an unbound process, got %d kills", got)
	}
}

func TestRegistryRebindReplacesProcess(t *testing.T) {
	registry := render.NewRegistry()
	registry.Register("job")

	first := &fakeCanceller{}
	second := &fakeCanceller{}
	registry.Bind("job", first)
	registry.Bind("job", second)
	registry.Cancel("job")

	if first.killCount() != 0 {
		t.Fatal("the replaced process belongs to a finished phase and must not be killed")
	}
	if second.killCount() != 1 {
		t.Fatal("the currently bound process must be killed")
	}
}
