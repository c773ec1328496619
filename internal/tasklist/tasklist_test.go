package tasklist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, tl *TaskList) error {
	t.Helper()
	select {
	case <-tl.Done():
		return tl.Err()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task list to settle")
		return nil
	}
}

func TestSequentialOrderAndCompletion(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) RunFunc {
		return func(rc *RunContext) (*TaskList, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil, nil
		}
	}

	var completed bool
	var doneFailed *bool
	tl := New([]Task{
		{Title: "a", Run: record("a")},
		{Title: "b", Run: record("b")},
		{Title: "c", Run: record("c")},
	}, OnComplete(func() { completed = true }), OnDone(func(failed bool) { doneFailed = &failed }))

	tl.Run(context.Background(), nil)
	if err := waitFor(t, tl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := []string{"a", "b", "c"}; !equalStrings(order, got) {
		t.Fatalf("order = %v, want %v", order, got)
	}
	if !completed {
		t.Fatalf("expected onComplete to fire")
	}
	if doneFailed == nil || *doneFailed {
		t.Fatalf("expected onDone(false)")
	}
}

func TestSkipAndEnabled(t *testing.T) {
	ran := map[string]bool{}
	tl := New([]Task{
		{
			Title:   "disabled",
			Enabled: func(ctx *Context) bool { return false },
			Run:     func(rc *RunContext) (*TaskList, error) { ran["disabled"] = true; return nil, nil },
		},
		{
			Title: "skipped",
			Skip:  func(ctx *Context) (string, bool) { return "not needed", true },
			Run:   func(rc *RunContext) (*TaskList, error) { ran["skipped"] = true; return nil, nil },
		},
		{
			Title: "runs",
			Run:   func(rc *RunContext) (*TaskList, error) { ran["runs"] = true; return nil, nil },
		},
	})

	tl.Run(context.Background(), nil)
	if err := waitFor(t, tl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ran["disabled"] || ran["skipped"] {
		t.Fatalf("disabled/skipped tasks must not run: %v", ran)
	}
	if !ran["runs"] {
		t.Fatalf("expected enabled task to run")
	}
}

func TestFailureStopsRemainingTasksAndFiresOnError(t *testing.T) {
	boom := errors.New("boom")
	var reachedThird bool
	var errSeen error

	tl := New([]Task{
		{Title: "first", Run: func(rc *RunContext) (*TaskList, error) { return nil, nil }},
		{Title: "second", Run: func(rc *RunContext) (*TaskList, error) { return nil, boom }},
		{Title: "third", Run: func(rc *RunContext) (*TaskList, error) { reachedThird = true; return nil, nil }},
	}, OnError(func(err error, ctx *Context) { errSeen = err }))

	tl.Run(context.Background(), nil)
	err := waitFor(t, tl)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
	if reachedThird {
		t.Fatalf("third task must not run after failure")
	}
	if !errors.Is(errSeen, boom) {
		t.Fatalf("onError did not see boom: %v", errSeen)
	}
}

func TestAbortFiresOnDoneTrueNeverOnComplete(t *testing.T) {
	started := make(chan struct{})
	var completed bool
	var doneFailed *bool

	tl := New([]Task{
		{Title: "blocks", Run: func(rc *RunContext) (*TaskList, error) {
			close(started)
			<-rc.Done()
			return nil, rc.Err()
		}},
	}, OnComplete(func() { completed = true }), OnDone(func(failed bool) { doneFailed = &failed }))

	tl.Run(context.Background(), nil)
	<-started
	tl.Abort()

	err := waitFor(t, tl)
	if !IsAborted(err) {
		t.Fatalf("expected AbortedError, got %v", err)
	}
	if completed {
		t.Fatalf("onComplete must never fire on abort")
	}
	if doneFailed == nil || !*doneFailed {
		t.Fatalf("expected onDone(true) exactly once")
	}
}

func TestConcurrentTasksAllStartBeforeSettling(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	release := make(chan struct{})

	mk := func(name string) Task {
		return Task{Title: name, Run: func(rc *RunContext) (*TaskList, error) {
			mu.Lock()
			seen[name] = true
			mu.Unlock()
			<-release
			return nil, nil
		}}
	}

	tl := New([]Task{mk("x"), mk("y"), mk("z")}, Concurrent())
	tl.Run(context.Background(), nil)

	deadline := time.After(time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("not all concurrent tasks started: %v", seen)
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(release)
	if err := waitFor(t, tl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNestedTaskListDelegatesResult(t *testing.T) {
	inner := New([]Task{
		{Title: "inner", Run: func(rc *RunContext) (*TaskList, error) { return nil, errors.New("inner failure") }},
	})

	outer := New([]Task{
		{Title: "outer", Run: func(rc *RunContext) (*TaskList, error) { return inner, nil }},
	})

	outer.Run(context.Background(), nil)
	err := waitFor(t, outer)
	if err == nil || err.Error() != "inner failure" {
		t.Fatalf("expected inner failure to propagate, got %v", err)
	}
}

func TestAbortCascadesToRunningNestedList(t *testing.T) {
	started := make(chan struct{})
	inner := New([]Task{
		{Title: "inner", Run: func(rc *RunContext) (*TaskList, error) {
			close(started)
			<-rc.Done()
			return nil, rc.Err()
		}},
	})

	outer := New([]Task{
		{Title: "outer", Run: func(rc *RunContext) (*TaskList, error) { return inner, nil }},
	})

	outer.Run(context.Background(), nil)
	<-started
	outer.Abort()

	if err := waitFor(t, outer); !IsAborted(err) {
		t.Fatalf("expected outer aborted, got %v", err)
	}
	if err := waitFor(t, inner); !IsAborted(err) {
		t.Fatalf("expected inner aborted, got %v", err)
	}
}

func TestFreshContextStartsEmpty(t *testing.T) {
	parent := &Context{}
	parent.SetResourceAdapter("parent-adapter")

	var sawInChild any
	child := New([]Task{
		{Title: "check", Run: func(rc *RunContext) (*TaskList, error) {
			sawInChild = rc.Shared.ResourceAdapter()
			return nil, nil
		}},
	}, FreshContext())

	child.Run(context.Background(), parent)
	if err := waitFor(t, child); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawInChild != nil {
		t.Fatalf("expected fresh ctx to start empty, got %v", sawInChild)
	}
}

func TestInheritedContextSharesState(t *testing.T) {
	parent := &Context{}
	parent.SetResourceAdapter("parent-adapter")

	var sawInChild any
	child := New([]Task{
		{Title: "check", Run: func(rc *RunContext) (*TaskList, error) {
			sawInChild = rc.Shared.ResourceAdapter()
			return nil, nil
		}},
	})

	child.Run(context.Background(), parent)
	if err := waitFor(t, child); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawInChild != "parent-adapter" {
		t.Fatalf("expected inherited ctx, got %v", sawInChild)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
