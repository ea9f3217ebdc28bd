package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmit_Value(t *testing.T) {
	p := NewPool(2, nil)
	f := Submit(p, func() (int, error) { return 42, nil })

	v, err := f.Wait()
	if err != nil {
		t.Fatalf("Wait error = %v", err)
	}
	if v != 42 {
		t.Errorf("Wait = %d, want 42", v)
	}
	if !f.Ready() {
		t.Error("Ready = false after Wait")
	}
}

func TestSubmit_Error(t *testing.T) {
	p := NewPool(1, nil)
	boom := errors.New("boom")
	f := Submit(p, func() (string, error) { return "", boom })

	if _, err := f.Wait(); !errors.Is(err, boom) {
		t.Errorf("Wait error = %v, want %v", err, boom)
	}
}

func TestSubmit_PanicSettlesFuture(t *testing.T) {
	p := NewPool(1, nil)
	f := Submit(p, func() (int, error) { panic("kaboom") })

	if _, err := f.Wait(); err == nil {
		t.Fatal("expected error from panicking task")
	}
	p.Wait()
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool(2, nil)
	var peak, cur atomic.Int64
	release := make(chan struct{})

	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i := 0; i < 6; i++ {
			p.Go(func() {
				n := cur.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				<-release
				cur.Add(-1)
			})
		}
	}()

	time.Sleep(50 * time.Millisecond)
	if got := p.Running(); got != 2 {
		t.Errorf("Running = %d, want 2", got)
	}
	close(release)
	<-launched
	p.Wait()

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestSubmit_ReturnsWhenPoolFull(t *testing.T) {
	p := NewPool(1, nil)
	release := make(chan struct{})
	first := Submit(p, func() (int, error) {
		<-release
		return 1, nil
	})

	returned := make(chan *Future[int], 1)
	go func() {
		returned <- Submit(p, func() (int, error) { return 2, nil })
	}()

	var second *Future[int]
	select {
	case second = <-returned:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked while the pool was at capacity")
	}
	if second.Ready() {
		t.Error("second task ran before a slot was free")
	}

	close(release)
	if v, err := first.Wait(); err != nil || v != 1 {
		t.Errorf("first = (%d, %v)", v, err)
	}
	if v, err := second.Wait(); err != nil || v != 2 {
		t.Errorf("second = (%d, %v)", v, err)
	}
	p.Wait()
}

func TestSpawn_BoundsConcurrency(t *testing.T) {
	p := NewPool(2, nil)
	var peak, cur atomic.Int64
	release := make(chan struct{})

	for i := 0; i < 6; i++ {
		p.Spawn(func() {
			n := cur.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			<-release
			cur.Add(-1)
		})
	}

	time.Sleep(50 * time.Millisecond)
	if got := p.Running(); got != 2 {
		t.Errorf("Running = %d, want 2", got)
	}
	close(release)
	p.Wait()

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestFuture_Then(t *testing.T) {
	f := Resolved("ok")
	var got string
	<-f.Then(func(v string, err error) {
		if err == nil {
			got = v
		}
	})
	if got != "ok" {
		t.Errorf("Then saw %q, want %q", got, "ok")
	}
}

func TestFuture_WaitContext(t *testing.T) {
	f := newFuture[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := f.WaitContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitContext error = %v, want deadline exceeded", err)
	}
	if f.Ready() {
		t.Error("future should still be pending")
	}
}

func TestMap(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		f := Map(Resolved(2), func(v int) (int, error) { return v * 10, nil })
		if v, err := f.Wait(); err != nil || v != 20 {
			t.Errorf("Map = (%d, %v), want (20, nil)", v, err)
		}
	})

	t.Run("error passes through", func(t *testing.T) {
		boom := errors.New("boom")
		called := false
		f := Map(Rejected[int](boom), func(v int) (int, error) {
			called = true
			return v, nil
		})
		if _, err := f.Wait(); !errors.Is(err, boom) {
			t.Errorf("Map error = %v, want %v", err, boom)
		}
		if called {
			t.Error("fn should not run on error")
		}
	})
}
