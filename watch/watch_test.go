package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, root string, opts Options) <-chan []string {
	t.Helper()
	w, err := New(root, opts, nil)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []string, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(_ context.Context, paths []string) { batches <- paths })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return batches
}

func next(t *testing.T, batches <-chan []string) []string {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
		return nil
	}
}

func write(t *testing.T, p, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func contains(paths []string, want string) bool {
	for _, p := range paths {
		if p == want {
			return true
		}
	}
	return false
}

func TestRun_BatchesWrites(t *testing.T) {
	root, _ := filepath.Abs(t.TempDir())
	batches := startWatcher(t, root, Options{Debounce: 100 * time.Millisecond})

	write(t, filepath.Join(root, "a.html"), "a")
	write(t, filepath.Join(root, "b.html"), "b")

	got := next(t, batches)
	for len(got) < 2 {
		got = append(got, next(t, batches)...)
	}
	if !contains(got, filepath.Join(root, "a.html")) || !contains(got, filepath.Join(root, "b.html")) {
		t.Errorf("batch = %v", got)
	}
}

func TestRun_NewDirectory(t *testing.T) {
	root, _ := filepath.Abs(t.TempDir())
	batches := startWatcher(t, root, Options{Debounce: 50 * time.Millisecond})

	if err := os.Mkdir(filepath.Join(root, "posts"), 0o755); err != nil {
		t.Fatal(err)
	}
	next(t, batches)

	p := filepath.Join(root, "posts", "first.html")
	write(t, p, "x")
	for got := next(t, batches); !contains(got, p); got = next(t, batches) {
	}
}

func TestRun_Ignores(t *testing.T) {
	root, _ := filepath.Abs(t.TempDir())
	dest := filepath.Join(root, "_site")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	batches := startWatcher(t, root, Options{Ignore: []string{dest}, Debounce: 50 * time.Millisecond})

	write(t, filepath.Join(dest, "index.html"), "out")
	write(t, filepath.Join(root, ".swp"), "x")
	write(t, filepath.Join(root, "page.html~"), "x")
	write(t, filepath.Join(root, "page.html"), "x")

	got := next(t, batches)
	for _, p := range got {
		if p != filepath.Join(root, "page.html") {
			t.Errorf("ignored path reported: %s", p)
		}
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	w, err := New(t.TempDir(), Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx, func(context.Context, []string) {}); err != context.Canceled {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}
