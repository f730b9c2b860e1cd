package watch

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"qoiconv/config"
	"qoiconv/parallel"
	"qoiconv/qoi"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.SetNRGBA(1, 1, color.NRGBA{200, 10, 10, 128})

	// write outside the watched folder, then move in one step
	f, err := os.CreateTemp("", "*.png")
	if err != nil {
		t.Fatal(err)
	}
	tmp := f.Name()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil {
			if _, err := qoi.DecodeHeader(data); err == nil {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s never appeared", path)
}

func TestWatch(t *testing.T) {
	in := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	writePNG(t, filepath.Join(in, "before.png"))

	cfg := config.Default()
	cfg.Watch.DebounceMS = 20
	pool := parallel.Start(2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- (&CLICmd{Dirs: []string{in}, Dest: dest}).watch(ctx, pool.Submit, pool.Wait, cfg)
	}()

	waitForFile(t, filepath.Join(dest, "before.qoi"))

	writePNG(t, filepath.Join(in, "after.png"))
	waitForFile(t, filepath.Join(dest, "after.qoi"))

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchNeedsDirs(t *testing.T) {
	pool := parallel.Start(1)
	err := (&CLICmd{Dest: t.TempDir()}).watch(context.Background(), pool.Submit, pool.Wait, config.Default())
	if err == nil {
		t.Fatal("expected an error without folders")
	}
}

func TestDebouncer(t *testing.T) {
	var fired atomic.Int32
	db := newDebouncer(30*time.Millisecond, func(string) { fired.Add(1) })
	for range 5 {
		db.trigger("a")
	}
	db.trigger("b")
	time.Sleep(200 * time.Millisecond)
	if got := fired.Load(); got != 2 {
		t.Fatalf("fired %d times, want 2", got)
	}

	db.trigger("c")
	db.stop()
	db.trigger("d")
	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 2 {
		t.Fatalf("fired %d times after stop, want 2", got)
	}
}
