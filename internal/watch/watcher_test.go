package watch

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetkit/internal/extract"
)

func newTestWatcher(t *testing.T, cfg Config) *Watcher {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	w.Logger = log.New(io.Discard, "", 0)
	return w
}

func startWatcher(t *testing.T, w *Watcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)
	return cancel
}

func TestNewDefaultDebounce(t *testing.T) {
	w := newTestWatcher(t, Config{})
	defer w.watcher.Close()
	if w.Config.Debounce != 500*time.Millisecond {
		t.Errorf("expected default debounce 500ms, got %s", w.Config.Debounce)
	}
}

func TestWatcherHandlesWorkbook(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, Config{
		Directories: []string{dir},
		Extensions:  []string{".xlsx"},
		Debounce:    50 * time.Millisecond,
	})

	handled := make(chan string, 4)
	w.Handler = func(ctx context.Context, path string) error {
		handled <- path
		return nil
	}
	startWatcher(t, w)

	testFile := filepath.Join(dir, "week1.xlsx")
	os.WriteFile(testFile, []byte("one"), 0644)
	os.WriteFile(testFile, []byte("two"), 0644)

	select {
	case path := <-handled:
		if path != testFile {
			t.Errorf("expected %q, got %q", testFile, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for handler call")
	}

	select {
	case path := <-handled:
		t.Errorf("debounced writes should be handled once, got second call for %s", path)
	case <-time.After(200 * time.Millisecond):
	}

	events := w.Events()
	if len(events) != 1 || events[0].Status != "processed" {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestWatcherSkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, Config{
		Directories: []string{dir},
		Extensions:  []string{".xlsx"},
		Debounce:    50 * time.Millisecond,
	})

	var calls atomic.Int32
	w.Handler = func(ctx context.Context, path string) error {
		calls.Add(1)
		return nil
	}
	startWatcher(t, w)

	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "~$week1.xlsx"), []byte("lock"), 0644)
	time.Sleep(300 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("handler should not run for temp or non-workbook files, ran %d times", calls.Load())
	}
}

func TestWatcherHandlesSequentially(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, Config{
		Directories: []string{dir},
		Extensions:  []string{".xlsx", ".xls"},
		Debounce:    20 * time.Millisecond,
	})

	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
		seen     = make(chan string, 8)
	)
	w.Handler = func(ctx context.Context, path string) error {
		mu.Lock()
		inFlight++
		if inFlight > maxSeen {
			maxSeen = inFlight
		}
		mu.Unlock()

		time.Sleep(50 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		seen <- path
		if filepath.Ext(path) == ".xls" {
			return errors.New("office not available")
		}
		return nil
	}
	startWatcher(t, w)

	for _, name := range []string{"a.xlsx", "b.xlsx", "c.xls"} {
		os.WriteFile(filepath.Join(dir, name), []byte(name), 0644)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-seen:
		case <-time.After(3 * time.Second):
			t.Fatalf("timeout waiting for file %d", i+1)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if maxSeen != 1 {
		t.Errorf("handler calls overlapped: max in flight %d", maxSeen)
	}

	var failed int
	for _, e := range w.Events() {
		if e.Status == "error" {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected one failed event, got %d", failed)
	}
}

func TestWatcherRecursiveNewDirectory(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, Config{
		Directories: []string{dir},
		Extensions:  []string{".xlsx"},
		Recursive:   true,
		Debounce:    50 * time.Millisecond,
	})

	handled := make(chan string, 1)
	w.Handler = func(ctx context.Context, path string) error {
		handled <- path
		return nil
	}
	startWatcher(t, w)

	sub := filepath.Join(dir, "monday")
	os.Mkdir(sub, 0755)
	time.Sleep(100 * time.Millisecond)
	target := filepath.Join(sub, "counts.xlsx")
	os.WriteFile(target, []byte("x"), 0644)

	select {
	case path := <-handled:
		if path != target {
			t.Errorf("expected %q, got %q", target, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for file in new subdirectory")
	}
}

func TestWatcherIgnoresOutputDirectory(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "OUTPUT")
	w := newTestWatcher(t, Config{
		Directories: []string{root},
		Extensions:  extract.Extensions,
		Recursive:   true,
		Debounce:    50 * time.Millisecond,
		Exclude:     []string{outDir},
	})

	runner := extract.NewRunner(extract.DefaultOptions(), outDir, io.Discard)
	var calls atomic.Int32
	w.Handler = func(ctx context.Context, path string) error {
		calls.Add(1)
		if res := runner.RunFile(path); res.Error != "" {
			return errors.New(res.Error)
		}
		return nil
	}
	startWatcher(t, w)

	f := excelize.NewFile()
	f.NewSheet("Mon")
	f.SetCellValue("Mon", "A21", "Hiawassee EB")
	f.SetCellValue("Mon", "Z46", 120)
	if err := f.SaveAs(filepath.Join(root, "week.xlsx")); err != nil {
		t.Fatal(err)
	}
	f.Close()

	time.Sleep(1500 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Errorf("expected the dropped workbook to be handled once, got %d calls", n)
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected week_A21_Z46.xlsx and .csv only, got %v", names)
	}
}

func TestWatcherExcludesWatchedDirectory(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, Config{
		Directories: []string{dir},
		Extensions:  []string{".xlsx"},
		Debounce:    50 * time.Millisecond,
		Exclude:     []string{dir},
	})

	var calls atomic.Int32
	w.Handler = func(ctx context.Context, path string) error {
		calls.Add(1)
		return nil
	}
	startWatcher(t, w)

	os.WriteFile(filepath.Join(dir, "out.xlsx"), []byte("x"), 0644)
	time.Sleep(300 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("files in an excluded directory should not be handled, ran %d times", calls.Load())
	}
}

func TestStartBadDirectory(t *testing.T) {
	w := newTestWatcher(t, Config{Directories: []string{filepath.Join(t.TempDir(), "missing")}})
	if err := w.Start(context.Background()); err == nil {
		t.Error("expected error watching a missing directory")
	}
}
