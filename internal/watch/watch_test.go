package watch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/srcpatch/internal/filter"
	"github.com/hupe1980/srcpatch/internal/patch"
)

// ---------------------------------------------------------------------------
// Debouncer
// ---------------------------------------------------------------------------

func TestDebouncer_SingleEvent(t *testing.T) {
	var callCount atomic.Int32
	var lastBatch atomic.Value

	d := NewDebouncer(50*time.Millisecond, func(paths []string) {
		callCount.Add(1)
		lastBatch.Store(paths)
	})
	defer d.Stop()

	d.Trigger("a.dart")

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), callCount.Load())
	assert.Equal(t, []string{"a.dart"}, lastBatch.Load())
}

func TestDebouncer_MultipleEventsCoalesced(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(100*time.Millisecond, func(_ []string) {
		callCount.Add(1)
	})
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger("file.dart")
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(1), callCount.Load())
}

func TestDebouncer_BatchesDistinctPaths(t *testing.T) {
	var lastBatch atomic.Value

	d := NewDebouncer(50*time.Millisecond, func(paths []string) {
		lastBatch.Store(paths)
	})
	defer d.Stop()

	d.Trigger("second.dart")
	time.Sleep(10 * time.Millisecond)
	d.Trigger("first.dart")
	time.Sleep(10 * time.Millisecond)
	d.Trigger("second.dart")

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, []string{"first.dart", "second.dart"}, lastBatch.Load())
}

func TestDebouncer_PendingResetAfterFire(t *testing.T) {
	var mu sync.Mutex
	var batches [][]string

	d := NewDebouncer(30*time.Millisecond, func(paths []string) {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, paths)
	})
	defer d.Stop()

	d.Trigger("a.dart")
	time.Sleep(100 * time.Millisecond)
	d.Trigger("b.dart")
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]string{{"a.dart"}, {"b.dart"}}, batches)
}

func TestDebouncer_Stop(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50*time.Millisecond, func(_ []string) {
		callCount.Add(1)
	})

	d.Trigger("a.dart")
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), callCount.Load())
}

func TestDebouncer_PanicRecovered(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(20*time.Millisecond, func(_ []string) {
		callCount.Add(1)
		panic("boom")
	})
	defer d.Stop()

	d.Trigger("a.dart")
	time.Sleep(80 * time.Millisecond)
	d.Trigger("b.dart")
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, int32(2), callCount.Load())
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

func TestSummary(t *testing.T) {
	removed := []filter.Removal{{Line: 1}, {Line: 2}}

	tests := []struct {
		name string
		r    *patch.Report
		want string
	}{
		{
			name: "nil report",
			r:    nil,
			want: "no files",
		},
		{
			name: "up to date",
			r:    &patch.Report{Files: []*patch.FileReport{{Path: "a"}}},
			want: "1 file(s), up to date",
		},
		{
			name: "patched",
			r: &patch.Report{Files: []*patch.FileReport{
				{Path: "a", Changed: true, Written: true, Removed: removed},
				{Path: "b"},
			}},
			want: "2 file(s), 1 patched, -2 line(s)",
		},
		{
			name: "pending with unterminated",
			r: &patch.Report{Files: []*patch.FileReport{
				{Path: "a", Changed: true, Removed: removed, Open: &filter.OpenBlock{Rule: "x", StartLine: 2}},
			}},
			want: "1 file(s), 1 pending, -2 line(s), 1 unterminated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary(tt.r))
		})
	}
}

// ---------------------------------------------------------------------------
// isRelevant
// ---------------------------------------------------------------------------

func TestIsRelevant(t *testing.T) {
	target := filepath.Join(string(filepath.Separator), "src", "home_screen.dart")
	targets := map[string]bool{target: true}

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"target write", target, fsnotify.Write, true},
		{"target create", target, fsnotify.Create, true},
		{"target rename", target, fsnotify.Rename, true},
		{"unclean target path", filepath.Dir(target) + string(filepath.Separator) + "." + string(filepath.Separator) + "home_screen.dart", fsnotify.Write, true},
		{"target remove", target, fsnotify.Remove, false},
		{"chmod only", target, fsnotify.Chmod, false},
		{"zero op", target, 0, false},
		{"sibling write", filepath.Join(string(filepath.Separator), "src", "other.dart"), fsnotify.Write, false},
		{"temp file", filepath.Join(string(filepath.Separator), "src", ".home_screen.dart.srcpatch-123"), fsnotify.Create, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := fsnotify.Event{Name: tt.path, Op: tt.op}
			assert.Equal(t, tt.want, isRelevant(event, targets))
		})
	}
}

// ---------------------------------------------------------------------------
// Targets
// ---------------------------------------------------------------------------

func TestResolveTargets(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.dart")
	sub := filepath.Join(dir, "lib")
	b := filepath.Join(sub, "b.dart")

	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(a, []byte("x\r\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("y\r\n"), 0o644))

	targets, err := resolveTargets([]string{a, b, a})
	require.NoError(t, err)
	assert.Len(t, targets, 2)
	assert.True(t, targets[a])
	assert.True(t, targets[b])

	dirs := targetDirs(targets)
	assert.Equal(t, []string{dir, sub}, dirs)
}

func TestResolveTargets_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := resolveTargets(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files")

	_, err = resolveTargets([]string{filepath.Join(dir, "missing.dart")})
	require.Error(t, err)

	_, err = resolveTargets([]string{dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

// ---------------------------------------------------------------------------
// Run (integration)
// ---------------------------------------------------------------------------

func TestRun_GracefulShutdown(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "home_screen.dart")
	require.NoError(t, os.WriteFile(file, []byte("a\r\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())

	var runCount atomic.Int32

	ready := make(chan struct{})

	opts := DefaultOptions()
	opts.Files = []string{file}
	opts.Debounce = 50 * time.Millisecond
	opts.Out = io.Discard
	opts.Ready = ready

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts, func(_ context.Context, paths []string) (*patch.Report, error) {
			runCount.Add(1)
			return &patch.Report{Files: []*patch.FileReport{{Path: paths[0]}}}, nil
		})
	}()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not become ready")
	}

	assert.Equal(t, int32(1), runCount.Load())

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not shut down in time")
	}
}

func TestRun_FileChangeTriggersRepatch(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "home_screen.dart")
	other := filepath.Join(dir, "other.dart")
	require.NoError(t, os.WriteFile(file, []byte("a\r\n"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("b\r\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var calls [][]string

	ready := make(chan struct{})

	opts := DefaultOptions()
	opts.Files = []string{file}
	opts.Debounce = 50 * time.Millisecond
	opts.Out = io.Discard
	opts.Ready = ready

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts, func(_ context.Context, paths []string) (*patch.Report, error) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, paths)

			return &patch.Report{}, nil
		})
	}()

	<-ready

	// Writes to unwatched siblings are ignored.
	require.NoError(t, os.WriteFile(other, []byte("c\r\n"), 0o644))
	require.NoError(t, os.WriteFile(file, []byte("subtitle: x\r\n"), 0o644))

	time.Sleep(400 * time.Millisecond)

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()

	require.GreaterOrEqual(t, len(calls), 2, "file change should trigger a re-patch")

	for _, c := range calls {
		assert.Equal(t, []string{file}, c)
	}
}

func TestRun_ReportsErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "home_screen.dart")
	require.NoError(t, os.WriteFile(file, []byte("a\r\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())

	var out syncBuffer

	ready := make(chan struct{})

	opts := DefaultOptions()
	opts.Files = []string{file}
	opts.Out = &out
	opts.Ready = ready

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts, func(_ context.Context, _ []string) (*patch.Report, error) {
			return nil, errors.New("decode failed")
		})
	}()

	<-ready
	cancel()
	require.NoError(t, <-done)

	assert.Contains(t, out.String(), "watching 1 file(s)")
	assert.Contains(t, out.String(), "(initial) → ERROR: decode failed")
}

func TestRun_MissingFile(t *testing.T) {
	opts := DefaultOptions()
	opts.Files = []string{"/nonexistent/dir/12345/home_screen.dart"}
	opts.Out = io.Discard

	err := Run(context.Background(), opts, func(_ context.Context, _ []string) (*patch.Report, error) {
		t.Fatal("run should not be called")
		return nil, nil
	})
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// DefaultOptions
// ---------------------------------------------------------------------------

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 500*time.Millisecond, opts.Debounce)
	assert.NotNil(t, opts.Logger)
	assert.NotNil(t, opts.Out)
	assert.Empty(t, opts.Files)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
