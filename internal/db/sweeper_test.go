package db

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type countingSink struct {
	mu    sync.Mutex
	total float64
}

func (c *countingSink) Add(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total += v
}

func (c *countingSink) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// fakeSweeper returns its first result once and zero counts afterwards.
type fakeSweeper struct {
	mu      sync.Mutex
	calls   int
	pins    int64
	grants  int64
	err     error
	cutoffs []time.Time
}

func (f *fakeSweeper) SweepStaleResets(_ context.Context, cutoff time.Time) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.err != nil {
		return 0, 0, f.err
	}
	if f.calls > 1 {
		return 0, 0, nil
	}
	return f.pins, f.grants, nil
}

func (f *fakeSweeper) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStartStalePinSweeper_Success(t *testing.T) {
	sweeper := &fakeSweeper{pins: 3, grants: 2}
	sink := &countingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	StartStalePinSweeper(ctx, sweeper, 10*time.Millisecond, time.Hour, sink, zap.NewNop())

	time.Sleep(200 * time.Millisecond)
	cancel()

	if sweeper.Calls() == 0 {
		t.Fatal("sweeper was never called")
	}
	if got := sink.Total(); got != 3 {
		t.Errorf("swept count = %v; want 3", got)
	}
	sweeper.mu.Lock()
	cutoff := sweeper.cutoffs[0]
	sweeper.mu.Unlock()
	if cutoff.After(start.Add(-time.Hour).Add(time.Second)) || cutoff.Before(start.Add(-time.Hour)) {
		t.Errorf("cutoff = %v; want about one hour before %v", cutoff, start)
	}
}

func TestStartStalePinSweeper_ErrorLogged(t *testing.T) {
	sweeper := &fakeSweeper{err: fmt.Errorf("db fail")}

	var buf bytes.Buffer
	var mu sync.Mutex
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(writerFunc(func(p []byte) (int, error) {
			mu.Lock()
			defer mu.Unlock()
			return buf.Write(p)
		})),
		zapcore.ErrorLevel,
	)
	logger := zap.New(core)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartStalePinSweeper(ctx, sweeper, 10*time.Millisecond, time.Hour, nil, logger)

	time.Sleep(200 * time.Millisecond)
	cancel()

	mu.Lock()
	out := buf.String()
	mu.Unlock()
	if !strings.Contains(out, "failed to sweep stale reset pins") {
		t.Errorf("expected error log, got:\n%s", out)
	}
}

func TestStartStalePinSweeper_DisabledWithoutRetention(t *testing.T) {
	sweeper := &fakeSweeper{}

	StartStalePinSweeper(context.Background(), sweeper, 10*time.Millisecond, 0, nil, zap.NewNop())
	time.Sleep(50 * time.Millisecond)

	if n := sweeper.Calls(); n != 0 {
		t.Errorf("sweeper called %d times; want 0", n)
	}
}

func TestStartStalePinSweeper_CancelBeforeTicker(t *testing.T) {
	sweeper := &fakeSweeper{}
	ctx, cancel := context.WithCancel(context.Background())

	StartStalePinSweeper(ctx, sweeper, 100*time.Millisecond, time.Hour, nil, zap.NewNop())
	cancel()

	time.Sleep(150 * time.Millisecond)

	if n := sweeper.Calls(); n != 0 {
		t.Errorf("sweeper called %d times after cancel; want 0", n)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
