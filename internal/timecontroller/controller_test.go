package timecontroller

import (
	"testing"
	"time"

	"github.com/gurre/barengine/internal/bars"
	"github.com/gurre/barengine/internal/money"
	"github.com/gurre/barengine/internal/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances by a fixed step every time it's read, giving tests a
// deterministic, sleep-free notion of wall-clock progress.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (f *fakeClock) Now() time.Time {
	f.t = f.t.Add(f.step)
	return f.t
}

func TestFlushAdvancesInputTimeMonotonically(t *testing.T) {
	fc := &fakeClock{t: time.Unix(1_700_000_000, 0), step: time.Second}
	cfg := bars.Config{BarLength: time.Second, Retention: 10 * time.Second, GracePeriod: 0}
	ctrl := New(fc.Now, 100*time.Millisecond, bars.NewPipeline(cfg), bars.NewGate(cfg), nil)

	ctrl.Flush()
	first := ctrl.InputTime()
	ctrl.Flush()
	second := ctrl.InputTime()
	assert.Greater(t, second, first)
}

func TestFlushDeliversBufferedTradesToSink(t *testing.T) {
	fc := &fakeClock{t: time.Unix(1_700_000_000, 0), step: 2 * time.Second}
	cfg := bars.Config{BarLength: time.Second, Retention: 10 * time.Second, GracePeriod: 0}

	var delivered []trade.WindowKey
	sink := func(key trade.WindowKey, _ bars.Bar) { delivered = append(delivered, key) }

	ctrl := New(fc.Now, 100*time.Millisecond, bars.NewPipeline(cfg), bars.NewGate(cfg), sink)
	ctrl.Ingest(trade.Trade{
		EventTime: ctrl.now(), Price: money.NewFromFloat(10), Volume: money.NewFromFloat(1), Symbol: "BTC-USD",
	})
	require.Equal(t, 1, ctrl.Pending())

	ctrl.Flush() // trade becomes live and is counted
	ctrl.Flush() // clock has advanced 2s past bar_length+grace_period=1s, window closes
	require.Len(t, delivered, 1)
	assert.Equal(t, "BTC-USD", delivered[0].Symbol)
}

func TestIngestDoesNotStepEngine(t *testing.T) {
	fc := &fakeClock{t: time.Unix(1_700_000_000, 0), step: time.Second}
	cfg := bars.Config{BarLength: time.Second, Retention: 10 * time.Second, GracePeriod: 0}
	ctrl := New(fc.Now, 100*time.Millisecond, bars.NewPipeline(cfg), bars.NewGate(cfg), nil)
	ctrl.Ingest(trade.Trade{EventTime: 0, Price: money.NewFromFloat(1), Volume: money.NewFromFloat(1), Symbol: "ETH-USD"})
	assert.Equal(t, 1, ctrl.Pending())
	assert.Equal(t, time.Duration(0), ctrl.InputTime())
}

func TestNewPanicsOnNonPositiveFlushFrequency(t *testing.T) {
	cfg := bars.Config{BarLength: time.Second, Retention: 10 * time.Second, GracePeriod: 0}
	assert.Panics(t, func() {
		New(time.Now, 0, bars.NewPipeline(cfg), bars.NewGate(cfg), nil)
	})
}
