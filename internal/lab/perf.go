package lab

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/roach88/cprum/internal/timers"
)

// Limits of the performance lab inputs.
const (
	MinStorm        = 5
	MaxStorm        = 300
	DefaultStorm    = 80
	MaxStormTimeout = 120

	MinComputeLimit     = 5000
	MaxComputeLimit     = 250000
	DefaultComputeLimit = 60000
	computeChunk        = 700

	MinBusy     = 50 * time.Millisecond
	MaxBusy     = 1200 * time.Millisecond
	DefaultBusy = 300 * time.Millisecond
)

// Trace point keys reported by the performance lab.
const (
	TraceTimers   = "perf:timers"
	TraceCompute  = "perf:compute"
	TraceLongTask = "perf:longtask"
)

// Metrics is the performance lab's last measurement.
type Metrics struct {
	LastAction       string
	LastDuration     time.Duration
	IntervalsRunning int
	LastActionTime   time.Time
}

// ComputeResult is the outcome of a prime computation.
type ComputeResult struct {
	Limit     int
	Primes    int
	StoppedAt int
	Cancelled bool
	Duration  time.Duration
}

// PerfLab generates measurable work.
type PerfLab struct {
	tag Tagger
	log func(msg string, args ...any)
	now func() time.Time

	mu            sync.Mutex
	storm         *timers.Group
	computeCancel context.CancelFunc
	metrics       Metrics
}

// PerfOption configures a PerfLab.
type PerfOption func(*PerfLab)

// WithPerfLog sets the diagnostics log function (storm ticks go here).
func WithPerfLog(fn func(msg string, args ...any)) PerfOption {
	return func(p *PerfLab) {
		p.log = fn
	}
}

// WithPerfClock overrides time.Now.
func WithPerfClock(now func() time.Time) PerfOption {
	return func(p *PerfLab) {
		p.now = now
	}
}

// NewPerfLab creates a PerfLab reporting through tag.
func NewPerfLab(tag Tagger, opts ...PerfOption) *PerfLab {
	p := &PerfLab{
		tag:   tag,
		log:   func(string, ...any) {},
		now:   time.Now,
		storm: timers.NewGroup(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Metrics returns the last measurement.
func (p *PerfLab) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

func (p *PerfLab) setMetric(action string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics.LastAction = action
	p.metrics.LastDuration = d
	p.metrics.LastActionTime = p.now()
}

// StartStorm starts count intervals (clamped to [MinStorm, MaxStorm]) plus
// up to MaxStormTimeout one-shot timers. A running storm is stopped first.
// Returns the clamped count.
func (p *PerfLab) StartStorm(count int) int {
	if count == 0 {
		count = DefaultStorm
	}
	count = clamp(count, MinStorm, MaxStorm)
	if p.StormRunning() > 0 {
		p.StopStorm()
	}

	start := p.now()
	for i := 0; i < count; i++ {
		i := i
		every := time.Duration(50+(i%7)*10) * time.Millisecond
		p.storm.Every(every, func() {
			if i%10 == 0 {
				p.log("storm:tick", "i", i)
			}
		})
	}
	for i := 0; i < min(MaxStormTimeout, count); i++ {
		p.storm.After(time.Duration(500+i*10)*time.Millisecond, func() {})
	}
	dur := p.now().Sub(start)

	p.mu.Lock()
	p.metrics.IntervalsRunning = count
	p.mu.Unlock()
	p.setMetric(fmt.Sprintf("Started %d intervals", count), dur)
	p.tag.Tag("tracepoint", TraceTimers, fmt.Sprintf("start:%d:%dms", count, roundMs(dur)))
	return count
}

// StopStorm cancels every storm timer in one pass.
func (p *PerfLab) StopStorm() {
	start := p.now()
	p.storm.StopAll()
	dur := p.now().Sub(start)

	p.mu.Lock()
	p.metrics.IntervalsRunning = 0
	p.mu.Unlock()
	p.setMetric("Stopped timer storm", dur)
	p.tag.Tag("tracepoint", TraceTimers, fmt.Sprintf("stop:%dms", roundMs(dur)))
}

// StormRunning returns the number of outstanding storm timers.
func (p *PerfLab) StormRunning() int {
	return p.storm.Len()
}

// Compute counts primes up to limit (clamped to [MinComputeLimit,
// MaxComputeLimit]) in chunks, yielding between chunks and stopping when ctx
// is cancelled.
func (p *PerfLab) Compute(ctx context.Context, limit int) ComputeResult {
	if limit == 0 {
		limit = DefaultComputeLimit
	}
	limit = clamp(limit, MinComputeLimit, MaxComputeLimit)
	start := p.now()
	res := ComputeResult{Limit: limit}

	n := 2
	for n <= limit {
		end := min(limit, n+computeChunk)
		for ; n <= end; n++ {
			if ctx.Err() != nil {
				res.Cancelled = true
				res.StoppedAt = n
				res.Duration = p.now().Sub(start)
				p.setMetric("Computation cancelled", res.Duration)
				p.tag.Tag("tracepoint", TraceCompute, fmt.Sprintf("cancel:%d:%dms", n, roundMs(res.Duration)))
				return res
			}
			if isPrime(n) {
				res.Primes++
			}
		}
		runtime.Gosched()
	}

	res.StoppedAt = limit
	res.Duration = p.now().Sub(start)
	p.setMetric("Heavy computation finished", res.Duration)
	p.tag.Tag("tracepoint", TraceCompute, fmt.Sprintf("done:%d:%dms", limit, roundMs(res.Duration)))
	return res
}

// StartCompute runs Compute in the background. StopCompute cancels it.
// The result is delivered on the returned channel.
func (p *PerfLab) StartCompute(limit int) <-chan ComputeResult {
	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	if p.computeCancel != nil {
		p.computeCancel()
	}
	p.computeCancel = cancel
	p.mu.Unlock()

	out := make(chan ComputeResult, 1)
	go func() {
		defer cancel()
		out <- p.Compute(ctx, limit)
	}()
	return out
}

// StopCompute cancels a background computation, if any.
func (p *PerfLab) StopCompute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.computeCancel != nil {
		p.computeCancel()
		p.computeCancel = nil
	}
}

func isPrime(x int) bool {
	if x < 2 {
		return false
	}
	r := int(math.Sqrt(float64(x)))
	for i := 2; i <= r; i++ {
		if x%i == 0 {
			return false
		}
	}
	return true
}

// BusyLoop spins for d (clamped to [MinBusy, MaxBusy]) to produce a long
// task. Returns the measured duration.
func (p *PerfLab) BusyLoop(d time.Duration) time.Duration {
	if d == 0 {
		d = DefaultBusy
	}
	d = min(max(d, MinBusy), MaxBusy)

	start := time.Now()
	x := 0.0
	for time.Since(start) < d {
		x += math.Sqrt(rand.Float64() * 1_000_000)
	}
	dur := time.Since(start)

	p.setMetric(fmt.Sprintf("Busy loop ~%dms (x=%d)", roundMs(d), int64(math.Round(x))), dur)
	p.tag.Tag("tracepoint", TraceLongTask, fmt.Sprintf("%d:%dms", roundMs(d), roundMs(dur)))
	return dur
}
