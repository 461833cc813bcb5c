package influx

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/galdor/go-ejson"
	"github.com/galdor/go-influx-write/pkg/breaker"
	"github.com/galdor/go-influx-write/pkg/utils"
	"github.com/galdor/go-log"
)

const DefaultGoProbeInterval = 10 // seconds

type GoProbeCfg struct {
	Log    *log.Logger `json:"-"`
	Writer *Writer     `json:"-"`

	Interval int               `json:"interval,omitempty"` // seconds
	Tags     map[string]string `json:"tags,omitempty"`

	Breaker breaker.BreakerCfg `json:"breaker"`
}

// GoProbe periodically writes points describing the Go runtime. Each probe
// is a single write. Failed writes are logged and open a circuit breaker
// which suppresses writes until its reset delay has elapsed.
type GoProbe struct {
	Cfg    GoProbeCfg
	Log    *log.Logger
	Writer *Writer

	breaker  *breaker.Breaker
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (cfg *GoProbeCfg) ValidateJSON(v *ejson.Validator) {
	if cfg.Interval != 0 {
		v.CheckIntMin("interval", cfg.Interval, 1)
	}

	v.Push("tags")
	for name, value := range cfg.Tags {
		v.CheckStringNotEmpty(name, value)
	}
	v.Pop()

	v.CheckOptionalObject("breaker", &cfg.Breaker)
}

func NewGoProbe(cfg GoProbeCfg) (*GoProbe, error) {
	if cfg.Log == nil {
		cfg.Log = log.DefaultLogger("go_probe")
	}

	if cfg.Writer == nil {
		return nil, fmt.Errorf("missing writer")
	}

	if cfg.Interval == 0 {
		cfg.Interval = DefaultGoProbeInterval
	}

	if cfg.Breaker.Log == nil {
		cfg.Breaker.Log = cfg.Log.Child("breaker", log.Data{})
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := GoProbe{
		Cfg:    cfg,
		Log:    cfg.Log,
		Writer: cfg.Writer,

		breaker:  breaker.NewBreaker(cfg.Breaker),
		interval: time.Duration(cfg.Interval) * time.Second,

		ctx:    ctx,
		cancel: cancel,
	}

	return &p, nil
}

func (p *GoProbe) Start() {
	p.wg.Add(1)
	go p.main()
}

func (p *GoProbe) Stop() {
	p.cancel()
	p.wg.Wait()
}

// Done returns a channel which is closed once the probe has been stopped.
func (p *GoProbe) Done() <-chan struct{} {
	return p.ctx.Done()
}

func (p *GoProbe) main() {
	defer p.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return

		case <-timer.C:
			p.safeProbe()
			timer.Reset(p.interval)
		}
	}
}

func (p *GoProbe) safeProbe() {
	defer func() {
		if v := recover(); v != nil {
			msg := utils.RecoverValueString(v)
			trace := utils.StackTrace(0, 20, true)

			p.Log.Error("panic: %s\n%s", msg, trace)
		}
	}()

	if !p.breaker.IsClosed() {
		return
	}

	if err := p.Probe(p.ctx, time.Now()); err != nil {
		if p.ctx.Err() != nil {
			return
		}

		p.Log.Error("cannot write points: %v", err)
		p.breaker.RecordFailure()
		return
	}

	p.breaker.RecordSuccess()
}

// Probe collects runtime statistics and writes them.
func (p *GoProbe) Probe(ctx context.Context, now time.Time) error {
	points := Points{
		goProbeGoroutinesPoint(now, p.Cfg.Tags),
		goProbeMemoryPoint(now, p.Cfg.Tags),
	}

	return p.Writer.Write(ctx, points)
}

func goProbeGoroutinesPoint(now time.Time, tags map[string]string) *Point {
	b := NewPointBuilder("go_goroutines").WithTime(now)
	for key, value := range tags {
		b.WithTag(key, value)
	}

	return b.WithField("count", Integer(int64(runtime.NumGoroutine()))).Point()
}

func goProbeMemoryPoint(now time.Time, tags map[string]string) *Point {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	b := NewPointBuilder("go_memory").WithTime(now)
	for key, value := range tags {
		b.WithTag(key, value)
	}

	return b.
		WithField("heap_alloc", UInteger(stats.HeapAlloc)).
		WithField("heap_sys", UInteger(stats.HeapSys)).
		WithField("heap_idle", UInteger(stats.HeapIdle)).
		WithField("heap_in_use", UInteger(stats.HeapInuse)).
		WithField("heap_released", UInteger(stats.HeapReleased)).
		WithField("stack_in_use", UInteger(stats.StackInuse)).
		WithField("stack_sys", UInteger(stats.StackSys)).
		WithField("nb_gcs", UInteger(uint64(stats.NumGC))).
		WithField("gc_cpu_time_fraction", Float(stats.GCCPUFraction)).
		Point()
}
