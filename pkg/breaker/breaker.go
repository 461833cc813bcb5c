package breaker

import (
	"sync"
	"time"

	"github.com/galdor/go-ejson"
	"github.com/galdor/go-influx-write/pkg/utils"
	"github.com/galdor/go-log"
)

const (
	DefaultResetDelay       = 10 // seconds
	DefaultFailureThreshold = 1
)

type BreakerCfg struct {
	Log *log.Logger `json:"-"`

	ResetDelay       int `json:"resetDelay,omitempty"` // seconds
	FailureThreshold int `json:"failureThreshold,omitempty"`
}

// Breaker opens after a number of consecutive failures and closes again
// once the reset delay has elapsed.
type Breaker struct {
	Cfg BreakerCfg
	Log *log.Logger

	resetDelay time.Duration

	open        bool
	openingTime *time.Time
	nbFailures  int

	now func() time.Time

	lock sync.Mutex
}

func (cfg *BreakerCfg) ValidateJSON(v *ejson.Validator) {
	if cfg.ResetDelay != 0 {
		v.CheckIntMin("resetDelay", cfg.ResetDelay, 1)
	}

	if cfg.FailureThreshold != 0 {
		v.CheckIntMin("failureThreshold", cfg.FailureThreshold, 1)
	}
}

func NewBreaker(cfg BreakerCfg) *Breaker {
	if cfg.Log == nil {
		cfg.Log = log.DefaultLogger("breaker")
	}

	if cfg.ResetDelay == 0 {
		cfg.ResetDelay = DefaultResetDelay
	}

	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}

	return &Breaker{
		Cfg: cfg,
		Log: cfg.Log,

		resetDelay: time.Duration(cfg.ResetDelay) * time.Second,

		now: time.Now,
	}
}

func (b *Breaker) IsClosed() bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	if !b.open {
		return true
	}

	if b.now().Sub(*b.openingTime) >= b.resetDelay {
		b.close()
		return true
	}

	return false
}

func (b *Breaker) RecordSuccess() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.nbFailures = 0
}

func (b *Breaker) RecordFailure() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.nbFailures++

	if !b.open && b.nbFailures >= b.Cfg.FailureThreshold {
		b.Log.Info("opening for %d seconds after %d failures",
			b.Cfg.ResetDelay, b.nbFailures)

		b.open = true
		b.openingTime = utils.Ref(b.now())
	}
}

func (b *Breaker) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.open {
		b.close()
	}
}

func (b *Breaker) close() {
	b.Log.Info("closing")

	b.open = false
	b.openingTime = nil
	b.nbFailures = 0
}
