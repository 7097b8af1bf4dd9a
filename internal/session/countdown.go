package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Tick is one countdown update.
type Tick struct {
	Remaining      time.Duration
	Formatted      string
	PercentElapsed float64
}

type CountdownConfig struct {
	ExpiresAt time.Time
	// Total is the allotted duration; PercentElapsed is measured against it.
	Total    time.Duration
	Interval time.Duration
	Now      func() time.Time
	OnTick   func(Tick)
	// OnExpire fires at most once per Countdown.
	OnExpire func()
}

// Countdown follows a server-supplied expiry instant.
type Countdown struct {
	cfg CountdownConfig

	startOnce  sync.Once
	expireOnce sync.Once
	stopOnce   sync.Once
	stop       chan struct{}
	done       chan struct{}
}

func NewCountdown(cfg CountdownConfig) *Countdown {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Countdown{cfg: cfg, stop: make(chan struct{}), done: make(chan struct{})}
}

// Start begins ticking. When the expiry is already past OnExpire runs before
// Start returns. Calling Start again has no effect.
func (c *Countdown) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.emit()
		if c.Expired() {
			c.fireExpire()
		}
		go c.run(ctx)
	})
}

func (c *Countdown) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			c.emit()
			if c.Expired() {
				c.fireExpire()
			}
		}
	}
}

func (c *Countdown) emit() {
	if c.cfg.OnTick == nil {
		return
	}
	c.cfg.OnTick(Tick{
		Remaining:      c.Remaining(),
		Formatted:      c.Formatted(),
		PercentElapsed: c.PercentElapsed(),
	})
}

func (c *Countdown) fireExpire() {
	c.expireOnce.Do(func() {
		if c.cfg.OnExpire != nil {
			c.cfg.OnExpire()
		}
	})
}

// Stop halts the ticker. It does not wait for the ticking goroutine, so it is
// safe to call from OnTick or OnExpire.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Done is closed once the ticking goroutine has exited.
func (c *Countdown) Done() <-chan struct{} { return c.done }

func (c *Countdown) Remaining() time.Duration {
	d := c.cfg.ExpiresAt.Sub(c.cfg.Now())
	if d < 0 {
		return 0
	}
	return d
}

func (c *Countdown) Expired() bool {
	return !c.cfg.Now().Before(c.cfg.ExpiresAt)
}

func (c *Countdown) Formatted() string {
	return FormatRemaining(c.Remaining())
}

// PercentElapsed is the share of Total already consumed, in [0, 100].
func (c *Countdown) PercentElapsed() float64 {
	if c.cfg.Total <= 0 {
		if c.Expired() {
			return 100
		}
		return 0
	}
	pct := float64(c.cfg.Total-c.Remaining()) / float64(c.cfg.Total) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// FormatRemaining renders d as MM:SS, or H:MM:SS from one hour up.
// Partial seconds round up so 00:00 only shows once time is out.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
