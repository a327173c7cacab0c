package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yungbote/tutorstudio-backend/internal/platform/apierr"
	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
	"github.com/yungbote/tutorstudio-backend/internal/platform/openai"
	"github.com/yungbote/tutorstudio-backend/internal/repos"
	"github.com/yungbote/tutorstudio-backend/internal/types"
)

type PollerConfig struct {
	Interval time.Duration
	// MaxRetries bounds consecutive failed status queries before a job's
	// poll loop gives up.
	MaxRetries   int
	RetryInitial time.Duration
}

type pollHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// FineTunePoller runs one status loop per submitted job until the job is
// terminal, its poll is cancelled, or the poller shuts down.
type FineTunePoller struct {
	log      *logger.Logger
	cfg      PollerConfig
	provider openai.Provider
	models   repos.LlmModelRepo

	mu     sync.Mutex
	base   context.Context
	stop   context.CancelFunc
	active map[string]*pollHandle
}

func NewFineTunePoller(baseLog *logger.Logger, cfg PollerConfig, provider openai.Provider, models repos.LlmModelRepo) *FineTunePoller {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = 2 * time.Second
	}
	base, stop := context.WithCancel(context.Background())
	return &FineTunePoller{
		log:      baseLog.With("component", "FineTunePoller"),
		cfg:      cfg,
		provider: provider,
		models:   models,
		base:     base,
		stop:     stop,
		active:   map[string]*pollHandle{},
	}
}

// Start begins polling jobID. It returns false when the job is already
// being polled or the poller has shut down.
func (p *FineTunePoller) Start(jobID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.base.Err() != nil {
		return false
	}
	if _, ok := p.active[jobID]; ok {
		return false
	}
	ctx, cancel := context.WithCancel(p.base)
	h := &pollHandle{cancel: cancel, done: make(chan struct{})}
	p.active[jobID] = h
	go p.run(ctx, jobID, h)
	p.log.Info("Polling started", "job_id", jobID, "interval", p.cfg.Interval.String())
	return true
}

// Cancel stops polling jobID without touching its recorded status.
func (p *FineTunePoller) Cancel(jobID string) bool {
	p.mu.Lock()
	h, ok := p.active[jobID]
	p.mu.Unlock()
	if !ok {
		return false
	}
	h.cancel()
	return true
}

func (p *FineTunePoller) Active() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.active))
	for id := range p.active {
		out = append(out, id)
	}
	return out
}

// Shutdown cancels every loop and waits for them to exit or ctx to end.
func (p *FineTunePoller) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.stop()
	handles := make([]*pollHandle, 0, len(p.active))
	for _, h := range p.active {
		handles = append(handles, h)
	}
	p.mu.Unlock()

	for _, h := range handles {
		select {
		case <-h.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *FineTunePoller) run(ctx context.Context, jobID string, h *pollHandle) {
	log := p.log.With("job_id", jobID)
	defer func() {
		p.mu.Lock()
		if p.active[jobID] == h {
			delete(p.active, jobID)
		}
		p.mu.Unlock()
		h.cancel()
		close(h.done)
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Error("Poll loop panic", "panic", r)
		}
	}()

	for {
		if m, err := p.models.GetByJobID(ctx, jobID); err == nil && m != nil && m.Status.IsTerminal() {
			log.Info("Polling stopped: job already terminal", "status", m.Status)
			return
		}

		res, err := p.pollOnce(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Polling stopped: cancelled")
				return
			}
			log.Warn("Polling stopped: status query failed", "error", err)
			return
		}
		log.Debug("Job status", "status", res.Status)
		if res.Status.IsTerminal() {
			log.Info("Polling stopped: job finished", "status", res.Status)
			return
		}

		t := time.NewTimer(p.cfg.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			log.Info("Polling stopped: cancelled")
			return
		case <-t.C:
		}
	}
}

// pollOnce syncs the job's status, retrying transient failures with
// exponential backoff. Configuration errors are not retried.
func (p *FineTunePoller) pollOnce(ctx context.Context, jobID string) (*types.FineTuneResult, error) {
	attempt := 0
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.RetryInitial
	b.MaxInterval = p.cfg.Interval
	return backoff.Retry(ctx, func() (*types.FineTuneResult, error) {
		attempt++
		res, err := syncJobStatus(ctx, p.provider, p.models, jobID)
		if err == nil {
			return res, nil
		}
		if apierr.Is(err, apierr.CodeConfiguration) || errors.Is(err, context.Canceled) {
			return nil, backoff.Permanent(err)
		}
		p.log.Warn("Job status query failed", "job_id", jobID, "attempt", attempt, "error", err)
		return nil, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(p.cfg.MaxRetries)+1))
}
