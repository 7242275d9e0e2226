package service

import (
	"context"
	"time"

	"github.com/dtroode/feedback-server/internal/logger"
)

// Sweeper removes expired entries from a short-lived store.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// ExpiredTokenDeleter removes expired refresh token records.
type ExpiredTokenDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Janitor periodically purges expired challenges, exchange codes and
// refresh tokens.
type Janitor struct {
	challenges Sweeper
	codes      Sweeper
	tokens     ExpiredTokenDeleter
	extra      []namedSweeper
	interval   time.Duration
	logger     *logger.Logger
}

type namedSweeper struct {
	name string
	Sweeper
}

func NewJanitor(challenges, codes Sweeper, tokens ExpiredTokenDeleter, interval time.Duration, logger *logger.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{
		challenges: challenges,
		codes:      codes,
		tokens:     tokens,
		interval:   interval,
		logger:     logger,
	}
}

// AddSweeper registers another store to purge on every run.
func (j *Janitor) AddSweeper(name string, s Sweeper) {
	j.extra = append(j.extra, namedSweeper{name: name, Sweeper: s})
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep. Failures are logged and do not stop
// the remaining steps.
func (j *Janitor) RunOnce(ctx context.Context) {
	challenges, err := j.challenges.Sweep(ctx)
	if err != nil {
		j.logger.Error("Janitor: failed to sweep otp challenges", "error", err.Error())
	}

	codes, err := j.codes.Sweep(ctx)
	if err != nil {
		j.logger.Error("Janitor: failed to sweep exchange codes", "error", err.Error())
	}

	tokens, err := j.tokens.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("Janitor: failed to delete expired refresh tokens", "error", err.Error())
	}

	for _, s := range j.extra {
		n, err := s.Sweep(ctx)
		if err != nil {
			j.logger.Error("Janitor: failed to sweep", "store", s.name, "error", err.Error())
			continue
		}
		if n > 0 {
			j.logger.Debug("Janitor: swept", "store", s.name, "removed", n)
		}
	}

	if challenges > 0 || codes > 0 || tokens > 0 {
		j.logger.Info("Janitor: cleaned expired state",
			"otp_challenges", challenges,
			"exchange_codes", codes,
			"refresh_tokens", tokens)
	}
}
