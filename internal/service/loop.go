package service

import (
	"context"
	"errors"
	"time"

	"heating_scheduler/internal/logger"
)

// LoopService triggers a heater run on every tick.
type LoopService struct {
	heaters Heaters
	log     *logger.Logger
}

func NewLoopService(heaters Heaters, log *logger.Logger) *LoopService {
	return &LoopService{heaters: heaters, log: log}
}

// Run ticks at the given interval until ctx is canceled. A non-positive interval returns at once.
func (s *LoopService) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, err := s.heaters.Run(ctx, RunOptions{})
			switch {
			case err == nil:
			case errors.Is(err, ErrRunInProgress):
				s.log.Infow("loop_run_skipped", "reason", "in_progress")
			default:
				s.log.Errorw("loop_run_failed", "err", err)
			}
		}
	}
}
