package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Start runs the sweeper every interval until ctx is cancelled.
func Start(ctx context.Context, sweeper *OfflineSweeper, interval time.Duration, log *zap.Logger) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			queued, err := sweeper.Run(ctx)
			if err != nil {
				log.Error("Offline sweep failed", zap.Error(err))
				return
			}
			if queued > 0 {
				log.Debug("Offline sweep queued transitions", zap.Int("devices", queued))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	log.Info("Starting offline sweep",
		zap.Duration("interval", interval),
		zap.Duration("offline_after", sweeper.after),
	)
	s.Start()

	<-ctx.Done()

	return s.Shutdown()
}
