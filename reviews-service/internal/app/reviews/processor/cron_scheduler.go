package processor

import (
	"context"
	"time"

	"tastyreply/pkg/logger"
	"tastyreply/reviews-service/internal/app/reviews/service"

	"github.com/robfig/cron/v3"
)

// CronScheduler периодически синхронизирует отзывы всех подключённых пользователей
type CronScheduler struct {
	cron    *cron.Cron
	syncSvc service.SyncServiceInterface
	timeout time.Duration
}

func NewCronScheduler(syncSvc service.SyncServiceInterface, timeout time.Duration) *CronScheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	// Пропускаем запуск, если предыдущая синхронизация ещё идёт
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	return &CronScheduler{
		cron:    c,
		syncSvc: syncSvc,
		timeout: timeout,
	}
}

// Start регистрирует задачу и запускает планировщик.
// runImmediately - сразу выполнить одну синхронизацию в фоне.
func (s *CronScheduler) Start(ctx context.Context, schedule string, runImmediately bool) error {
	logger.Info().Str("schedule", schedule).Msg("Starting sync scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		s.run(ctx, "scheduled")
	})
	if err != nil {
		return err
	}

	s.cron.Start()

	if runImmediately {
		go s.run(ctx, "initial")
	}

	return nil
}

func (s *CronScheduler) run(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.syncSvc.SyncAll(runCtx); err != nil {
		logger.Error().Err(err).Str("trigger", trigger).Msg("Platform sync failed")
		return
	}

	logger.Debug().
		Str("trigger", trigger).
		Dur("duration", time.Since(start)).
		Msg("Platform sync job finished")
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping sync scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Sync scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
