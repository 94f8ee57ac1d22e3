// services/scheduler.go
package services

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Schedules are cron expressions (minute resolution) for the in-process jobs.
type Schedules struct {
	FundIntegrity string
	Levels        string
}

// StartScheduler runs the fund audit and the level recomputation on their
// schedules. A run still in progress when its next tick fires is skipped.
func StartScheduler(schedules Schedules, audit *FundAuditJob, ranking *RankingService, log logrus.FieldLogger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.CronJob(schedules.FundIntegrity, false),
		gocron.NewTask(audit.RunScheduled),
		gocron.WithName("fund-integrity"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule fund integrity job %q: %w", schedules.FundIntegrity, err)
	}

	_, err = sched.NewJob(
		gocron.CronJob(schedules.Levels, false),
		gocron.NewTask(func() {
			res := ranking.RecomputeAllLevels(context.Background())
			if !res.Success {
				log.WithField("message", res.Message).Error("[Scheduler] level recomputation failed")
			}
		}),
		gocron.WithName("creator-levels"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule levels job %q: %w", schedules.Levels, err)
	}

	sched.Start()
	log.WithFields(logrus.Fields{
		"fund_integrity": schedules.FundIntegrity,
		"levels":         schedules.Levels,
	}).Info("[Scheduler] started")
	return sched, nil
}
