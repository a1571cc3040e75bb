package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"
)

const schedulerLockKey = "sched:lock:trends"

// Scheduler re-runs trend synthesis on a cron spec. With redis available,
// a SetNX lock keeps replicas from firing duplicate runs.
type Scheduler struct {
	CronSpec string
	Rdb      *redis.Client
	Run      func(ctx context.Context)
	Stop     chan struct{}
	Logger   *log.Logger

	lastRun time.Time
}

func (s *Scheduler) Start() {
	if s.Logger == nil {
		s.Logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	}
	s.lastRun = time.Now()
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	if !isDue(s.CronSpec, s.lastRun) {
		return
	}
	ctx := context.Background()

	if s.Rdb != nil {
		ok, _ := s.Rdb.SetNX(ctx, schedulerLockKey, "1", 10*time.Minute).Result()
		if !ok {
			return
		}
		defer s.Rdb.Del(ctx, schedulerLockKey)
	}

	s.Logger.Printf("cron due, regenerating trends")
	s.lastRun = time.Now()
	s.Run(ctx)
}

func isDue(spec string, last time.Time) bool {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return false
	}
	next := expr.Next(last)
	return !next.IsZero() && next.Before(time.Now())
}
