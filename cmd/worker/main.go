package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"classtrack/internal/config"
	"classtrack/internal/queue"
	"classtrack/internal/store"
)

// tallyTTL bounds how long per-date attendance counters live in Redis.
const tallyTTL = 14 * 24 * time.Hour

// Worker consumes recorded-attendance events and folds them into per-date
// tallies the dashboard reads for its daily counts.
func main() {
	cfg := config.Load()
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classtrack:events")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal("queue consume init failed", zap.Error(err))
	}

	logger.Info("worker started, waiting for events")
	for msg := range messages {
		if msg.Type != queue.TypeAttendanceRecorded {
			continue
		}

		var evt queue.AttendanceRecorded
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			logger.Warn("malformed event", zap.Error(err))
			continue
		}

		kind := "teacher"
		if evt.Student {
			kind = "student"
		}
		key := "classtrack:tally:" + evt.Date + ":" + kind
		if err := redisClient.Client.Incr(ctx, key).Err(); err != nil {
			logger.Warn("tally update failed", zap.String("key", key), zap.Error(err))
			continue
		}
		_ = redisClient.Client.Expire(ctx, key, tallyTTL).Err()

		logger.Info("event processed",
			zap.String("record_id", evt.RecordID),
			zap.String("lesson_id", evt.LessonID),
			zap.String("date", evt.Date),
			zap.String("kind", kind))
	}

	logger.Info("worker stopped")
}
