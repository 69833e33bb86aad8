package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"codearena/internal/judge"
	"codearena/internal/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// JudgePayload is what the intake boundary enqueues: the problem id travels
// alongside the submission id because contest-scoped problem resolution
// needs it explicitly.
type JudgePayload struct {
	SubmissionID string `json:"submission_id"`
	ProblemID    string `json:"problem_id"`
}

// JudgeWorker pops judging jobs off the Redis queue and runs them through
// the dispatcher on a bounded pool. A per-submission in-flight key enforces
// at most one concurrent judging attempt per submission id.
type JudgeWorker struct {
	rdb        *redis.Client
	dispatcher *judge.Dispatcher
}

func NewJudgeWorker(rdb *redis.Client, dispatcher *judge.Dispatcher) *JudgeWorker {
	return &JudgeWorker{rdb: rdb, dispatcher: dispatcher}
}

func (w *JudgeWorker) Start(ctx context.Context) {
	log.Println("Judge worker started, listening to queue:", config.AppConfig.JudgeQueueName)

	sem := make(chan struct{}, config.AppConfig.JudgeWorkerPoolSize)
	for {
		select {
		case <-ctx.Done():
			log.Println("Judge worker stopping...")
			return
		default:
			popped, err := w.rdb.BRPop(ctx, 0*time.Second, config.AppConfig.JudgeQueueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					log.Printf("Worker BRPop exiting or timed out: %v", err)
					time.Sleep(1 * time.Second)
					continue
				}
				log.Printf("ERROR: Failed to BRPop from Redis queue '%s': %v", config.AppConfig.JudgeQueueName, err)
				time.Sleep(5 * time.Second)
				continue
			}

			// popped is [queueName, value]
			if len(popped) < 2 || popped[1] == "" {
				log.Println("WARN: BRPop returned an empty payload.")
				continue
			}

			var payload JudgePayload
			if err := json.Unmarshal([]byte(popped[1]), &payload); err != nil {
				log.Printf("ERROR: Dropping malformed judge payload %q: %v", popped[1], err)
				continue
			}

			sem <- struct{}{}
			go func(payload JudgePayload) {
				defer func() { <-sem }()
				w.processJob(ctx, payload)
			}(payload)
		}
	}
}

func (w *JudgeWorker) processJob(ctx context.Context, payload JudgePayload) {
	lockKey := config.AppConfig.JudgeInflightKeyPrefix + payload.SubmissionID
	lockValue := uuid.NewString()
	lockTTL := time.Duration(config.AppConfig.JudgeInflightTTLSeconds) * time.Second

	ok, err := w.rdb.SetNX(ctx, lockKey, lockValue, lockTTL).Result()
	if err != nil {
		log.Printf("ERROR: Failed to attempt in-flight lock for submission %s: %v", payload.SubmissionID, err)
		w.requeue(ctx, payload)
		return
	}
	if !ok {
		// Concurrent double-invocation for the same submission is a
		// caller error; drop the duplicate.
		log.Printf("WARN: Submission %s already being judged, dropping duplicate job.", payload.SubmissionID)
		return
	}

	defer func() {
		script := redis.NewScript(`
            if redis.call("get", KEYS[1]) == ARGV[1] then
                return redis.call("del", KEYS[1])
            else
                return 0
            end
        `)
		if _, err := script.Run(context.WithoutCancel(ctx), w.rdb, []string{lockKey}, lockValue).Result(); err != nil {
			log.Printf("ERROR: Failed to release in-flight lock for submission %s: %v", payload.SubmissionID, err)
		}
	}()

	log.Printf("Worker picked up submission %s (problem %s)", payload.SubmissionID, payload.ProblemID)
	if err := w.dispatcher.Judge(ctx, payload.SubmissionID, payload.ProblemID); err != nil {
		// Verdict-level failures are persisted by the dispatcher; an
		// error here means the attempt itself could not complete.
		log.Printf("ERROR: Judging submission %s failed: %v", payload.SubmissionID, err)
	}
}

func (w *JudgeWorker) requeue(ctx context.Context, payload JudgePayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: Failed to marshal payload for re-queue: %v", err)
		return
	}
	if err := w.rdb.RPush(ctx, config.AppConfig.JudgeQueueName, data).Err(); err != nil {
		log.Printf("ERROR: Failed to re-queue submission %s: %v", payload.SubmissionID, err)
	} else {
		log.Printf("INFO: Submission %s re-queued.", payload.SubmissionID)
	}
}
