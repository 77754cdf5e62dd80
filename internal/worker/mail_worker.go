package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"piscineiro/internal/database"
	"piscineiro/internal/mail"
	"piscineiro/internal/metrics"
	"piscineiro/internal/models"
)

// MailWorker drains the mail outbox. Tasks are persisted to the mail_queue
// table first, then scheduled through a Redis list for low latency; the DB
// poll picks up whatever Redis lost. Delivery failures back off exponentially
// and land in a dead-letter list after the retry budget runs out.
type MailWorker struct {
	db            *database.DB
	sender        mail.Sender
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.MailTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewMailWorker builds a worker with sane defaults.
func NewMailWorker(db *database.DB, sender mail.Sender, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *MailWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &MailWorker{
		db:            db,
		sender:        sender,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.MailTask, models.MailQueueSize),
		redisQueueKey: "mail:queue",
		deadLetterKey: "mail:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueMail persists the task to the outbox and schedules it via Redis or
// the in-memory queue. The payload is serialized to JSON.
func (w *MailWorker) EnqueueMail(ctx context.Context, mailType, recipient string, payload interface{}) error {
	if mailType == "" {
		return errors.New("mail type is required")
	}
	if recipient == "" {
		return errors.New("recipient is required")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.MailTask{
		MailType:  mailType,
		Recipient: recipient,
		Payload:   string(payloadBytes),
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	if err := w.db.CreateMailTask(ctx, &task); err != nil {
		return fmt.Errorf("persist mail task: %w", err)
	}

	// Try redis first for latency; the DB poll is the safety net.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("mail_worker: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("mail_worker: in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *MailWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("mail_worker: started")
	defer w.logger.Info().Msg("mail_worker: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingMailTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("mail_worker: fetch pending")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *MailWorker) tryLocalQueue() (models.MailTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.MailTask{}, false
	}
}

func (w *MailWorker) tryRedis(ctx context.Context) (models.MailTask, bool) {
	if w.redis == nil {
		return models.MailTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.MailTask{}, false
		}
		w.logger.Error().Err(err).Msg("mail_worker: redis BRPOP error")
		return models.MailTask{}, false
	}
	if len(res) != 2 {
		return models.MailTask{}, false
	}
	var task models.MailTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("mail_worker: decode redis task")
		return models.MailTask{}, false
	}
	return task, true
}

func (w *MailWorker) processTask(ctx context.Context, task *models.MailTask) {
	subject, body, err := mail.Render(task.MailType, task.Payload)
	if err != nil {
		// Rendering never recovers on retry
		metrics.IncMail(task.MailType, "failed")
		w.failTask(ctx, task, err)
		return
	}

	if err := w.sender.Send(ctx, task.Recipient, subject, body); err != nil {
		metrics.IncMail(task.MailType, "retry")
		w.retryOrFail(ctx, task, err)
		return
	}

	metrics.IncMail(task.MailType, "ok")
	if err := w.db.UpdateMailTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mail_worker: mark completed")
	}
}

func (w *MailWorker) retryOrFail(ctx context.Context, task *models.MailTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		metrics.IncMail(task.MailType, "failed")
		if err := w.db.UpdateMailTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mail_worker: mark failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextDelay := w.retryPolicy.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	if err := w.db.UpdateMailTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mail_worker: mark retry")
	}
}

func (w *MailWorker) failTask(ctx context.Context, task *models.MailTask, cause error) {
	if err := w.db.UpdateMailTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mail_worker: mark failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *MailWorker) pushRedis(ctx context.Context, task models.MailTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *MailWorker) pushDeadLetter(ctx context.Context, task *models.MailTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mail_worker: encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mail_worker: deadletter push")
	}
}
