// Package tasks — фоновая очередь отложенных побочных эффектов.
// Задачи выполняются на пуле воркеров отдельно от цикла запрос-ответ:
// их сбои логируются и никогда не доходят до инициировавшего запроса.
package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const defaultTaskTimeout = 30 * time.Second

type Task = func(ctx context.Context) error

type Queue struct {
	pool    *ants.Pool
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewQueue(size int, logger *slog.Logger) (*Queue, error) {
	pool, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Queue{
		pool:    pool,
		logger:  logger,
		timeout: defaultTaskTimeout,
	}, nil
}

// Submit ставит задачу в очередь. Ошибка выполнения логируется,
// вызывающему не возвращается.
func (q *Queue) Submit(name string, fn Task) {
	q.enqueue(name, func() error {
		return q.runAttempt(fn)
	})
}

// SubmitAfter ставит задачу с задержкой — так сверка бронирований
// запускается через несколько секунд после создания матча, не
// задерживая ответ клиенту.
func (q *Queue) SubmitAfter(delay time.Duration, name string, fn Task) {
	q.enqueue(name, func() error {
		time.Sleep(delay)
		return q.runAttempt(fn)
	})
}

// SubmitWithRetry повторяет задачу до attempts раз с экспоненциальной
// выдержкой; используется для писем и других внешних вызовов.
// Таймаут действует на каждую попытку отдельно: паузы между попытками
// не съедают время самой задачи.
func (q *Queue) SubmitWithRetry(name string, attempts int, backoff time.Duration, fn Task) {
	if attempts < 1 {
		attempts = 1
	}
	q.enqueue(name, func() error {
		var err error
		wait := backoff
		for attempt := 1; attempt <= attempts; attempt++ {
			if err = q.runAttempt(fn); err == nil {
				return nil
			}
			if attempt == attempts {
				break
			}
			q.logger.Warn("background task attempt failed, retrying",
				slog.String("task", name),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", wait),
				slog.Any("error", err),
			)
			time.Sleep(wait)
			wait *= 2
		}
		return err
	})
}

// runAttempt выполняет один запуск задачи под собственным таймаутом.
// Задача живёт дольше породившего её запроса, поэтому контекст
// собственный, от context.Background.
func (q *Queue) runAttempt(fn Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	return fn(ctx)
}

func (q *Queue) enqueue(name string, fn func() error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("task rejected, queue is closed", slog.String("task", name))
		return
	}
	q.wg.Add(1)
	q.mu.Unlock()

	submitErr := q.pool.Submit(func() {
		defer q.wg.Done()

		if err := fn(); err != nil {
			q.logger.Error("background task failed",
				slog.String("task", name),
				slog.Any("error", err),
			)
		}
	})
	if submitErr != nil {
		q.wg.Done()
		q.logger.Error("failed to submit background task",
			slog.String("task", name),
			slog.Any("error", submitErr),
		)
	}
}

// Close дожидается уже принятых задач и освобождает пул.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wg.Wait()
	q.pool.Release()
}
