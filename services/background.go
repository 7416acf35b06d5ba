package services

import (
	"context"
	"time"
)

// TaskQueue — фоновая очередь отложенных побочных эффектов (сверка
// бронирований, письма). Реализация — пакет tasks; задачи выполняются
// отдельно от цикла запрос-ответ, их ошибки логируются и не
// откатывают инициировавшую запись.
type TaskQueue interface {
	Submit(name string, fn func(ctx context.Context) error)
	SubmitAfter(delay time.Duration, name string, fn func(ctx context.Context) error)
	SubmitWithRetry(name string, attempts int, backoff time.Duration, fn func(ctx context.Context) error)
}
