package services

import "context"

// Notifier отправляет уведомление получателю. Вызовы fire-and-forget:
// ошибки доставки логируются фоновой очередью и не доходят до клиента.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, content string) error
}
