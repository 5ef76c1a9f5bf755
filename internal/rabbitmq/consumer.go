package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/warranty-tracker/internal/lib/sl"
)

// ErrDrop обработчик возвращает ошибку, обернутую в ErrDrop, если сообщение
// не имеет смысла доставлять повторно (например, невалидный JSON).
var ErrDrop = errors.New("drop message")

// Handler обрабатывает тело сообщения.
type Handler func(ctx context.Context, body []byte) error

// ConsumeChannel часть *amqp.Channel, нужная для потребления.
type ConsumeChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// ConsumerMessage подписывается на очередь и обрабатывает сообщения не более
// чем в concurrency горутинах. Успешные сообщения подтверждаются, неуспешные
// возвращаются в очередь, кроме обернутых в ErrDrop.
// Возвращаемый канал закрывается, когда потребление остановлено и все
// обработчики завершились.
func ConsumerMessage(ctx context.Context, ch ConsumeChannel, queueName string, concurrency int,
	log *slog.Logger, handler Handler) (<-chan struct{}, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		consume(ctx, delivery, concurrency, log, handler)
	}()
	return done, nil
}

func consume(ctx context.Context, delivery <-chan amqp.Delivery, concurrency int, log *slog.Logger, handler Handler) {
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer func() {
					<-sem
					wg.Done()
				}()
				handle(ctx, d, log, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func handle(ctx context.Context, d amqp.Delivery, log *slog.Logger, handler Handler) {
	err := handler(ctx, d.Body)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
		return
	}

	requeue := !errors.Is(err, ErrDrop)
	log.Warn("message handling failed", slog.Bool("requeue", requeue), sl.Err(err))
	if nackErr := d.Nack(false, requeue); nackErr != nil {
		log.Error("failed to nack message", sl.Err(nackErr))
	}
}
