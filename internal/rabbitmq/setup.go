package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// DecisionsExchange — обменник, в который публикуются решения по заявкам.
const DecisionsExchange = "access.decisions"

// QueueConfig описывает очередь и ключ маршрутизации для её привязки.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetDecisionQueues возвращает очереди потребителей событий решений.
func GetDecisionQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "access.decision.approved", RoutingKey: "approved"},
		{QueueName: "access.decision.rejected", RoutingKey: "rejected"},
	}
}

// SetupChannel открывает канал, объявляет обменник решений и привязывает
// к нему переданные очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		DecisionsExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			DecisionsExchange,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
