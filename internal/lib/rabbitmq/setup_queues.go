package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetParkingQueues возвращает очереди событий парковки.
func GetParkingQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "parking.exit", RoutingKey: "exit"},
	}
}

// SetupQueues объявляет очереди событий парковки на канале.
func SetupQueues(ch *amqp.Channel) error {
	const op = "rabbitmq.SetupQueues"
	for _, q := range GetParkingQueues() {
		if _, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}
