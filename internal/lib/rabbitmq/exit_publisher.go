package rabbitmq

import "github.com/streadway/amqp"

// Publisher публикует события выезда через открытый канал.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создаёт публикатор поверх канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// PublishExit отправляет событие выезда в очередь parking.exit.
func (p *Publisher) PublishExit(event ExitEvent) error {
	return PublishMessage(p.ch, "", "parking.exit", event)
}
