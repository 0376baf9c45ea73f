package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// SetupRabbitMQ connects and declares the given queue so publishes never
// land on a missing queue.
func SetupRabbitMQ(url, queueName string) (*amqp.Channel, *amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		if cerr := conn.Close(); cerr != nil {
			return nil, nil, cerr
		}
		return nil, nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	return ch, conn, nil
}

func CloseRabbitMQ(ch *amqp.Channel, conn *amqp.Connection) error {
	var errs []error

	if err := ch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing RabbitMQ channel: %w", err))
	}

	if err := conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing RabbitMQ connection: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors occurred during RabbitMQ shutdown: %v", errs)
	}

	return nil
}
