package rabbitmq

import (
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"meal-order-service/config"
	"meal-order-service/models"
)

// Routing keys on the order exchange.
const (
	RoutingKeyOrder     = "order"
	RoutingKeyLifecycle = "lifecycle"
)

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Cfg     *config.Config
}

func NewRabbitMQ(cfg *config.Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQ{Conn: conn, Channel: ch, Cfg: cfg}, nil
}

// SetupQueues declares the durable order exchange, the main queue and the
// dead-letter topology. Messages rejected by consumers land on the DLQ.
func (r *RabbitMQ) SetupQueues() error {
	if err := r.Channel.ExchangeDeclare(
		r.Cfg.OrderExchange,
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if err := r.Channel.ExchangeDeclare(
		r.Cfg.DeadLetterQueue+"_exchange",
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return err
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if err := r.Channel.QueueBind(
		r.Cfg.DeadLetterQueue,
		"",
		r.Cfg.DeadLetterQueue+"_exchange",
		false,
		nil,
	); err != nil {
		return err
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.OrderQueue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    r.Cfg.DeadLetterQueue + "_exchange",
			"x-dead-letter-routing-key": r.Cfg.DeadLetterQueue,
		},
	); err != nil {
		return err
	}

	for _, key := range []string{RoutingKeyOrder, RoutingKeyLifecycle} {
		if err := r.Channel.QueueBind(
			r.Cfg.OrderQueue,
			key,
			r.Cfg.OrderExchange,
			false,
			nil,
		); err != nil {
			return err
		}
	}

	return nil
}

func (r *RabbitMQ) PublishOrderEvent(event models.OrderEvent) error {
	return r.publishJSON(RoutingKeyOrder, event)
}

func (r *RabbitMQ) PublishLifecycleEvent(event models.LifecycleEvent) error {
	return r.publishJSON(RoutingKeyLifecycle, event)
}

func (r *RabbitMQ) publishJSON(routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.Channel.Publish(
		r.Cfg.OrderExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			ContentType:  "application/json",
			Body:         body,
		},
	)
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		_ = r.Channel.Close()
	}
	if r.Conn != nil {
		_ = r.Conn.Close()
	}
}
