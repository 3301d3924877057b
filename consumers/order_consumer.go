package consumers

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"meal-order-service/config"
	"meal-order-service/models"
	"meal-order-service/rabbitmq"
)

// StartOrderConsumer drains the order queue (notification hook for
// order/lifecycle events) and the dead-letter queue.
func StartOrderConsumer(ch *amqp.Channel, cfg *config.Config) {
	msgs, err := ch.Consume(
		cfg.OrderQueue,
		"meal-order-service", // consumer tag
		false,                // auto-ack
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,
	)
	if err != nil {
		log.Fatalf("Failed to register consumer: %v", err)
	}

	go func() {
		for msg := range msgs {
			processMessage(msg)
		}
	}()

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"meal-order-service-dlq",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Printf("Failed to register DLQ consumer: %v", err)
		return
	}

	go func() {
		for msg := range dlqMsgs {
			processDeadLetter(msg)
		}
	}()
}

func processMessage(msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in message processing: %v", r)
		}
	}()

	switch msg.RoutingKey {
	case rabbitmq.RoutingKeyOrder:
		var event models.OrderEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			log.Printf("Invalid order event payload: %v", err)
			_ = msg.Nack(false, false) // to the DLQ, no requeue
			return
		}
		handleOrderEvent(event)
	case rabbitmq.RoutingKeyLifecycle:
		var event models.LifecycleEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			log.Printf("Invalid lifecycle event payload: %v", err)
			_ = msg.Nack(false, false)
			return
		}
		log.Printf("Lifecycle tick summary: expired=%d activated=%d", event.ExpiredCount, event.ActivatedCount)
	default:
		log.Printf("Unknown routing key: %s", msg.RoutingKey)
		_ = msg.Nack(false, false)
		return
	}

	_ = msg.Ack(false)
}

func handleOrderEvent(event models.OrderEvent) {
	// Notification delivery is out of scope; downstream services consume
	// from the same exchange.
	switch event.Type {
	case "created":
		log.Printf("Order %s created for customer %d on %s", event.OrderNumber, event.CustomerID, event.OrderDate)
	case "cancelled":
		log.Printf("Order %s cancelled", event.OrderNumber)
	case "delivered":
		log.Printf("Order %s fully delivered", event.OrderNumber)
	default:
		log.Printf("Unknown order event type: %s", event.Type)
	}
}

func processDeadLetter(msg amqp.Delivery) {
	log.Printf("Received dead letter (key %s): %s", msg.RoutingKey, msg.Body)
	_ = msg.Ack(false)
}
