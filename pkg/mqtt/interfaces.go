package mqtt

import "context"

// Client is the broker connection used by the sky agent: sample ingestion
// subscribes through it and sky rings are published through it
type Client interface {
	// Connect blocks until the broker accepts the connection or ctx ends
	Connect(ctx context.Context) error

	// Disconnect announces the service offline and closes the connection
	Disconnect()

	// Subscribe registers handler for topic, which may contain wildcards
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// Publish sends payload to topic and waits for the broker ack
	Publish(topic string, qos byte, retained bool, payload []byte) error

	// IsConnected returns whether the client is currently connected
	IsConnected() bool
}

// MessageHandler is called once per received message
type MessageHandler func(Message)

// Message is a received MQTT message
type Message interface {
	Topic() string
	Payload() []byte

	// Ack acknowledges the message (for QoS > 0)
	Ack()
}

var _ Client = (*mqttClient)(nil)
