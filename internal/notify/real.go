package notify

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// BrokerOptions configures the broker connection.
type BrokerOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	topic  string
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(o BrokerOptions) (*RealPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	client := paho.NewClient(opts)
	if err := connect(client, connectTimeout); err != nil {
		return nil, err
	}

	return &RealPublisher{client: client, topic: o.Topic}, nil
}

// connect waits for the first connection. On failure the client is
// disconnected so connect-retry stops running in the background.
func connect(client paho.Client, timeout time.Duration) error {
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return fmt.Errorf("connect to broker: %w", err)
	}
	return nil
}

// PublishDevice sends the ledger value, QoS 1 and retained so subscribers see the latest state.
func (p *RealPublisher) PublishDevice(device, value string) error {
	return p.publish(DeviceTopic(p.topic, device), 1, true, []byte(value))
}

// PublishRun sends the run summary, QoS 0 and not retained.
func (p *RealPublisher) PublishRun(s RunSummary) error {
	payload, err := FormatRunPayload(s)
	if err != nil {
		return fmt.Errorf("format run payload: %w", err)
	}
	return p.publish(RunTopic(p.topic), 0, false, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
