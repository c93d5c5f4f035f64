package bridge

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker   string
	ClientID string
	QoS      byte
	Timeout  time.Duration
}

// MQTT wraps a paho client. It publishes and subscribes with bounded waits
// so a missing broker never blocks the training loop for long.
type MQTT struct {
	client  paho.Client
	qos     byte
	timeout time.Duration
	mu      sync.Mutex
}

// NewMQTT creates a client but does not connect.
func NewMQTT(cfg MQTTConfig) *MQTT {
	if cfg.Broker == "" {
		cfg.Broker = "tcp://localhost:1883"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "vrkit"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)
	return &MQTT{client: paho.NewClient(opts), qos: cfg.QoS, timeout: cfg.Timeout}
}

func (m *MQTT) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := m.client.Connect()
	if !token.WaitTimeout(m.timeout) {
		return &TimeoutError{Op: "connect"}
	}
	return token.Error()
}

func (m *MQTT) Publish(topic string, payload []byte) error {
	token := m.client.Publish(topic, m.qos, false, payload)
	if !token.WaitTimeout(m.timeout) {
		return &TimeoutError{Op: "publish", Topic: topic}
	}
	return token.Error()
}

// Subscribe delivers messages on topic (wildcards allowed) to fn. fn runs
// on the paho callback goroutine.
func (m *MQTT) Subscribe(topic string, fn func(topic string, payload []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := m.client.Subscribe(topic, m.qos, func(_ paho.Client, msg paho.Message) {
		fn(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(m.timeout) {
		return &TimeoutError{Op: "subscribe", Topic: topic}
	}
	return token.Error()
}

func (m *MQTT) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client.Disconnect(250)
}

func (m *MQTT) IsConnected() bool {
	return m.client.IsConnected()
}

// TimeoutError reports a broker operation that did not finish in time.
type TimeoutError struct {
	Op    string
	Topic string
}

func (e *TimeoutError) Error() string {
	if e.Topic == "" {
		return "mqtt " + e.Op + " timeout"
	}
	return "mqtt " + e.Op + " timeout: " + e.Topic
}
