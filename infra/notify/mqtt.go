package notify

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/chargestation/core/model"
	"github.com/kilianp07/chargestation/infra/logger"
)

// MQTTConfig defines the connection parameters for the MQTT notifier.
type MQTTConfig struct {
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos"`
	Retained    bool        `json:"retained"`
	LWTTopic    string      `json:"lwt_topic"`
	LWTPayload  string      `json:"lwt_payload"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTNotifier publishes notifications on a per-user topic:
// <prefix>/<station>/users/<user>/notifications.
type MQTTNotifier struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retained   bool
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
}

// mqttMessage is the JSON payload published for each notification.
type mqttMessage struct {
	MessageID string                 `json:"message_id"`
	StationID int                    `json:"station_id"`
	UserID    int                    `json:"user_id"`
	Kind      model.NotificationKind `json:"kind"`
	Message   string                 `json:"message"`
	Value     *float64               `json:"value,omitempty"`
	Time      time.Time              `json:"time"`
}

// NewMQTTNotifier connects to the broker.
func NewMQTTNotifier(cfg MQTTConfig) (*MQTTNotifier, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt notifier: broker is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "chargestation-" + uuid.NewString()[:8]
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_notifier")
	n := &MQTTNotifier{
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retained:   cfg.Retained,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
	}
	if n.prefix == "" {
		n.prefix = "stations"
	}
	if n.maxRetries <= 0 {
		n.maxRetries = 3
	}
	if n.backoff <= 0 {
		n.backoff = 100 * time.Millisecond
	}
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	n.cli = c
	return n, nil
}

// NewClientOptions builds mqtt client options from MQTTConfig.
func NewClientOptions(cfg MQTTConfig) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.QoS, false)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c MQTTConfig) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("read ca: no certificates in %s", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// Topic returns the topic a notification is published on.
func (m *MQTTNotifier) Topic(n model.Notification) string {
	return fmt.Sprintf("%s/%d/users/%d/notifications", m.prefix, n.StationID, n.UserID)
}

// Notify publishes n, retrying with exponential backoff.
func (m *MQTTNotifier) Notify(n model.Notification) error {
	payload, err := json.Marshal(newMessage(n))
	if err != nil {
		return err
	}
	topic := m.Topic(n)
	var publishErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		token := m.cli.Publish(topic, m.qos, m.retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			m.logger.Debugf("sent %s notification to %s", n.Kind, topic)
			return nil
		}
		m.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < m.maxRetries {
			time.Sleep(m.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("mqtt notify %s: %w", topic, publishErr)
}

// Close disconnects from the broker.
func (m *MQTTNotifier) Close() error {
	if m.cli != nil && m.cli.IsConnected() {
		m.cli.Disconnect(250)
	}
	return nil
}

func newMessage(n model.Notification) mqttMessage {
	msg := mqttMessage{
		MessageID: uuid.NewString(),
		StationID: n.StationID,
		UserID:    n.UserID,
		Kind:      n.Kind,
		Message:   n.Message,
		Time:      n.Time,
	}
	if n.HasValue {
		v := n.Value
		msg.Value = &v
	}
	return msg
}
