package notify

import (
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

// MQTTPublisher publishes device commands over MQTT. Each device listens on
// its own topic under a shared prefix, e.g. pillpal/device/<device_id>.
type MQTTPublisher struct {
	client      mqtt.Client
	topicPrefix string
}

// NewMQTTPublisher connects to the broker and returns a publisher. The
// connection is retried automatically by the client on loss.
func NewMQTTPublisher(brokerURL, clientID, topicPrefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		log.Printf("Connected to MQTT broker %s", brokerURL)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("connecting to MQTT broker %s: timeout", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", brokerURL, err)
	}

	return &MQTTPublisher{client: client, topicPrefix: topicPrefix}, nil
}

// Publish sends a command payload to the device's topic at QoS 1.
func (p *MQTTPublisher) Publish(deviceID, payload string) error {
	topic := p.topicPrefix + "/" + deviceID

	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	return nil
}

// Close disconnects from the broker, allowing in-flight messages to drain.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
