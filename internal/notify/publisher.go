package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// Event is a real-time notification pushed to connected clients.
type Event struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(eventType string, data map[string]interface{}) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now()}
}

// Notifier is a publish-only sink for appointment, diagnostic and chat
// events. Sends are fire-and-forget: delivery failures are logged, never
// returned to callers.
type Notifier interface {
	PublishUser(userID string, event Event)
	PublishStaff(event Event)
}

// MQTTNotifier publishes events over an MQTT broker. Per-user events go to
// shop/users/<id>, staff-wide events to shop/staff.
type MQTTNotifier struct {
	client mqtt.Client
}

// ConnectMQTT connects to the broker at the given address.
func ConnectMQTT(brokerURL, clientID string) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timed out: %s", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &MQTTNotifier{client: client}, nil
}

// PublishUser sends an event to a single user's channel.
func (n *MQTTNotifier) PublishUser(userID string, event Event) {
	n.publish("shop/users/"+userID, event)
}

// PublishStaff sends an event to the staff-wide channel.
func (n *MQTTNotifier) PublishStaff(event Event) {
	n.publish("shop/staff", event)
}

func (n *MQTTNotifier) publish(topic string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithFields(log.Fields{"topic": topic, "type": event.Type}).
			WithError(err).Warn("Failed to encode notification")
		return
	}
	// QoS 0, token not awaited: the caller never blocks on delivery.
	token := n.client.Publish(topic, 0, false, payload)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.WithFields(log.Fields{"topic": topic, "type": event.Type}).
				WithError(token.Error()).Warn("Notification publish failed")
		}
	}()
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}

// NopNotifier drops all events. Used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) PublishUser(string, Event) {}
func (NopNotifier) PublishStaff(Event)        {}
