package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

type Channel string

func (c Channel) String() string {
	return string(c)
}

const (
	ORDERS_CHANNEL       Channel = "washfamily.orders"
	AVAILABILITY_CHANNEL Channel = "washfamily.availability"
)

type MessageType string

const (
	ORDER_TRANSITIONED MessageType = "order_transitioned"
	ORDER_CREATED      MessageType = "order_created"
	AVAILABILITY_SAVED MessageType = "availability_saved"
)

type Event struct {
	ID        string         `json:"id"`
	Type      MessageType    `json:"type"`
	Channel   Channel        `json:"channel"`
	SessionID string         `json:"sessionId,omitempty"`
	UserID    string         `json:"userId,omitempty"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// ClientID is the client who owns the order an order event is about.
func (e Event) ClientID() string {
	clientID, _ := e.Data["clientId"].(string)
	return clientID
}

type EventHandler func(event Event) error

// EventBus fans gateway events out over valkey pub/sub so every gateway
// instance sees them. Without a client, events are delivered to local
// handlers only.
type EventBus struct {
	client    valkey.Client
	log       logger.Logger
	handlers  map[Channel][]EventHandler
	listening map[Channel]bool
	mutex     sync.RWMutex
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(client valkey.Client) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventBus{
		client:    client,
		log:       logger.New("EventBus"),
		handlers:  make(map[Channel][]EventHandler),
		listening: make(map[Channel]bool),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (eb *EventBus) Publish(channel Channel, event Event) error {
	log := eb.log.Function("Publish")

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Channel == "" {
		event.Channel = channel
	}

	if eb.client == nil {
		eb.notifyLocalHandlers(channel, event)
		return nil
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "eventID", event.ID)
	}

	ctx, cancel := context.WithTimeout(eb.ctx, 5*time.Second)
	defer cancel()

	err = eb.client.Do(ctx, eb.client.B().Publish().Channel(channel.String()).Message(string(eventData)).Build()).
		Error()
	if err != nil {
		return log.Err("failed to publish event", err, "channel", channel, "eventID", event.ID)
	}

	log.Debug("Event published", "channel", channel, "eventID", event.ID, "eventType", event.Type)
	return nil
}

func (eb *EventBus) Subscribe(channel Channel, handler EventHandler) {
	eb.mutex.Lock()
	eb.handlers[channel] = append(eb.handlers[channel], handler)
	startListener := eb.client != nil && !eb.listening[channel]
	eb.listening[channel] = true
	eb.mutex.Unlock()

	eb.log.Function("Subscribe").Info("Handler subscribed", "channel", channel)

	if startListener {
		eb.wg.Add(1)
		go eb.listenToChannel(channel)
	}
}

func (eb *EventBus) notifyLocalHandlers(channel Channel, event Event) {
	log := eb.log.Function("notifyLocalHandlers")

	eb.mutex.RLock()
	handlers := append([]EventHandler(nil), eb.handlers[channel]...)
	eb.mutex.RUnlock()

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			log.Er("handler failed", err, "channel", channel, "eventID", event.ID, "eventType", event.Type)
		}
	}
}

func (eb *EventBus) listenToChannel(channel Channel) {
	defer eb.wg.Done()
	log := eb.log.Function("listenToChannel")

	err := eb.client.Receive(
		eb.ctx,
		eb.client.B().Subscribe().Channel(channel.String()).Build(),
		func(msg valkey.PubSubMessage) {
			var event Event
			if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
				log.Er("failed to unmarshal event", err, "channel", channel)
				return
			}
			eb.notifyLocalHandlers(channel, event)
		},
	)
	if err != nil && eb.ctx.Err() == nil {
		log.Er("stopped listening to channel", err, "channel", channel)
	}
}

func (eb *EventBus) Close() error {
	eb.cancel()
	eb.wg.Wait()

	eb.log.Function("Close").Info("EventBus closed")
	return nil
}

func (eb *EventBus) PublishOrderTransition(
	sessionID, userID, orderID, clientID string,
	role, action, status string,
) error {
	return eb.Publish(ORDERS_CHANNEL, Event{
		Type:      ORDER_TRANSITIONED,
		SessionID: sessionID,
		UserID:    userID,
		Data: map[string]any{
			"orderId":  orderID,
			"clientId": clientID,
			"role":     role,
			"action":   action,
			"status":   status,
		},
	})
}

func (eb *EventBus) PublishAvailabilitySaved(sessionID, userID string, created, deleted int) error {
	return eb.Publish(AVAILABILITY_CHANNEL, Event{
		Type:      AVAILABILITY_SAVED,
		SessionID: sessionID,
		UserID:    userID,
		Data: map[string]any{
			"created": created,
			"deleted": deleted,
		},
	})
}

func (eb *EventBus) PublishOrderCreated(sessionID, userID, orderID string) error {
	return eb.Publish(ORDERS_CHANNEL, Event{
		Type:      ORDER_CREATED,
		SessionID: sessionID,
		UserID:    userID,
		Data:      map[string]any{"orderId": orderID, "clientId": userID},
	})
}
