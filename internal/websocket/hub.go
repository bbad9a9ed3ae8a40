package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ryounan4/Cramify/internal/dto"
	"github.com/ryounan4/Cramify/internal/entity"
	"github.com/ryounan4/Cramify/internal/pkg/logger"
)

// Hub fans form-state and session events out to connected browsers. Clients
// are keyed by form id (one browser, possibly several tabs). When Redis is
// configured, events are also published cross-instance.
type Hub struct {
	// Registered clients map: FormID -> List of Clients (multi-tab)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Identifies this process on the pub/sub channel. Every instance
	// receives its own publishes back; the id lets us skip those, since
	// the local fan-out already happened.
	instanceID string

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.FormID] = append(h.clients[client.FormID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"form_id": client.FormID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.FormID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.FormID] = append(clients[:i], clients[i+1:]...)
						close(c.Send)
						break
					}
				}
				if len(h.clients[client.FormID]) == 0 {
					delete(h.clients, client.FormID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"form_id": client.FormID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// NotifyState implements service.Notifier: push a form state transition to
// the tabs watching that form.
func (h *Hub) NotifyState(formID uuid.UUID, state *dto.StateResponse) {
	data, _ := json.Marshal(dto.StateEvent{
		Type: "state",
		Data: state,
	})

	h.mu.RLock()
	clients, localFound := h.clients[formID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"form_id": formID})
			}
		}
	}

	// Publish for other instances serving the same form.
	if h.rdb != nil {
		payload := map[string]interface{}{
			"origin":         h.instanceID,
			"target_form_id": formID.String(),
			"message":        json.RawMessage(data),
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "cramify_events", jsonPayload)
	}
}

// BroadcastSession pushes a session change notification to ALL connected
// clients.
func (h *Hub) BroadcastSession(event entity.SessionEvent) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "session",
		"data": map[string]interface{}{
			"event":       string(event.Type),
			"email":       event.Email,
			"occurred_at": event.OccurredAt,
		},
	})

	h.mu.RLock()
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
	h.mu.RUnlock()

	if h.rdb != nil {
		payload := map[string]interface{}{
			"origin":         h.instanceID,
			"target_form_id": "*", // Wildcard for broadcast
			"message":        json.RawMessage(data),
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "cramify_events", jsonPayload)
	}
}

func (h *Hub) subscribeToRedis() {
	// All instances subscribe to "cramify_events"; each delivers to the
	// forms it has locally and ignores the rest.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cramify_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		h.handleRedisPayload(msg.Payload)
	}
}

func (h *Hub) handleRedisPayload(raw string) {
	var payload struct {
		Origin       string          `json:"origin"`
		TargetFormID string          `json:"target_form_id"`
		Message      json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		log.Printf("Redis msg parse error: %v", err)
		return
	}

	// Our own publish echoed back; local clients already got it.
	if payload.Origin == h.instanceID {
		return
	}

	if payload.TargetFormID == "*" {
		h.mu.RLock()
		for _, clients := range h.clients {
			for _, client := range clients {
				select {
				case client.Send <- payload.Message:
				default:
				}
			}
		}
		h.mu.RUnlock()
		return
	}

	fid, err := uuid.Parse(payload.TargetFormID)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients, ok := h.clients[fid]
	h.mu.RUnlock()

	if ok {
		for _, client := range clients {
			select {
			case client.Send <- payload.Message:
			default:
			}
		}
	}
}
