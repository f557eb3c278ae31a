package ws

import "encoding/json"

// Notification is one user-facing event pushed to connected clients.
type Notification struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	Category    string `json:"category"` // e.g. "production", "stock", "divergence"
	ReferenceID string `json:"reference_id,omitempty"`
}

// Notifier is fire-and-forget: implementations must never block the
// caller or surface delivery failures as errors.
type Notifier interface {
	Notify(n Notification)
}

type hubNotifier struct {
	hub *Hub
}

// NewHubNotifier broadcasts notifications to every connected
// WebSocket client.
func NewHubNotifier(hub *Hub) Notifier {
	return &hubNotifier{hub: hub}
}

func (n *hubNotifier) Notify(notification Notification) {
	go func() {
		payload := map[string]interface{}{
			"type":         "notification",
			"notification": notification,
		}
		msg, _ := json.Marshal(payload)
		n.hub.Broadcast <- msg
	}()
}
