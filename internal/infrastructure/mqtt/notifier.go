package mqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

// Publisher is the subset of Client the Notifier needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// ContentChange is the JSON payload published after a successful content write.
type ContentChange struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier publishes content change notifications.
//
// A nil *Notifier is valid and publishes nothing, so callers can hold one
// unconditionally whether or not MQTT is enabled.
type Notifier struct {
	pub    Publisher
	topics Topics
	qos    byte
	now    func() time.Time
}

// NewNotifier creates a Notifier publishing through pub at the given QoS.
func NewNotifier(pub Publisher, topics Topics, qos byte) *Notifier {
	return &Notifier{
		pub:    pub,
		topics: topics,
		qos:    qos,
		now:    time.Now,
	}
}

// PublishContentChange sends a non-retained notification on
// {prefix}/content/{entity}/{action}.
func (n *Notifier) PublishContentChange(entity, action string, id, userID int64) error {
	if n == nil || n.pub == nil {
		return nil
	}

	payload, err := json.Marshal(ContentChange{
		Entity:    entity,
		Action:    action,
		ID:        id,
		UserID:    userID,
		Timestamp: n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshalling content change: %w", err)
	}

	return n.pub.Publish(n.topics.ContentChange(entity, action), payload, n.qos, false)
}
