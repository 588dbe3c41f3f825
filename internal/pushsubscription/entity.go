package pushsubscription

import (
	"slices"
	"time"
)

// Subscription is a browser push endpoint. ViewIDs limits the views it is
// notified about; empty means every view.
type Subscription struct {
	ID        string    `yaml:"id"`
	Endpoint  string    `yaml:"endpoint"`
	P256dhKey string    `yaml:"p256dh_key"`
	AuthKey   string    `yaml:"auth_key"`
	ViewIDs   []string  `yaml:"view_ids,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
}

func (s *Subscription) Wants(viewID string) bool {
	return len(s.ViewIDs) == 0 || viewID == "" || slices.Contains(s.ViewIDs, viewID)
}
