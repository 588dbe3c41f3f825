package pushnotification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kazz187/ganttguild/internal/eventbus"
	"github.com/kazz187/ganttguild/internal/schedule"
	"github.com/kazz187/ganttguild/pkg/clog"
	"github.com/kazz187/ganttguild/pkg/panicerr"
)

// Dispatcher turns ResourceConflict events into push notifications.
type Dispatcher struct {
	eventBus *eventbus.Bus
	sender   *Sender
	bufSize  int
}

func NewDispatcher(eventBus *eventbus.Bus, sender *Sender, bufSize int) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		sender:   sender,
		bufSize:  bufSize,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(d.bufSize)
	defer d.eventBus.Unsubscribe(subID)

	slog.InfoContext(ctx, "push notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("push notification dispatcher stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Type == eventbus.EventResourceConflict {
				ctx := clog.WithView(ctx, event.ViewID, string(event.Type))
				panicerr.Log(ctx, "push dispatcher", func(ctx context.Context) error {
					return d.handleResourceConflict(ctx, event)
				})
			}
		}
	}
}

func (d *Dispatcher) handleResourceConflict(ctx context.Context, event *eventbus.Event) error {
	payload, err := conflictNotification(event)
	if err != nil {
		return err
	}
	sent := d.sender.SendToAll(ctx, event.ViewID, payload)
	slog.DebugContext(ctx, "conflict notification sent", "resource_id", event.ResourceID, "delivered", sent)
	return nil
}

func conflictNotification(event *eventbus.Event) (*NotificationPayload, error) {
	var c schedule.ResourceConflict
	if err := json.Unmarshal([]byte(event.Payload), &c); err != nil {
		return nil, fmt.Errorf("failed to decode conflict payload: %w", err)
	}
	name := event.Metadata["resource_name"]
	if name == "" {
		name = c.ResourceID
	}
	return &NotificationPayload{
		Title: "Resource over-allocated",
		Body: fmt.Sprintf("%s is booked %d%% (capacity %d%%) from %s to %s: %s",
			name, c.TotalAllocation, c.Capacity,
			c.WindowStart.Format("Jan 2"), c.WindowEnd.Format("Jan 2"),
			strings.Join(c.ConflictingTaskIDs, ", ")),
		URL: fmt.Sprintf("/views/%s?resource=%s", event.ViewID, c.ResourceID),
		Tag: event.ViewID + "/" + c.ResourceID,
	}, nil
}
