package eventbus

import "time"

type EventType string

const (
	EventViewCreated         EventType = "ViewCreated"
	EventViewDeleted         EventType = "ViewDeleted"
	EventTaskCreated         EventType = "TaskCreated"
	EventTaskUpdated         EventType = "TaskUpdated"
	EventTaskDeleted         EventType = "TaskDeleted"
	EventDependencyCreated   EventType = "DependencyCreated"
	EventDependencyUpdated   EventType = "DependencyUpdated"
	EventDependencyDeleted   EventType = "DependencyDeleted"
	EventScheduleChanged     EventType = "ScheduleChanged"
	EventCriticalPathUpdated EventType = "CriticalPathUpdated"
	EventResourceConflict    EventType = "ResourceConflict"
	EventResourceAssigned    EventType = "ResourceAssigned"
)

var eventTypes = []EventType{
	EventViewCreated, EventViewDeleted,
	EventTaskCreated, EventTaskUpdated, EventTaskDeleted,
	EventDependencyCreated, EventDependencyUpdated, EventDependencyDeleted,
	EventScheduleChanged, EventCriticalPathUpdated,
	EventResourceConflict, EventResourceAssigned,
}

func (t EventType) Valid() bool {
	for _, v := range eventTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Event is a notification about one view. ResourceID names the task,
// dependency or resource concerned; Payload is a JSON document whose shape
// depends on Type.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	ViewID     string            `json:"viewId"`
	ResourceID string            `json:"resourceId,omitempty"`
	Payload    string            `json:"payload,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}
