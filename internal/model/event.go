package model

// EventType identifies a progress event emitted by a campaign run.
type EventType string

const (
	EventLog        EventType = "log"
	EventNodeActive EventType = "node_active"
	EventNodeDone   EventType = "node_done"
	EventNodeError  EventType = "node_error"
	EventResult     EventType = "result"
	EventError      EventType = "error"
)

// Node identifies a pipeline stage in progress events.
type Node string

const (
	NodeDiscovery Node = "1"
	NodeScrape    Node = "2"
	NodeQualify   Node = "3"
	NodeIdentify  Node = "4"
	NodeDraft     Node = "5"
)

// Event is one entry on the progress channel. Only the fields relevant to the
// event type are set.
type Event struct {
	Type    EventType   `json:"type"`
	Node    Node        `json:"node,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    *LeadRecord `json:"data,omitempty"`
}

// Messages with a fixed meaning on the progress channel.
const (
	MessageComplete = "Mission complete."
	MessageNoLeads  = "No leads found."
)

// Terminal reports whether the event ends a run's stream: an error, or the
// completion log line.
func (e Event) Terminal() bool {
	return e.Type == EventError || (e.Type == EventLog && e.Message == MessageComplete)
}
