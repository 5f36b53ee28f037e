package campaign

import (
	"strings"
	"sync"

	"github.com/sells-group/outreach-cli/internal/model"
)

// NodeState is the display state of one pipeline stage.
type NodeState string

const (
	NodeIdle   NodeState = "idle"
	NodeActive NodeState = "active"
	NodeDone   NodeState = "done"
	NodeFailed NodeState = "error"
)

// Status is the lifecycle of a session.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

const defaultMaxLogs = 200

var allNodes = []model.Node{
	model.NodeDiscovery, model.NodeScrape, model.NodeQualify, model.NodeIdentify, model.NodeDraft,
}

// Session folds a run's event stream into the state a front end renders.
// It is safe for concurrent use; the final state is the same whatever the
// timing between Apply and Snapshot calls.
type Session struct {
	mu      sync.Mutex
	maxLogs int

	logs      []string
	nodes     map[model.Node]NodeState
	results   []model.LeadRecord
	scanned   int
	qualified int
	socials   int
	status    Status
	errMsg    string
}

// Snapshot is a copy of a Session's state.
type Snapshot struct {
	Logs      []string                 `json:"logs"`
	Nodes     map[model.Node]NodeState `json:"nodes"`
	Results   []model.LeadRecord       `json:"results"`
	Scanned   int                      `json:"scanned"`
	Qualified int                      `json:"qualified"`
	Socials   int                      `json:"socials"`
	Status    Status                   `json:"status"`
	Error     string                   `json:"error,omitempty"`
}

// NewSession creates a running session keeping the last maxLogs log lines.
func NewSession(maxLogs int) *Session {
	if maxLogs <= 0 {
		maxLogs = defaultMaxLogs
	}
	s := &Session{maxLogs: maxLogs, status: StatusRunning}
	s.resetNodes(model.NodeDiscovery)
	return s
}

func (s *Session) resetNodes(from model.Node) {
	if s.nodes == nil {
		s.nodes = make(map[model.Node]NodeState, len(allNodes))
	}
	for _, n := range allNodes {
		if n >= from {
			s.nodes[n] = NodeIdle
		}
	}
}

// Apply folds one event into the session. Events after a terminal one are
// ignored.
func (s *Session) Apply(ev model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return
	}

	switch ev.Type {
	case model.EventLog:
		s.appendLog(ev.Message)
		if strings.HasPrefix(ev.Message, "Processing:") {
			s.resetNodes(model.NodeScrape)
		}
		if ev.Message == model.MessageComplete {
			s.status = StatusComplete
		}
	case model.EventNodeActive:
		s.nodes[ev.Node] = NodeActive
		if ev.Node == model.NodeScrape {
			s.scanned++
		}
	case model.EventNodeDone:
		s.nodes[ev.Node] = NodeDone
		if ev.Node == model.NodeQualify {
			s.qualified++
		}
	case model.EventNodeError:
		s.nodes[ev.Node] = NodeFailed
	case model.EventResult:
		if ev.Data != nil {
			s.results = append(s.results, *ev.Data)
			if ev.Data.HasSocials() {
				s.socials++
			}
		}
	case model.EventError:
		s.appendLog("Error: " + ev.Message)
		s.status = StatusFailed
		s.errMsg = ev.Message
	}
}

func (s *Session) appendLog(line string) {
	s.logs = append(s.logs, line)
	if over := len(s.logs) - s.maxLogs; over > 0 {
		s.logs = append(s.logs[:0:0], s.logs[over:]...)
	}
}

// Consume applies events until the channel closes.
func (s *Session) Consume(events <-chan model.Event) {
	for ev := range events {
		s.Apply(ev)
	}
}

// Sink returns a Sink feeding this session.
func (s *Session) Sink() Sink { return s.Apply }

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := make(map[model.Node]NodeState, len(s.nodes))
	for k, v := range s.nodes {
		nodes[k] = v
	}
	return Snapshot{
		Logs:      append([]string(nil), s.logs...),
		Nodes:     nodes,
		Results:   append([]model.LeadRecord(nil), s.results...),
		Scanned:   s.scanned,
		Qualified: s.qualified,
		Socials:   s.socials,
		Status:    s.status,
		Error:     s.errMsg,
	}
}
