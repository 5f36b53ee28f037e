package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Terminal(t *testing.T) {
	assert.True(t, Event{Type: EventError, Message: MessageNoLeads}.Terminal())
	assert.True(t, Event{Type: EventLog, Message: MessageComplete}.Terminal())
	assert.False(t, Event{Type: EventLog, Message: "Processing: https://a.com"}.Terminal())
	assert.False(t, Event{Type: EventResult, Data: &LeadRecord{}}.Terminal())
}

func TestEvent_WireShape(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventNodeActive, Node: NodeQualify})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"node_active","node":"3"}`, string(data))

	data, err = json.Marshal(Event{Type: EventResult, Data: &LeadRecord{Company: "Acme"}})
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "result", raw["type"])
	assert.NotContains(t, raw, "node")
	assert.Equal(t, "Acme", raw["data"].(map[string]any)["company"])
}
