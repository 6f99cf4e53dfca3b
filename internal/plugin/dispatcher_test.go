package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_DeliversSubscribedEvents(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "received.jsonl")
	writePlugin(t, dir, "sink", `{"name":"sink","executable":"run.sh","events":["set"]}`,
		"cat >> "+out+"\necho >> "+out+"\necho '{\"success\":true}'\n")

	m := NewManager(dir, nil)
	require.NoError(t, m.Discover())
	d := NewDispatcher(m, NewExecutor(5*time.Second), nil)

	assert.False(t, d.Notify("rep", "s1", map[string]int{"index": 1}), "no plugin wants rep")
	assert.True(t, d.Notify("set", "s1", map[string]int{"reps": 5}))
	d.Close()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var req Request
	require.NoError(t, json.Unmarshal(data, &req))
	assert.Equal(t, "set", req.Event)
	assert.Equal(t, "s1", req.SessionID)
	assert.JSONEq(t, `{"reps":5}`, string(req.Payload))
}

func TestDispatcher_ClosedDropsEvents(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "noop", `{"name":"noop","executable":"run.sh"}`, "echo '{\"success\":true}'\n")
	m := NewManager(dir, nil)
	require.NoError(t, m.Discover())

	d := NewDispatcher(m, NewExecutor(time.Second), nil)
	d.Close()
	d.Close()
	assert.False(t, d.Notify("rep", "", struct{}{}))
}
