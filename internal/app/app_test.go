package app

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posecoach/internal/activity"
	"github.com/ayusman/posecoach/internal/capture"
	"github.com/ayusman/posecoach/internal/coach"
	"github.com/ayusman/posecoach/internal/store"
	"github.com/ayusman/posecoach/testdata"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(typ EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestApp_NotRunning(t *testing.T) {
	a := New(Config{})

	assert.True(t, a.IsEnabled())
	assert.Empty(t, a.SessionID())
	assert.Nil(t, a.Done())

	_, err := a.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.ErrorIs(t, a.StartTrial(activity.Squat), ErrNotRunning)
	_, ok := a.Status()
	assert.False(t, ok)
}

func TestApp_ProcessSquatSet(t *testing.T) {
	st := newTestStore(t)
	a := New(Config{Store: st, FPS: 1000})
	a.SetSource(capture.NewReplaySource(nil))
	a.SetEnabled(false)

	var rec recorder
	unsubscribe := a.Subscribe(rec.listen)
	defer unsubscribe()

	id, err := a.Start("morning")
	require.NoError(t, err)
	_, err = a.Start("again")
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, a.StartTrial(activity.Squat))
	for _, p := range testdata.SquatFrames(5, 30) {
		a.Process(p)
	}

	assert.Equal(t, 1, rec.count(EventTrial))
	assert.Equal(t, 5, rec.count(EventRep))
	assert.Equal(t, 1, rec.count(EventSet))
	assert.Equal(t, len(testdata.SquatFrames(5, 30)), rec.count(EventFrame))

	summary, err := a.Stop()
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalSets)

	sess, err := st.Sessions().GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, "morning", sess.Name)
	assert.Equal(t, store.SourceReplay, sess.Source)
	assert.False(t, sess.Active())

	sets, err := st.Sets().ListBySession(id)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 5, sets[0].RepsCounted)

	reps, err := st.Reps().ListBySession(id)
	require.NoError(t, err)
	require.Len(t, reps, 5)
	assert.Equal(t, activity.Squat, reps[0].Activity)
	assert.True(t, reps[4].Counted)
}

func TestApp_StopKeepsPartialSet(t *testing.T) {
	st := newTestStore(t)
	a := New(Config{Store: st})
	a.SetSource(capture.NewReplaySource(nil))
	a.SetEnabled(false)

	id, err := a.Start("")
	require.NoError(t, err)
	require.NoError(t, a.StartTrial(activity.Squat))
	for _, p := range testdata.SquatFrames(2, 30) {
		a.Process(p)
	}

	status, ok := a.Status()
	require.True(t, ok)
	assert.Equal(t, 2, status.RepsDone)

	sum, err := a.StopTrial()
	require.NoError(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, 2, sum.RepsCounted)
	_, err = a.StopTrial()
	assert.ErrorIs(t, err, coach.ErrNoTrial)

	_, err = a.Stop()
	require.NoError(t, err)

	sets, err := st.Sets().ListBySession(id)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 2, sets[0].RepsCounted, "stopping the session does not store the set twice")
}

func TestApp_Pipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	poses, err := testdata.LoadRecording("squat_5reps.jsonl")
	require.NoError(t, err)

	a := New(Config{FPS: 500})
	a.SetSource(capture.NewReplaySource(poses))
	a.SetEnabled(false)

	var rec recorder
	a.Subscribe(rec.listen)

	_, err = a.Start("replay")
	require.NoError(t, err)
	require.NoError(t, a.StartTrial(activity.Squat))
	a.SetEnabled(true)

	select {
	case <-a.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("pipeline did not drain the recording")
	}

	summary, err := a.Stop()
	require.NoError(t, err)
	assert.Equal(t, 5, rec.count(EventRep))
	assert.Equal(t, len(poses), rec.count(EventFrame))
	assert.Equal(t, 1, summary.TotalSets)
}

func TestApp_StopMidStreamKeepsSessionID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	st := newTestStore(t)
	a := New(Config{Store: st, FPS: 1000})
	a.SetSource(capture.NewReplaySource(testdata.SquatFrames(200, 30)))
	a.SetEnabled(false)

	var rec recorder
	a.Subscribe(rec.listen)

	id, err := a.Start("interrupted")
	require.NoError(t, err)
	require.NoError(t, a.StartTrial(activity.Squat))
	a.SetEnabled(true)

	require.Eventually(t, func() bool { return rec.count(EventRep) >= 2 }, 10*time.Second, time.Millisecond)
	_, err = a.Stop()
	require.NoError(t, err)
	assert.Empty(t, a.SessionID())

	rec.mu.Lock()
	for _, ev := range rec.events {
		assert.Equal(t, id, ev.SessionID, "event %s", ev.Type)
	}
	rec.mu.Unlock()

	reps, err := st.Reps().ListBySession(id)
	require.NoError(t, err)
	assert.Equal(t, rec.count(EventRep), len(reps))
	orphans, err := st.Reps().ListBySession("")
	require.NoError(t, err)
	assert.Empty(t, orphans)
}
