package events

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLog_Append(t *testing.T) {
	log := NewEventLog(setupTestDB(t))

	e := &testEvent{BaseEvent: NewBaseEvent("test.created", "test", "heat"), Message: "hello"}
	id, err := log.Append(e)
	require.NoError(t, err)
	assert.Positive(t, id)

	events, err := log.ForEntity("test", "heat")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Payload, `"message":"hello"`)
	assert.Contains(t, events[0].Payload, `"entity_id":"heat"`)
	assert.Equal(t, "test.created", events[0].EventType)
	assert.Equal(t, "test", events[0].EntityType)
	assert.Equal(t, "heat", events[0].EntityID)
}

func TestEventLog_Since(t *testing.T) {
	log := NewEventLog(setupTestDB(t))
	start := time.Now().Add(-time.Hour)

	_, err := log.Append(&testEvent{BaseEvent: NewBaseEvent("test.first", "test", "a")})
	require.NoError(t, err)
	_, err = log.Append(&testEvent{BaseEvent: NewBaseEvent("test.second", "test", "b")})
	require.NoError(t, err)

	events, err := log.Since(start)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "test.first", events[0].EventType)
	assert.Equal(t, "test.second", events[1].EventType)

	events, err = log.Since(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventLog_ForEntity(t *testing.T) {
	log := NewEventLog(setupTestDB(t))

	for _, e := range []Event{
		NewMovieSaved("heat", "Heat", true),
		NewMovieSaved("alien", "Alien", true),
		NewMovieDeleted("heat"),
	} {
		_, err := log.Append(e)
		require.NoError(t, err)
	}

	events, err := log.ForEntity(EntityMovie, "heat")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventMovieSaved, events[0].EventType)
	assert.Equal(t, EventMovieDeleted, events[1].EventType)

	events, err = log.ForEntity(EntityMovie, "alien")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEventLog_Prune(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)

	_, err := db.Exec(`
		INSERT INTO events (event_type, entity_type, entity_id, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		"test.old", "test", "old", `{"message":"old"}`, time.Now().UTC().Add(-100*24*time.Hour),
	)
	require.NoError(t, err)

	_, err = log.Append(&testEvent{BaseEvent: NewBaseEvent("test.new", "test", "new")})
	require.NoError(t, err)

	count, err := log.Prune(90 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	events, err := log.Since(time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "test.new", events[0].EventType)
}

func TestEventLog_Recent(t *testing.T) {
	log := NewEventLog(setupTestDB(t))

	for i := 1; i <= 5; i++ {
		_, err := log.Append(NewMovieSaved(fmt.Sprintf("m%d", i), fmt.Sprintf("Movie %d", i), true))
		require.NoError(t, err)
	}

	events, err := log.Recent(3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	// newest first
	assert.Equal(t, "m5", events[0].EntityID)
	assert.Equal(t, "m4", events[1].EntityID)
	assert.Equal(t, "m3", events[2].EntityID)
}
