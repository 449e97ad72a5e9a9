package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	appID := uuid.New()
	ev := Event{
		Type:          ApplicationAccepted,
		ModuleID:      uuid.New(),
		ApplicationID: &appID,
		Data:          map[string]string{"role": "postgraduate"},
		OccurredAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	b, err := Encode(ev)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"application.accepted"`)
	assert.NotContains(t, string(b), "recipientId")

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, ev.ModuleID, got.ModuleID)
	assert.Equal(t, appID, *got.ApplicationID)
	assert.True(t, ev.OccurredAt.Equal(got.OccurredAt))
}

func TestDispatchAll_StampsAndKeepsOrder(t *testing.T) {
	m := NewMemoryDispatcher()
	DispatchAll(context.Background(), m,
		Event{Type: ApplicationAccepted},
		Event{Type: ModuleFull},
	)
	assert.Equal(t, []EventType{ApplicationAccepted, ModuleFull}, m.Types())
	for _, ev := range m.Events() {
		assert.False(t, ev.OccurredAt.IsZero())
	}

	DispatchAll(context.Background(), nil, Event{Type: ModuleFull})
}

func TestNew_FallsBackToLog(t *testing.T) {
	d, closeFn := New("", "k")
	defer closeFn()
	assert.IsType(t, LogDispatcher{}, d)

	d, closeFn = New("::not a url", "k")
	defer closeFn()
	assert.IsType(t, LogDispatcher{}, d)
}
