package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/nnsurvey/internal/events"
)

func TestRecorderConcurrentPublish(t *testing.T) {
	rec := &Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rec.Publish(context.Background(), events.Event{Type: events.ResponseCreated})
		}()
	}
	wg.Wait()
	assert.Len(t, rec.Events(), 20)
}

func TestRecorderEventsIsACopy(t *testing.T) {
	rec := &Recorder{}
	require.NoError(t, rec.Publish(context.Background(), events.Event{Type: events.SubmissionCreated, ID: "a"}))
	require.NoError(t, rec.Publish(context.Background(), events.Event{Type: events.SubmissionDeleted, ID: "a"}))

	got := rec.Events()
	got[0].ID = "changed"
	assert.Equal(t, "a", rec.Events()[0].ID)
	assert.Equal(t, []events.Type{events.SubmissionCreated, events.SubmissionDeleted}, rec.Types())
}
