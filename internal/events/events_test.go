package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{Type: SubmissionCreated}))
}

// Runs against a live server only when REDIS_TEST_ADDR is set.
func TestRedisPublisher(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	stream := "nnsurvey:test:" + time.Now().Format("150405.000000")
	t.Cleanup(func() { rdb.Del(context.Background(), stream) })

	p := NewRedisPublisher(rdb, stream, 100)
	require.NoError(t, p.Publish(ctx, Event{Type: ResponseCreated, ID: "r1", SurveyID: "s1"}))

	msgs, err := rdb.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, string(ResponseCreated), msgs[0].Values["type"])
	assert.Equal(t, "r1", msgs[0].Values["id"])

	var e Event
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["payload"].(string)), &e))
	assert.Equal(t, "s1", e.SurveyID)
	assert.False(t, e.At.IsZero())
}
