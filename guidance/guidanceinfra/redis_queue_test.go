package guidanceinfra

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/compass/pkg/kernel"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// unreachableQueue points at a port nothing listens on, so every command
// fails fast with a connection error
func unreachableQueue() *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	return NewRedisQueue(client, "test:plan_jobs")
}

func TestEnqueueRejectsUnmarshalablePayload(t *testing.T) {
	q := unreachableQueue()

	err := q.Enqueue(context.Background(), kernel.NewJobID("job-1"), func() {})
	require.Error(t, err)
	require.Contains(t, err.Error(), "marshal payload for job job-1")
}

func TestEnqueueDelayedRejectsUnmarshalablePayload(t *testing.T) {
	q := unreachableQueue()

	err := q.EnqueueDelayed(context.Background(), kernel.NewJobID("job-1"), func() {}, time.Minute)
	require.Error(t, err)
	require.Contains(t, err.Error(), "marshal delayed payload for job job-1")
}

////////////////////////////////////////////////////////////////////////////////

func TestQueueSizesSurfaceConnectionErrors(t *testing.T) {
	q := unreachableQueue()

	_, err := q.GetQueueSize(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "get queue size")

	_, err = q.GetDelayedQueueSize(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "get delayed queue size")
}

func TestPingReportsUnreachableServer(t *testing.T) {
	q := unreachableQueue()

	require.Error(t, q.Ping(context.Background()))
}
