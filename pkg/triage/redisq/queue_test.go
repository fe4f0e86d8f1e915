package redisq

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	terrors "github.com/smartsupport/triage-engine/pkg/errors"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		connectivity bool
	}{
		{"net error", timeoutErr{}, true},
		{"eof", io.EOF, true},
		{"client closed", redis.ErrClosed, true},
		{"context canceled", context.Canceled, false},
		{"plain error", errors.New("wrongtype"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.err, "op")
			assert.Error(t, got)
			assert.Equal(t, tt.connectivity, terrors.IsConnectivity(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, classifyErr(nil, "op"))
}

func TestNewQueue_DefaultKey(t *testing.T) {
	q := NewQueue(redis.NewClient(&redis.Options{Addr: "localhost:6379"}), "")
	assert.Equal(t, DefaultQueueKey, q.key)
}

func TestPop_SurfacesConnectivityLoss(t *testing.T) {
	// Point at a closed port so the pop fails with a network error.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	q := NewQueue(client, "test_queue")

	_, err := q.Pop(context.Background(), time.Second)
	assert.Error(t, err)
	assert.True(t, terrors.IsConnectivity(err))
}

func TestLockStore_TTL(t *testing.T) {
	l := NewLockStore(redis.NewClient(&redis.Options{Addr: "localhost:6379"}), 0)
	assert.Equal(t, DefaultLockTTL, l.TTL())
}
