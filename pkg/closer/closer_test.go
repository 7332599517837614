package closer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClose_LIFOOrder(t *testing.T) {
	c := New(0)
	var order []string
	for _, name := range []string{"db", "cache", "http"} {
		c.Add(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, []string{"http", "cache", "db"}, order)
}

func TestClose_CollectsErrorsAndIsIdempotent(t *testing.T) {
	c := New(0)
	boom := errors.New("boom")
	calls := 0
	c.Add("kafka", func(context.Context) error { calls++; return boom })
	c.Add("redis", func(context.Context) error { return nil })

	err := c.Close(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "kafka")

	assert.Equal(t, err, c.Close(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestClose_ForcesRemainingOnTimeout(t *testing.T) {
	c := New(time.Second)

	var (
		mu     sync.Mutex
		forced []string
	)
	record := func(name string) Func {
		return func(ctx context.Context) error {
			if ctx.Err() != nil {
				<-make(chan struct{}) // graceful попытка висит до конца теста
			}
			mu.Lock()
			forced = append(forced, name)
			mu.Unlock()
			return nil
		}
	}
	c.Add("db", record("db"))
	c.Add("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Minute):
			return nil
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"db"}, forced)
}
