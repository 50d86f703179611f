package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDeliversInOrder(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Publish(ctx, Notice{Kind: KindScanned, Title: TitleScanned, Detail: "a"}))
	require.NoError(t, q.Publish(ctx, Notice{Kind: KindScanned, Title: TitleScanned, Detail: "b"}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)

	for _, want := range []string{"a", "b"} {
		select {
		case n := <-ch:
			assert.Equal(t, want, n.Detail)
			assert.Equal(t, TitleScanned, n.Title)
		case <-time.After(time.Second):
			t.Fatal("notice not delivered")
		}
	}
}

func TestInMemoryPublishHonorsContext(t *testing.T) {
	q := NewInMemory(1)
	require.NoError(t, q.Publish(context.Background(), Notice{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Publish(ctx, Notice{}), context.DeadlineExceeded)
}

func TestConsumeClosesOnCancel(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
