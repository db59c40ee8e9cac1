package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_Title(t *testing.T) {
	tests := map[Level]string{
		Success: "Sucesso",
		Error:   "Erro",
		Warning: "Atenção",
		Info:    "Informação",
	}
	for level, want := range tests {
		assert.Equal(t, want, level.Title())
	}
}

func TestQueue_ActiveExpires(t *testing.T) {
	start := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	q := NewQueue(5 * time.Second)
	q.now = func() time.Time { return start }

	first := q.Push(Info, "primeiro")
	q.now = func() time.Time { return start.Add(3 * time.Second) }
	q.Push(Success, "segundo")

	assert.Len(t, q.Active(start.Add(4*time.Second)), 2)

	active := q.Active(start.Add(5 * time.Second))
	require.Len(t, active, 1)
	assert.Equal(t, "segundo", active[0].Message)
	assert.NotEqual(t, first.ID, active[0].ID)

	assert.Empty(t, q.Active(start.Add(8*time.Second)))
}

func TestQueue_Dismiss(t *testing.T) {
	q := NewQueue(0)
	a := q.Push(Info, "a")
	q.Push(Info, "b")

	assert.True(t, q.Dismiss(a.ID))
	assert.False(t, q.Dismiss(a.ID))
	assert.Equal(t, 1, q.Len())
}

func TestPush_Context(t *testing.T) {
	Push(context.Background(), Error, "sem fila")

	q := NewQueue(0)
	ctx := WithQueue(context.Background(), q)
	Push(ctx, Error, "com fila")

	assert.Same(t, q, QueueFrom(ctx))
	toasts := q.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Erro", toasts[0].Title)
	assert.Equal(t, DefaultTTL, toasts[0].TTL)
	assert.Equal(t, 0, q.Len())
}
