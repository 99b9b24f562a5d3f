package cmdqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopFIFO(t *testing.T) {
	t.Parallel()
	q := New()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		q.Push(func() { order = append(order, i) })
	}
	require.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		cmd := q.Pop(time.Second, func() { t.Fatal("unexpected timeout") })
		cmd()
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Zero(t, q.Len())
}

func TestPopTimeout(t *testing.T) {
	t.Parallel()
	q := New()

	called := false
	cmd := q.Pop(10*time.Millisecond, func() { called = true })
	cmd()
	assert.True(t, called, "expected onTimeout to run when queue stays empty")
}

func TestPopWakesOnPush(t *testing.T) {
	t.Parallel()
	q := New()

	var wg sync.WaitGroup
	wg.Add(1)

	popped := make(chan struct{})
	go func() {
		wg.Done()
		cmd := q.Pop(time.Second, func() { t.Error("should not time out") })
		cmd()
		close(popped)
	}()
	wg.Wait()
	// give the popper a moment to actually start blocking
	time.Sleep(10 * time.Millisecond)

	done := false
	q.Push(func() { done = true })

	select {
	case <-popped:
		assert.True(t, done)
	case <-time.After(time.Second):
		t.Fatal("pop did not wake up after push")
	}
}
