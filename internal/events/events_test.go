package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusSubscribeOrderAndUnsubscribe(t *testing.T) {
	bus := NewBus()
	var order []string
	unsubA := bus.Subscribe(func(Event) { order = append(order, "a") })
	bus.Subscribe(func(Event) { order = append(order, "b") })
	assert.Equal(t, 2, bus.Len())

	bus.Publish(HoverExit{})
	assert.Equal(t, []string{"a", "b"}, order)

	unsubA()
	unsubA()
	assert.Equal(t, 1, bus.Len())

	order = nil
	bus.Publish(HoverExit{})
	assert.Equal(t, []string{"b"}, order)
}

func TestLoopRunsPostsInOrder(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}
	loop.Do(func() {})
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestLoopDoFromWorkerGoroutine(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	var n atomic.Int32
	finished := make(chan struct{})
	go func() {
		loop.Do(func() { n.Add(1) })
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Do did not return")
	}
	assert.Equal(t, int32(1), n.Load())
}

func TestLoopDrainsOnStop(t *testing.T) {
	loop := NewLoop()
	ran := 0
	loop.Post(func() { ran++ })
	loop.Post(func() { ran++ })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = loop.Run(ctx)
	assert.Equal(t, 2, ran)

	loop.Post(func() { ran++ })
	loop.Do(func() { ran++ })
	assert.Equal(t, 2, ran, "stopped loop must drop new work")
}

func TestManualClock(t *testing.T) {
	c := NewManualClock()
	var fired []string
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "two") })
	c.AfterFunc(time.Second, func() { fired = append(fired, "one") })
	stop := c.AfterFunc(time.Second, func() { fired = append(fired, "stopped") })
	require.Equal(t, 3, c.Pending())

	assert.True(t, stop.Stop())
	assert.False(t, stop.Stop())
	assert.Equal(t, 2, c.Pending())

	c.Advance(999 * time.Millisecond)
	assert.Empty(t, fired)

	c.Advance(time.Millisecond)
	assert.Equal(t, []string{"one"}, fired)

	c.Advance(5 * time.Second)
	assert.Equal(t, []string{"one", "two"}, fired)
	assert.Zero(t, c.Pending())
}

func TestRectBelow(t *testing.T) {
	r := Rect{X: 3, Y: 4, W: 10, H: 2}
	assert.Equal(t, Point{X: 3, Y: 6}, r.Below())
}
