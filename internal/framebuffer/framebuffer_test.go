package framebuffer

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/viewport/internal/errors"
	"github.com/zsiec/viewport/internal/media"
)

func newTestFrame(t *testing.T, pts int64) *media.Frame {
	t.Helper()
	f, err := media.NewFrame(640, 360, pts)
	require.NoError(t, err)
	return f
}

func TestFrameBuffer_PushConsume(t *testing.T) {
	fb := New()
	frame := newTestFrame(t, 1000000)

	skipped, err := fb.Push(frame)
	require.NoError(t, err)
	assert.False(t, skipped)

	got, ok := fb.Consume()
	require.True(t, ok)
	assert.Same(t, frame, got)
	assert.Equal(t, uint64(0), fb.Skipped())
}

func TestFrameBuffer_MostRecentWins(t *testing.T) {
	fb := New()
	frameA := newTestFrame(t, 1000000)
	frameB := newTestFrame(t, 1033000)

	skipped, err := fb.Push(frameA)
	require.NoError(t, err)
	assert.False(t, skipped)

	skipped, err = fb.Push(frameB)
	require.NoError(t, err)
	assert.True(t, skipped, "pushing over an unconsumed frame reports a skip")

	got, ok := fb.Consume()
	require.True(t, ok)
	assert.Same(t, frameB, got)
	assert.Equal(t, uint64(1), fb.Skipped())
}

func TestFrameBuffer_SkipCounterCountsAllOverwrites(t *testing.T) {
	fb := New()

	const pushes = 10
	for i := 0; i < pushes; i++ {
		_, err := fb.Push(newTestFrame(t, int64(i)*33000))
		require.NoError(t, err)
	}

	got, ok := fb.Consume()
	require.True(t, ok)
	assert.Equal(t, int64(pushes-1)*33000, got.PTS, "only the last push survives")
	assert.Equal(t, uint64(pushes-1), fb.Skipped())
}

func TestFrameBuffer_ConsumeNothingPending(t *testing.T) {
	fb := New()

	got, ok := fb.Consume()
	assert.False(t, ok)
	assert.Nil(t, got)

	_, err := fb.Push(newTestFrame(t, 0))
	require.NoError(t, err)
	_, ok = fb.Consume()
	require.True(t, ok)

	// A second consume without an intervening push is a no-op.
	got, ok = fb.Consume()
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestFrameBuffer_EventsCoalesce(t *testing.T) {
	fb := New()

	_, err := fb.Push(newTestFrame(t, 0))
	require.NoError(t, err)
	_, err = fb.Push(newTestFrame(t, 33000))
	require.NoError(t, err)
	_, err = fb.Push(newTestFrame(t, 66000))
	require.NoError(t, err)

	// Three pushes without a consume produce exactly one wakeup.
	select {
	case <-fb.Events():
	default:
		t.Fatal("expected a pending wakeup")
	}
	select {
	case <-fb.Events():
		t.Fatal("overwriting pushes must not post extra wakeups")
	default:
	}

	// After a consume, the next push wakes the loop again.
	_, ok := fb.Consume()
	require.True(t, ok)
	_, err = fb.Push(newTestFrame(t, 99000))
	require.NoError(t, err)
	select {
	case <-fb.Events():
	default:
		t.Fatal("expected a wakeup for the fresh frame")
	}
}

func TestFrameBuffer_PushAfterClose(t *testing.T) {
	fb := New()
	fb.Close()

	_, err := fb.Push(newTestFrame(t, 0))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrSinkClosed))

	// Close drops any pending frame.
	fb = New()
	_, err = fb.Push(newTestFrame(t, 0))
	require.NoError(t, err)
	fb.Close()
	_, ok := fb.Consume()
	assert.False(t, ok)
}

func TestFrameBuffer_ConcurrentAccounting(t *testing.T) {
	fb := New()

	const total = 1000
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			frame, err := media.NewFrame(640, 360, int64(i))
			if err != nil {
				return
			}
			if _, err := fb.Push(frame); err != nil {
				return
			}
		}
		close(done)
	}()

	consumed := 0
	for {
		select {
		case <-fb.Events():
			if _, ok := fb.Consume(); ok {
				consumed++
			}
		case <-done:
			wg.Wait()
			// Drain whatever the producer left behind.
			if _, ok := fb.Consume(); ok {
				consumed++
			}
			// Every pushed frame was either consumed or counted as
			// skipped, never both, never lost.
			assert.Equal(t, uint64(total-consumed), fb.Skipped())
			return
		}
	}
}
