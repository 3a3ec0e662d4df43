package service

import (
	"context"
	"sync"
	"testing"

	"github.com/haierkeys/prompt-workspace-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventService_SequencePerWorkspace(t *testing.T) {
	broadcast := &recordingBroadcaster{}
	events := NewEventService(broadcast, nil, nil)
	ctx := context.Background()

	e1 := events.Publish(ctx, "ws-1", domain.EventLockAcquired, nil)
	e2 := events.Publish(ctx, "ws-1", domain.EventLockReleased, nil)
	other := events.Publish(ctx, "ws-2", domain.EventLockAcquired, nil)

	// 序号按工作区独立单调递增
	assert.Equal(t, int64(1), e1.EventSeq)
	assert.Equal(t, int64(2), e2.EventSeq)
	assert.Equal(t, int64(1), other.EventSeq)
	assert.Equal(t, int64(2), events.LastSeq("ws-1"))
	assert.Equal(t, int64(1), events.LastSeq("ws-2"))
	assert.Equal(t, int64(0), events.LastSeq("ws-3"))
}

func TestEventService_BroadcastOrderMatchesSeq(t *testing.T) {
	broadcast := &recordingBroadcaster{}
	events := NewEventService(broadcast, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				events.Publish(ctx, "ws-1", domain.EventVersionCommitted, nil)
			}
		}()
	}
	wg.Wait()

	broadcast.mu.Lock()
	defer broadcast.mu.Unlock()
	require.Len(t, broadcast.frames, 16*8)

	// 帧到达顺序与事件序号一致
	for i, frame := range broadcast.frames {
		event, ok := frame.Content.(*domain.Event)
		require.True(t, ok)
		assert.Equal(t, int64(i+1), event.EventSeq)
	}
}

func TestEventService_NilBroadcasterStillSequences(t *testing.T) {
	events := NewEventService(nil, nil, nil)

	e := events.Publish(context.Background(), "ws-1", domain.EventPresenceJoined, nil)
	require.NotNil(t, e)
	assert.Equal(t, int64(1), e.EventSeq)
}
