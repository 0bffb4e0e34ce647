package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"stockpilot/internal/model"
	"stockpilot/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.messages...)
}

func TestHubBroadcastsPublishedEvents(t *testing.T) {
	hub := NewHub(logger.Nop())
	go hub.Run()
	defer hub.Close()

	conn := &fakeConn{}
	require.True(t, hub.Register(conn))

	err := hub.Publish(context.Background(), &model.Event{Type: model.EventSaleRecorded, Key: "sale-1"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(conn.received()) == 1 }, time.Second, 10*time.Millisecond)

	var evt model.Event
	require.NoError(t, json.Unmarshal(conn.received()[0], &evt))
	assert.Equal(t, model.EventSaleRecorded, evt.Type)
	assert.Equal(t, "sale-1", evt.Key)
}

func TestHubPublishDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(logger.Nop())
	for i := 0; i < cap(hub.broadcast); i++ {
		require.NoError(t, hub.Publish(context.Background(), &model.Event{Type: "fill"}))
	}
	assert.Error(t, hub.Publish(context.Background(), &model.Event{Type: "overflow"}))
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub(logger.Nop())
	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()

	conn := &fakeConn{}
	require.True(t, hub.Register(conn))
	require.NoError(t, hub.Close())

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.True(t, conn.closed)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubRegisterAfterCloseDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.Nop())
	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()
	require.NoError(t, hub.Close())
	<-stopped
	require.NoError(t, hub.Close())

	returned := make(chan bool, 1)
	late := &fakeConn{}
	go func() {
		ok := hub.Register(late)
		hub.Unregister(late)
		returned <- ok
	}()

	select {
	case ok := <-returned:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("register blocked on a closed hub")
	}
	assert.True(t, late.closed)
	assert.Equal(t, 0, hub.ClientCount())
}
