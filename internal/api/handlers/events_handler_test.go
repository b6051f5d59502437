package handlers

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubConn struct {
	writing    int32
	overlaps   int32
	writes     int32
	failWrites bool
}

func (s *stubConn) WriteJSON(v interface{}) error {
	if !atomic.CompareAndSwapInt32(&s.writing, 0, 1) {
		atomic.AddInt32(&s.overlaps, 1)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&s.writes, 1)
	atomic.StoreInt32(&s.writing, 0)
	if s.failWrites {
		return errors.New("write failed")
	}
	return nil
}

func (s *stubConn) Close() error { return nil }

func TestBroadcastSerializesWritesPerClient(t *testing.T) {
	hub := NewHub()
	conn := &stubConn{}
	hub.subscribe(conn)
	defer hub.unsubscribe(conn)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(Event{Type: "qa_saved"})
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 8, atomic.LoadInt32(&conn.writes))
	assert.Zero(t, atomic.LoadInt32(&conn.overlaps))
}

func TestBroadcastDropsFailingClient(t *testing.T) {
	hub := NewHub()
	good := &stubConn{}
	bad := &stubConn{failWrites: true}
	hub.subscribe(good)
	hub.subscribe(bad)
	defer hub.unsubscribe(good)

	hub.Broadcast(Event{Type: "qa_saved"})
	hub.Broadcast(Event{Type: "reading_recorded"})

	assert.EqualValues(t, 2, atomic.LoadInt32(&good.writes))
	// The failing client is gone after the first broadcast.
	assert.EqualValues(t, 1, atomic.LoadInt32(&bad.writes))
}
