package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T, max int) *Limiter {
	t.Helper()

	// A wide window keeps tokens from refilling mid-test.
	l := New(Config{
		MaxRequestsPerMinute: max,
		WindowDuration:       time.Hour,
		Logger:               zap.NewNop(),
	})
	t.Cleanup(l.Stop)
	return l
}

func TestAllowExhaustsTokens(t *testing.T) {
	l := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("1.2.3.4"))
	}
	assert.False(t, l.allow("1.2.3.4"))
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := newTestLimiter(t, 2)

	l.allow("1.2.3.4")
	l.allow("1.2.3.4")
	assert.False(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("5.6.7.8"))
}

func TestAllowConcurrentFirstRequestsShareOneBucket(t *testing.T) {
	// Racing first requests from one address must not each install a
	// fresh bucket; a replaced bucket hands out extra tokens.
	l := newTestLimiter(t, 5)

	var allowed int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.allow("10.0.0.1") {
				atomic.AddInt32(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 5, atomic.LoadInt32(&allowed))
	assert.False(t, l.allow("10.0.0.1"))
}
