package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMailbox(t *testing.T) {
	for name, policy := range map[string]MailboxPolicy{
		"unbounded": Unbounded(),
		"bounded":   Bounded(16),
	} {
		t.Run(name, func(t *testing.T) {
			t.Run("fifo", func(t *testing.T) {
				mb := policy.NewMailbox()
				for i := range 10 {
					require.NoError(t, mb.Post(newEnvelope(i, nil)))
				}
				require.Equal(t, 10, mb.Len())
				for i := range 10 {
					env, ok := mb.Receive()
					require.True(t, ok)
					require.Equal(t, i, env.Message())
				}
			})

			t.Run("close drains then ends", func(t *testing.T) {
				mb := policy.NewMailbox()
				require.NoError(t, mb.Post(newEnvelope(1, nil)))
				mb.Close()
				mb.Close()
				require.True(t, mb.Closed())

				require.ErrorIs(t, mb.Post(newEnvelope(2, nil)), ErrMailboxClosed)

				env, ok := mb.Receive()
				require.True(t, ok)
				require.Equal(t, 1, env.Message())

				_, ok = mb.Receive()
				require.False(t, ok)
			})

			t.Run("receive blocks until post", func(t *testing.T) {
				mb := policy.NewMailbox()
				got := make(chan Envelope)
				go func() {
					env, _ := mb.Receive()
					got <- env
				}()

				select {
				case <-got:
					t.Fatal("receive returned on empty mailbox")
				case <-time.After(10 * time.Millisecond):
				}

				require.NoError(t, mb.Post(newEnvelope("x", nil)))
				require.Equal(t, "x", (<-got).Message())
			})

			t.Run("close wakes receiver", func(t *testing.T) {
				mb := policy.NewMailbox()
				done := make(chan bool)
				go func() {
					_, ok := mb.Receive()
					done <- ok
				}()
				time.Sleep(5 * time.Millisecond)
				mb.Close()
				require.False(t, <-done)
			})
		})
	}
}

func TestMailbox_bounded_rejects_when_full(t *testing.T) {
	mb := Bounded(2).NewMailbox()
	require.NoError(t, mb.Post(newEnvelope(1, nil)))
	require.NoError(t, mb.Post(newEnvelope(2, nil)))
	require.ErrorIs(t, mb.Post(newEnvelope(3, nil)), ErrMailboxFull)

	_, _ = mb.Receive()
	require.NoError(t, mb.Post(newEnvelope(3, nil)))
}

func TestMailbox_unbounded_concurrent_producers(t *testing.T) {
	mb := Unbounded().NewMailbox()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				_ = mb.Post(newEnvelope(i, nil))
			}
		}()
	}
	wg.Wait()
	mb.Close()

	n := 0
	for {
		if _, ok := mb.Receive(); !ok {
			break
		}
		n++
	}
	require.Equal(t, 8000, n)
}

func TestBounded_invalid_capacity(t *testing.T) {
	require.Panics(t, func() { Bounded(0) })
}
