package remote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/actr-go/core/actor"
)

func CreateInMemoryTransport(t *testing.T) *MemoryTransport {
	tr := NewInMemoryTransport()
	t.Cleanup(func() {
		require.NoError(t, tr.Close())
	})
	return tr
}

// CreateTestSystem returns a system reachable at host:port that is shut
// down when the test ends.
func CreateTestSystem(t *testing.T, host string, port int) *actor.ActorSystem {
	cfg := actor.DefaultConfig()
	cfg.Name = host
	cfg.Host = host
	cfg.Port = port
	sys := actor.NewActorSystem(cfg)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, sys.Shutdown(ctx))
	})
	return sys
}

// CreateTestRemote starts a Remote for sys on tr. register runs before
// Start so message types are known when the first envelope arrives.
func CreateTestRemote(t *testing.T, sys *actor.ActorSystem, tr Transport, register func(r *Remote)) *Remote {
	r, err := New(sys, Options{Transport: tr})
	require.NoError(t, err)
	if register != nil {
		register(r)
	}
	require.NoError(t, r.Start(t.Context()))
	t.Cleanup(r.Stop)
	return r
}
