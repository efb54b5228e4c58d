package actor

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig_defaults(t *testing.T) {
	c := DefaultConfig()
	require.Equal(t, "local", c.Name)
	require.Equal(t, runtime.NumCPU(), c.WorkerThreads)
	require.Equal(t, NoHost, c.Address())
	require.Equal(t, time.Second, c.DeadLetterThrottleInterval)
	require.Equal(t, 10, c.DeadLetterThrottleCount)
	require.True(t, c.DeadLetterRequestLogging)
	require.False(t, c.MetricsEnabled)

	z := Config{}.withDefaults()
	require.Equal(t, "local", z.Name)
	require.Equal(t, NoHost, z.Host)
	require.Positive(t, z.WorkerThreads)
	require.Zero(t, z.DeadLetterThrottleInterval)
	require.Zero(t, z.DeadLetterThrottleCount)
	require.False(t, z.DeadLetterRequestLogging)
}

func TestConfig_address(t *testing.T) {
	require.Equal(t, "10.0.0.1:8090", Config{Host: "10.0.0.1", Port: 8090}.Address())
	require.Equal(t, "[::1]:1", Config{Host: "::1", Port: 1}.Address())
	require.Equal(t, NoHost, Config{}.Address())
}

func TestSystem_address(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host, cfg.Port = "node-a", 9000
	sys := NewActorSystem(cfg, WithContext(t.Context()))

	ref := sys.Root().Spawn(counterProps())
	require.Equal(t, "node-a:9000", ref.PID().Address)
	require.True(t, sys.IsLocal(ref.PID()))
	require.True(t, sys.IsLocal(NewPID(NoHost, ref.PID().ID)))
	require.NoError(t, sys.Shutdown(t.Context()))
}
