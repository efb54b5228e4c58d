package nats

import (
	"context"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Testing interface {
	require.TestingT
	Context() context.Context
	Logf(format string, args ...any)
	Cleanup(func())
}

// NewTestContainer starts a NATS server in a container for the duration of
// the test and returns a Connector dialing it.
func NewTestContainer(t Testing) Connector {
	ctx := t.Context()
	natsC, err := testcontainers.Run(
		ctx, "nats:latest",
		testcontainers.WithExposedPorts("4222/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("4222/tcp"),
			wait.ForLog("Server is ready"),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(natsC); err != nil {
			t.Errorf("failed to terminate container: %s", err.Error())
		}
	})

	endpoint, err := natsC.PortEndpoint(ctx, "4222/tcp", "nats")
	require.NoError(t, err)
	t.Logf("nats endpoint: %s", endpoint)
	return ConnectURL(endpoint)
}

// NewTestTransport returns a Transport on connect that is closed when the
// test ends.
func NewTestTransport(t Testing, connect Connector, prefix string) *Transport {
	tp, err := NewTransport(TransportConfig{Connect: connect, SubjectPrefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Close() })
	return tp
}
