package nats

import (
	"os"
	"sync"

	natsgo "github.com/nats-io/nats.go"
)

type closeFunc = func()

// Connector opens a NATS connection and returns the function releasing it.
type Connector func() (nc *natsgo.Conn, close closeFunc, err error)

// ReuseConnection shares one connection between every caller of the
// returned Connector. The connection closes when the last lease is released
// and is reopened by the next call.
func ReuseConnection(connect Connector) Connector {
	var (
		mu       sync.Mutex
		nc       *natsgo.Conn
		closeCon closeFunc
		leased   int
	)
	release := func() {
		mu.Lock()
		defer mu.Unlock()
		leased--
		if leased == 0 && nc != nil {
			closeCon()
			nc = nil
		}
	}
	return func() (*natsgo.Conn, closeFunc, error) {
		mu.Lock()
		defer mu.Unlock()
		if nc == nil {
			c, cl, err := connect()
			if err != nil {
				return nil, nil, err
			}
			nc, closeCon = c, cl
		}
		leased++
		var once sync.Once
		return nc, func() { once.Do(release) }, nil
	}
}

// ConnectURL dials natsURL. The connection is named after the actor
// system so it can be told apart in server monitoring.
func ConnectURL(natsURL string, opts ...natsgo.Option) Connector {
	return func() (*natsgo.Conn, closeFunc, error) {
		nc, err := natsgo.Connect(
			natsURL,
			append([]natsgo.Option{
				natsgo.Name("actr"),
				natsgo.MaxReconnects(3),
			}, opts...)...,
		)
		if err != nil {
			return nil, nil, err
		}
		return nc, func() { nc.Close() }, nil
	}
}

// ConnectDefault dials $NATS_URL, or the NATS default URL if it is unset.
func ConnectDefault() Connector {
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		return ConnectURL(natsURL)
	}
	return ConnectURL(natsgo.DefaultURL)
}
