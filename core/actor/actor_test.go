package actor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	increment struct{}
	gate      struct{}
	seqMsg    struct {
		Producer int
		Seq      int
	}
)

func newTestSystem(t *testing.T, opts ...Option) *ActorSystem {
	t.Helper()
	sys := NewActorSystem(DefaultConfig(), append([]Option{WithContext(t.Context())}, opts...)...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, sys.Shutdown(ctx))
	})
	return sys
}

func waitDone(t *testing.T, ref *Ref) {
	t.Helper()
	select {
	case <-ref.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("actor %s did not stop", ref)
	}
}

type counter struct{ n int }

func (a *counter) Register(r HandlerRegistrar) {
	r.Handle(
		HandleRequest(func(c Context, _ increment) (int, error) {
			a.n++
			return a.n, nil
		}),
	)
}

func counterProps() *Props {
	return PropsFromProducer(func() Actor { return &counter{} })
}

func TestActor_ask_round_trip(t *testing.T) {
	sys := newTestSystem(t)
	ref := sys.Root().Spawn(counterProps())

	for want := 1; want <= 3; want++ {
		got, err := Request[increment, int](t.Context(), ref, increment{})
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestActor_fresh_instance_per_spawn(t *testing.T) {
	sys := newTestSystem(t)
	props := counterProps()

	a := sys.Root().Spawn(props)
	b := sys.Root().Spawn(props)
	require.False(t, a.Equal(b))

	_, err := Request[increment, int](t.Context(), a, increment{})
	require.NoError(t, err)
	n, err := Request[increment, int](t.Context(), b, increment{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestActor_fifo_per_producer(t *testing.T) {
	const (
		producers = 5
		perSender = 200
	)

	var (
		mu        sync.Mutex
		last      = map[int]int{}
		total     int
		reordered bool
	)

	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromHandlers(
		HandleMsg(func(c Context, m seqMsg) error {
			mu.Lock()
			defer mu.Unlock()
			if prev, ok := last[m.Producer]; ok && m.Seq != prev+1 {
				reordered = true
			}
			last[m.Producer] = m.Seq
			total++
			return nil
		}),
	))

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perSender {
				ref.Tell(seqMsg{Producer: p, Seq: i})
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return total == producers*perSender
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.False(t, reordered)
}

func TestActor_at_most_one_dispatch(t *testing.T) {
	var (
		active     atomic.Int32
		overlapped atomic.Bool
		handled    atomic.Int32
	)

	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromHandlers(
		HandleMsg(func(c Context, _ int) error {
			if active.Add(1) > 1 {
				overlapped.Store(true)
			}
			time.Sleep(10 * time.Microsecond)
			active.Add(-1)
			handled.Add(1)
			return nil
		}),
	))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				ref.Tell(i)
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return handled.Load() == 500 }, 5*time.Second, 5*time.Millisecond)
	require.False(t, overlapped.Load())
}

func TestActor_dead_address(t *testing.T) {
	sys := newTestSystem(t)
	root := sys.Root()

	ref, err := root.SpawnNamed("gone", counterProps())
	require.NoError(t, err)
	root.Stop(ref)
	waitDone(t, ref)

	require.NotPanics(t, func() { ref.Tell(increment{}) })

	_, err = Request[increment, int](t.Context(), ref, increment{})
	require.ErrorIs(t, err, ErrDeadLetter)
	require.ErrorIs(t, err, ErrMailboxClosed)

	_, ok := root.Resolve("gone")
	require.False(t, ok)

	_, err = Request[increment, int](t.Context(), sys.RefOf(ref.PID()), increment{})
	require.ErrorIs(t, err, ErrDeadLetter)
}

func TestActor_duplicate_name(t *testing.T) {
	sys := newTestSystem(t)
	root := sys.Root()

	first, err := root.SpawnNamed("counter", counterProps())
	require.NoError(t, err)

	second, err := root.SpawnNamed("counter", counterProps())
	require.ErrorIs(t, err, ErrNameExists)
	require.Nil(t, second)

	resolved, ok := root.Resolve("counter")
	require.True(t, ok)
	require.True(t, resolved.Equal(first))

	n, err := Request[increment, int](t.Context(), resolved, increment{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestActor_name_reusable_after_stop(t *testing.T) {
	sys := newTestSystem(t)
	root := sys.Root()

	ref, err := root.SpawnNamed("again", counterProps())
	require.NoError(t, err)
	ref.Stop()
	waitDone(t, ref)

	_, err = root.SpawnNamed("again", counterProps())
	require.NoError(t, err)
}

type drainActor struct {
	gate    chan struct{}
	entered chan struct{}
	handled chan int
	stopped chan struct{}
}

func (a *drainActor) Register(r HandlerRegistrar) {
	r.Handle(
		HandleMsg(func(c Context, _ gate) error {
			close(a.entered)
			<-a.gate
			return nil
		}),
		HandleMsg(func(c Context, n int) error {
			a.handled <- n
			return nil
		}),
	)
}

func (a *drainActor) Stopped(c Context) { close(a.stopped) }

func TestActor_stop_drains_queued(t *testing.T) {
	a := &drainActor{
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
		handled: make(chan int, 10),
		stopped: make(chan struct{}),
	}

	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromProducer(func() Actor { return a }))

	ref.Tell(gate{})
	<-a.entered

	ref.Tell(1)
	ref.Tell(2)
	ref.Tell(3)
	ref.Stop()
	ref.Tell(4)
	close(a.gate)

	waitDone(t, ref)

	select {
	case <-a.stopped:
	default:
		t.Fatal("stop hook did not run")
	}

	close(a.handled)
	var got []int
	for n := range a.handled {
		got = append(got, n)
	}
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestActor_stop_from_handler(t *testing.T) {
	var (
		entered = make(chan struct{})
		release = make(chan struct{})
		handled = make(chan string, 10)
	)

	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromHandlers(
		HandleMsg(func(c Context, s string) error {
			if s == "a" {
				close(entered)
				<-release
				c.Stop()
				c.Stop()
			}
			handled <- s
			return nil
		}),
	))

	ref.Tell("a")
	<-entered
	ref.Tell("b")
	close(release)

	waitDone(t, ref)

	require.NotPanics(t, func() { ref.Tell("c") })
	err := Publish(t.Context(), ref, "d")
	require.ErrorIs(t, err, ErrDeadLetter)

	close(handled)
	var got []string
	for s := range handled {
		got = append(got, s)
	}
	require.Equal(t, []string{"a", "b"}, got)
}

type hooks struct {
	events chan string
}

func (h *hooks) Register(r HandlerRegistrar) {
	r.Handle(
		Init(func(c Context) error {
			h.events <- "init"
			return nil
		}),
		HandleMsg(func(c Context, s string) error {
			if s == "boom" {
				panic("boom")
			}
			h.events <- s
			return nil
		}),
	)
}

func (h *hooks) Started(c Context) { h.events <- "started" }
func (h *hooks) Stopped(c Context) { h.events <- "stopped" }

func TestActor_lifecycle_hooks(t *testing.T) {
	h := &hooks{events: make(chan string, 10)}

	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromProducer(func() Actor { return h }))
	ref.Tell("msg")
	ref.Stop()
	waitDone(t, ref)

	close(h.events)
	var got []string
	for e := range h.events {
		got = append(got, e)
	}
	require.Equal(t, []string{"init", "started", "msg", "stopped"}, got)
}

func TestActor_panic_terminates_without_stop_hook(t *testing.T) {
	var (
		panics    atomic.Int32
		recovered atomic.Value
	)
	h := &hooks{events: make(chan string, 10)}

	sys := newTestSystem(t, WithOnPanic(func(pid PID, r any, stack []byte, msg any) {
		panics.Add(1)
		recovered.Store(r)
		assert.Equal(t, "boom", msg)
		assert.NotEmpty(t, stack)
	}))
	ref, err := sys.Root().SpawnNamed("fragile", PropsFromProducer(func() Actor { return h }))
	require.NoError(t, err)

	_, err = Request[string, any](t.Context(), ref, "boom")
	require.ErrorIs(t, err, ErrHandlerPanic)

	waitDone(t, ref)
	require.EqualValues(t, 1, panics.Load())
	require.Equal(t, "boom", recovered.Load())

	close(h.events)
	for e := range h.events {
		require.NotEqual(t, "stopped", e)
	}

	_, ok := sys.Root().Resolve("fragile")
	require.False(t, ok)
}

func TestActor_panic_fails_queued_requests(t *testing.T) {
	var (
		entered = make(chan struct{})
		release = make(chan struct{})
	)

	sys := newTestSystem(t, WithOnPanic(func(PID, any, []byte, any) {}))
	ref := sys.Root().Spawn(PropsFromHandlers(
		HandleMsg(func(c Context, _ gate) error {
			close(entered)
			<-release
			panic("gate broke")
		}),
		HandleRequest(func(c Context, n int) (int, error) { return n, nil }),
	))

	ref.Tell(gate{})
	<-entered

	f, err := RequestFuture[int, int](t.Context(), ref, 1)
	require.NoError(t, err)
	close(release)

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()
	_, err = f.Result(ctx)
	require.ErrorIs(t, err, ErrDeadLetter)
	require.ErrorIs(t, err, ErrActorStopped)

	waitDone(t, ref)
}

func TestActor_init_error(t *testing.T) {
	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromHandlers(
		Init(func(c Context) error { return errors.New("no database") }),
		HandleMsg(func(c Context, _ int) error { return nil }),
	))

	waitDone(t, ref)
	err := Publish(t.Context(), ref, 1)
	require.ErrorIs(t, err, ErrDeadLetter)
}

func TestActor_default_handler(t *testing.T) {
	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromHandlers(
		DefaultHandler(func(c Context, msg any) (any, error) {
			return "Hello", nil
		}),
	))

	res, err := Request[string, string](t.Context(), ref, "Hi!")
	require.NoError(t, err)
	require.Equal(t, "Hello", res)
}

func TestActor_no_handler(t *testing.T) {
	sys := newTestSystem(t)
	ref := sys.Root().Spawn(counterProps())

	_, err := Request[string, any](t.Context(), ref, "unknown")
	require.ErrorIs(t, err, ErrNoHandler)

	// the actor survives
	n, err := Request[increment, int](t.Context(), ref, increment{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestActor_publish_error(t *testing.T) {
	type msg struct{ V int }

	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromHandlers(
		HandleMsg(func(c Context, m msg) error { return errors.New("uups") }),
	))

	require.ErrorContains(t, Publish(t.Context(), ref, msg{V: 42}), "uups")
}

func TestActor_result_type_mismatch(t *testing.T) {
	sys := newTestSystem(t)
	ref := sys.Root().Spawn(counterProps())

	_, err := Request[increment, string](t.Context(), ref, increment{})
	require.ErrorIs(t, err, ErrResultType)
}

func TestActor_respond(t *testing.T) {
	type query struct{}

	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromHandlers(
		HandleMsg(func(c Context, _ query) error {
			assert.NotNil(t, c.Sender())
			c.Respond(42)
			c.Respond(43)
			return nil
		}),
		HandleMsg(func(c Context, _ int) error {
			assert.Nil(t, c.Sender())
			c.Respond("ignored")
			return nil
		}),
	))

	ref.Tell(1)

	n, err := Request[query, int](t.Context(), ref, query{})
	require.NoError(t, err)
	require.Equal(t, 42, n)
}

func TestActor_self_request(t *testing.T) {
	type outer struct{}

	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromHandlers(
		HandleRequest(func(c Context, _ outer) (int, error) {
			return Request[increment, int](c, c.Self(), increment{})
		}),
		HandleRequest(func(c Context, _ increment) (int, error) { return 1, nil }),
	))

	_, err := Request[outer, int](t.Context(), ref, outer{})
	require.ErrorIs(t, err, ErrSelfRequest)
}

func TestActor_request_between_actors(t *testing.T) {
	type forward struct{}

	sys := newTestSystem(t)
	root := sys.Root()
	target := root.Spawn(counterProps())
	proxy := root.Spawn(PropsFromHandlers(
		HandleRequest(func(c Context, _ forward) (int, error) {
			return Request[increment, int](c, target, increment{})
		}),
	))

	n, err := Request[forward, int](t.Context(), proxy, forward{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestActor_handle_every(t *testing.T) {
	var ticks atomic.Int32

	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromHandlers(
		HandleEvery(5*time.Millisecond, func(c Context) error {
			ticks.Add(1)
			return nil
		}),
	))

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	ref.Stop()
	waitDone(t, ref)
	n := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, n, ticks.Load())
}

func TestActor_schedule(t *testing.T) {
	type work struct{}
	done := make(chan struct{})

	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromHandlers(
		HandleMsg(func(c Context, _ work) error {
			c.Schedule(func() { close(done) })
			return nil
		}),
	))
	ref.Tell(work{})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled task did not run")
	}
}

func TestActor_children_stop_with_parent(t *testing.T) {
	childRef := make(chan *Ref, 1)

	sys := newTestSystem(t)
	parent := sys.Root().Spawn(PropsFromHandlers(
		Init(func(c Context) error {
			child, err := c.SpawnNamed("child", counterProps())
			if err != nil {
				return err
			}
			childRef <- child
			return nil
		}),
	))

	child := <-childRef
	require.Equal(t, parent.PID().ID+"/child", child.PID().ID)

	n, err := Request[increment, int](t.Context(), child, increment{})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	parent.Stop()
	waitDone(t, parent)
	waitDone(t, child)
}

func TestActor_bounded_mailbox_rejects(t *testing.T) {
	a := &drainActor{
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
		handled: make(chan int, 10),
		stopped: make(chan struct{}),
	}

	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromProducer(func() Actor { return a }).WithMailbox(Bounded(1)))

	ref.Tell(gate{})
	<-a.entered

	ref.Tell(1)
	err := Publish(t.Context(), ref, 2)
	require.ErrorIs(t, err, ErrMailboxFull)

	close(a.gate)
	require.Equal(t, 1, <-a.handled)
}

func TestActor_request_abandoned(t *testing.T) {
	a := &drainActor{
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
		handled: make(chan int, 10),
		stopped: make(chan struct{}),
	}

	sys := newTestSystem(t)
	ref := sys.Root().Spawn(PropsFromProducer(func() Actor { return a }))

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	err := Publish(ctx, ref, gate{})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(a.gate)

	// the abandoned future left the registry
	require.Eventually(t, func() bool {
		for _, id := range sys.Registry().IDs() {
			if strings.HasPrefix(id, ClientPrefix) {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
}

func TestSystem_shutdown(t *testing.T) {
	h := &hooks{events: make(chan string, 10)}
	sys := NewActorSystem(DefaultConfig())
	root := sys.Root()

	ref := root.Spawn(PropsFromProducer(func() Actor { return h }))
	root.Spawn(counterProps())
	root.Spawn(counterProps())
	ref.Tell("last")

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()
	require.NoError(t, sys.Shutdown(ctx))

	select {
	case <-sys.Done():
	case <-time.After(time.Second):
		t.Fatal("system not done")
	}
	require.Zero(t, sys.Registry().Len())

	close(h.events)
	var got []string
	for e := range h.events {
		got = append(got, e)
	}
	require.Equal(t, []string{"init", "started", "last", "stopped"}, got)

	_, err := root.SpawnNamed("late", counterProps())
	require.ErrorIs(t, err, ErrSystemStopped)

	late := root.Spawn(counterProps())
	_, err = Request[increment, int](t.Context(), late, increment{})
	require.ErrorIs(t, err, ErrDeadLetter)

	require.NoError(t, sys.Shutdown(ctx))
}

func TestSystem_spawn_prefix(t *testing.T) {
	sys := newTestSystem(t)
	ref := sys.Root().SpawnPrefix("worker", counterProps())
	require.Contains(t, ref.PID().ID, "worker$")
	require.Equal(t, NoHost, ref.PID().Address)
}

func TestSystem_resolver(t *testing.T) {
	sys := newTestSystem(t)

	var posted atomic.Int32
	remotePID := NewPID("10.0.0.1:8090", "far")
	sys.RegisterResolver(func(pid PID) (Process, bool) {
		if pid.Address != remotePID.Address {
			return nil, false
		}
		return processFunc(func(env Envelope) error {
			posted.Add(1)
			env.Resolve(7, nil)
			return nil
		}), true
	})

	ref := sys.RefOf(remotePID)
	n, err := Request[increment, int](t.Context(), ref, increment{})
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.EqualValues(t, 1, posted.Load())

	_, err = Request[increment, int](t.Context(), sys.RefOf(NewPID("10.0.0.2:1", "x")), increment{})
	require.ErrorIs(t, err, ErrDeadLetter)
}

type processFunc func(env Envelope) error

func (f processFunc) Post(env Envelope) error { return f(env) }
func (processFunc) Stop()                     {}
func (processFunc) Done() <-chan struct{}     { return nil }
