package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codewandler/actr-go/adapters/nats"
	promadapter "github.com/codewandler/actr-go/adapters/prometheus"
	viperadapter "github.com/codewandler/actr-go/adapters/viper"
	"github.com/codewandler/actr-go/core/actor"
	"github.com/codewandler/actr-go/core/remote"
)

// === Config ===

// NOTE: TRANSPORT=nats needs a server: docker run --net=host nats:latest

var (
	logLevel    = slog.LevelInfo
	N           = getEnvInt("N", 100_000)
	batchSize   = getEnvInt("B", 10_000)
	transport   = getEnv("TRANSPORT", "local")
	configPath  = getEnv("CONFIG", "")
	metricsAddr = getEnv("METRICS_ADDR", "")
	pipelined   = getEnvBool("PIPELINED", false)
)

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	return v == "1" || strings.ToLower(v) == "true"
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

// === Messages ===

type (
	Ping struct {
		Seq int `json:"seq"`
	}
	Pong struct {
		Seq int `json:"seq"`
	}
)

func pongerProps() *actor.Props {
	return actor.PropsFromHandlers(
		actor.HandleRequest(func(c actor.Context, p Ping) (Pong, error) {
			return Pong{Seq: p.Seq}, nil
		}),
	)
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := viperadapter.LoadConfig(configPath, "")
	checkErr(err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := promadapter.NewAllMetrics(reg)

	if metricsAddr != "" {
		cfg.MetricsEnabled = true
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		defer srv.Close()
		log.Info("serving metrics", slog.String("addr", metricsAddr))
	}

	fmt.Printf("Transport: %s\n", transport)
	fmt.Printf("Pipelined: %s\n", strconv.FormatBool(pipelined))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	ponger, shutdown := setup(ctx, log, cfg, m)
	defer shutdown()

	// === START ===

	log.Info("==================================")
	log.Info("Starting ...")

	startAt := time.Now()
	lastTime := startAt

	for i := 1; i <= N; i++ {
		if pipelined {
			f, err := actor.RequestFuture[Ping, Pong](ctx, ponger, Ping{Seq: i})
			checkErr(err)
			if i%batchSize != 0 {
				continue
			}
			_, err = f.Result(ctx)
			checkErr(err)
		} else {
			pong, err := actor.Request[Ping, Pong](ctx, ponger, Ping{Seq: i})
			checkErr(err)
			if pong.Seq != i {
				panic(fmt.Sprintf("out of order: want %d got %d", i, pong.Seq))
			}
		}

		if i%batchSize == 0 {
			mu := getMemUsage()
			n := time.Now()
			took := n.Sub(lastTime)
			fmt.Printf(" | %6d msgs | %6d ms | %8d msgs/s | (%d / %d) MiB mem (sys) |\n", batchSize, took.Milliseconds(), int(float64(batchSize)/took.Seconds()), mu.Alloc/1024/1024, mu.Sys/1024/1024)
			lastTime = n
		}
	}

	// === stats ===
	println("==========================================")

	took := time.Since(startAt)
	runtime.GC()

	fmt.Printf("total runtime: %.3f seconds\n", took.Seconds())
	fmt.Printf(" avg. round trips/s: %d\n", int(float64(N)/took.Seconds()))
}

// setup returns the ponger as seen by the pinging side. With a transport
// the ponger lives in a second system reached through it.
func setup(ctx context.Context, log *slog.Logger, cfg actor.Config, m *promadapter.AllMetrics) (*actor.Ref, func()) {
	opts := []actor.Option{actor.WithLogger(log), actor.WithMetrics(m.Actor)}

	if transport == "local" {
		sys := actor.NewActorSystem(cfg, opts...)
		ponger, err := sys.Root().SpawnNamed("ponger", pongerProps())
		checkErr(err)
		return ponger, func() { shutdownSystem(sys) }
	}

	var tr remote.Transport
	switch transport {
	case "mem":
		tr = remote.NewInMemoryTransport(remote.MemoryTransportOpts{Log: log})
	case "nats":
		nt, err := nats.NewTransport(nats.TransportConfig{
			Connect:       nats.ReuseConnection(nats.ConnectDefault()),
			Log:           log,
			SubjectPrefix: "actr.pingpong",
		})
		checkErr(err)
		tr = nt
	default:
		panic(fmt.Sprintf("unknown transport %q", transport))
	}

	if cfg.Host == actor.NoHost {
		cfg.Host = "127.0.0.1"
	}
	pingCfg, pongCfg := cfg, cfg
	pingCfg.Name, pongCfg.Name = "ping", "pong"
	pingCfg.Port, pongCfg.Port = cfg.Port+1, cfg.Port+2

	pingSys := actor.NewActorSystem(pingCfg, opts...)
	pongSys := actor.NewActorSystem(pongCfg, opts...)

	var remotes []*remote.Remote
	for _, sys := range []*actor.ActorSystem{pingSys, pongSys} {
		r, err := remote.New(sys, remote.Options{Transport: tr, Log: log, Metrics: m.Remote})
		checkErr(err)
		remote.Register[Ping, Pong](r)
		checkErr(r.Start(ctx))
		remotes = append(remotes, r)
	}

	_, err := pongSys.Root().SpawnNamed("ponger", pongerProps())
	checkErr(err)

	return remotes[0].RefOf(pongSys.Address(), "ponger"), func() {
		for _, r := range remotes {
			r.Stop()
		}
		shutdownSystem(pingSys)
		shutdownSystem(pongSys)
		if err := tr.Close(); err != nil {
			log.Warn("transport close failed", slog.Any("error", err))
		}
	}
}

func shutdownSystem(sys *actor.ActorSystem) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	checkErr(sys.Shutdown(ctx))
}

// === stats helpers ===

type MemUsage struct {
	Alloc      uint64 // bytes allocated and not yet freed (heap)
	TotalAlloc uint64 // cumulative bytes allocated
	Sys        uint64 // total bytes obtained from OS
	NumGC      uint32 // gc cycles
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// === Helpers ===

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}
