package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/farsdash/farsdash/engine/api"
	"github.com/farsdash/farsdash/engine/geo"
	"github.com/farsdash/farsdash/engine/render"
	"github.com/farsdash/farsdash/engine/session"
	"github.com/farsdash/farsdash/engine/web"
	"github.com/farsdash/farsdash/pkg/config"
	"github.com/farsdash/farsdash/pkg/metrics"
	"github.com/farsdash/farsdash/pkg/resilience"
)

var (
	serveListen string
	serveSecure bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	Long: `Run the dashboard. The gRPC health endpoint starts when grpc_health_addr is
set, and accepted inputs are published to NATS when nats_url is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if serveListen != "" {
			cfg.ListenAddr = serveListen
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (overrides listen_addr)")
	serveCmd.Flags().BoolVar(&serveSecure, "secure-cookie", false, "mark the session cookie Secure")
}

// app is everything serve starts, built before anything listens.
type app struct {
	handler http.Handler
	store   *session.Store
	limiter *resilience.KeyedLimiter
	health  *web.Health
	sink    *session.NATSSink
	idle    time.Duration
}

func newApp(cfg config.Config, log *slog.Logger) (*app, error) {
	reg := metrics.New()
	health := web.NewHealth()
	breakerOpen := reg.Gauge("farsdash_breaker_open", "1 while the backend circuit breaker is open")

	breaker := resilience.NewBreaker(resilience.BreakerOpts{
		FailThreshold: cfg.BreakerThreshold,
		Timeout:       cfg.BreakerTimeout,
		HalfOpenMax:   1,
		IsFailure:     backendFailure,
		OnStateChange: func(st resilience.State) {
			log.Warn("backend circuit breaker", "state", st.String())
			health.SetBreakerState(st)
			if st == resilience.StateOpen {
				breakerOpen.Set(1)
			} else {
				breakerOpen.Set(0)
			}
		},
	})
	opts := []api.Option{
		api.WithTimeout(cfg.FetchTimeout),
		api.WithMetrics(reg),
		api.WithLogger(log),
	}
	if cfg.BreakerThreshold > 0 {
		opts = append(opts, api.WithBreaker(breaker))
	}
	client := api.New(cfg.BackendURL, opts...)

	var shapes []geo.Shape
	if cfg.GeoJSONPath != "" {
		polys, err := geo.LoadFile(cfg.GeoJSONPath)
		if err != nil {
			return nil, fmt.Errorf("load state outlines: %w", err)
		}
		shapes = geo.Project(polys, render.MapWidth, render.MapHeight)
		log.Info("state outlines loaded", "path", cfg.GeoJSONPath, "states", len(shapes))
	} else {
		log.Warn("geojson_path not set; the national map will be empty")
	}

	a := &app{health: health, idle: cfg.SessionIdle}
	var sink session.Sink = session.NopSink{}
	if cfg.NATSURL != "" {
		s, err := session.DialNATSSink(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, fmt.Errorf("nats connect: %w", err)
		}
		a.sink, sink = s, s
		log.Info("publishing interactions", "subject", s.Subject())
	}

	a.store = session.NewStore(session.Options{
		Backend:     client,
		Sink:        sink,
		Years:       cfg.Years(),
		DefaultYear: cfg.DefaultYear,
		Idle:        cfg.SessionIdle,
		Logger:      log,
		Metrics:     reg,
	})
	a.limiter = resilience.NewKeyedLimiter(resilience.LimiterOpts{
		Rate:    cfg.PointerRate,
		Burst:   cfg.PointerBurst,
		IdleTTL: cfg.SessionIdle,
	})
	a.handler = web.New(web.Options{
		Store:        a.store,
		Shapes:       shapes,
		Years:        cfg.Years(),
		Limiter:      a.limiter,
		Metrics:      reg,
		Logger:       log,
		CORSOrigin:   cfg.CORSOrigin,
		SecureCookie: serveSecure,
	}).Handler()
	return a, nil
}

// backendFailure counts transport errors and 5xx responses toward the
// breaker. An {"error": ...} body or a 4xx means the backend is up.
func backendFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *api.StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return !errors.Is(err, api.ErrNoData)
}

// sweep drops idle sessions and limiter buckets until ctx ends.
func (a *app) sweep(ctx context.Context) {
	go a.store.Run(ctx)
	tick := time.NewTicker(max(a.idle/2, time.Second))
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			a.limiter.Sweep()
		}
	}
}

func (a *app) Close() {
	a.store.Close()
	if a.sink != nil {
		a.sink.Close()
	}
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	go a.sweep(ctx)

	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			return fmt.Errorf("grpc health listen: %w", err)
		}
		go func() {
			log.Info("grpc health starting", "addr", lis.Addr().String())
			if err := a.health.Serve(lis); err != nil {
				log.Error("grpc health stopped", "err", err)
			}
		}()
		defer a.health.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("dashboard starting", "addr", cfg.ListenAddr, "backend", cfg.BackendURL, "version", Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
