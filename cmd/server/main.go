package main

import (
	"context"
	"database/sql"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"raffled/internal/keeper"
	"raffled/internal/platform/config"
	"raffled/internal/platform/httpserver"
	"raffled/internal/platform/logger"
	"raffled/internal/platform/metrics"
	platformredis "raffled/internal/platform/redis"
	"raffled/internal/pool"
	"raffled/internal/raffle"
	"raffled/internal/raffle/handler"
	"raffled/internal/raffle/models"
	"raffled/internal/raffle/store"
	"raffled/internal/token"
	"raffled/internal/vrf"
	"raffled/pkg/domain"
	"raffled/pkg/platform/events"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil && err != context.Canceled {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Optional Postgres: snapshot durability plus the event outbox.
	var db *sql.DB
	if cfg.PostgresURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		for _, schema := range []string{store.Schema, events.Schema} {
			if _, err := db.ExecContext(ctx, schema); err != nil {
				return err
			}
		}
	}

	snapshots, err := buildSnapshotStore(cfg, db)
	if err != nil {
		return err
	}

	eventStore := buildEventStore(db)
	publisher := events.NewPublisher(eventStore, events.WithAsyncBuffer(256), events.WithLogger(log))
	defer publisher.Close()

	ledger := pool.NewInMemoryLedger()

	raffleCfg := models.Config{
		EntranceFee:      cfg.EntranceFee,
		KeyHash:          cfg.VRFKeyHash,
		SubscriptionID:   cfg.VRFSubscriptionID,
		CallbackGasLimit: cfg.VRFCallbackGasLimit,
		Interval:         cfg.Interval,
	}

	// The local coordinator fulfills back into the service, which does not
	// exist yet; a FulfillerFunc closure breaks the cycle.
	var svc *raffle.Service
	var coordinator vrf.Coordinator
	if cfg.VRFCoordinatorURL != "" {
		coordinator = vrf.NewHTTPCoordinator(cfg.VRFCoordinatorURL, cfg.VRFCoordinatorToken)
		log.Info("using remote vrf coordinator", "url", cfg.VRFCoordinatorURL)
	} else {
		local := vrf.NewLocalCoordinator(
			vrf.FulfillerFunc(func(ctx context.Context, id domain.RequestID, words []*big.Int) error {
				return svc.FulfillRandomWords(ctx, id, words)
			}),
			vrf.WithBlockTime(time.Second),
			vrf.WithLocalLogger(log),
		)
		defer local.Close()
		coordinator = local
		log.Info("using local vrf coordinator")
	}

	svc, err = raffle.New(raffleCfg, ledger, coordinator,
		raffle.WithLogger(log),
		raffle.WithMetrics(m),
		raffle.WithEvents(publisher),
		raffle.WithSnapshotStore(snapshots),
	)
	if err != nil {
		return err
	}

	jwtSvc := token.NewService(cfg.JWTSigningKey)

	var handlerOpts []handler.Option
	if cfg.MachineAPIKeyHash != "" {
		handlerOpts = append(handlerOpts, handler.WithMachineAPIKey(cfg.MachineAPIKeyHash))
	}

	router := chi.NewRouter()
	handler.New(svc, log, jwtSvc, handlerOpts...).Register(router)
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.KeeperEnabled {
		k := keeper.New(ctx, svc, log)
		if err := k.Register(cfg.KeeperSchedule); err != nil {
			return err
		}
		k.Start()
		defer k.Stop()
	}

	if db != nil && cfg.KafkaBrokers != "" {
		client, err := kgo.NewClient(
			kgo.SeedBrokers(strings.Split(cfg.KafkaBrokers, ",")...),
			kgo.DefaultProduceTopic(cfg.KafkaTopic),
		)
		if err != nil {
			return err
		}
		defer client.Close()
		sink := events.NewKafkaSink(db, client, cfg.KafkaTopic, events.WithSinkLogger(log))
		g.Go(func() error {
			err := sink.Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		log.Info("starting raffled", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func buildSnapshotStore(cfg config.Config, db *sql.DB) (store.SnapshotStore, error) {
	if db != nil {
		return store.NewPostgresStore(db), nil
	}
	if cfg.RedisURL != "" {
		client, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return store.NewRedisStore(client.Client), nil
	}
	return store.NewInMemoryStore(), nil
}

func buildEventStore(db *sql.DB) events.Store {
	if db != nil {
		return events.NewPostgresStore(db)
	}
	return events.NewInMemoryStore()
}
