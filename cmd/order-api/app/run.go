package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/EmanElbedwihy/OMS/configs"
	"github.com/EmanElbedwihy/OMS/internal/adapter/cache"
	httpadapter "github.com/EmanElbedwihy/OMS/internal/adapter/http"
	"github.com/EmanElbedwihy/OMS/internal/adapter/kafka"
	"github.com/EmanElbedwihy/OMS/internal/adapter/observ"
	"github.com/EmanElbedwihy/OMS/internal/adapter/queue"
	"github.com/EmanElbedwihy/OMS/internal/adapter/repo"
	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/EmanElbedwihy/OMS/internal/logging"
	"github.com/EmanElbedwihy/OMS/internal/usecase"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// worker is a background loop that returns once ctx is cancelled.
type worker func(ctx context.Context)

type App struct {
	Router *gin.Engine

	cfg     configs.Config
	server  *http.Server
	workers []worker
	log     *slog.Logger
}

// InitWithConfig connects every backing service and wires the managers,
// HTTP router and background workers. cleanup closes connections in reverse
// order of opening.
func InitWithConfig(ctx context.Context, cfg configs.Config) (*App, func(), error) {
	decimal.MarshalJSONWithoutQuotes = true
	log := logging.New("bootstrap")

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// init database
	db, err := repo.Open(ctx, cfg.MySQL.DSN, repo.PoolConfig{
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
	}, orDefault(cfg.MySQL.PingTimeout, 10*time.Second))
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = db.Close() })

	if cfg.MySQL.AutoMigrate {
		if err := repo.Migrate(db); err != nil {
			return fail(err)
		}
		log.Info("migrations applied")
	}
	store := repo.NewMySQLStore(db)

	// init redis
	var idem usecase.IdempotencyStore
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fail(fmt.Errorf("redis ping: %w", err))
		}
		idem = cache.NewRedisIdempotencyStore(rdb, orDefault(cfg.Idempotency.TTL, 24*time.Hour))
	}

	carts := usecase.NewCartManager(store)
	orders := usecase.NewOrderManager(store, idem)
	orders.OnCreated(func(*entity.Order) { observ.OrdersCreated.Inc() })
	users := usecase.NewUserLookup(store)

	a := &App{cfg: cfg, log: logging.New("app")}

	// init rabbitmq: outbox relay + notification consumer
	if cfg.Rabbit.Enabled {
		ws, closeRabbit, err := setupRabbit(cfg, store)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, closeRabbit)
		a.workers = append(a.workers, ws...)
	} else {
		log.Warn("rabbitmq disabled, outbox events stay pending")
	}

	// init kafka: fulfillment status listener
	if cfg.Kafka.Enabled {
		w, closeKafka, err := setupKafkaListener(cfg, orders)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, closeKafka)
		a.workers = append(a.workers, w)
	}

	// init handlers + routers + middleware
	a.Router = httpadapter.NewRouter(
		httpadapter.RouterConfig{CORSOrigins: cfg.HTTP.CORSOrigins, Logger: logging.New("http")},
		httpadapter.NewCartHandler(carts),
		httpadapter.NewOrderHandler(orders, users),
	)
	a.server = &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      otelhttp.NewHandler(a.Router, cfg.App.Name),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return a, cleanup, nil
}

func setupRabbit(cfg configs.Config, store *repo.MySQLStore) ([]worker, func(), error) {
	conn, err := amqp.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	closeConn := func() { _ = conn.Close() }

	topo := queue.Topology{
		Exchange:   cfg.Rabbit.Exchange,
		Queue:      cfg.Rabbit.Queue,
		BindingKey: cfg.Rabbit.BindingKey,
	}

	// publishing and consuming use separate channels; confirm mode is per channel
	pubCh, err := conn.Channel()
	if err != nil {
		closeConn()
		return nil, nil, err
	}
	producer, err := queue.NewRabbitProducer(pubCh, topo)
	if err != nil {
		closeConn()
		return nil, nil, err
	}
	relay := queue.NewOutboxRelay(store, producer, queue.RelayConfig{
		Interval:    cfg.Outbox.PollInterval,
		BatchSize:   cfg.Outbox.BatchSize,
		MaxAttempts: cfg.Outbox.MaxAttempts,
	})

	subCh, err := conn.Channel()
	if err != nil {
		closeConn()
		return nil, nil, err
	}
	var mailer queue.Mailer
	if cfg.SMTP.Host != "" {
		mailer = &queue.SMTPMailer{Host: cfg.SMTP.Host, Port: cfg.SMTP.Port, From: cfg.SMTP.From}
	}
	notifier := queue.NewOrderNotifier(store, mailer)

	router := queue.NewRouter(subCh, queue.WithPrefetch(cfg.Rabbit.Prefetch))
	router.Register(cfg.Rabbit.Queue, queue.JSONHandler[usecase.OrderEventMsg]{HandleFunc: notifier.Handle})

	consume := func(ctx context.Context) {
		if err := router.Start(ctx); err != nil {
			logging.FromCtx(ctx).Error("rabbitmq consumer failed to start", "err", err)
			return
		}
		<-ctx.Done()
		router.Wait()
	}
	return []worker{relay.Run, consume}, closeConn, nil
}

func setupKafkaListener(cfg configs.Config, orders *usecase.OrderManager) (worker, func(), error) {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka group: %w", err)
	}

	h := kafka.NewFulfillmentStatusHandler(orders)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.Topic}, h.Handle)

	run := func(ctx context.Context) {
		if err := consumer.Start(ctx); err != nil {
			logging.FromCtx(ctx).Error("kafka consumer stopped", "err", err)
		}
	}
	return run, func() { _ = grp.Close() }, nil
}

// Run serves HTTP and runs the workers until ctx is cancelled, then shuts the
// server down and waits for the workers to return.
func (a *App) Run(ctx context.Context) error {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range a.workers {
		wg.Add(1)
		go func(w worker) {
			defer wg.Done()
			w(wctx)
		}(w)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
	case runErr = <-errCh:
		a.log.Error("http server failed", "err", runErr)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), orDefault(a.cfg.HTTP.ShutdownTimeout, 15*time.Second))
	defer cancelShutdown()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http shutdown", "err", err)
	}

	cancel()
	wg.Wait()
	a.log.Info("stopped")
	return runErr
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
