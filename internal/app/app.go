package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/ordering-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/ordering-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/ordering-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/ordering-backend/internal/infrastructure/notify"
	"github.com/DRSN-tech/ordering-backend/internal/metrics"
	"github.com/DRSN-tech/ordering-backend/internal/repository/inmem"
	"github.com/DRSN-tech/ordering-backend/internal/repository/memory"
	"github.com/DRSN-tech/ordering-backend/internal/repository/pgdb"
	"github.com/DRSN-tech/ordering-backend/internal/repository/redis"
	"github.com/DRSN-tech/ordering-backend/internal/usecase"
	"github.com/DRSN-tech/ordering-backend/pkg/clients"
	"github.com/DRSN-tech/ordering-backend/pkg/closer"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/DRSN-tech/ordering-backend/pkg/jitter"
	"github.com/DRSN-tech/ordering-backend/pkg/logger"
	"github.com/DRSN-tech/ordering-backend/pkg/postgres"
	"github.com/DRSN-tech/ordering-backend/pkg/retry"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	healthInterval    = 10 * time.Second
	kafkaTopicTimeout = 10 * time.Second
)

// storage: репозитории и менеджер транзакций выбранного драйвера БД.
type storage struct {
	categories usecase.CategoryRepository
	products   usecase.ProductRepository
	orders     usecase.OrderRepository
	trm        usecase.TxManager
}

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	metrics *metrics.Metrics

	redisClient *clients.RedisClient
	checks      []healthCheck

	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
}

// NewApp поднимает зависимости в порядке: БД, кэш, уведомления, usecase, транспорт.
// Всё, что нужно закрывать, регистрируется в closer; при ошибке уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		cfg:     cfg,
		logger:  log,
		closer:  closer.NewCloser(cfg.App.ShutdownTimeout / 2),
		metrics: metrics.New(cfg.App.Name),
	}

	if err := a.init(); err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if closeErr := a.closer.Close(ctx); closeErr != nil {
			log.Errorf(closeErr, "failed to release resources after init error")
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	store, err := a.initStorage()
	if err != nil {
		return err
	}

	cacheRepo, err := a.initCache()
	if err != nil {
		return err
	}

	dispatcher, err := a.initNotifier()
	if err != nil {
		return err
	}

	log := a.logger.Named("usecase")
	categoryUC := usecase.NewCategoryUC(store.categories, store.trm, cacheRepo, a.metrics, dispatcher, log)
	productUC := usecase.NewProductUC(store.products, store.categories, store.trm, cacheRepo, a.metrics, dispatcher, log)
	orderUC := usecase.NewOrderUC(store.orders, store.products, store.trm, cacheRepo, a.metrics, dispatcher, log)

	a.grpcSrv = v1Grpc.NewGRPCServer(a.cfg.Grpc, a.cfg.App.Name, a.logger.Named("grpc"))
	a.closer.Add("grpc server", a.grpcSrv.Stop)

	policy := retry.Policy{
		Attempts:  a.cfg.Retry.Attempts,
		BaseDelay: a.cfg.Retry.BaseDelay,
		MaxDelay:  a.cfg.Retry.MaxDelay,
		Jitter:    jitter.DefaultJitter,
	}

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, a.cfg.Http, a.metrics, a.logger)
	router.Init(categoryUC, productUC, orderUC, v1Http.NewExecutor(policy, a.logger), a.healthy)

	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)
	a.closer.Add("http server", a.httpSrv.Stop)

	return nil
}

func (a *App) initStorage() (*storage, error) {
	switch a.cfg.App.DBDriver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := postgres.Connect(ctx, a.cfg.Db)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		a.closer.AddSimple("postgres", db.Close)
		a.addCheck("postgres", db.Ping)

		if err := db.RunMigrations(a.logger.Named("migrations")); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		return &storage{
			categories: pgdb.NewCategoryRepo(db.Pool),
			products:   pgdb.NewProductRepo(db.Pool),
			orders:     pgdb.NewOrderRepo(db.Pool),
			trm:        manager.Must(trmpgx.NewDefaultFactory(db.Pool)),
		}, nil

	case config.DriverMemory:
		a.logger.Warnf("DB_DRIVER=memory: data is kept in process memory and lost on restart")
		store := inmem.NewStore()

		return &storage{
			categories: store.Categories(),
			products:   store.Products(),
			orders:     store.Orders(),
			trm:        store,
		}, nil
	}

	return nil, e.Wrap(a.cfg.App.DBDriver, e.ErrUnknownDriver)
}

func (a *App) initCache() (usecase.CacheRepository, error) {
	switch a.cfg.Cache.Driver {
	case config.DriverRedis:
		client, err := a.redis()
		if err != nil {
			return nil, err
		}
		return redis.NewCacheRepo(client, a.cfg.Cache.TTL), nil

	case config.DriverMemory:
		cacheRepo, err := memory.NewCacheRepo(memory.Config{
			Capacity:           a.cfg.Cache.Capacity,
			NumShards:          a.cfg.Cache.Shards,
			TTL:                a.cfg.Cache.TTL,
			EvictionPercentage: a.cfg.Cache.EvictionPercentage,
		})
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		return cacheRepo, nil
	}

	return nil, e.Wrap(a.cfg.Cache.Driver, e.ErrUnknownDriver)
}

func (a *App) initNotifier() (*notify.Dispatcher, error) {
	log := a.logger.Named("notify")

	var sink notify.Sink
	switch a.cfg.Notify.Driver {
	case config.DriverRedis:
		client, err := a.redis()
		if err != nil {
			return nil, err
		}
		sink = notify.NewRedisSink(client)

	case config.DriverKafka:
		kafkaSink := notify.NewKafkaSink(a.cfg.Kafka)
		if err := kafkaSink.EnsureTopic(kafkaTopicTimeout); err != nil {
			_ = kafkaSink.Close(context.Background())
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		a.closer.Add("kafka writer", kafkaSink.Close)
		sink = kafkaSink

	case config.DriverNone:
		sink = notify.NewLogSink(log)

	default:
		return nil, e.Wrap(a.cfg.Notify.Driver, e.ErrUnknownDriver)
	}

	dispatcher := notify.NewDispatcher(sink, a.cfg.Notify.QueueSize, log, a.metrics)
	dispatcher.Start()
	a.closer.Add("notification dispatcher", dispatcher.Stop)

	return dispatcher, nil
}

// redis лениво создаёт один клиент на кэш и уведомления.
func (a *App) redis() (*clients.RedisClient, error) {
	if a.redisClient != nil {
		return a.redisClient, nil
	}

	client := clients.NewRedisClient(a.cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	a.redisClient = client
	a.closer.Add("redis", client.Close)
	a.addCheck("redis", client.Ping)

	return client, nil
}

func (a *App) addCheck(name string, check func(ctx context.Context) error) {
	a.checks = append(a.checks, healthCheck{name: name, check: check})
}

func (a *App) healthy(ctx context.Context) error {
	for _, hc := range a.checks {
		if err := hc.check(ctx); err != nil {
			return e.Wrap(hc.name, err)
		}
	}

	return nil
}

// Run запускает серверы и блокируется до сигнала или фатальной ошибки сервера.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("grpc server", err)
		}
	}()
	go a.grpcSrv.WatchHealth(ctx, a.healthy, healthInterval)

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- e.Wrap("http server", err)
		}
	}()

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case <-ctx.Done():
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		if appErr == nil {
			appErr = err
		}
	}

	a.logger.Infof("Application shutdown complete")
	_ = a.logger.Sync()

	return appErr
}
