package bootstrap

import (
	"context"
	"fmt"
	"time"

	httpin "github.com/holdline/reserve-core/internal/adapters/http/in"
	"github.com/holdline/reserve-core/internal/adapters/mockpay"
	"github.com/holdline/reserve-core/internal/checkout"
	"github.com/holdline/reserve-core/internal/config"
	"github.com/holdline/reserve-core/internal/ledger"
	"github.com/holdline/reserve-core/internal/orders"
	"github.com/holdline/reserve-core/internal/platform/httpx"
	"github.com/holdline/reserve-core/internal/platform/mlog"
	"github.com/holdline/reserve-core/internal/platform/mongoaudit"
	"github.com/holdline/reserve-core/internal/platform/mq"
	"github.com/holdline/reserve-core/internal/platform/pg"
	"github.com/holdline/reserve-core/internal/platform/rdb"
	"github.com/holdline/reserve-core/internal/session"
)

// Service is the fully wired application: every connection, use case,
// and App the Launcher needs to run the process.
type Service struct {
	launcher *Launcher
	logger   mlog.Logger
}

// Run starts every registered App and blocks until the launcher returns.
func (s *Service) Run() {
	s.launcher.Run()
}

// NewService connects to every backing store, wires components A-E, and
// registers the HTTP server, the background sweep, and the mock-provider
// consumer as Launcher apps. It does not start anything — call Run.
func NewService(ctx context.Context, cfg *config.Config, logger mlog.Logger) (*Service, error) {
	holdTimeout := time.Duration(cfg.HoldTimeoutSeconds) * time.Second
	sessionTTL := holdTimeout + 60*time.Second

	pgConn := &pg.Connection{
		PrimaryDSN:     cfg.DatabaseURL,
		ReplicaDSN:     cfg.DatabaseReplica,
		MigrationsPath: cfg.MigrationsPath,
		Logger:         logger,
	}

	db, err := pgConn.GetDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	orderStore := orders.NewPostgresStore(db)

	rdbConn := &rdb.Connection{ConnectionString: cfg.SessionStoreURL, Logger: logger}

	redisClient, err := rdbConn.GetClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	sessionStore := session.NewRedisStore(redisClient, logger)
	rateLimiter := session.NewRateLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute)

	var auditStore *mongoaudit.Store

	if cfg.MongoURL != "" {
		mongoConn := &mongoaudit.Connection{
			ConnectionString: cfg.MongoURL,
			Database:         cfg.MongoDatabase,
			Logger:           logger,
		}

		if _, err := mongoConn.GetDB(ctx); err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}

		auditStore = mongoaudit.NewStore(mongoConn)
	}

	memClient := ledger.NewMemoryClient()
	batched := ledger.NewBatchedClient(memClient)
	accounting := ledger.NewResourceAccounting(batched)

	supply := ledger.Supply{
		TicketsA: cfg.TicketSupplyA,
		TicketsB: cfg.TicketSupplyB,
		Goodies:  cfg.GoodieSupply,
	}

	if err := accounting.InitializeSupply(ctx, supply); err != nil {
		return nil, fmt.Errorf("initialize ledger supply: %w", err)
	}

	if err := accounting.BumpRestartCounter(ctx, uint64(time.Now().UTC().UnixNano())); err != nil {
		logger.Warnf("bump restart counter: %v", err)
	}

	checkoutUC := &checkout.UseCase{
		Accounting:    accounting,
		Orders:        orderStore,
		Sessions:      sessionStore,
		Audit:         auditStore,
		Logger:        logger,
		HoldTimeout:   holdTimeout,
		SessionTTL:    sessionTTL,
		WebhookSecret: []byte(cfg.WebhookSecret),
		MockBaseURL:   cfg.MockWebhookURL,
	}

	mqConn := &mq.Connection{ConnectionString: cfg.RabbitMQURL, Logger: logger}

	if err := mockpay.DeclareTopology(ctx, mqConn, cfg.RabbitMQExchange, cfg.RabbitMQQueue, cfg.RabbitMQKey); err != nil {
		return nil, fmt.Errorf("declare rabbitmq topology: %w", err)
	}

	provider := &mockpay.Provider{
		Conn:          mqConn,
		Exchange:      cfg.RabbitMQExchange,
		RoutingKey:    cfg.RabbitMQKey,
		WebhookSecret: []byte(cfg.WebhookSecret),
		Logger:        logger,
	}

	consumer := &mockpay.Consumer{
		Conn:     mqConn,
		Queue:    cfg.RabbitMQQueue,
		Checkout: checkoutUC,
		Logger:   logger,
	}

	var basicAuth httpx.BasicAuthFunc
	if user, pass, ok := splitBasicAuth(cfg.AdminBasicAuth); ok {
		basicAuth = httpx.FixedBasicAuthFunc(user, pass)
	}

	routes := &httpin.Routes{
		Checkout:       checkoutUC,
		Orders:         orderStore,
		Audit:          auditStore,
		Sessions:       sessionStore,
		RateLimiter:    rateLimiter,
		Provider:       provider,
		Accounting:     accounting,
		Logger:         logger,
		SweepGrace:     time.Duration(cfg.SweepGraceSeconds) * time.Second,
		SweepLimit:     int(cfg.SweepBatchLimit),
		AdminBasicAuth: basicAuth,
	}

	server := NewServer(routes.NewApp(), cfg.ServerAddress, logger)

	sweepWorker := &SweepWorker{
		Checkout: checkoutUC,
		Interval: time.Duration(cfg.SweepIntervalSeconds) * time.Second,
		Grace:    time.Duration(cfg.SweepGraceSeconds) * time.Second,
		Limit:    int(cfg.SweepBatchLimit),
		Logger:   logger,
	}

	consumerWorker := &ConsumerWorker{Consumer: consumer}

	launcher := NewLauncher(
		WithLogger(logger),
		RunApp("http", server),
		RunApp("sweep", sweepWorker),
		RunApp("mockpay-consumer", consumerWorker),
	)

	return &Service{launcher: launcher, logger: logger}, nil
}

// splitBasicAuth parses a "user:pass" env value, reporting ok=false when
// empty or malformed so the caller can skip registering the admin routes
// (sweep trigger and account balance).
func splitBasicAuth(raw string) (user, pass string, ok bool) {
	for i := 0; i < len(raw); i++ {
		if raw[i] == ':' {
			return raw[:i], raw[i+1:], true
		}
	}

	return "", "", false
}
