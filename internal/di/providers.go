package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"FinSim/internal/domain/repository"
	domsvc "FinSim/internal/domain/service"
	"FinSim/internal/handler/api"
	mid "FinSim/internal/middleware"
	internalrepo "FinSim/internal/repository"
	"FinSim/internal/service/pricefeed"
	"FinSim/internal/services/markov"
	"FinSim/internal/usecase"
	pkgcache "FinSim/pkg/cache"
	pkgch "FinSim/pkg/clickhouse"
	"FinSim/pkg/config"
	pkgkafka "FinSim/pkg/kafka"
	applogger "FinSim/pkg/logger"
	"FinSim/pkg/metrics"
	pkgqueue "FinSim/pkg/queue"
	"FinSim/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) *applogger.Logger {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	l, _ := applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
	return l
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS finsim",
		`CREATE TABLE IF NOT EXISTS finsim.rt_ticks_raw (
            ts DateTime, symbol String, price Float64, volume Float64,
            source String, event_id String, seq UInt64
        ) ENGINE=MergeTree ORDER BY (symbol, ts)`,
		`CREATE TABLE IF NOT EXISTS finsim.rt_candles_1m (
            bucket DateTime, symbol String,
            open Float64, high Float64, low Float64, close Float64, vol Float64
        ) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)`,
		`CREATE TABLE IF NOT EXISTS finsim.rt_candles_1h (
            bucket DateTime, symbol String,
            open Float64, high Float64, low Float64, close Float64, vol Float64
        ) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)`,
		`CREATE TABLE IF NOT EXISTS finsim.rt_candles_1d (
            bucket DateTime, symbol String,
            open Float64, high Float64, low Float64, close Float64, vol Float64
        ) ENGINE=ReplacingMergeTree ORDER BY (symbol, bucket)`,
		`CREATE MATERIALIZED VIEW IF NOT EXISTS finsim.mv_candles_1m TO finsim.rt_candles_1m AS
            SELECT toStartOfMinute(ts) AS bucket, symbol,
                   argMin(price, ts) AS open, max(price) AS high,
                   min(price) AS low, argMax(price, ts) AS close, sum(volume) AS vol
            FROM finsim.rt_ticks_raw GROUP BY bucket, symbol`,
		`CREATE MATERIALIZED VIEW IF NOT EXISTS finsim.mv_candles_1h TO finsim.rt_candles_1h AS
            SELECT toStartOfHour(ts) AS bucket, symbol,
                   argMin(price, ts) AS open, max(price) AS high,
                   min(price) AS low, argMax(price, ts) AS close, sum(volume) AS vol
            FROM finsim.rt_ticks_raw GROUP BY bucket, symbol`,
		`CREATE MATERIALIZED VIEW IF NOT EXISTS finsim.mv_candles_1d TO finsim.rt_candles_1d AS
            SELECT toStartOfDay(ts) AS bucket, symbol,
                   argMin(price, ts) AS open, max(price) AS high,
                   min(price) AS low, argMax(price, ts) AS close, sum(volume) AS vol
            FROM finsim.rt_ticks_raw GROUP BY bucket, symbol`,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTickStorage creates ClickHouse storage repository.
func ProvideTickStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".rt_ticks_raw")
}

// ProvideTickPublisher creates Kafka publisher repository.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaPricesHandler registers handler for the ticks topic.
func ProvideKafkaPricesHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaPricesHandler {
	return usecase.NewKafkaPricesHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideMarketStream creates the WebSocket price feed.
func ProvideMarketStream(cfg *config.Config) repository.MarketStream {
	return pricefeed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideTickProcessor creates tick processor use case.
func ProvideTickProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.TickProcessor {
	return usecase.NewTickProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideTickCollector creates tick collector use case.
func ProvideTickCollector(
	stream repository.MarketStream,
	processor *usecase.TickProcessor,
	metrics repository.Metrics,
) *usecase.TickCollector {
	// Build middleware pipeline between WebSocket and Kafka
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, processor, metrics, pipe)
}

// ProvideModelConfig builds the chain model config from YAML with defaults.
func ProvideModelConfig(cfg *config.Config) markov.Config {
	mc := markov.DefaultConfig()
	if cfg.Model.DownThreshold != 0 {
		mc.DownThreshold = cfg.Model.DownThreshold
	}
	if cfg.Model.UpThreshold != 0 {
		mc.UpThreshold = cfg.Model.UpThreshold
	}
	if cfg.Model.Smoothing != 0 {
		mc.Smoothing = cfg.Model.Smoothing
	}
	mc.Seed = cfg.Model.Seed
	mc.Workers = cfg.Model.Workers
	return mc
}

// ProvideCache builds the shared cache used for reports and candle queries:
// layered memory+redis when redis is configured, plain in-process otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) pkgcache.Service {
	rc := cfg.Model.Redis
	if rc.Enabled && rc.Addr != "" {
		host, portStr, err := net.SplitHostPort(rc.Addr)
		if err == nil {
			port, _ := strconv.Atoi(portStr)
			redisCache, rerr := pkgcache.NewRedisCache(
				pkgcache.WithRedisHost(host),
				pkgcache.WithRedisPort(port),
				pkgcache.WithRedisPassword(rc.Password),
				pkgcache.WithRedisDB(rc.DB),
			)
			if rerr == nil {
				return pkgcache.NewLayeredCache(redisCache)
			}
			l.Warn("cache falling back to memory", applogger.Error(rerr))
		}
	}
	return pkgcache.NewMemoryCache()
}

// ProvidePriceStore creates the ClickHouse candle store.
func ProvidePriceStore(chClient *pkgch.Client, l *applogger.Logger) repository.PriceStore {
	store := internalrepo.NewCHPriceStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideRiskService creates the risk modeling service.
func ProvideRiskService(
	store repository.PriceStore,
	m repository.Metrics,
	mc markov.Config,
	reports pkgcache.Service,
	cfg *config.Config,
	l *applogger.Logger,
) domsvc.RiskModeler {
	ttl := cfg.Model.ReportTTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	svc := usecase.NewRiskService(store, m, mc, reports, ttl)
	svc.SetLogger(l)
	return svc
}

// ProvidePricesUseCase creates the stored-price query use case with a
// short-lived response cache in front of ClickHouse.
func ProvidePricesUseCase(store repository.PriceStore, c pkgcache.Service) *usecase.PricesUseCase {
	uc := usecase.NewPricesUseCase(store)
	uc.SetCache(c, 15*time.Second)
	return uc
}

// ProvideRiskHandler creates the Echo HTTP handler.
func ProvideRiskHandler(l *applogger.Logger, risk domsvc.RiskModeler, prices *usecase.PricesUseCase, queue *pkgqueue.RedisQueue) *api.RiskEchoHandler {
	return api.NewRiskEchoHandler(l, risk, prices, queue)
}

// ProvideReportQueue creates the Redis consumer for report precompute jobs.
// Returns nil when Redis is not configured.
func ProvideReportQueue(cfg *config.Config, risk domsvc.RiskModeler, l *applogger.Logger) *pkgqueue.RedisQueue {
	if !cfg.Model.Redis.Enabled || cfg.Model.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Model.Redis.Addr,
		Password: cfg.Model.Redis.Password,
		DB:       cfg.Model.Redis.DB,
	})
	qc := &pkgqueue.QueueConfig{
		Workers:    2,
		QueueSize:  256,
		RetryLimit: 3,
		RetryDelay: 5 * time.Second,
	}
	return pkgqueue.NewRedisConsumer(l, qc, client, []pkgqueue.Job{
		usecase.NewReportJob(risk, l),
	})
}

// ProvideBackfill creates the startup history backfill.
// Returns nil when no REST URL is configured.
func ProvideBackfill(cfg *config.Config, store repository.Storage, l *applogger.Logger) *usecase.Backfill {
	if cfg.Feed.RESTURL == "" {
		return nil
	}
	hist := pricefeed.NewHistoryClient(cfg.Feed.RESTURL, cfg.Feed.APIKey, 30*time.Second)
	return usecase.NewBackfill(hist, store, cfg.Feed.Symbols, cfg.Feed.BackfillDays, l)
}

// ProvideApp creates the application server.
// logPublisher adapts the kafka producer to the logger's Publisher interface.
type logPublisher struct {
	p *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.p.Publish(ctx, topic, nil, payload)
}

func ProvideApp(
	cfg *config.Config,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaPricesHandler,
	chClient *pkgch.Client,
	handler *api.RiskEchoHandler,
	jobQueue *pkgqueue.RedisQueue,
	backfill *usecase.Backfill,
	producer *pkgkafka.Producer,
	l *applogger.Logger,
) *server.App {
	// Attach hook to consumer: example NoopHook for now; can be replaced via config
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	// Aggregate repeated error logs and ship them over kafka for alerting.
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "finsim.logs",
			Publisher:      logPublisher{p: producer},
		})
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	app.SetJobQueue(jobQueue)
	app.SetBackfill(backfill)
	// attach tick processor to app for closing resources via collector
	if collector != nil {
		app.TickProc = collector.Processor()
	}
	return app
}
