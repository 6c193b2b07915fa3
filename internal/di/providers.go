package di

import (
	"context"
	"fmt"
	"time"

	"UnslugCity/internal/domain/repository"
	domsvc "UnslugCity/internal/domain/service"
	"UnslugCity/internal/handler/api"
	internalrepo "UnslugCity/internal/repository"
	icache "UnslugCity/internal/service/cache"
	"UnslugCity/internal/service/stooq"
	"UnslugCity/internal/services/feargreed"
	"UnslugCity/internal/services/retrace"
	"UnslugCity/internal/services/trust"
	"UnslugCity/internal/usecase"
	pkgch "UnslugCity/pkg/clickhouse"
	"UnslugCity/pkg/config"
	xhttp "UnslugCity/pkg/http"
	pkgkafka "UnslugCity/pkg/kafka"
	applogger "UnslugCity/pkg/logger"
	"UnslugCity/pkg/metrics"
	"UnslugCity/pkg/server"
	"UnslugCity/pkg/util"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// bar tables exist.
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
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

// ProvideBarStore creates the ClickHouse bar store.
func ProvideBarStore(chClient *pkgch.Client, l *applogger.Logger) repository.BarStore {
	store := internalrepo.NewCHBarStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideOutputPublisher creates the Kafka output publisher, or nil when
// Kafka is disabled.
func ProvideOutputPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaOutputPublisher(producer, cfg.Kafka.Topic)
}

// ProvideBarFetcher creates the Stooq daily-history fetcher.
func ProvideBarFetcher(cfg *config.Config, l *applogger.Logger) usecase.BarFetcher {
	timeout := cfg.Stooq.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var opts []stooq.Option
	if cfg.Stooq.BaseURL != "" {
		opts = append(opts, stooq.WithBaseURL(cfg.Stooq.BaseURL))
	}
	if cfg.Stooq.Suffix != "" {
		opts = append(opts, stooq.WithSuffix(cfg.Stooq.Suffix))
	}
	return stooq.New(xhttp.NewClient(xhttp.WithTimeout(timeout)), l, opts...)
}

// ProvideRetraceScanner builds the retracement scanner from config,
// keeping the defaults for any unset field.
func ProvideRetraceScanner(cfg *config.Config, l *applogger.Logger) (*retrace.Scanner, error) {
	rc := retrace.DefaultConfig()
	r := cfg.Scoring.Retrace
	rc.StressStart = util.ParseDateDefault(r.StressStart, rc.StressStart)
	rc.StressEnd = util.ParseDateDefault(r.StressEnd, rc.StressEnd)
	rc.FallbackStart = util.ParseDateDefault(r.FallbackStart, rc.FallbackStart)
	rc.FallbackEnd = util.ParseDateDefault(r.FallbackEnd, rc.FallbackEnd)
	if r.LookbackBars > 0 {
		rc.LookbackBars = r.LookbackBars
	}
	return retrace.NewScanner(rc, l)
}

// ProvideFearGreedCalculator builds the composite sentiment calculator
// from config.
func ProvideFearGreedCalculator(cfg *config.Config, l *applogger.Logger) (*feargreed.Calculator, error) {
	fc := feargreed.DefaultConfig()
	f := cfg.Scoring.FearGreed
	if f.MomentumMA > 0 {
		fc.MomentumMA = f.MomentumMA
	}
	if f.StrengthWindow > 0 {
		fc.StrengthWindow = f.StrengthWindow
	}
	if f.BreadthWindow > 0 {
		fc.BreadthWindow = f.BreadthWindow
	}
	if f.RVWindow > 0 {
		fc.RVWindow = f.RVWindow
	}
	if f.RVRefWindow > 0 {
		fc.RVRefWindow = f.RVRefWindow
	}
	if f.RankWindow > 0 {
		fc.RankWindow = f.RankWindow
	}
	if f.MinBars > 0 {
		fc.MinBars = f.MinBars
	}
	return feargreed.NewCalculator(fc, l)
}

// ProvideOrchestrator registers the three organisms with factor windows
// taken from config.
func ProvideOrchestrator(
	cfg *config.Config,
	scanner *retrace.Scanner,
	fg *feargreed.Calculator,
	l *applogger.Logger,
) domsvc.Orchestrator {
	uc := usecase.DefaultUnslugConfig()
	fc := usecase.DefaultFearIndexConfig()
	mc := usecase.DefaultMarketFlowConfig()

	factors := cfg.Scoring.Factors
	if factors.VWAPLookback > 0 {
		uc.VWAPLookback = factors.VWAPLookback
	}
	if factors.VolumeLookback > 0 {
		uc.VolumeLookback = factors.VolumeLookback
		mc.VolumeLookback = factors.VolumeLookback
	}
	if factors.LiquidityThreshold > 0 {
		uc.LiquidityThreshold = factors.LiquidityThreshold
	}
	if factors.FlowLiquidity > 0 {
		mc.LiquidityThreshold = factors.FlowLiquidity
	}
	if factors.VolWindow > 0 {
		fc.VolWindow = factors.VolWindow
	}
	if factors.DrawdownWindow > 0 {
		fc.DrawdownWindow = factors.DrawdownWindow
	}

	agg := cfg.Scoring.Aggregation
	if m := trust.Method(agg.Method); trust.IsValidMethod(m) {
		uc.Agg.Method = m
		mc.Agg.Method = m
	}
	if agg.Cap > 0 {
		uc.Agg.Options.Cap = agg.Cap
		mc.Agg.Options.Cap = agg.Cap
	}
	if agg.Sharpness > 0 {
		uc.Agg.Options.Sharpness = agg.Sharpness
		mc.Agg.Options.Sharpness = agg.Sharpness
	}
	if agg.MinWeight > 0 {
		uc.Agg.Options.MinWeight = agg.MinWeight
		mc.Agg.Options.MinWeight = agg.MinWeight
	}
	if len(agg.Weights) > 0 {
		uc.Agg.Weights = agg.Weights
		mc.Agg.Weights = agg.Weights
	}

	return usecase.NewOrganismOrchestrator(l,
		usecase.NewUnslugOrganism(uc, scanner, l),
		usecase.NewFearIndexOrganism(fc, fg, l),
		usecase.NewMarketFlowOrganism(mc, l),
	)
}

// ProvideScoreUseCase creates the on-demand scoring use case.
func ProvideScoreUseCase(
	store repository.BarStore,
	orch domsvc.Orchestrator,
	fg *feargreed.Calculator,
	scanner *retrace.Scanner,
) *usecase.ScoreUseCase {
	return usecase.NewScoreUseCase(store, orch, fg, scanner)
}

// ProvideBarsUseCase creates the bar-history use case.
func ProvideBarsUseCase(store repository.BarStore) *usecase.BarsUseCase {
	return usecase.NewBarsUseCase(store)
}

// ProvideBackfillUseCase creates the history backfill use case.
func ProvideBackfillUseCase(
	fetcher usecase.BarFetcher,
	store repository.BarStore,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.BackfillUseCase {
	uc := usecase.NewBackfillUseCase(fetcher, store, m, l)
	uc.SetYears(cfg.Scoring.BackfillYears)
	return uc
}

// ProvideBatchScorer creates the periodic batch scorer.
func ProvideBatchScorer(
	store repository.BarStore,
	orch domsvc.Orchestrator,
	pub repository.Publisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.BatchScorer {
	return usecase.NewBatchScorer(store, orch, pub, m, l,
		usecase.WithWorkers(cfg.Scoring.Workers),
		usecase.WithLookback(cfg.Scoring.LookbackBars),
	)
}

// ProvideHTTPHandler creates the Echo API handler and mounts the
// cached plain HTTP endpoints alongside it.
func ProvideHTTPHandler(
	l *applogger.Logger,
	score *usecase.ScoreUseCase,
	bars *usecase.BarsUseCase,
	cache icache.BytesCache,
) xhttp.Handler {
	raw := api.NewOrganismsHandler(score)
	raw.SetCache(cache)
	raw.SetLogger(l)

	h := api.NewOrganismsEchoHandler(l, score, bars)
	h.SetRawHandler(raw)
	return h
}

// ProvideCache creates the response cache: Redis when enabled,
// in-memory otherwise.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	if cfg.Cache.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	backfill *usecase.BackfillUseCase,
	batch *usecase.BatchScorer,
	pub repository.Publisher,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, l, handler, backfill, batch, pub, chClient)
}
