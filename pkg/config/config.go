package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Stooq struct {
		BaseURL string        `yaml:"base_url"`
		Suffix  string        `yaml:"suffix"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"stooq"`
	Scoring struct {
		Symbols         []string      `yaml:"symbols"`
		LookbackBars    int           `yaml:"lookback_bars"`
		Workers         int           `yaml:"workers"`
		Interval        time.Duration `yaml:"interval"`
		BackfillOnStart bool          `yaml:"backfill_on_start"`
		BackfillYears   int           `yaml:"backfill_years"`
		Factors         struct {
			VWAPLookback       int     `yaml:"vwap_lookback"`
			VolWindow          int     `yaml:"vol_window"`
			VolumeLookback     int     `yaml:"volume_lookback"`
			DrawdownWindow     int     `yaml:"drawdown_window"`
			LiquidityThreshold float64 `yaml:"liquidity_threshold"`
			FlowLiquidity      float64 `yaml:"flow_liquidity_threshold"`
		} `yaml:"factors"`
		FearGreed struct {
			MomentumMA     int `yaml:"momentum_ma"`
			StrengthWindow int `yaml:"strength_window"`
			BreadthWindow  int `yaml:"breadth_window"`
			RVWindow       int `yaml:"rv_window"`
			RVRefWindow    int `yaml:"rv_ref_window"`
			RankWindow     int `yaml:"rank_window"`
			MinBars        int `yaml:"min_bars"`
		} `yaml:"fear_greed"`
		Retrace struct {
			StressStart   string `yaml:"stress_start"`
			StressEnd     string `yaml:"stress_end"`
			FallbackStart string `yaml:"fallback_start"`
			FallbackEnd   string `yaml:"fallback_end"`
			LookbackBars  int    `yaml:"lookback_bars"`
		} `yaml:"retrace"`
		Aggregation struct {
			Method    string             `yaml:"method"`
			Cap       float64            `yaml:"cap"`
			Sharpness float64            `yaml:"sharpness"`
			MinWeight float64            `yaml:"min_weight"`
			Weights   map[string]float64 `yaml:"weights"`
		} `yaml:"aggregation"`
	} `yaml:"scoring"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Scoring.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Scoring.Symbols) == 0 {
		return fmt.Errorf("scoring.symbols cannot be empty")
	}
	if c.Scoring.LookbackBars < 0 {
		return fmt.Errorf("scoring.lookback_bars cannot be negative")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	return nil
}
