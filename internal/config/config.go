package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"crypto-predictor/internal/domain"
	"crypto-predictor/internal/provider"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is required")

var readFileFunc = os.ReadFile

type Config struct {
	OpenAIAPIKey string `yaml:"openai_api_key"`
	OpenAIModel  string `yaml:"openai_model"`

	BithumbBaseURL   string `yaml:"bithumb_base_url"`
	FearGreedBaseURL string `yaml:"fear_greed_base_url"`
	HTTPTimeoutSecs  int    `yaml:"http_timeout_secs"`

	CandleMinuteUnit    int    `yaml:"candle_minute_unit"`
	CandleCount         int    `yaml:"candle_count"`
	CandleLayout        string `yaml:"candle_layout"`
	SentimentLimit      int    `yaml:"sentiment_limit"`
	SentimentDateFormat string `yaml:"sentiment_date_format"`

	PromptTemplatePath string `yaml:"prompt_template_path"`
	OutputDir          string `yaml:"output_dir"`
}

func defaults() *Config {
	return &Config{
		OpenAIModel:        "gpt-4o",
		HTTPTimeoutSecs:    30,
		CandleMinuteUnit:   provider.DefaultMinuteUnit,
		CandleCount:        provider.DefaultCandleCount,
		CandleLayout:       string(domain.LayoutRecords),
		SentimentLimit:     30,
		PromptTemplatePath: "assets/instruction.md",
		OutputDir:          "assets",
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// named by CONFIG_FILE, then the environment. Invalid values fall back to
// their defaults with a warning.
func Load(logger *zap.Logger) (*Config, error) {
	cfg := defaults()

	if err := cfg.loadFile(logger); err != nil {
		return nil, err
	}
	cfg.applyEnv(logger)
	cfg.normalize(logger)

	if cfg.OpenAIAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return cfg, nil
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSecs) * time.Second
}

func (c *Config) loadFile(logger *zap.Logger) error {
	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	b, err := readFileFunc(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	logger.Debug("loaded config file", zap.String("path", path))
	return nil
}

func (c *Config) applyEnv(logger *zap.Logger) {
	envString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	envString(&c.OpenAIModel, "OPENAI_MODEL")
	envString(&c.BithumbBaseURL, "BITHUMB_BASE_URL")
	envString(&c.FearGreedBaseURL, "FEAR_GREED_BASE_URL")
	envString(&c.CandleLayout, "CANDLE_LAYOUT")
	envString(&c.PromptTemplatePath, "PROMPT_TEMPLATE_PATH")
	envString(&c.OutputDir, "OUTPUT_DIR")
	if v, ok := os.LookupEnv("SENTIMENT_DATE_FORMAT"); ok {
		c.SentimentDateFormat = strings.TrimSpace(v)
	}

	envInt(logger, &c.HTTPTimeoutSecs, "HTTP_TIMEOUT_SECS")
	envInt(logger, &c.CandleMinuteUnit, "CANDLE_MINUTE_UNIT")
	envInt(logger, &c.CandleCount, "CANDLE_COUNT")
	envInt(logger, &c.SentimentLimit, "SENTIMENT_LIMIT")
}

func (c *Config) normalize(logger *zap.Logger) {
	def := defaults()

	if c.OpenAIModel == "" {
		c.OpenAIModel = def.OpenAIModel
	}
	if c.HTTPTimeoutSecs <= 0 {
		logger.Warn("invalid HTTP_TIMEOUT_SECS, using default", zap.Int("value", c.HTTPTimeoutSecs), zap.Int("default", def.HTTPTimeoutSecs))
		c.HTTPTimeoutSecs = def.HTTPTimeoutSecs
	}
	if !provider.ValidMinuteUnit(c.CandleMinuteUnit) {
		logger.Warn("unsupported CANDLE_MINUTE_UNIT, using default", zap.Int("value", c.CandleMinuteUnit), zap.Int("default", def.CandleMinuteUnit))
		c.CandleMinuteUnit = def.CandleMinuteUnit
	}
	if c.CandleCount <= 0 || c.CandleCount > provider.MaxCandleCount {
		logger.Warn("CANDLE_COUNT out of range, using default", zap.Int("value", c.CandleCount), zap.Int("default", def.CandleCount))
		c.CandleCount = def.CandleCount
	}
	c.CandleLayout = strings.ToLower(c.CandleLayout)
	if !domain.CandleLayout(c.CandleLayout).IsValid() {
		logger.Warn("unsupported CANDLE_LAYOUT, using default", zap.String("value", c.CandleLayout), zap.String("default", def.CandleLayout))
		c.CandleLayout = def.CandleLayout
	}
	if c.SentimentLimit <= 0 {
		logger.Warn("invalid SENTIMENT_LIMIT, using default", zap.Int("value", c.SentimentLimit), zap.Int("default", def.SentimentLimit))
		c.SentimentLimit = def.SentimentLimit
	}
	if !provider.DateFormats[c.SentimentDateFormat] {
		logger.Warn("unsupported SENTIMENT_DATE_FORMAT, using unix time", zap.String("value", c.SentimentDateFormat))
		c.SentimentDateFormat = def.SentimentDateFormat
	}
	if c.PromptTemplatePath == "" {
		c.PromptTemplatePath = def.PromptTemplatePath
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
}

func envString(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func envInt(logger *zap.Logger, target *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("ignoring non-numeric value", zap.String("key", key), zap.String("value", v))
		return
	}
	*target = n
}
