package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-predictor/internal/advisor"
	"crypto-predictor/internal/config"
	"crypto-predictor/internal/domain"
	"crypto-predictor/internal/job"
	"crypto-predictor/internal/logging"
	"crypto-predictor/internal/provider"
	"crypto-predictor/pkg/tracing"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const usage = "usage: predictor <symbol> [iteration]\n\nexample: predictor KRW-ETH 3"

var (
	loadEnvFunc       = godotenv.Load
	newLoggerFunc     = logging.New
	loadConfigFunc    = config.Load
	initTracerFunc    = tracing.InitTracer
	newLLMClientFunc  = advisor.NewOpenAIClient
	openSessionFunc   = openSession
	notifyContextFunc = signal.NotifyContext
	argsFunc          = func() []string { return os.Args[1:] }
	exitFunc          = os.Exit
	stderr            io.Writer = os.Stderr
)

func main() {
	exitFunc(run(argsFunc()))
}

func run(args []string) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(stderr, usage)
		return 2
	}

	// .env is optional
	_ = loadEnvFunc()

	logger, err := newLoggerFunc(logging.OptionsFromEnv())
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	symbol, err := advisor.NormalizeMarket(args[0])
	if err != nil {
		logger.Error("invalid symbol", zap.Error(err))
		fmt.Fprintln(stderr, usage)
		return 2
	}

	iteration := 1
	if len(args) == 2 {
		n, ok := job.CoerceIteration(args[1])
		if !ok {
			logger.Warn("invalid iteration count, running once", zap.String("iteration", args[1]))
		}
		iteration = n
	}

	cfg, err := loadConfigFunc(logger)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	ctx, stop := notifyContextFunc(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		logger.Error("failed to initialize tracer", zap.Error(err))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down tracer provider", zap.Error(err))
		}
	}()

	chat := advisor.NewChatClient(tracer, newLLMClientFunc(cfg.OpenAIAPIKey), cfg.OpenAIModel)
	predictor := job.NewPredictor(tracer, logger,
		func() job.Session { return openSessionFunc(tracer, cfg) },
		chat,
		job.Options{
			MinuteUnit:          cfg.CandleMinuteUnit,
			CandleCount:         cfg.CandleCount,
			SentimentLimit:      cfg.SentimentLimit,
			SentimentDateFormat: cfg.SentimentDateFormat,
			CandleLayout:        domain.CandleLayout(cfg.CandleLayout),
			TemplatePath:        cfg.PromptTemplatePath,
			OutputDir:           cfg.OutputDir,
		},
	)

	logger.Info("starting prediction run",
		zap.String("symbol", symbol),
		zap.Int("iteration", iteration),
		zap.String("model", chat.Model()),
	)
	res, err := predictor.Run(ctx, symbol, iteration)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if res != nil && res.ReportPath != "" {
			fields = append(fields, zap.String("partial_report", res.ReportPath))
		}
		logger.Error("prediction run failed", fields...)
		return 1
	}

	logger.Info("prediction run finished",
		zap.String("run_id", res.RunID),
		zap.String("bundle", res.BundlePath),
		zap.String("report", res.ReportPath),
	)
	return 0
}

func openSession(tracer trace.Tracer, cfg *config.Config) job.Session {
	return provider.OpenSession(tracer, provider.SessionOptions{
		Timeout:          cfg.HTTPTimeout(),
		BithumbBaseURL:   cfg.BithumbBaseURL,
		FearGreedBaseURL: cfg.FearGreedBaseURL,
	})
}
