package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"crypto-predictor/internal/advisor"
	"crypto-predictor/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSentimentLimit = 30
	DefaultTemplatePath   = "assets/instruction.md"
	DefaultOutputDir      = "assets"
)

var ErrIteration = errors.New("prediction iteration failed")

// IterationError reports which iteration stopped the run.
type IterationError struct {
	Index int
	Err   error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("iteration %d: %v", e.Index, e.Err)
}

func (e *IterationError) Unwrap() []error {
	return []error{ErrIteration, e.Err}
}

// Session is a network session shared by all fetches of one run.
type Session interface {
	FetchMinuteCandles(ctx context.Context, market string, unit, count int) ([]domain.Candle, error)
	FetchDayCandles(ctx context.Context, market string, count int) ([]domain.Candle, error)
	FetchIndex(ctx context.Context, limit int, dateFormat string) ([]domain.SentimentRecord, error)
	Close() error
}

type SessionOpener func() Session

type ChatSender interface {
	SendMessageContexts(ctx context.Context, contexts []domain.MessageContext, jsonMode bool) (*domain.ChatResponse, error)
}

type Options struct {
	MinuteUnit          int
	CandleCount         int
	SentimentLimit      int
	SentimentDateFormat string
	CandleLayout        domain.CandleLayout
	TemplatePath        string
	OutputDir           string
}

func (o Options) withDefaults() Options {
	if o.SentimentLimit <= 0 {
		o.SentimentLimit = DefaultSentimentLimit
	}
	if !o.CandleLayout.IsValid() {
		o.CandleLayout = domain.LayoutRecords
	}
	if o.TemplatePath == "" {
		o.TemplatePath = DefaultTemplatePath
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	return o
}

// Result summarizes one run.
type Result struct {
	RunID       string
	Symbol      string
	BundlePath  string
	ReportPath  string
	Predictions []domain.PredictionResult
	Usages      []domain.TokenUsage
}

// Predictor drives one prediction run: fetch, assemble, ask, report.
type Predictor struct {
	tracer      trace.Tracer
	logger      *zap.Logger
	openSession SessionOpener
	chat        ChatSender
	opts        Options
	newRunID    func() string
}

func NewPredictor(tracer trace.Tracer, logger *zap.Logger, openSession SessionOpener, chat ChatSender, opts Options) *Predictor {
	return &Predictor{
		tracer:      tracer,
		logger:      logger,
		openSession: openSession,
		chat:        chat,
		opts:        opts.withDefaults(),
		newRunID:    uuid.NewString,
	}
}

// Run executes the whole pipeline for symbol. The session is closed on every
// exit path. When an iteration fails, the iterations that completed are still
// written to the report and the failure is returned as an *IterationError.
func (p *Predictor) Run(ctx context.Context, symbol string, iteration int) (*Result, error) {
	if iteration < 1 {
		return nil, fmt.Errorf("iteration must be at least 1, got %d", iteration)
	}

	runID := p.newRunID()
	ctx, span := p.tracer.Start(ctx, "job.predictor.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.String("run.symbol", symbol),
		attribute.Int("run.iterations", iteration),
	)
	log := p.logger.With(zap.String("run_id", runID), zap.String("symbol", symbol))

	session := p.openSession()
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("closing session failed", zap.Error(err))
		}
	}()

	log.Info("fetching market data")
	bundle, err := p.collect(ctx, session, symbol)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	instruction, err := advisor.LoadInstruction(p.opts.TemplatePath, symbol)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	result := &Result{
		RunID:      runID,
		Symbol:     symbol,
		BundlePath: filepath.Join(p.opts.OutputDir, BundleFileName),
	}
	log.Info("writing user prompt", zap.String("path", result.BundlePath))
	if err := WriteBundle(result.BundlePath, bundle); err != nil {
		span.RecordError(err)
		return nil, err
	}

	userContent, err := bundle.Encode("")
	if err != nil {
		return nil, fmt.Errorf("encode prompt bundle: %w", err)
	}
	messages := []domain.MessageContext{
		{Role: domain.RoleSystem, Content: instruction},
		{Role: domain.RoleUser, Content: string(userContent)},
	}

	log.Info("sending prompt", zap.Int("iterations", iteration))
	report := NewReport()
	var runErr error
	for i := 1; i <= iteration; i++ {
		prediction, usage, err := p.predictOnce(ctx, messages)
		if err != nil {
			runErr = &IterationError{Index: i, Err: err}
			report.MarkIncomplete(err.Error())
			log.Error("iteration failed", zap.Int("iteration", i), zap.Error(err))
			break
		}
		report.AddIteration(prediction, usage)
		result.Predictions = append(result.Predictions, prediction)
		result.Usages = append(result.Usages, usage)
		log.Info("iteration completed",
			zap.Int("iteration", i),
			zap.String("decision", prediction.Decision),
			zap.String("percentage", prediction.Percentage),
			zap.Int64("total_tokens", usage.TotalTokens),
		)
	}

	reportPath := filepath.Join(p.opts.OutputDir, ReportFileName)
	if err := WriteReport(reportPath, report); err != nil {
		span.RecordError(err)
		return result, errors.Join(runErr, err)
	}
	result.ReportPath = reportPath
	log.Info("report written", zap.String("path", reportPath), zap.Int("sections", report.Len()))

	if runErr != nil {
		span.RecordError(runErr)
		return result, runErr
	}
	return result, nil
}

// collect fetches minute and day candles for symbol (and the reference
// market when it differs) concurrently, then the sentiment index.
func (p *Predictor) collect(ctx context.Context, session Session, symbol string) (*domain.PromptBundle, error) {
	ctx, span := p.tracer.Start(ctx, "job.predictor.collect")
	defer span.End()

	markets := []string{symbol}
	if symbol != domain.ReferenceSymbol {
		markets = append(markets, domain.ReferenceSymbol)
	}
	span.SetAttributes(attribute.StringSlice("markets", markets))

	sets := make([]domain.MarketCandles, len(markets))
	g, gctx := errgroup.WithContext(ctx)
	for i, market := range markets {
		g.Go(func() error {
			candles, err := session.FetchMinuteCandles(gctx, market, p.opts.MinuteUnit, p.opts.CandleCount)
			if err != nil {
				return fmt.Errorf("fetch %s minute candles: %w", market, err)
			}
			sets[i].Minutes = domain.NewCandleSet(domain.CandleKindMinute, p.opts.CandleLayout, candles)
			return nil
		})
		g.Go(func() error {
			candles, err := session.FetchDayCandles(gctx, market, p.opts.CandleCount)
			if err != nil {
				return fmt.Errorf("fetch %s day candles: %w", market, err)
			}
			sets[i].Days = domain.NewCandleSet(domain.CandleKindDay, p.opts.CandleLayout, candles)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records, err := session.FetchIndex(ctx, p.opts.SentimentLimit, p.opts.SentimentDateFormat)
	if err != nil {
		return nil, fmt.Errorf("fetch fear & greed index: %w", err)
	}

	bundle := domain.NewPromptBundle()
	for i, market := range markets {
		bundle.SetMarket(market, sets[i])
	}
	bundle.SetSentiment(domain.SentimentTable(records))
	return bundle, nil
}

func (p *Predictor) predictOnce(ctx context.Context, messages []domain.MessageContext) (domain.PredictionResult, domain.TokenUsage, error) {
	resp, err := p.chat.SendMessageContexts(ctx, messages, true)
	if err != nil {
		return domain.PredictionResult{}, domain.TokenUsage{}, err
	}
	prediction, err := domain.ParsePrediction(resp.Content)
	if err != nil {
		return domain.PredictionResult{}, resp.Usage, fmt.Errorf("parse decision: %w", err)
	}
	return prediction, resp.Usage, nil
}
