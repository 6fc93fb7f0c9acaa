// Package prediction runs the load, feature, fit and assemble pipeline for one ticker
package prediction

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bobmcallan/trendcast/internal/common"
	"github.com/bobmcallan/trendcast/internal/features"
	"github.com/bobmcallan/trendcast/internal/interfaces"
	"github.com/bobmcallan/trendcast/internal/models"
	"github.com/bobmcallan/trendcast/internal/services/market"
	"github.com/bobmcallan/trendcast/internal/trend"
)

const internalMessage = "An internal error occurred during prediction."

// Service implements PredictionService
type Service struct {
	loader    interfaces.SeriesLoader
	builder   interfaces.FeatureBuilder
	model     interfaces.TrendModel
	names     interfaces.SuggestionService
	assembler *Assembler
	logger    *common.Logger
	now       func() time.Time // injectable clock for testing
}

// NewService creates a new prediction service
func NewService(
	loader interfaces.SeriesLoader,
	builder interfaces.FeatureBuilder,
	model interfaces.TrendModel,
	names interfaces.SuggestionService,
	assembler *Assembler,
	logger *common.Logger,
) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if assembler == nil {
		assembler = NewAssembler(nil)
	}
	return &Service{
		loader:    loader,
		builder:   builder,
		model:     model,
		names:     names,
		assembler: assembler,
		logger:    logger,
		now:       time.Now,
	}
}

// Predict returns the chart-ready projection for req.Ticker over req.Horizon days.
// Every failure, including a panic, is returned as *Error.
func (s *Service) Predict(ctx context.Context, req models.PredictionRequest) (result *models.Prediction, err error) {
	start := time.Now()
	var stats *models.LatestStats

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("ticker", req.Ticker).
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("Prediction panicked")
			result = nil
			err = &Error{Kind: KindInternal, Message: internalMessage, LatestStats: stats, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	result, err = s.run(ctx, req, &stats)
	if err != nil {
		perr := s.classify(err, req.Ticker, stats)
		s.logger.Warn().
			Str("ticker", req.Ticker).
			Str("kind", perr.Kind.String()).
			Err(err).
			Msg("Prediction failed")
		return nil, perr
	}

	s.logger.Info().
		Str("ticker", req.Ticker).
		Int("bars", len(result.HistoricalDates)).
		Int("horizon", req.Horizon).
		Float64("fit_pct", result.ModelFitPercentage).
		Dur("elapsed", time.Since(start)).
		Msg("Prediction complete")
	return result, nil
}

// run executes the pipeline; stats is filled as soon as it is known
func (s *Service) run(ctx context.Context, req models.PredictionRequest, stats **models.LatestStats) (*models.Prediction, error) {
	frame, err := s.loader.Load(ctx, req.Ticker, s.now())
	if err != nil {
		return nil, err
	}

	fs, err := s.builder.Build(frame)
	if err != nil {
		return nil, err
	}

	*stats = s.assembler.LatestStats(fs)

	n := fs.Len()
	split := s.model.Split(n)
	line, err := s.model.Fit(fs.TimeIndex[:split.TrainEnd], fs.Close[:split.TrainEnd])
	if err != nil {
		return nil, fmt.Errorf("fit trend line: %w", err)
	}
	fit := s.model.Score(line, fs.TimeIndex[split.TrainEnd:], fs.Close[split.TrainEnd:])

	lastIndex := fs.TimeIndex[n-1]
	predicted := s.model.Extrapolate(line, lastIndex, req.Horizon)

	s.logger.Debug().
		Str("ticker", req.Ticker).
		Int("train", split.TrainLen()).
		Int("test", split.TestLen()).
		Float64("slope", line.Slope).
		Float64("intercept", line.Intercept).
		Msg("Trend fitted")

	return s.assembler.Assemble(Result{
		Ticker:         req.Ticker,
		CompanyName:    s.names.CompanyName(req.Ticker),
		Features:       fs,
		PredictedDates: trend.FutureDates(fs.Dates[n-1], req.Horizon),
		Predicted:      predicted,
		FitPercentage:  fit,
		LatestStats:    *stats,
	}), nil
}

func (s *Service) classify(err error, ticker string, stats *models.LatestStats) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}

	if errors.Is(err, market.ErrNoData) {
		return &Error{Kind: KindNotFound, Message: fmt.Sprintf("Could not fetch data for %s.", ticker), Err: err}
	}

	var schemaErr *features.SchemaError
	if errors.As(err, &schemaErr) {
		return &Error{
			Kind:        KindSchema,
			Message:     fmt.Sprintf("Data format error: Missing columns %s", strings.Join(schemaErr.Missing, ", ")),
			LatestStats: stats,
			Err:         err,
		}
	}

	return &Error{Kind: KindInternal, Message: internalMessage, LatestStats: stats, Err: err}
}

var _ interfaces.PredictionService = (*Service)(nil)
