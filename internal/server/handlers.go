package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/trendcast/internal/models"
	"github.com/bobmcallan/trendcast/internal/services/prediction"
	"github.com/bobmcallan/trendcast/internal/services/suggest"
)

// predictRequest is the body of POST /predict.
// prediction_days is kept raw so any JSON type can fall back to the default.
type predictRequest struct {
	Ticker         string          `json:"ticker"`
	PredictionDays json.RawMessage `json:"prediction_days"`
}

// predictErrorResponse carries the latest-bar snapshot alongside a 500.
type predictErrorResponse struct {
	Error       string              `json:"error"`
	LatestStats *models.LatestStats `json:"latest_stats"`
}

// handleSuggest handles GET /suggest?q=
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("q")
	WriteJSON(w, http.StatusOK, map[string][]models.Suggestion{
		"suggestions": s.app.SuggestionService.Suggest(query, suggest.DefaultLimit),
	})
}

// handlePredict handles POST /predict
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var body predictRequest
	if !DecodeJSON(w, r, &body, s.logger) {
		return
	}

	horizon := s.app.Horizon.Clamp(body.PredictionDays)
	if strings.TrimSpace(body.Ticker) == "" {
		WriteError(w, http.StatusBadRequest, "Ticker symbol not provided")
		return
	}

	result, ok := s.predict(r.Context(), w, body.Ticker, horizon)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleChart handles GET /api/chart?ticker=&prediction_days=
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	ticker := q.Get("ticker")
	if strings.TrimSpace(ticker) == "" {
		WriteError(w, http.StatusBadRequest, "Ticker symbol not provided")
		return
	}
	horizon := s.app.Horizon.ClampString(q.Get("prediction_days"))

	result, ok := s.predict(r.Context(), w, ticker, horizon)
	if !ok {
		return
	}

	png, err := s.app.ChartRenderer.RenderPrediction(result)
	if err != nil {
		s.logger.Error().Str("ticker", ticker).Err(err).Msg("Chart render failed")
		WriteError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// predict runs the pipeline and writes the error response on failure.
func (s *Server) predict(ctx context.Context, w http.ResponseWriter, ticker string, horizon int) (*models.Prediction, bool) {
	result, err := s.app.PredictionService.Predict(ctx, models.PredictionRequest{Ticker: ticker, Horizon: horizon})
	if err == nil {
		return result, true
	}

	var perr *prediction.Error
	if !errors.As(err, &perr) {
		s.logger.Error().Str("ticker", ticker).Err(err).Msg("Unclassified prediction error")
		WriteJSON(w, http.StatusInternalServerError, predictErrorResponse{Error: "An internal error occurred during prediction."})
		return nil, false
	}

	switch perr.Kind {
	case prediction.KindNotFound:
		WriteError(w, http.StatusNotFound, perr.Message)
	case prediction.KindSchema:
		s.logger.Error().Str("ticker", ticker).Err(err).Msg("Data format error")
		WriteJSON(w, http.StatusInternalServerError, predictErrorResponse{Error: perr.Message, LatestStats: perr.LatestStats})
	default:
		s.logger.Error().Str("ticker", ticker).Err(err).Msg("Prediction failed")
		WriteJSON(w, http.StatusInternalServerError, predictErrorResponse{Error: perr.Message, LatestStats: perr.LatestStats})
	}
	return nil, false
}
