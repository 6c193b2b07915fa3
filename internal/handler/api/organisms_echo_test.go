package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"UnslugCity/internal/domain/models"
	domrepo "UnslugCity/internal/domain/repository"
	"UnslugCity/internal/services/feargreed"
	"UnslugCity/internal/services/retrace"
	"UnslugCity/internal/usecase"
	applogger "UnslugCity/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubBarStore struct {
	bars []models.Bar
	err  error
}

func (s *stubBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time, iv domrepo.Interval) ([]models.Bar, error) {
	return s.bars, s.err
}

func (s *stubBarStore) GetLatestNBars(ctx context.Context, symbol string, n int, iv domrepo.Interval) ([]models.Bar, error) {
	return s.bars, s.err
}

func (s *stubBarStore) StoreBars(ctx context.Context, bars []models.Bar) error { return nil }
func (s *stubBarStore) Health(ctx context.Context) error                       { return nil }
func (s *stubBarStore) Close() error                                           { return nil }

func newTestEchoHandler(t *testing.T, store domrepo.BarStore) *OrganismsEchoHandler {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	scanner, err := retrace.NewScanner(retrace.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new scanner: %v", err)
	}
	calc, err := feargreed.NewCalculator(feargreed.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	orch := usecase.NewOrganismOrchestrator(nil,
		usecase.NewUnslugOrganism(usecase.DefaultUnslugConfig(), scanner, nil),
		usecase.NewFearIndexOrganism(usecase.DefaultFearIndexConfig(), calc, nil),
		usecase.NewMarketFlowOrganism(usecase.DefaultMarketFlowConfig(), nil),
	)
	score := usecase.NewScoreUseCase(store, orch, calc, scanner)
	return NewOrganismsEchoHandler(l, score, usecase.NewBarsUseCase(store))
}

func envelopeStatus(t *testing.T, h *OrganismsEchoHandler, target string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	if err := h.Organisms(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var envelope struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return envelope.Status
}

func TestOrganismsEmptySeriesIsBadRequest(t *testing.T) {
	h := newTestEchoHandler(t, &stubBarStore{})
	if got := envelopeStatus(t, h, "/api/organisms?symbol=GHOST"); got != http.StatusBadRequest {
		t.Fatalf("empty series should map to 400, got %d", got)
	}
}

func TestOrganismsStoreFailureIsInternal(t *testing.T) {
	h := newTestEchoHandler(t, &stubBarStore{err: fmt.Errorf("connection refused")})
	if got := envelopeStatus(t, h, "/api/organisms?symbol=SPY"); got != http.StatusInternalServerError {
		t.Fatalf("store failure should map to 500, got %d", got)
	}
}
