package api

import (
	"errors"
	"time"

	models "UnslugCity/internal/domain/models"
	domrepo "UnslugCity/internal/domain/repository"
	"UnslugCity/internal/usecase"
	xhttp "UnslugCity/pkg/http"
	"UnslugCity/pkg/http/middleware"
	xlogger "UnslugCity/pkg/logger"

	"github.com/labstack/echo/v4"
)

// OrganismsEchoHandler implements Echo-based HTTP handlers for the
// scoring and bar-history endpoints.
type OrganismsEchoHandler struct {
	logger *xlogger.Logger
	score  *usecase.ScoreUseCase
	bars   *usecase.BarsUseCase
	raw    *OrganismsHandler
}

func NewOrganismsEchoHandler(logger *xlogger.Logger, score *usecase.ScoreUseCase, bars *usecase.BarsUseCase) *OrganismsEchoHandler {
	return &OrganismsEchoHandler{logger: logger, score: score, bars: bars}
}

// SetRawHandler mounts the cached, rate-limited plain HTTP endpoints
// under /v1 in addition to the /api group.
func (h *OrganismsEchoHandler) SetRawHandler(raw *OrganismsHandler) { h.raw = raw }

func (h *OrganismsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/organisms", h.Organisms)
	g.GET("/organism", h.Organism)
	g.GET("/feargreed", h.FearGreed)
	g.GET("/retrace", h.Retrace)
	g.GET("/bars", h.Bars)

	if h.raw != nil {
		mw := middleware.Metrics(h.logger, 500*time.Millisecond)
		v1 := e.Group("/v1")
		v1.GET("/organisms", echo.WrapHandler(mw(h.raw.Organisms())))
		v1.GET("/organism", echo.WrapHandler(mw(h.raw.Organism())))
		v1.GET("/feargreed", echo.WrapHandler(mw(h.raw.FearGreed())))
		v1.GET("/retrace", echo.WrapHandler(mw(h.raw.Retrace())))
	}
}

// useCaseError maps domain sentinels to 400 envelopes; anything else is
// logged and surfaces as an opaque 500.
func (h *OrganismsEchoHandler) useCaseError(c echo.Context, endpoint string, err error) error {
	if errors.Is(err, usecase.ErrEmptySeries) || errors.Is(err, usecase.ErrUnknownOrganism) {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError(err.Error()))
	}
	h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}

func (h *OrganismsEchoHandler) Organisms(c echo.Context) error {
	req := &models.OrganismsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.score.GetAllOrganisms(c.Request().Context(), usecase.ScoreParams{
		Symbol:   req.Symbol,
		N:        req.N,
		Interval: domrepo.NormalizeInterval(req.TF),
	})
	if err != nil {
		return h.useCaseError(c, "organisms", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *OrganismsEchoHandler) Organism(c echo.Context) error {
	req := &models.OrganismRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	name := models.OrganismType(req.Name)
	if !models.IsValidOrganism(name) {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestErrorf("unknown organism: %s", req.Name))
	}

	res, err := h.score.GetOrganism(c.Request().Context(), name, usecase.ScoreParams{
		Symbol:   req.Symbol,
		N:        req.N,
		Interval: domrepo.NormalizeInterval(req.TF),
	})
	if err != nil {
		return h.useCaseError(c, "organism", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *OrganismsEchoHandler) FearGreed(c echo.Context) error {
	req := &models.FearGreedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.score.GetFearGreed(c.Request().Context(), usecase.ScoreParams{
		Symbol:   req.Symbol,
		N:        req.N,
		Interval: domrepo.NormalizeInterval(req.TF),
	}, req.Env)
	if err != nil {
		return h.useCaseError(c, "feargreed", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *OrganismsEchoHandler) Retrace(c echo.Context) error {
	req := &models.RetraceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.score.GetRetrace(c.Request().Context(), usecase.ScoreParams{
		Symbol:   req.Symbol,
		N:        req.N,
		Interval: domrepo.NormalizeInterval(req.TF),
	})
	if err != nil {
		return h.useCaseError(c, "retrace", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *OrganismsEchoHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	from, to, err := parseDateRange(req.From, req.To)
	if err != nil {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError(err.Error()))
	}

	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Symbol:   req.Symbol,
		From:     from,
		To:       to,
		Interval: domrepo.NormalizeInterval(req.TF),
		Limit:    req.Limit,
	})
	if err != nil {
		return h.useCaseError(c, "bars", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// parseDateRange resolves optional from/to date strings, defaulting to
// the trailing two years.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(-2, 0, 0)
	to := now

	var err error
	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}
