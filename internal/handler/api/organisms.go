package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"UnslugCity/internal/domain/models"
	domrepo "UnslugCity/internal/domain/repository"
	icache "UnslugCity/internal/service/cache"
	"UnslugCity/internal/service/metrics"
	"UnslugCity/internal/service/ratelimit"
	"UnslugCity/internal/usecase"
	applogger "UnslugCity/pkg/logger"
	"UnslugCity/pkg/util"
)

// OrganismsHandler serves the scoring endpoints over plain net/http with
// per-endpoint caching and rate limiting.
type OrganismsHandler struct {
	score *usecase.ScoreUseCase
	cache icache.BytesCache
	rl    *ratelimit.Limiter
	l     *applogger.Logger
}

func NewOrganismsHandler(score *usecase.ScoreUseCase) *OrganismsHandler {
	metrics.Register()
	return &OrganismsHandler{score: score, rl: ratelimit.New()}
}

func (h *OrganismsHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *OrganismsHandler) SetLogger(l *applogger.Logger) { h.l = l }

// Organisms scores every organism for one symbol.
func (h *OrganismsHandler) Organisms() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.scoreParams(w, r, "organisms", 5, 2)
		if !ok {
			return
		}
		key := "organisms:" + p.Symbol + ":" + string(p.Interval)
		h.serve(w, r, "organisms", key, 30*time.Second, func() (interface{}, error) {
			return h.score.GetAllOrganisms(r.Context(), p)
		})
	}
}

// Organism scores a single named organism for one symbol.
func (h *OrganismsHandler) Organism() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := models.OrganismType(r.URL.Query().Get("name"))
		if !models.IsValidOrganism(name) {
			if h.l != nil {
				h.l.Warn("organism unknown name", applogger.String("name", string(name)))
			}
			http.Error(w, "unknown organism", http.StatusBadRequest)
			return
		}
		p, ok := h.scoreParams(w, r, "organism", 5, 2)
		if !ok {
			return
		}
		key := "organism:" + string(name) + ":" + p.Symbol + ":" + string(p.Interval)
		h.serve(w, r, "organism", key, 30*time.Second, func() (interface{}, error) {
			return h.score.GetOrganism(r.Context(), name, p)
		})
	}
}

// FearGreed returns the full composite breakdown for one symbol.
func (h *OrganismsHandler) FearGreed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.scoreParams(w, r, "feargreed", 5, 2)
		if !ok {
			return
		}
		env := parseFloat(r.URL.Query().Get("env"), 0)
		key := "feargreed:" + p.Symbol + ":" + string(p.Interval) + ":" + strconv.FormatFloat(env, 'f', 1, 64)
		h.serve(w, r, "feargreed", key, 60*time.Second, func() (interface{}, error) {
			return h.score.GetFearGreed(r.Context(), p, env)
		})
	}
}

// Retrace returns the retracement scan detail for one symbol.
func (h *OrganismsHandler) Retrace() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.scoreParams(w, r, "retrace", 3, 1)
		if !ok {
			return
		}
		key := "retrace:" + p.Symbol + ":" + string(p.Interval)
		h.serve(w, r, "retrace", key, 60*time.Second, func() (interface{}, error) {
			return h.score.GetRetrace(r.Context(), p)
		})
	}
}

// scoreParams parses the common query parameters and applies the rate
// limit; it writes the error response itself on failure.
func (h *OrganismsHandler) scoreParams(w http.ResponseWriter, r *http.Request, endpoint string, capacity, refill float64) (usecase.ScoreParams, bool) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		if h.l != nil {
			h.l.Warn(endpoint + " missing symbol")
		}
		http.Error(w, "symbol required", http.StatusBadRequest)
		return usecase.ScoreParams{}, false
	}
	if !h.rl.Allow(r.RemoteAddr+":"+endpoint, capacity, refill) {
		if h.l != nil {
			h.l.Warn(endpoint+" rate_limited", applogger.String("remote", r.RemoteAddr))
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return usecase.ScoreParams{}, false
	}
	return usecase.ScoreParams{
		Symbol:   symbol,
		N:        util.ParseIntDefault(r.URL.Query().Get("n"), 600),
		Interval: domrepo.NormalizeInterval(r.URL.Query().Get("tf")),
	}, true
}

// serve answers from cache when possible, otherwise computes, caches and
// writes the JSON result.
func (h *OrganismsHandler) serve(w http.ResponseWriter, r *http.Request, endpoint, cacheKey string, ttl time.Duration, compute func() (interface{}, error)) {
	start := time.Now()
	defer func() {
		metrics.ScoringLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			if h.l != nil {
				h.l.Warn(endpoint+" cache_get_error", applogger.Error(err))
			}
		} else if ok {
			w.Header().Set("Content-Type", "application/json")
			if h.l != nil {
				h.l.Debug(endpoint+" cache_hit", applogger.String("key", cacheKey))
			}
			if _, err := w.Write(b); err != nil && h.l != nil {
				h.l.Warn(endpoint+" write_error", applogger.Error(err))
			}
			return
		}
	}

	res, err := compute()
	if err != nil {
		metrics.ScoringErrors.WithLabelValues(endpoint).Inc()
		if h.l != nil {
			h.l.Error(endpoint+" error", applogger.Error(err))
		}
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrUnknownOrganism) || errors.Is(err, usecase.ErrEmptySeries) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	b, err := json.Marshal(res)
	if err != nil {
		if h.l != nil {
			h.l.Error(endpoint+" marshal_error", applogger.Error(err))
		}
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(cacheKey, b, ttl); err != nil && h.l != nil {
			h.l.Warn(endpoint+" cache_set_error", applogger.Error(err))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(b); err != nil && h.l != nil {
		h.l.Warn(endpoint+" write_error", applogger.Error(err))
	}
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}
