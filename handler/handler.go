package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/sljivkov/dextick/domain"
	"github.com/sljivkov/dextick/repository"
	"github.com/sljivkov/dextick/tickmath"
)

// History is the read side of the price history store
type History interface {
	LatestPrices(ctx context.Context, pool string, limit int) ([]repository.CurrentPrice, error)
	LatestWindow(ctx context.Context, pool string) ([]repository.WindowPrice, error)
}

// Handler exposes the store, the history and metrics
type Handler struct {
	store     *Store
	history   History
	metrics   http.Handler
	precision int32
	wait      time.Duration
	log       logrus.FieldLogger
}

// Option is a function that modifies a Handler
type Option func(*Handler)

// WithHistory enables the /history routes
func WithHistory(history History) Option {
	return func(h *Handler) { h.history = history }
}

// WithMetrics mounts a Prometheus handler on /metrics
func WithMetrics(metrics http.Handler) Option {
	return func(h *Handler) { h.metrics = metrics }
}

// WithReadyWait bounds how long /prices waits for the first update
func WithReadyWait(wait time.Duration) Option {
	return func(h *Handler) { h.wait = wait }
}

// New creates a Handler
func New(store *Store, precision int32, log logrus.FieldLogger, opts ...Option) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}

	h := &Handler{
		store:     store,
		precision: precision,
		wait:      3 * time.Second,
		log:       log,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Routes builds the router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/prices", h.prices)
	r.Get("/prices/{pool}", h.poolPrice)
	r.Get("/history/{pool}", h.poolHistory)

	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}

	return r
}

// PointView is a display-ready window bucket
type PointView struct {
	Tick           string `json:"tick"`
	Price          string `json:"price"`
	FromSecondsAgo uint32 `json:"from_seconds_ago"`
	ToSecondsAgo   uint32 `json:"to_seconds_ago"`
}

// PriceView is a display-ready update. Price and Observations are null when unknown.
type PriceView struct {
	Pool         string      `json:"pool"`
	Block        uint64      `json:"block"`
	At           time.Time   `json:"at"`
	Price        *string     `json:"price"`
	Tick         *int64      `json:"tick"`
	Observations []PointView `json:"observations"`
}

func (h *Handler) view(update domain.Update) PriceView {
	v := PriceView{
		Pool:  update.Pool.Hex(),
		Block: update.Block,
		At:    update.At,
	}

	if update.HasCurrentPrice {
		price := tickmath.FormatPrice(update.CurrentPrice, h.precision)
		tick := update.CurrentTick
		v.Price, v.Tick = &price, &tick
	}

	if update.HasObservations {
		v.Observations = make([]PointView, 0, len(update.Observations))
		for _, p := range update.Observations {
			v.Observations = append(v.Observations, PointView{
				Tick:           p.Tick,
				Price:          tickmath.FormatPrice(p.Price, h.precision),
				FromSecondsAgo: p.FromSecondsAgo,
				ToSecondsAgo:   p.ToSecondsAgo,
			})
		}
	}

	return v
}

func (h *Handler) waitReady(w http.ResponseWriter, r *http.Request) bool {
	// Wait until prices are ready
	select {
	case <-h.store.Ready():
		return true
	case <-r.Context().Done():
		return false
	case <-time.After(h.wait): // fallback timeout
		http.Error(w, "prices not ready", http.StatusServiceUnavailable)
		return false
	}
}

func (h *Handler) prices(w http.ResponseWriter, r *http.Request) {
	if !h.waitReady(w, r) {
		return
	}

	updates := h.store.All()
	sort.Slice(updates, func(i, j int) bool { return updates[i].Pool.Hex() < updates[j].Pool.Hex() })

	views := make([]PriceView, 0, len(updates))
	for _, u := range updates {
		views = append(views, h.view(u))
	}

	h.writeJSON(w, views)
}

func (h *Handler) poolPrice(w http.ResponseWriter, r *http.Request) {
	pool, err := domain.ParsePool(chi.URLParam(r, "pool"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.waitReady(w, r) {
		return
	}

	update, ok := h.store.Latest(pool)
	if !ok {
		http.Error(w, "pool not observed", http.StatusNotFound)
		return
	}

	h.writeJSON(w, h.view(update))
}

// HistoryView is the stored history of a pool
type HistoryView struct {
	Pool   string                    `json:"pool"`
	Prices []repository.CurrentPrice `json:"prices"`
	Window []repository.WindowPrice  `json:"window"`
}

func (h *Handler) poolHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}

	pool, err := domain.ParsePool(chi.URLParam(r, "pool"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 || limit > 10000 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
	}

	prices, err := h.history.LatestPrices(r.Context(), pool.Hex(), limit)
	if err != nil {
		h.log.WithError(err).Error("❌ History query failed")
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	window, err := h.history.LatestWindow(r.Context(), pool.Hex())
	if err != nil {
		h.log.WithError(err).Error("❌ History query failed")
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, HistoryView{Pool: pool.Hex(), Prices: prices, Window: window})
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
