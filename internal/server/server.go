// Package server is the headless dashboard: a JSON API over the refresh
// coordinator, feeds of items ending soon, and a websocket push channel.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/billy398/auction-dashboard/internal/coord"
	"github.com/billy398/auction-dashboard/internal/fetch"
	"github.com/billy398/auction-dashboard/internal/filter"
	"github.com/billy398/auction-dashboard/internal/logging"
	"github.com/billy398/auction-dashboard/internal/otel"
	"github.com/billy398/auction-dashboard/internal/stats"
	"github.com/billy398/auction-dashboard/internal/store"
	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// HistorySource serves archived observations for one item.
type HistorySource interface {
	History(itemID string, limit int) ([]store.Observation, error)
}

// Options configures a Server.
type Options struct {
	Addr      string
	RateLimit string // ulule format, e.g. "120-M"
	FeedLimit int
	SiteURL   string
	AuctionID string
	View      filter.ViewState // defaults for /api/items
}

// Server serves the dashboard over HTTP.
type Server struct {
	coord   *coord.Coordinator
	hub     *Hub
	history HistorySource
	events  *otel.Logger
	log     *log.Logger
	opts    Options
	rate    limiter.Rate
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// New creates a Server. events may be nil.
func New(c *coord.Coordinator, hub *Hub, opts Options, events *otel.Logger) (*Server, error) {
	if opts.RateLimit == "" {
		opts.RateLimit = "120-M"
	}
	rate, err := limiter.NewRateFromFormatted(opts.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("rate limit %q: %w", opts.RateLimit, err)
	}
	if opts.FeedLimit <= 0 {
		opts.FeedLimit = 25
	}
	if opts.View.Sort == "" {
		opts.View = filter.DefaultViewState()
	}
	return &Server{
		coord:  c,
		hub:    hub,
		events: events,
		log:    logging.WithPrefix("server"),
		opts:   opts,
		rate:   rate,
	}, nil
}

// SetHistory enables GET /api/items/{id}/history.
func (s *Server) SetHistory(h HistorySource) {
	s.history = h
}

// Handler returns the routed, rate-limited handler.
func (s *Server) Handler() http.Handler {
	rl := stdlib.NewMiddleware(limiter.New(memory.NewStore(), s.rate, limiter.WithTrustForwardHeader(true)))

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/items", s.handleItems).Methods(http.MethodGet)
	r.HandleFunc("/api/items/{id}/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/feed/{type:atom|rss|json}", s.handleFeed).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket)

	return s.withRequestLogging(rl.Handler(r))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

type healthResponse struct {
	Status    string     `json:"status"`
	Phase     string     `json:"phase"`
	Items     int        `json:"items"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Clients   int        `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Phase:   s.coord.Controller().Phase().String(),
		Clients: s.hub.ClientCount(),
	}
	if snap := s.coord.Snapshot(); snap != nil {
		resp.Items = len(snap.Items)
		resp.UpdatedAt = &snap.UpdatedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

type itemsResponse struct {
	RefreshID string           `json:"refreshId"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Total     int              `json:"total"`
	Count     int              `json:"count"`
	View      filter.ViewState `json:"view"`
	Items     []auction.Item   `json:"items"`
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	view, err := s.viewFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	snap := s.coord.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no data loaded yet", "POST /api/refresh or wait for the next refresh")
		return
	}

	items := filter.View(snap.Items, view)
	if items == nil {
		items = []auction.Item{}
	}
	writeJSON(w, http.StatusOK, itemsResponse{
		RefreshID: snap.RefreshID,
		UpdatedAt: snap.UpdatedAt,
		Total:     len(snap.Items),
		Count:     len(items),
		View:      view,
		Items:     items,
	})
}

// viewFromQuery overlays q, bids, sort and dir onto the default view. A sort
// key without dir gets that key's default direction.
func (s *Server) viewFromQuery(r *http.Request) (filter.ViewState, error) {
	q := r.URL.Query()
	v := s.opts.View
	v.Search = q.Get("q")

	if raw := q.Get("bids"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return v, fmt.Errorf("bids: %q is not a boolean", raw)
		}
		v.OnlyWithBids = b
	}
	if raw := q.Get("sort"); raw != "" {
		key, err := filter.ParseSortKey(raw)
		if err != nil {
			return v, err
		}
		if key != v.Sort {
			v.Sort = key
			v.Dir = filter.DefaultDirection(key)
		}
	}
	if raw := q.Get("dir"); raw != "" {
		dir, err := filter.ParseDirection(raw)
		if err != nil {
			return v, err
		}
		v.Dir = dir
	}
	return v, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.coord.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no data loaded yet", "")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		RefreshID string      `json:"refreshId"`
		UpdatedAt time.Time   `json:"updatedAt"`
		Stats     stats.Stats `json:"stats"`
	}{snap.RefreshID, snap.UpdatedAt, snap.Stats})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "archive disabled", "set archive.enabled in the config")
		return
	}
	id := mux.Vars(r)["id"]
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", "")
			return
		}
		limit = n
	}

	obs, err := s.history.History(id, limit)
	if err != nil {
		s.log.Error("history", "item", id, "error", err)
		writeError(w, http.StatusInternalServerError, "history lookup failed", "")
		return
	}
	if obs == nil {
		obs = []store.Observation{}
	}
	writeJSON(w, http.StatusOK, obs)
}

type refreshResponse struct {
	RefreshID string `json:"refreshId"`
	Count     int    `json:"count"`
	DurMs     int64  `json:"durMs"`
}

// handleRefresh runs one cycle synchronously and pushes the outcome to
// websocket clients. Upstream failures map to 502.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.hub.RefreshStarted(false)
	res := s.coord.Refresh(r.Context())
	s.hub.RefreshFinished(res, false)

	if !res.OK() {
		msg := "refresh failed"
		if res.Err != nil {
			msg = res.Err.Error()
		}
		status := http.StatusBadGateway
		var fe *fetch.FetchError
		if errors.As(res.Err, &fe) && fe.StatusCode == 0 && errors.Is(res.Err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, msg, res.Hint)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		RefreshID: res.RefreshID,
		Count:     len(res.Snapshot.Items),
		DurMs:     res.Dur.Milliseconds(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "error", err)
		return
	}

	hello := Message{Type: "hello"}
	if snap := s.coord.Snapshot(); snap != nil {
		hello.RefreshID = snap.RefreshID
		hello.Count = len(snap.Items)
		hello.Stats = &snap.Stats
		hello.UpdatedAt = &snap.UpdatedAt
	}
	s.hub.serve(conn, hello)
}

type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, hint string) {
	writeJSON(w, status, errorResponse{Error: strings.TrimSpace(msg), Hint: hint})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("server: encode response", "error", err)
	}
}
