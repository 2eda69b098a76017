package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-vip-subscription/internal/infra/logging"
)

// handleTimeout bounds the processing of one update so a stuck external
// call cannot jam a worker forever.
const handleTimeout = 30 * time.Second

// UpdateHandler consumes one Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// Server receives Telegram webhook calls, acknowledges them immediately
// and hands the decoded updates to a worker pool. Telegram retries on
// non-2xx responses, so slow processing must never block the HTTP reply.
type Server struct {
	secret  string
	handler UpdateHandler
	workers int
	updates chan tgbotapi.Update
	log     *zerolog.Logger
}

func NewServer(secret string, handler UpdateHandler, workers int, logger *zerolog.Logger) *Server {
	if workers <= 0 {
		workers = 8
	}
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		secret:  secret,
		handler: handler,
		workers: workers,
		updates: make(chan tgbotapi.Update, 100),
		log:     &l,
	}
}

// Router builds the HTTP surface: the webhook endpoint plus health and
// metrics. Unknown paths 404 like any other, so the secret path is not
// discoverable by probing.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/webhook/{secret}", s.handleWebhook)
	// Telegram only POSTs. Stray requests with other methods should not
	// leak the webhook path's existence through a distinct status code.
	r.MethodNotAllowed(s.handleOK)

	r.Get("/health", s.handleOK)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	got := chi.URLParam(r, "secret")
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
		http.NotFound(w, r)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.log.Warn().Err(err).Msg("malformed webhook payload")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	select {
	case s.updates <- update:
	default:
		// Queue full. Ack anyway; dropping one update beats a Telegram
		// retry storm against an already backed-up bot.
		s.log.Warn().Int("update_id", update.UpdateID).Msg("update queue full, dropping update")
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleOK(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Run processes queued updates until ctx is canceled.
func (s *Server) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case update := <-s.updates:
					s.process(ctx, workerID, update)
				}
			}
		}(i + 1)
	}
	wg.Wait()
	s.log.Info().Msg("update workers stopped")
}

func (s *Server) process(ctx context.Context, workerID int, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	ctx = logging.WithTraceID(ctx, uuid.NewString())
	if err := s.handler.HandleUpdate(ctx, update); err != nil {
		s.log.Error().
			Err(err).
			Int("worker", workerID).
			Int("update_id", update.UpdateID).
			Msg("failed to handle update")
	}
}
