package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"whiteboard/internal/api"
	"whiteboard/internal/metrics"
	"whiteboard/internal/routers"
	"whiteboard/internal/services"
	"whiteboard/internal/utils"
)

// Seams for tests.
var (
	listenAndServe = http.ListenAndServe
	exitFunc       = func(err error) { log.Fatal(err) }
)

const defaultMaxMessageBytes = 1 << 20 // 1 MiB

func run(_ context.Context) error {
	logger := utils.NewLogger()
	defer func() { _ = logger.Sync() }()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "redis:6379"
	}

	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	maxBytes := int64(defaultMaxMessageBytes)
	if v := os.Getenv("MAX_MESSAGE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxBytes = n
		}
	}

	events := services.NewEventPublisher(redisAddr, logger)
	defer func() { _ = events.Close() }()

	handlers := api.NewHandlers(logger, events, api.Config{
		AllowedOrigin:   allowedOrigin,
		MaxMessageBytes: maxBytes,
	})

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	r.Use(metrics.Middleware("whiteboard"))

	r.Mount("/", routers.New(handlers))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port
	log.Printf("whiteboard-svc listening on %s", addr)
	return listenAndServe(addr, r)
}

func main() {
	if err := run(context.Background()); err != nil {
		exitFunc(err)
	}
}
