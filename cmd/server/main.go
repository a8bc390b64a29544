package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "sofilmy/internal/api/http"
	"sofilmy/internal/app"
	"sofilmy/internal/auth"
	"sofilmy/internal/cache"
	"sofilmy/internal/chat"
	"sofilmy/internal/classify"
	"sofilmy/internal/explore"
	"sofilmy/internal/intent"
	"sofilmy/internal/metadata/tmdb"
	"sofilmy/internal/metrics"
	mongorepo "sofilmy/internal/repository/mongo"
	"sofilmy/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "sofilmy")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "sofilmy"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Bool("hasTMDBKey", strings.TrimSpace(cfg.TMDBAPIKey) != ""),
		slog.Bool("hasClassifier", strings.TrimSpace(cfg.ClassifierEndpoint) != ""),
		slog.Bool("hasAuthSecret", strings.TrimSpace(cfg.AuthSecret) != ""),
		slog.Duration("searchDebounce", cfg.SearchDebounce),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := buildRedisClient(cfg, logger)
	var cacheStore cache.Store
	if redisClient != nil {
		cacheStore = cache.NewRedisStore(redisClient)
	} else {
		cacheStore = cache.NewMemoryStore()
	}
	responseCache := cache.New(cacheStore, cache.WithLogger(logger))

	tmdbClient := tmdb.NewClient(tmdb.Config{
		APIKey:   cfg.TMDBAPIKey,
		BaseURL:  cfg.TMDBBaseURL,
		Language: cfg.TMDBLanguage,
		Client:   &http.Client{Timeout: cfg.RequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Redis:    redisClient,
		CacheTTL: cfg.TMDBCacheTTL,
	})

	classifier := classify.New(classify.Config{
		Endpoint: cfg.ClassifierEndpoint,
		Token:    cfg.ClassifierToken,
		Client:   &http.Client{Timeout: 8 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Redis:    redisClient,
		Logger:   logger,
	})
	intentParser := intent.NewParser(classifier)

	connectCtx, cancelConnect := context.WithTimeout(rootCtx, 10*time.Second)
	mongoClient, err := mongorepo.Connect(connectCtx, cfg.MongoURI)
	cancelConnect()
	if err != nil {
		logger.Error("mongo connect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	users := mongorepo.NewUserRepository(mongoClient, cfg.MongoDB)
	watchlists := mongorepo.NewWatchlistRepository(mongoClient, cfg.MongoDB,
		mongorepo.WithWatchlistCache(responseCache),
		mongorepo.WithWatchlistLogger(logger),
	)
	reviews := mongorepo.NewReviewRepository(mongoClient, cfg.MongoDB)
	chats := mongorepo.NewChatRepository(mongoClient, cfg.MongoDB)

	indexCtx, cancelIndexes := context.WithTimeout(rootCtx, 15*time.Second)
	for _, ensure := range []func(context.Context) error{
		users.EnsureIndexes, reviews.EnsureIndexes, chats.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			logger.Warn("index creation failed", slog.String("error", err.Error()))
		}
	}
	cancelIndexes()

	exploreService := explore.NewService(
		[]explore.Source{
			explore.NewMovieSource(tmdbClient),
			explore.NewSeriesSource(tmdbClient),
		},
		tmdbClient,
		explore.WithCache(responseCache),
		explore.WithIntentParser(intentParser),
		explore.WithWatchlists(watchlists),
		explore.WithLogger(logger),
		explore.WithTimeout(cfg.RequestTimeout),
		explore.WithMaxConcurrent(int64(cfg.MaxSourceConcurrency)),
		explore.WithSearchTTL(cfg.SearchCacheTTL),
		explore.WithTrendingTTL(cfg.TrendingCacheTTL),
		explore.WithRecommendTTL(cfg.RecommendCacheTTL),
	)

	hub := chat.NewHub(logger)
	go hub.Run()
	defer hub.Close()

	watcher := chat.NewWatcher(mongoClient.Database(cfg.MongoDB), "chat_messages", hub, logger)
	go watcher.Run(rootCtx)

	serverOpts := []apihttp.ServerOption{
		apihttp.WithLogger(logger),
		apihttp.WithMetadata(tmdbClient),
		apihttp.WithUsers(users),
		apihttp.WithWatchlist(watchlists),
		apihttp.WithReviews(reviews),
		apihttp.WithChats(chats, hub),
		apihttp.WithSearchDebounce(cfg.SearchDebounce),
	}
	verifier := auth.NewVerifier(cfg.AuthSecret)
	if verifier.Enabled() {
		serverOpts = append(serverOpts, apihttp.WithVerifier(verifier))
	} else {
		logger.Warn("auth secret not configured, authenticated endpoints disabled")
	}

	handler := apihttp.NewServer(exploreService, serverOpts...).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Websocket sessions outlive any reasonable write timeout. Keep it
		// disabled at the server level; handlers set their own deadlines.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("sofilmy service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.Duration("timeout", cfg.RequestTimeout),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("sofilmy service stopped")
}

func buildRedisClient(cfg app.Config, logger *slog.Logger) *redis.Client {
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return nil
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory cache only", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(redisOpts)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not reachable, using in-memory cache only", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return client
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
