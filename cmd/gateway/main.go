package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"entitlement-gateway/middleware/entitlement"
	"entitlement-gateway/middleware/entitlement/application"
	"entitlement-gateway/middleware/entitlement/config"
	"entitlement-gateway/middleware/entitlement/domain"
	"entitlement-gateway/middleware/entitlement/infra"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	env := config.Env
	logger := newLogger(config.String(env, "LOG_LEVEL", "info"))
	defer func() { _ = logger.Sync() }()

	cfg, err := readConfig(env)
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	gateCfg, err := config.FromEnv(env)
	if err != nil {
		logger.Fatal("entitlement config error", zap.Error(err))
	}

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		logger.Fatal("invalid UPSTREAM_URL", zap.Error(err))
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = otelhttp.NewTransport(http.DefaultTransport)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		counter  domain.CounterStore
		stats    domain.StatsStore
		memStats *infra.MemoryStatsStore
	)
	if cfg.redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		pingCancel()
		if err != nil {
			logger.Fatal("redis ping error", zap.String("addr", cfg.redisAddr), zap.Error(err))
		}

		counter = infra.NewRedisCounterStore(rdb,
			infra.WithCounterPrefix(cfg.redisPrefix+":session"),
			infra.WithCounterTTL(cfg.sessionTTL),
		)
		if cfg.statsEnabled {
			stats = infra.NewRedisStatsStore(rdb,
				infra.WithStatsPrefix(cfg.redisPrefix+":stats"),
				infra.WithStatsTTL(cfg.statsTTL),
				infra.WithStatsBucket(cfg.statsBucket),
				infra.WithStatsTrackSessions(cfg.statsTrackSessions),
			)
		}
	} else {
		mem := infra.NewMemoryCounterStore(infra.WithSessionTTL(cfg.sessionTTL))
		mem.StartJanitor(ctx)
		counter = mem
		if cfg.statsEnabled {
			memStats = infra.NewMemoryStatsStore()
			stats = memStats
		}
	}

	gate := application.Gate{
		Config:  gateCfg,
		Counter: counter,
		Logger:  logger,
	}
	if cfg.throttleEnabled {
		th := infra.NewThrottle(
			infra.ThrottleRate{RPS: cfg.throttleRPS, Burst: cfg.throttleBurst},
			infra.WithMemberRate(infra.ThrottleRate{RPS: cfg.memberRPS, Burst: cfg.memberBurst}),
		)
		th.StartJanitor(ctx)
		gate.Throttle = th
	}

	viewerFn := entitlement.ViewerFunc(entitlement.GuestViewer)
	if cfg.trustViewerHeaders {
		viewerFn = entitlement.HeaderViewer
	} else {
		logger.Warn("TRUST_VIEWER_HEADERS=false: every request is treated as a guest")
	}

	opts := entitlement.Options{
		Gate:               gate,
		Stats:              stats,
		SessionFn:          entitlement.CookieSession(entitlement.SessionOptions{CookieName: cfg.sessionCookie, Secure: cfg.cookieSecure}),
		ViewerFn:           viewerFn,
		KeyHeader:          cfg.throttleKeyHeader,
		TrustXForwardedFor: cfg.trustXFF,
		RejectStatus:       cfg.rejectStatus,
		RetryAfter:         cfg.retryAfter,
		Logger:             logger,
	}

	searchProxy := httputil.NewSingleHostReverseProxy(target)
	searchProxy.Transport = proxy.Transport
	searchProxy.ErrorHandler = proxy.ErrorHandler
	searchProxy.ModifyResponse = entitlement.LimitProducts

	if cfg.adminToken == "" {
		logger.Info("ENTITLEMENT_ADMIN_TOKEN not set: admin routes refuse every request")
	}

	h := http.Handler(newMux(cfg, opts, entitlement.SearchMiddleware(opts)(searchProxy), proxy, memStats))
	if !cfg.trustViewerHeaders {
		h = entitlement.StripViewerHeaders(h)
	}
	h = otelhttp.NewHandler(h, "entitlement-gateway")

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway listening",
		zap.String("addr", cfg.listenAddr),
		zap.Stringer("upstream", target),
		zap.String("searchPath", cfg.searchPath),
	)
	logger.Info("entitlements",
		zap.Int("guestFreeSearches", gateCfg.GuestFreeSearches),
		zap.Int("guestDisplayLimit", gateCfg.GuestProductDisplayLimit),
		zap.Int("freeDisplayLimit", gateCfg.FreeTierProductDisplayLimit),
		zap.Int("paidDisplayLimit", gateCfg.PaidTierProductDisplayLimit),
		zap.Duration("sessionTTL", cfg.sessionTTL),
		zap.Bool("redis", cfg.redisAddr != ""),
	)
	logger.Info("throttle",
		zap.Bool("enabled", cfg.throttleEnabled),
		zap.Float64("rps", cfg.throttleRPS),
		zap.Int("burst", cfg.throttleBurst),
		zap.Bool("trustXFF", cfg.trustXFF),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

type gatewayConfig struct {
	listenAddr         string
	upstreamURL        string
	searchPath         string
	trustViewerHeaders bool
	rejectStatus       int

	sessionCookie string
	cookieSecure  bool
	sessionTTL    time.Duration

	throttleEnabled   bool
	throttleRPS       float64
	throttleBurst     int
	memberRPS         float64
	memberBurst       int
	throttleKeyHeader string
	trustXFF          bool
	retryAfter        time.Duration

	adminToken string

	redisAddr     string
	redisPassword string
	redisDB       int
	redisPrefix   string

	statsEnabled       bool
	statsTTL           time.Duration
	statsBucket        string
	statsTrackSessions bool
}

func readConfig(env config.Lookup) (gatewayConfig, error) {
	cfg := gatewayConfig{}
	cfg.listenAddr = config.String(env, "LISTEN_ADDR", ":8080")
	cfg.upstreamURL = config.String(env, "UPSTREAM_URL", "")
	cfg.searchPath = config.String(env, "SEARCH_PATH", "/api/search")
	cfg.trustViewerHeaders = config.Bool(env, "TRUST_VIEWER_HEADERS", false)
	cfg.rejectStatus = config.Int(env, "GUEST_LIMIT_STATUS", http.StatusPaymentRequired)

	cfg.sessionCookie = config.String(env, "SESSION_COOKIE", entitlement.DefaultSessionCookie)
	cfg.cookieSecure = config.Bool(env, "SESSION_COOKIE_SECURE", true)
	cfg.sessionTTL = config.Duration(env, "SESSION_TTL", 30*time.Minute)

	cfg.throttleEnabled = config.Bool(env, "THROTTLE_ENABLED", true)
	cfg.throttleRPS = config.Float(env, "THROTTLE_RPS", 2)
	cfg.throttleBurst = config.Int(env, "THROTTLE_BURST", 10)
	cfg.memberRPS = config.Float(env, "THROTTLE_MEMBER_RPS", 5)
	cfg.memberBurst = config.Int(env, "THROTTLE_MEMBER_BURST", 20)
	cfg.throttleKeyHeader = config.String(env, "THROTTLE_KEY_HEADER", "")
	cfg.trustXFF = config.Bool(env, "TRUST_XFF", false)
	cfg.retryAfter = config.Duration(env, "RETRY_AFTER", 1*time.Second)

	cfg.adminToken = strings.TrimSpace(config.String(env, "ENTITLEMENT_ADMIN_TOKEN", ""))

	cfg.redisAddr = strings.TrimSpace(config.String(env, "REDIS_ADDR", ""))
	cfg.redisPassword = config.String(env, "REDIS_PASSWORD", "")
	cfg.redisDB = config.Int(env, "REDIS_DB", 0)
	cfg.redisPrefix = strings.Trim(config.String(env, "REDIS_PREFIX", "entitlement"), ":")

	cfg.statsEnabled = config.Bool(env, "STATS_ENABLED", true)
	cfg.statsTTL = config.Duration(env, "STATS_TTL", 24*time.Hour)
	cfg.statsBucket = config.String(env, "STATS_BUCKET", "minute")
	cfg.statsTrackSessions = config.Bool(env, "STATS_TRACK_SESSIONS", false)

	if cfg.upstreamURL == "" {
		return gatewayConfig{}, errors.New("UPSTREAM_URL is required")
	}
	if !strings.HasPrefix(cfg.searchPath, "/") || strings.Trim(cfg.searchPath, "/") == "" {
		return gatewayConfig{}, errors.New("SEARCH_PATH must start with / and name a route")
	}
	if cfg.rejectStatus < 400 || cfg.rejectStatus > 499 {
		return gatewayConfig{}, errors.New("GUEST_LIMIT_STATUS must be a 4xx status")
	}
	if cfg.sessionTTL <= 0 {
		return gatewayConfig{}, errors.New("SESSION_TTL must be > 0")
	}
	if cfg.throttleEnabled && cfg.throttleRPS <= 0 {
		return gatewayConfig{}, errors.New("THROTTLE_RPS must be > 0")
	}
	if cfg.throttleEnabled && cfg.throttleBurst <= 0 {
		return gatewayConfig{}, errors.New("THROTTLE_BURST must be > 0")
	}
	if cfg.throttleEnabled && (cfg.memberRPS <= 0 || cfg.memberBurst <= 0) {
		return gatewayConfig{}, errors.New("THROTTLE_MEMBER_RPS and THROTTLE_MEMBER_BURST must be > 0")
	}
	if cfg.redisDB < 0 {
		return gatewayConfig{}, errors.New("REDIS_DB must be >= 0")
	}
	return cfg, nil
}

// newMux monta as rotas do gateway. A busca cobre o caminho exato e a subárvore
// (ex: /api/search/ e /api/search/x), senão essas variantes cairiam no proxy sem cota.
// Reset e estatísticas exigem o token de admin.
func newMux(cfg gatewayConfig, opts entitlement.Options, search, proxy http.Handler, memStats *infra.MemoryStatsStore) *http.ServeMux {
	mux := http.NewServeMux()
	for _, p := range searchPatterns(cfg.searchPath) {
		mux.Handle(p, search)
	}
	mux.Handle("/entitlements", entitlement.EntitlementsHandler(opts))
	mux.Handle("/entitlements/reset", entitlement.AdminResetHandler(cfg.adminToken, opts))
	mux.Handle("/entitlements/stats", entitlement.RequireAdminToken(cfg.adminToken, entitlement.StatsHandler(memStats)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/", proxy)
	return mux
}

func searchPatterns(path string) []string {
	path = strings.TrimSuffix(path, "/")
	return []string{path, path + "/"}
}

func newLogger(level string) *zap.Logger {
	zc := zap.NewProductionConfig()
	if strings.EqualFold(strings.TrimSpace(level), "debug") {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.With(zap.String("service", "entitlement-gateway"))
}
