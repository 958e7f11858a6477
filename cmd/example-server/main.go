package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"entitlement-gateway/middleware/entitlement"
	"entitlement-gateway/middleware/entitlement/application"
	"entitlement-gateway/middleware/entitlement/config"
	"entitlement-gateway/middleware/entitlement/domain"
	"entitlement-gateway/middleware/entitlement/infra"

	"go.uber.org/zap"
)

// Exemplo: o gate embutido direto no seu webserver (sem proxy), com um catálogo em memória.

type product struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Category             domain.Category `json:"category"`
	RequiresSubscription bool            `json:"requires_subscription,omitempty"`
	Locked               bool            `json:"locked"`
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.FromEnv(config.Env)
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	counter := infra.NewMemoryCounterStore()
	counter.StartJanitor(ctx)
	stats := infra.NewMemoryStatsStore()

	opts := entitlement.Options{
		Gate:      application.Gate{Config: cfg, Counter: counter},
		Stats:     stats,
		SessionFn: entitlement.CookieSession(entitlement.SessionOptions{}),
		ViewerFn:  entitlement.HeaderViewer,
		Logger:    logger,
	}

	catalog := buildCatalog(60)

	mux := http.NewServeMux()
	mux.Handle("/search", entitlement.SearchMiddleware(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dec, _ := entitlement.DecisionFromContext(r.Context())
		viewer, _ := entitlement.ViewerFromContext(r.Context())
		q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

		var hits []product
		for _, p := range catalog {
			if q == "" || strings.Contains(strings.ToLower(p.Name), q) {
				hits = append(hits, p)
			}
		}
		writeProducts(w, application.Take(hits, dec.DisplayLimit), len(hits), viewer)
	})))

	// Curadoria: assinantes veem a lista toda, o resto os primeiros 10.
	mux.HandleFunc("/picks", func(w http.ResponseWriter, r *http.Request) {
		viewer := entitlement.HeaderViewer(r)
		picks := application.FilterProductsByAccess(catalog, viewer.ActiveSubscription, application.DefaultFilterLimit)
		writeProducts(w, picks, len(catalog), viewer)
	})
	mux.Handle("/entitlements", entitlement.EntitlementsHandler(opts))
	// Reset da própria sessão: servidor de demonstração local, sem admin.
	mux.Handle("/entitlements/reset", entitlement.ResetHandler(opts))
	mux.Handle("/entitlements/stats", entitlement.StatsHandler(stats))

	addr := config.String(config.Env, "LISTEN_ADDR", ":8081")
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("example server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func buildCatalog(n int) []product {
	cats := domain.UnlockableCategories()
	out := make([]product, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, product{
			ID:                   fmt.Sprintf("p%d", i),
			Name:                 fmt.Sprintf("Product %d", i),
			Category:             cats[i%len(cats)],
			RequiresSubscription: i%7 == 0,
		})
	}
	return out
}

func writeProducts(w http.ResponseWriter, items []product, total int, v domain.Viewer) {
	out := make([]product, len(items))
	for i, p := range items {
		p.Locked = application.ShouldRestrictContent(p.RequiresSubscription, p.Category, v.ActiveSubscription, v.UnlockedCategories)
		out[i] = p
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"products":       out,
		"products_total": total,
	})
}
