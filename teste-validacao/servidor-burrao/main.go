package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Backend de busca falso para validar o gateway na mão:
//
//	UPSTREAM_URL=http://localhost:8081 TRUST_VIEWER_HEADERS=true go run ./cmd/gateway
//	curl -i localhost:8080/api/search?q=tv
func main() {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	categories := []string{"electronics", "beauty", "pets", "groceries", "baby"}

	http.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		products := make([]map[string]any, 0, 60)
		for i := 1; i <= 60; i++ {
			products = append(products, map[string]any{
				"id":                    fmt.Sprintf("p%d", i),
				"name":                  fmt.Sprintf("%s #%d", q, i),
				"category":              categories[i%len(categories)],
				"requires_subscription": i%10 == 0,
			})
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{"query": q, "products": products})
		logger.Info("search served", zap.String("q", q), zap.String("tier", r.Header.Get("X-Subscription-Tier")))
	})

	logger.Info("fake search backend on http://localhost:8081")
	if err := http.ListenAndServe(":8081", nil); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
