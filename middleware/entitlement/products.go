package entitlement

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"entitlement-gateway/middleware/entitlement/application"
	"entitlement-gateway/middleware/entitlement/domain"
)

// LimitProducts é um ModifyResponse para httputil.ReverseProxy.
//
// Em respostas JSON 200 do tipo {"products": [...]}, corta a lista no limite de
// exibição da decisão e marca "locked": true nos itens que o viewer não pode ver
// (campos "requires_subscription" e "category"). Qualquer outra resposta passa intacta.
func LimitProducts(resp *http.Response) error {
	if resp == nil || resp.Request == nil {
		return nil
	}
	st, ok := stateFrom(resp.Request.Context())
	if !ok || resp.StatusCode != http.StatusOK || !isPlainJSON(resp.Header) {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return err
	}

	out, total, changed := limitProductsJSON(body, st.decision.DisplayLimit, st.viewer)
	if !changed {
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return nil
	}

	resp.Body = io.NopCloser(bytes.NewReader(out))
	resp.ContentLength = int64(len(out))
	resp.Header.Set("Content-Length", formatInt(len(out)))
	resp.Header.Set(HeaderProductsTotal, formatInt(total))
	return nil
}

func isPlainJSON(h http.Header) bool {
	if enc := strings.TrimSpace(h.Get("Content-Encoding")); enc != "" && !strings.EqualFold(enc, "identity") {
		return false
	}
	mt, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// limitProductsJSON retorna (corpo, total original, alterado).
func limitProductsJSON(body []byte, limit int, v domain.Viewer) ([]byte, int, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return body, 0, false
	}
	raw, ok := doc["products"]
	if !ok {
		return body, 0, false
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return body, 0, false
	}

	total := len(items)
	items = application.Take(items, limit)
	for _, it := range items {
		// null na lista passa como está
		if it == nil {
			continue
		}
		locked := application.ShouldRestrictContent(
			rawBool(it["requires_subscription"]),
			lockableCategory(it["category"]),
			v.ActiveSubscription,
			v.UnlockedCategories,
		)
		it["locked"] = json.RawMessage(formatBool(locked))
	}

	encoded, err := json.Marshal(items)
	if err != nil {
		return body, 0, false
	}
	doc["products"] = encoded
	doc["products_total"] = json.RawMessage(formatInt(total))

	out, err := json.Marshal(doc)
	if err != nil {
		return body, 0, false
	}
	return out, total, true
}

func rawBool(raw json.RawMessage) bool {
	var b bool
	_ = json.Unmarshal(raw, &b)
	return b
}

// lockableCategory retorna a categoria só quando ela é desbloqueável; outras não restringem.
func lockableCategory(raw json.RawMessage) domain.Category {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	if c := domain.ParseCategory(s); c.Unlockable() {
		return c
	}
	return ""
}
