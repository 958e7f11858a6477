// Package config monta a configuração do gate a partir do ambiente e,
// opcionalmente, de um arquivo YAML.
//
// Ordem de precedência: padrões < arquivo < variáveis de ambiente.
// Valor de ambiente ausente ou inválido nunca é erro: vale o padrão.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"entitlement-gateway/middleware/entitlement/domain"

	"gopkg.in/yaml.v3"
)

// Nomes das variáveis de ambiente do gate.
const (
	EnvGuestFreeSearches           = "GUEST_FREE_SEARCHES"
	EnvGuestProductDisplayLimit    = "GUEST_PRODUCT_DISPLAY_LIMIT"
	EnvFreeTierProductDisplayLimit = "FREE_TIER_PRODUCT_DISPLAY_LIMIT"
	EnvPaidTierProductDisplayLimit = "PAID_TIER_PRODUCT_DISPLAY_LIMIT"
	EnvConfigFile                  = "ENTITLEMENT_CONFIG_FILE"
)

// Lookup tem a mesma assinatura de os.LookupEnv.
type Lookup func(key string) (string, bool)

// Env é o Lookup do processo.
var Env Lookup = os.LookupEnv

// MapLookup é útil em testes.
func MapLookup(m map[string]string) Lookup {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func (l Lookup) get(k string) (string, bool) {
	if l == nil {
		return "", false
	}
	v, ok := l(k)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func String(l Lookup, k, def string) string {
	if v, ok := l.get(k); ok {
		return v
	}
	return def
}

func Int(l Lookup, k string, def int) int {
	v, ok := l.get(k)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// NonNegativeInt é Int com fallback também para valores negativos.
func NonNegativeInt(l Lookup, k string, def int) int {
	if i := Int(l, k, def); i >= 0 {
		return i
	}
	return def
}

func Float(l Lookup, k string, def float64) float64 {
	v, ok := l.get(k)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func Bool(l Lookup, k string, def bool) bool {
	v, ok := l.get(k)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func Duration(l Lookup, k string, def time.Duration) time.Duration {
	v, ok := l.get(k)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// File é o formato do arquivo YAML opcional.
type File struct {
	Entitlements fileEntitlements `yaml:"entitlements"`
}

// Ponteiros distinguem "ausente" de zero.
type fileEntitlements struct {
	GuestFreeSearches           *int `yaml:"guest_free_searches"`
	GuestProductDisplayLimit    *int `yaml:"guest_product_display_limit"`
	FreeTierProductDisplayLimit *int `yaml:"free_tier_product_display_limit"`
	PaidTierProductDisplayLimit *int `yaml:"paid_tier_product_display_limit"`
}

// Entitlements lê o gate apenas do ambiente (com padrões).
func Entitlements(l Lookup) domain.Config {
	return overlayEnv(domain.DefaultConfig(), l)
}

// Load aplica padrões, depois o arquivo (se path != ""), depois o ambiente.
// Erro só acontece para arquivo ilegível ou YAML inválido.
func Load(path string, l Lookup) (domain.Config, error) {
	cfg := domain.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = overlayFile(cfg, path)
		if err != nil {
			return domain.Config{}, err
		}
	}
	return overlayEnv(cfg, l), nil
}

// FromEnv resolve o arquivo via ENTITLEMENT_CONFIG_FILE.
func FromEnv(l Lookup) (domain.Config, error) {
	return Load(String(l, EnvConfigFile, ""), l)
}

func overlayFile(cfg domain.Config, path string) (domain.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Config{}, fmt.Errorf("read config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return domain.Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	e := f.Entitlements
	set := func(dst *int, v *int) {
		if v != nil && *v >= 0 {
			*dst = *v
		}
	}
	set(&cfg.GuestFreeSearches, e.GuestFreeSearches)
	set(&cfg.GuestProductDisplayLimit, e.GuestProductDisplayLimit)
	set(&cfg.FreeTierProductDisplayLimit, e.FreeTierProductDisplayLimit)
	set(&cfg.PaidTierProductDisplayLimit, e.PaidTierProductDisplayLimit)
	return cfg, nil
}

func overlayEnv(cfg domain.Config, l Lookup) domain.Config {
	cfg.GuestFreeSearches = NonNegativeInt(l, EnvGuestFreeSearches, cfg.GuestFreeSearches)
	cfg.GuestProductDisplayLimit = NonNegativeInt(l, EnvGuestProductDisplayLimit, cfg.GuestProductDisplayLimit)
	cfg.FreeTierProductDisplayLimit = NonNegativeInt(l, EnvFreeTierProductDisplayLimit, cfg.FreeTierProductDisplayLimit)
	cfg.PaidTierProductDisplayLimit = NonNegativeInt(l, EnvPaidTierProductDisplayLimit, cfg.PaidTierProductDisplayLimit)
	return cfg.Normalize()
}

// Marshal serializa a configuração efetiva no formato do arquivo.
func Marshal(cfg domain.Config) ([]byte, error) {
	return yaml.Marshal(map[string]domain.Config{"entitlements": cfg})
}
