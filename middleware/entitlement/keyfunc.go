package entitlement

import (
	"net/http"
	"net/netip"
	"strings"

	"entitlement-gateway/middleware/entitlement/domain"
)

// ClientKeyFunc identifica o cliente de rede de uma busca, para o throttle.
type ClientKeyFunc func(r *http.Request) domain.ClientKey

// ClientKeys monta o ClientKeyFunc padrão.
//
// Ordem: header de chave (se configurado), primeiro IP válido do X-Forwarded-For
// (só com trustXFF), RemoteAddr. IPv6 é agrupado por /64, já que um cliente
// costuma ter a rede inteira e trocar de endereço nela é trivial.
func ClientKeys(keyHeader string, trustXFF bool) ClientKeyFunc {
	return func(r *http.Request) domain.ClientKey {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return domain.ClientKey("key:" + v)
			}
		}
		if trustXFF {
			if addr, ok := forwardedFor(r.Header.Values("X-Forwarded-For")); ok {
				return ipKey(addr)
			}
		}
		if addr, ok := remoteAddr(r.RemoteAddr); ok {
			return ipKey(addr)
		}
		return "unknown"
	}
}

func forwardedFor(values []string) (netip.Addr, bool) {
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if addr, err := netip.ParseAddr(strings.TrimSpace(part)); err == nil {
				return addr, true
			}
		}
	}
	return netip.Addr{}, false
}

func remoteAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr(), true
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr, true
	}
	return netip.Addr{}, false
}

func ipKey(addr netip.Addr) domain.ClientKey {
	addr = addr.Unmap().WithZone("")
	if addr.Is6() {
		if p, err := addr.Prefix(64); err == nil {
			return domain.ClientKey("ip:" + p.String())
		}
	}
	return domain.ClientKey("ip:" + addr.String())
}
