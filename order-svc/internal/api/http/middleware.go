package httpapi

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"tableorder/order-svc/internal/auth"
	"tableorder/order-svc/internal/domain"
	"tableorder/order-svc/internal/service"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// bearerToken reads the Authorization header. Browsers cannot set headers
// on a WebSocket handshake, so streams may pass the token as ?token=.
func bearerToken(r *http.Request, allowQuery bool) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if allowQuery {
		return r.URL.Query().Get("token")
	}
	return ""
}

type guard func(r *http.Request, identity auth.Identity) error

func (h *Handler) protect(allowQuery bool, check guard, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r, allowQuery)
		if token == "" {
			h.writeError(w, r, errUnauthenticated)
			return
		}
		identity, err := h.Auth.Verify(r.Context(), token)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if check != nil {
			if err := check(r, identity); err != nil {
				h.writeError(w, r, err)
				return
			}
		}
		next(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

func ownsRestaurant(r *http.Request, identity auth.Identity) error {
	if identity.Role != domain.RoleRestaurant || identity.UserID != mux.Vars(r)["id"] {
		return service.ErrForbidden
	}
	return nil
}

func isClient(r *http.Request, identity auth.Identity) error {
	if identity.Role != domain.RoleClient {
		return service.ErrForbidden
	}
	return nil
}

func (h *Handler) authenticated(next http.HandlerFunc) http.Handler {
	return h.protect(false, nil, next)
}

// owner admits only the restaurant account named by the {id} path variable.
func (h *Handler) owner(next http.HandlerFunc) http.Handler {
	return h.protect(false, ownsRestaurant, next)
}

func (h *Handler) ownerStream(next http.HandlerFunc) http.Handler {
	return h.protect(true, ownsRestaurant, next)
}

func (h *Handler) client(next http.HandlerFunc) http.Handler {
	return h.protect(false, isClient, next)
}

func (h *Handler) clientStream(next http.HandlerFunc) http.Handler {
	return h.protect(true, isClient, next)
}

// limiterIdleTTL is how long an unused bucket is kept. A bucket idle this
// long has refilled, so dropping it changes nothing for the client.
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client address. X-Forwarded-For is
// only honoured when the direct peer is a trusted proxy.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	trusted   []*net.IPNet
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// TrustProxies accepts IP addresses or CIDR ranges.
func (rl *RateLimiter) TrustProxies(proxies []string) error {
	var nets []*net.IPNet
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return fmt.Errorf("invalid trusted proxy %q", p)
			}
			bits := 8 * net.IPv6len
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(p)
		if err != nil {
			return fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		nets = append(nets, ipNet)
	}

	rl.mu.Lock()
	rl.trusted = nets
	rl.mu.Unlock()
	return nil
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= limiterIdleTTL {
		for k, entry := range rl.limiters {
			if now.Sub(entry.lastSeen) >= limiterIdleTTL {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Len reports how many client buckets are held.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.clientAddr(r)) {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": errRateLimited.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) isTrusted(ip net.IP) bool {
	if ip == nil {
		return false
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for _, n := range rl.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// clientAddr walks X-Forwarded-For from the right, skipping trusted hops,
// and stops at the first address a trusted proxy vouched for.
func (rl *RateLimiter) clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !rl.isTrusted(net.ParseIP(host)) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !rl.isTrusted(net.ParseIP(hop)) {
			return hop
		}
		host = hop
	}
	return host
}
