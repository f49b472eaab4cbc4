package handler

import (
	"context"
	_ "embed"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

//go:embed ratelim.lua
var luaScript string

var script = redis.NewScript(luaScript)

type Rule struct {
	Key    string
	Limit  int
	Window time.Duration
}

// CheckAtomic reports whether every rule still admits one more request,
// consuming one unit of each only when all do.
func (h *Handler) CheckAtomic(ctx context.Context, rdb *redis.Client, rules []Rule) (bool, error) {
	keys := make([]string, 0, len(rules))
	args := make([]interface{}, 0, len(rules)*2)

	for _, r := range rules {
		keys = append(keys, r.Key)
		args = append(args, r.Limit, int(r.Window.Seconds()))
	}

	res, err := script.Run(ctx, rdb, keys, args...).Int()
	if err != nil {
		return false, err
	}

	return res == 1, nil
}

// rateLimit caps the security API per client IP and per principal.
func (h *Handler) rateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := h.Config.RateLimit
		if !cfg.Enabled || h.RDB == nil {
			next(w, r)
			return
		}

		rules := []Rule{{
			Key:    "rate:ip:security:" + clientIP(r.RemoteAddr),
			Limit:  cfg.Limit,
			Window: cfg.WindowSize,
		}}
		if user := userFrom(r.Context()); user.IsAuth {
			rules = append(rules, Rule{
				Key:    "rate:user:security:" + strconv.Itoa(user.Id),
				Limit:  cfg.Limit,
				Window: cfg.WindowSize,
			})
		}

		allowed, err := h.CheckAtomic(r.Context(), h.RDB, rules)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("rate limiter unavailable")
			h.writeError(w, http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable")
			return
		}
		if !allowed {
			h.Metrics.IncRateLimited()
			w.Header().Set("Retry-After", strconv.Itoa(int(cfg.WindowSize.Seconds())))
			h.writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next(w, r)
	}
}

func clientIP(remoteAddr string) string {
	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return ip
}
