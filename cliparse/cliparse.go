// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/securecookie"

	"github.com/danielhkuo/postboard/auth"
	"github.com/danielhkuo/postboard/views"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var (
	ErrSecretRequired = errors.New("TRACKING_SECRET required")
	ErrSecretInvalid  = errors.New("TRACKING_SECRET must be hex encoded")
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// TrackingSecret keys the tracking cookie signature. Never logged.
	TrackingSecret []byte

	CSRFBackend string
	RedisURL    string
	CSRFTTL     time.Duration

	TimeZone   string
	TimeFormat string

	AllowBlankContent      bool
	DeleteRequiresTracking bool
	MaxBodyBytes           int64

	RateLimitRPS   float64
	RateLimitBurst int
	// TrustedProxies may set X-Forwarded-For for rate limiting. Empty means
	// the connection peer is always the client.
	TrustedProxies []netip.Prefix

	IdentityHeader string
	AdminIdentity  string
	CookieSecure   bool
}

// ParseFlags reads flags, falling back to environment variables and then
// to defaults for anything not given on the command line.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("postboard", flag.ContinueOnError)

	var (
		port, dbURL, dbType                string
		secret, backend, redisURL, csrfTTL string
		zone, format                       string
		allowBlank, delTracking, maxBody   string
		rps, burst, proxies                string
		identity, admin, secure            string
	)

	// Network config (can be CLI args or env)
	fs.StringVar(&port, "p", "", "Server port")
	fs.StringVar(&dbURL, "d", "", "Database URL")
	fs.StringVar(&dbType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&secret, "secret", "", "Hex tracking secret (prefer env)")

	fs.StringVar(&backend, "csrf-backend", "", "CSRF token store (memory or redis)")
	fs.StringVar(&redisURL, "redis", "", "Redis URL for the redis CSRF backend")
	fs.StringVar(&csrfTTL, "csrf-ttl", "", "CSRF token lifetime (0 keeps tokens until used)")
	fs.StringVar(&zone, "tz", "", "Time zone for post timestamps")
	fs.StringVar(&format, "time-format", "", "strftime pattern for post timestamps")
	fs.StringVar(&allowBlank, "allow-blank", "", "Accept posts with blank content")
	fs.StringVar(&delTracking, "delete-requires-tracking", "", "Also match the tracking cookie on delete")
	fs.StringVar(&maxBody, "max-body", "", "Maximum request body size (e.g. 64KB)")
	fs.StringVar(&rps, "rate", "", "POST requests per second per client IP (0 disables)")
	fs.StringVar(&burst, "burst", "", "POST burst per client IP")
	fs.StringVar(&proxies, "trusted-proxies", "", "Comma separated proxy IPs or CIDRs allowed to set X-Forwarded-For")
	fs.StringVar(&identity, "identity-header", "", "Header carrying the authenticated user")
	fs.StringVar(&admin, "admin", "", "Identity allowed to delete any post")
	fs.StringVar(&secure, "secure-cookie", "", "Set the Secure flag on the tracking cookie")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	var err error
	if cfg.Port, err = strconv.Atoi(pick(port, "PORT", "3318")); err != nil {
		return Config{}, errors.New("invalid PORT env variable")
	}
	cfg.DatabaseURL = pick(dbURL, "DATABASE_URL", "file:postboard.db")
	cfg.DatabaseType = pick(dbType, "DATABASE_TYPE", "sqlite")

	// Secret - MUST be provided
	if cfg.TrackingSecret, err = parseSecret(pick(secret, "TRACKING_SECRET", "")); err != nil {
		return Config{}, err
	}

	cfg.CSRFBackend = pick(backend, "CSRF_BACKEND", BackendMemory)
	switch cfg.CSRFBackend {
	case BackendMemory:
	case BackendRedis:
		cfg.RedisURL = pick(redisURL, "REDIS_URL", "")
		if cfg.RedisURL == "" {
			return Config{}, errors.New("REDIS_URL required for the redis CSRF backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown CSRF_BACKEND %q", cfg.CSRFBackend)
	}
	if cfg.CSRFTTL, err = time.ParseDuration(pick(csrfTTL, "CSRF_TTL", "1h")); err != nil || cfg.CSRFTTL < 0 {
		return Config{}, errors.New("invalid CSRF_TTL")
	}

	cfg.TimeZone = pick(zone, "TIME_ZONE", views.DefaultTimeZone)
	cfg.TimeFormat = pick(format, "TIME_FORMAT", views.DefaultTimeFormat)

	if cfg.AllowBlankContent, err = strconv.ParseBool(pick(allowBlank, "ALLOW_BLANK_CONTENT", "false")); err != nil {
		return Config{}, errors.New("invalid ALLOW_BLANK_CONTENT")
	}
	if cfg.DeleteRequiresTracking, err = strconv.ParseBool(pick(delTracking, "DELETE_REQUIRES_TRACKING", "false")); err != nil {
		return Config{}, errors.New("invalid DELETE_REQUIRES_TRACKING")
	}

	size, err := humanize.ParseBytes(pick(maxBody, "MAX_BODY_SIZE", "64KB"))
	if err != nil || size == 0 {
		return Config{}, errors.New("invalid MAX_BODY_SIZE")
	}
	cfg.MaxBodyBytes = int64(size)

	if cfg.RateLimitRPS, err = strconv.ParseFloat(pick(rps, "RATE_LIMIT_RPS", "5"), 64); err != nil || cfg.RateLimitRPS < 0 {
		return Config{}, errors.New("invalid RATE_LIMIT_RPS")
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(pick(burst, "RATE_LIMIT_BURST", "10")); err != nil || cfg.RateLimitBurst < 0 {
		return Config{}, errors.New("invalid RATE_LIMIT_BURST")
	}
	if cfg.TrustedProxies, err = parseProxies(pick(proxies, "TRUSTED_PROXIES", "")); err != nil {
		return Config{}, err
	}

	cfg.IdentityHeader = pick(identity, "IDENTITY_HEADER", "X-Remote-User")
	cfg.AdminIdentity = pick(admin, "ADMIN_IDENTITY", "admin")
	if cfg.CookieSecure, err = strconv.ParseBool(pick(secure, "COOKIE_SECURE", "false")); err != nil {
		return Config{}, errors.New("invalid COOKIE_SECURE")
	}

	return cfg, nil
}

// pick returns the flag value, else the env variable, else def.
func pick(flagValue, env, def string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	return def
}

// parseProxies reads a comma separated list of CIDRs. A bare address is
// taken as a single host.
func parseProxies(s string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.Contains(field, "/") {
			prefix, err := netip.ParsePrefix(field)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q", field)
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(field)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q", field)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func parseSecret(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("%w (for example TRACKING_SECRET=%s)", ErrSecretRequired, suggestSecret())
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w (for example TRACKING_SECRET=%s)", ErrSecretInvalid, suggestSecret())
	}
	if len(key) < auth.MinSecretLen {
		return nil, fmt.Errorf("%w (for example TRACKING_SECRET=%s)", auth.ErrSecretTooShort, suggestSecret())
	}
	return key, nil
}

func suggestSecret() string {
	return hex.EncodeToString(securecookie.GenerateRandomKey(auth.MinSecretLen))
}
