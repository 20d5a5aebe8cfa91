// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Every flag falls back to an environment variable and then to a default.
CLI flags take precedence over environment variables; main loads a .env
file before parsing.

# Settings

	-p                        PORT                      3318
	-d                        DATABASE_URL              file:postboard.db
	-t                        DATABASE_TYPE             sqlite (or postgres)
	-secret                   TRACKING_SECRET           required, hex, >= 32 bytes
	-csrf-backend             CSRF_BACKEND              memory (or redis)
	-redis                    REDIS_URL                 required for redis
	-csrf-ttl                 CSRF_TTL                  1h (0 = until used)
	-tz                       TIME_ZONE                 Asia/Tokyo
	-time-format              TIME_FORMAT               %Y年%m月%d日 %H時%M分%S秒
	-allow-blank              ALLOW_BLANK_CONTENT       false
	-delete-requires-tracking DELETE_REQUIRES_TRACKING  false
	-max-body                 MAX_BODY_SIZE             64KB
	-rate                     RATE_LIMIT_RPS            5 (0 disables)
	-burst                    RATE_LIMIT_BURST          10
	-trusted-proxies          TRUSTED_PROXIES           (none) IPs/CIDRs allowed to set X-Forwarded-For
	-identity-header          IDENTITY_HEADER           X-Remote-User
	-admin                    ADMIN_IDENTITY            admin
	-secure-cookie            COOKIE_SECURE             false

MAX_BODY_SIZE accepts human sizes ("64KB", "1 MiB").

# Validation

A missing, non-hex or short TRACKING_SECRET is an error. The message
includes a freshly generated key that can be pasted into the environment:

	TRACKING_SECRET required (for example TRACKING_SECRET=3f9a...)
*/
package cliparse
