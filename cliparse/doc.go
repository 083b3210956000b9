// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

main loads a .env file with godotenv before calling it, so local settings
can live next to the binary.

# CLI Flags

	-p                    Server port
	-d                    Database URL
	-t                    Database type (postgres or sqlite)
	-nats                 NATS server URL
	-jwt-secret           JWT signing secret
	-bootstrap-superadmin Email promoted to superadmin at startup
	-log-level            debug, info, warn or error

# Environment Variables

	PORT                        → -p (default 3318)
	DATABASE_URL                → -d
	DATABASE_TYPE               → -t (default postgres)
	JWT_SECRET                  → -jwt-secret
	NATS_URL                    → -nats
	BOOTSTRAP_SUPERADMIN_EMAIL  → -bootstrap-superadmin
	LOG_LEVEL                   → -log-level (default info)
	TOKEN_TTL                   default 24h
	BCRYPT_COST                 default 12
	SCHEDULER_INTERVAL          default 10s
	RESULTS_CACHE_TTL           default 5m, 0 disables the cache
	SHUTDOWN_TIMEOUT            default 30s
	EVENT_SUBJECT_PREFIX        default "elections"

CLI flags take precedence over environment variables. Durations use
time.ParseDuration syntax.

# Validation

ParseFlags returns an error if DATABASE_URL or JWT_SECRET is missing, or if
a numeric or duration value does not parse.
*/
package cliparse
