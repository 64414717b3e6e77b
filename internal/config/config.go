package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StoreName          string        // name of the durable bookmark document (ex: "bookmarks")
	SeedFile           string        // path to the seed snippets yaml (optional, empty = seeding disabled)
	SeedReloadInterval time.Duration // interval to re-import the seed file (default: 24h)
	FlushRetryInterval time.Duration // interval to retry failed durable writes (default: 30s)

	// External analyzer
	AnalyzerURL          string        // base URL of the analysis service (ex: http://127.0.0.1:5000)
	AnalyzerStartupDelay time.Duration // wait before the first status probe (default: 5s)
	AnalyzerRetryDelay   time.Duration // wait between failed status probes (default: 3s)
	AnalyzerMaxAttempts  int           // probe attempts before giving up until the next consumer call (default: 20)

	// Clipboard watcher
	ClipboardCommand      string        // command printing clipboard text to stdout (ex: "xclip -selection clipboard -o", empty = watcher disabled)
	ClipboardPollInterval time.Duration // poll interval (default: 1s)
	ClipboardMinLength    int           // ignore captures shorter than this many characters (default: 10)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "127.0.0.1/32")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. behind a local reverse proxy)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("CLIPBOOK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("CLIPBOOK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("CLIPBOOK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("CLIPBOOK_PRETTY_LOG", true),

		// Bookmark collection
		StoreName:          getenv("CLIPBOOK_STORE_NAME", "bookmarks"),
		SeedFile:           getenv("CLIPBOOK_SEED_FILE", ""), // Optional, empty = seeding disabled
		SeedReloadInterval: mustDuration("CLIPBOOK_SEED_RELOAD_INTERVAL", 24*time.Hour),
		FlushRetryInterval: mustDuration("CLIPBOOK_FLUSH_RETRY_INTERVAL", 30*time.Second),

		// External analyzer
		AnalyzerURL:          getenv("CLIPBOOK_ANALYZER_URL", "http://127.0.0.1:5000"),
		AnalyzerStartupDelay: mustDuration("CLIPBOOK_ANALYZER_STARTUP_DELAY", 5*time.Second),
		AnalyzerRetryDelay:   mustDuration("CLIPBOOK_ANALYZER_RETRY_DELAY", 3*time.Second),
		AnalyzerMaxAttempts:  getenvInt("CLIPBOOK_ANALYZER_MAX_ATTEMPTS", 20),

		// Clipboard watcher
		ClipboardCommand:      getenv("CLIPBOOK_CLIPBOARD_CMD", ""), // Optional, empty = watcher disabled
		ClipboardPollInterval: mustDuration("CLIPBOOK_CLIPBOARD_POLL_INTERVAL", time.Second),
		ClipboardMinLength:    getenvInt("CLIPBOOK_CLIPBOARD_MIN_LEN", 10),

		// Redis settings
		RedisAddr:             getenv("CLIPBOOK_REDIS_ADDR", "localhost:6379"),
		RedisUser:             getenv("CLIPBOOK_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("CLIPBOOK_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("CLIPBOOK_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("CLIPBOOK_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("CLIPBOOK_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("CLIPBOOK_ALLOWED_CIDRS", "127.0.0.1/32,::1/128")),
		TrustProxy:   mustBool("CLIPBOOK_TRUST_PROXY", false),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: CLIPBOOK_REDIS_PASSWORD is required when CLIPBOOK_REDIS_PASSWORD_REQUIRED=true")
	}

	if cfg.AnalyzerMaxAttempts < 1 {
		panic("❌ FATAL: CLIPBOOK_ANALYZER_MAX_ATTEMPTS must be at least 1")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
