package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Global limits (per IP)
	GlobalAPIMax        int
	GlobalAPIExpiration time.Duration

	// Analysis limits (per IP) - each request fans out to remote sources
	AnalyzeMax        int
	AnalyzeExpiration time.Duration

	// Read endpoint limits (per IP) - history, knowledge, stats
	ReadMax        int
	ReadExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		// Global: 200/min - very generous for normal use
		GlobalAPIMax:        200,
		GlobalAPIExpiration: 1 * time.Minute,

		// Analysis: 30/min - each one may hit every capability source
		AnalyzeMax:        30,
		AnalyzeExpiration: 1 * time.Minute,

		// Reads: 120/min = 2 req/sec
		ReadMax:        120,
		ReadExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig loads config from environment variables with defaults
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	if v := os.Getenv("RATE_LIMIT_GLOBAL_API"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.GlobalAPIMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_ANALYZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.AnalyzeMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_READ"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.ReadMax = n
		}
	}

	// Development mode: more lenient limits
	if os.Getenv("ENVIRONMENT") == "development" {
		config.GlobalAPIMax = 1000
		config.AnalyzeMax = 200
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}

	return config
}

// GlobalAPIRateLimiter creates a rate limiter for all API requests
func GlobalAPIRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.GlobalAPIMax,
		Expiration: config.GlobalAPIExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Global limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please slow down.",
				"retry_after": int(config.GlobalAPIExpiration.Seconds()),
			})
		},
	})
}

// AnalyzeRateLimiter protects the analysis pipeline
func AnalyzeRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.AnalyzeMax,
		Expiration: config.AnalyzeExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "analyze:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Analysis limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many analysis requests. Please wait before scanning again.",
				"retry_after": int(config.AnalyzeExpiration.Seconds()),
			})
		},
	})
}

// ReadRateLimiter for read-only endpoints
func ReadRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.ReadMax,
		Expiration: config.ReadExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "read:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Read endpoint limit reached for IP: %s on %s", c.IP(), c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests to this endpoint.",
				"retry_after": int(config.ReadExpiration.Seconds()),
			})
		},
	})
}
