package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets a default Cache-Control on GET responses that
// did not set one. Resolution answers are stable for the geospatial cache
// lifetime, so shared caches may keep them for a few minutes.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}

		path := c.Path()
		var ttl string
		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "no-cache"
		case path == "/metrics":
			ttl = "no-cache"
		case strings.HasPrefix(path, "/v1/enrichments"):
			ttl = "no-cache"
		case strings.HasPrefix(path, "/v1/highway-points"):
			ttl = "public, max-age=3600"
		case strings.HasPrefix(path, "/v1/location-info"),
			path == "/v1/address-info",
			path == "/v1/address",
			path == "/v1/highway",
			path == "/v1/landmarks":
			ttl = "public, max-age=300"
		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}
