package middleware

import (
	"net/url"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersMiddleware sets headers for a JSON API that is never framed
// and never renders markup. mediaSources are origins lesson media may be
// loaded from, e.g. the video CDN.
func SecurityHeadersMiddleware(mediaSources ...string) gin.HandlerFunc {
	policy := buildContentSecurityPolicy(mediaSources)
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Header("Cross-Origin-Resource-Policy", "same-site")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Header("Content-Security-Policy", policy)
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}

// buildContentSecurityPolicy allows media from the extra sources so uploaded
// lesson videos can be previewed. Sources are reduced to their origin;
// anything that is not an absolute http(s) URL is skipped.
func buildContentSecurityPolicy(mediaSources []string) string {
	media := "media-src 'self' data: blob:"
	for _, source := range mediaSources {
		if origin := originOf(source); origin != "" {
			media += " " + origin
		}
	}
	return "default-src 'none'; " + media + "; frame-ancestors 'none'; base-uri 'none'"
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
