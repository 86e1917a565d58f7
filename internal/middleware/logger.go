package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xyz-asif/habitstreak/internal/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

type LoggerConfig struct {
	LogRequestBody bool
	MaxBodySize    int64 // bytes of request body to capture
	SkipPaths      []string
}

func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		LogRequestBody: false,
		MaxBodySize:    2048,
		SkipPaths:      []string{"/health"},
	}
}

func Logger() gin.HandlerFunc {
	return LoggerWithConfig(DefaultLoggerConfig())
}

// LoggerWithConfig tags every request with an X-Request-ID and writes one
// structured line per response.
func LoggerWithConfig(config LoggerConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header(RequestIDHeader, requestID)

		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		start := time.Now()

		var body string
		if config.LogRequestBody && c.Request.Body != nil && c.Request.ContentLength > 0 {
			if c.Request.ContentLength > config.MaxBodySize {
				body = "[too large]"
			} else if raw, err := io.ReadAll(io.LimitReader(c.Request.Body, config.MaxBodySize)); err == nil {
				c.Request.Body = io.NopCloser(bytes.NewReader(raw))
				body = redactBody(raw)
			}
		}

		c.Next()

		status := c.Writer.Status()
		keyvals := []interface{}{
			"id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start).Round(time.Microsecond),
			"ip", c.ClientIP(),
		}
		if email := c.GetString("email"); email != "" {
			keyvals = append(keyvals, "email", email)
		}
		if query := c.Request.URL.RawQuery; query != "" {
			keyvals = append(keyvals, "query", query)
		}
		if body != "" {
			keyvals = append(keyvals, "body", body)
		}
		if len(c.Errors) > 0 {
			keyvals = append(keyvals, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Errorw("request", keyvals...)
		case status >= 400:
			logger.Warnw("request", keyvals...)
		default:
			logger.Infow("request", keyvals...)
		}
	}
}

func redactBody(raw []byte) string {
	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return truncate(string(raw), 200)
	}
	out, err := json.Marshal(redact(data))
	if err != nil {
		return ""
	}
	return truncate(string(out), 500)
}

func redact(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitiveField(strings.ToLower(key)) {
				result[key] = "********"
			} else {
				result[key] = redact(value)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = redact(item)
		}
		return result
	default:
		return v
	}
}

func isSensitiveField(field string) bool {
	for _, s := range []string{"password", "token", "secret", "credential"} {
		if strings.Contains(field, s) {
			return true
		}
	}
	return false
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
