package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"intent-swap/config"
)

// RequestID passes through or generates the X-Request-ID of each request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}

// RequestLogger logs every request once it has been served.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		level := logrus.InfoLevel
		if statusCode >= 400 {
			level = logrus.WarnLevel
		}
		if statusCode >= 500 {
			level = logrus.ErrorLevel
		}

		logger.WithFields(logrus.Fields{
			"request_id":  c.GetString("request_id"),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": statusCode,
			"duration_ms": time.Since(startTime).Milliseconds(),
			"client_ip":   c.ClientIP(),
		}).Log(level, "request served")
	}
}

// RateLimiter applies a token bucket per client IP
type RateLimiter struct {
	config   config.RateLimitConfig
	limiters map[string]*rate.Limiter
	mutex    sync.Mutex
	logger   *logrus.Logger
}

// NewRateLimiter creates the rate limiting middleware state
func NewRateLimiter(cfg config.RateLimitConfig, logger *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		config:   cfg,
		limiters: make(map[string]*rate.Limiter),
		logger:   logger,
	}
}

// RateLimit returns the middleware function
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.config.Enabled {
			c.Next()
			return
		}

		requestID := c.GetString("request_id")
		clientIP := c.ClientIP()

		if !rl.allow(clientIP) {
			rl.logger.Warnf("[%s] rate limit hit for %s", requestID, clientIP)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, APIResponse{
				Success: false,
				Error: &APIError{
					Code:    ErrCodeRateLimitExceeded,
					Message: "too many requests, slow down",
				},
				Timestamp: time.Now().Unix(),
				RequestID: requestID,
			})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	limiter, exists := rl.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(
			rate.Every(rl.config.Per/time.Duration(rl.config.Requests)),
			rl.config.Requests,
		)
		rl.limiters[ip] = limiter
	}

	return limiter.Allow()
}

// Recovery turns a panic into an INTERNAL_ERROR response.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := c.GetString("request_id")

				logger.WithFields(logrus.Fields{
					"request_id": requestID,
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
					"panic":      err,
				}).Error("panic while serving request")

				c.AbortWithStatusJSON(http.StatusInternalServerError, APIResponse{
					Success: false,
					Error: &APIError{
						Code:    ErrCodeInternalError,
						Message: "internal server error",
					},
					Timestamp: time.Now().Unix(),
					RequestID: requestID,
				})
			}
		}()

		c.Next()
	}
}
