package handlers

import (
	goerrors "errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/crowdlens/crowdlens/internal/application/dto"
	"github.com/crowdlens/crowdlens/internal/infrastructure/monitoring"
	"github.com/crowdlens/crowdlens/pkg/constants"
	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

// RequestIDMiddleware assigns each request a request ID, honoring a
// caller-supplied X-Request-ID header.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx := constants.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// LoggingMiddleware logs each request after it completes.
func LoggingMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info(c.Request.Context(), "request processed",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		)
	}
}

// RecoveryMiddleware converts panics into a 500 response.
func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "panic recovered", goerrors.New("panic"),
					logger.Any("panic", r),
					logger.String("path", c.Request.URL.Path),
				)
				dto.SendError(c, errors.New(errors.CodeInternal, "internal server error"))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// TracingMiddleware extracts the inbound trace context and opens a server
// span around the request.
func TracingMiddleware(tm *monitoring.TracingManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tm == nil {
			c.Next()
			return
		}
		propagator := propagation.TraceContext{}
		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		ctx, span := tm.StartSpan(ctx, "HTTP "+c.Request.Method+" "+c.FullPath(),
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ctx = constants.WithTraceID(ctx, span.SpanContext().TraceID().String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
