package httpapi

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader carries the request identifier on requests and responses.
	RequestIDHeader = "X-Request-ID"

	requestIDContextKeyConstant    = "request_id"
	maximumRequestIDLengthConstant = 128
	accessLogMessageConstant       = "http request"
	logFieldRequestIDConstant      = "request_id"
	logFieldMethodConstant         = "method"
	logFieldPathConstant           = "path"
	logFieldStatusConstant         = "status"
	logFieldDurationConstant       = "duration"
	logFieldClientAddressConstant  = "client_ip"
	logFieldResponseSizeConstant   = "response_size"
	logFieldErrorsConstant         = "errors"
)

func requestIdentifierMiddleware() gin.HandlerFunc {
	return func(ginContext *gin.Context) {
		requestIdentifier := strings.TrimSpace(ginContext.GetHeader(RequestIDHeader))
		if len(requestIdentifier) == 0 || len(requestIdentifier) > maximumRequestIDLengthConstant {
			requestIdentifier = uuid.NewString()
		}
		ginContext.Set(requestIDContextKeyConstant, requestIdentifier)
		ginContext.Header(RequestIDHeader, requestIdentifier)
		ginContext.Next()
	}
}

func accessLogMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(ginContext *gin.Context) {
		startedAt := time.Now()
		ginContext.Next()

		fields := []zap.Field{
			zap.String(logFieldRequestIDConstant, ginContext.GetString(requestIDContextKeyConstant)),
			zap.String(logFieldMethodConstant, ginContext.Request.Method),
			zap.String(logFieldPathConstant, ginContext.Request.URL.Path),
			zap.Int(logFieldStatusConstant, ginContext.Writer.Status()),
			zap.Duration(logFieldDurationConstant, time.Since(startedAt)),
			zap.String(logFieldClientAddressConstant, ginContext.ClientIP()),
			zap.Int(logFieldResponseSizeConstant, ginContext.Writer.Size()),
		}
		if len(ginContext.Errors) > 0 {
			fields = append(fields, zap.String(logFieldErrorsConstant, ginContext.Errors.String()))
		}

		switch status := ginContext.Writer.Status(); {
		case status >= 500:
			logger.Error(accessLogMessageConstant, fields...)
		case status >= 400:
			logger.Warn(accessLogMessageConstant, fields...)
		default:
			logger.Info(accessLogMessageConstant, fields...)
		}
	}
}

func requestLogger(ginContext *gin.Context, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String(logFieldRequestIDConstant, ginContext.GetString(requestIDContextKeyConstant)))
}
