package server

import (
	"encoding/json"
	"net/http"
	"time"

	app "csvgate/src/app"
	cfg "csvgate/src/configuration"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	loggerContextKey    = "logger"
	requestIDContextKey = "requestId"
	requestIDHeader     = "X-Request-Id"
	problemContentType  = "application/problem+json"
)

type problemDetails struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Status  int    `json:"status"`
	TraceID string `json:"traceId"`
}

// requestLogger gives every request an id and a logrus entry, and logs the outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		entry := logrus.WithFields(logrus.Fields{
			"requestId": requestID,
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
		})
		c.Set(requestIDContextKey, requestID)
		c.Set(loggerContextKey, entry)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		entry.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request handled")
	}
}

func logger(c *gin.Context) *logrus.Entry {
	if value, ok := c.Get(loggerContextKey); ok {
		if entry, ok := value.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func corsConfig(config cfg.HttpServerProperties) cors.Config {
	return cors.Config{
		AllowOrigins:     config.AllowedOrigins,
		AllowMethods:     []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Cache-Control", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// respondError maps an app error onto the response. Only the two client error
// kinds carry the provider message, everything else is an opaque problem.
func respondError(c *gin.Context, err error) {
	switch app.KindOf(err) {
	case app.AuthenticationFailed:
		logger(c).WithError(err).Info("authentication failed")
		c.String(http.StatusUnauthorized, app.MessageOf(err))
	case app.InvalidPassword:
		logger(c).WithError(err).Info("password rejected")
		c.String(http.StatusBadRequest, app.MessageOf(err))
	case app.NotFound:
		c.Status(http.StatusNotFound)
	default:
		problem(c, err)
	}
}

func problem(c *gin.Context, err error) {
	logger(c).WithError(err).Error("request failed")
	body, _ := json.Marshal(problemDetails{
		Type:    "https://tools.ietf.org/html/rfc9110#section-15.6.1",
		Title:   "An error occurred while processing your request.",
		Status:  http.StatusInternalServerError,
		TraceID: c.GetString(requestIDContextKey),
	})
	c.Data(http.StatusInternalServerError, problemContentType, body)
}

func badRequest(c *gin.Context, err error) {
	c.IndentedJSON(http.StatusBadRequest, gin.H{"message": "error", "error": err.Error()})
}
