// Package server exposes the printer over a small JSON HTTP API. Every
// request becomes a job on the printer host; finished jobs are written to the
// journal when one is configured.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"tomgalvin.uk/thermalprint/internal/host"
	"tomgalvin.uk/thermalprint/internal/journal"
	"tomgalvin.uk/thermalprint/internal/printer"
)

// Longest a request waits for the printer before giving up.
const jobTimeout = 2 * time.Minute

type Server struct {
	log     *slog.Logger
	host    *host.Host
	journal *journal.Repository
}

type RouterConfig struct {
	AllowedOrigins []string
	// Print requests allowed per second across all clients; there is only
	// one printer
	RequestsPerSecond float64
	Burst             int
}

// NewServer creates the API. j may be nil to run without a journal.
func NewServer(logger *slog.Logger, h *host.Host, j *journal.Repository) *Server {
	return &Server{log: logger, host: h, journal: j}
}

func (s *Server) Router(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), corsMiddleware(cfg.AllowedOrigins))

	api := r.Group("/api")
	api.GET("/status", s.getStatus)
	api.GET("/jobs", s.listJobs)
	api.GET("/jobs/:uuid", s.getJob)

	prints := api.Group("", rateLimiter(cfg.RequestsPerSecond, cfg.Burst))
	prints.POST("/text", s.printText)
	prints.POST("/feed", s.feed)
	prints.POST("/image", s.printImage)
	prints.POST("/bitmap", s.printBitmap)
	prints.POST("/label", s.printLabel)
	prints.POST("/testpage", s.testPage)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Content-Type", "Origin"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	})
}

func rateLimiter(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many print requests, try again shortly",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("Request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// run submits a print job, records it in the journal and reports the outcome.
func (s *Server) run(c *gin.Context, kind string, summary string, job host.Job) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), jobTimeout)
	defer cancel()

	var before, after printer.Status
	err := s.host.Submit(ctx, func(p *printer.Printer) error {
		before = p.Status()
		err := job(p)
		after = p.Status()
		return err
	})

	entry := journal.Job{
		Kind:      kind,
		Summary:   summary,
		Bytes:     (after.BytesWritten - before.BytesWritten) + int64(after.QueuedBytes-before.QueuedBytes),
		Estimated: after.BusyFor,
		Status:    journal.Done,
	}
	if err != nil {
		entry.Status = journal.Failed
		entry.Error = err.Error()
	}
	s.record(&entry)

	if err != nil {
		s.log.Error("Print job failed", "kind", kind, "error", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, mapJobToJson(&entry))
}

func (s *Server) record(j *journal.Job) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(j); err != nil {
		s.log.Warn("Couldn't record job", "error", err)
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, host.ErrPrinterBusy), errors.Is(err, host.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
