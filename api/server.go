package api

import (
	"net/http"
	"time"

	"github.com/angelmondragon/visadesk-backend/pkg/config"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 60 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
)

// NewServer wraps the router in an http.Server bound to addr. Read limits
// leave room for multipart answer uploads.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// Addr prefers the platform PORT over the configured one.
func Addr(cfg *config.Config, platformPort string) string {
	if platformPort != "" {
		return ":" + platformPort
	}
	return ":" + cfg.App.Port
}
