package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
)

const (
	listenErrorTemplateConstant     = "listen on %s: %w"
	serveErrorTemplateConstant      = "serve http: %w"
	shutdownErrorTemplateConstant   = "shutdown http server: %w"
	serverListeningMessage          = "http server listening"
	serverStoppingMessage           = "http server stopping"
	serverStoppedMessage            = "http server stopped"
	logFieldListenAddressConstant   = "listen_address"
	logFieldShutdownTimeoutConstant = "shutdown_timeout"
)

// Server runs an HTTP handler until its context ends.
type Server struct {
	configuration Configuration
	handler       http.Handler
	logger        *zap.Logger
}

// NewServer applies the listener configuration to handler.
func NewServer(configuration Configuration, handler http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{configuration: configuration.Sanitize(), handler: handler, logger: logger}
}

// ListenAndServe binds the configured address and serves until runContext is cancelled,
// then drains in-flight requests within the shutdown timeout.
func (server *Server) ListenAndServe(runContext context.Context) error {
	listener, listenError := net.Listen("tcp", server.configuration.ListenAddress)
	if listenError != nil {
		return fmt.Errorf(listenErrorTemplateConstant, server.configuration.ListenAddress, listenError)
	}
	return server.Serve(runContext, listener)
}

// Serve accepts connections on listener until runContext is cancelled.
func (server *Server) Serve(runContext context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           server.handler,
		ReadHeaderTimeout: server.configuration.ReadHeaderTimeout,
		ReadTimeout:       server.configuration.ReadTimeout,
		WriteTimeout:      server.configuration.WriteTimeout,
		IdleTimeout:       server.configuration.IdleTimeout,
		ErrorLog:          zap.NewStdLog(server.logger),
	}

	serveResult := make(chan error, 1)
	go func() {
		serveResult <- httpServer.Serve(listener)
	}()

	server.logger.Info(serverListeningMessage, zap.String(logFieldListenAddressConstant, listener.Addr().String()))

	select {
	case serveError := <-serveResult:
		if errors.Is(serveError, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf(serveErrorTemplateConstant, serveError)
	case <-runContext.Done():
	}

	server.logger.Info(serverStoppingMessage, zap.Duration(logFieldShutdownTimeoutConstant, server.configuration.ShutdownTimeout))
	shutdownContext, cancel := context.WithTimeout(context.WithoutCancel(runContext), server.configuration.ShutdownTimeout)
	defer cancel()

	if shutdownError := httpServer.Shutdown(shutdownContext); shutdownError != nil {
		return fmt.Errorf(shutdownErrorTemplateConstant, shutdownError)
	}
	if serveError := <-serveResult; serveError != nil && !errors.Is(serveError, http.ErrServerClosed) {
		return fmt.Errorf(serveErrorTemplateConstant, serveError)
	}

	server.logger.Info(serverStoppedMessage)
	return nil
}
