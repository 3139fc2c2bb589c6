// Package api serves indexed reports over HTTP: JSON listings and stats,
// rendered report pages, raw payloads and attachments.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/reportoor/pkg/config"
	"github.com/ethpandaops/reportoor/pkg/indexer"
	"github.com/ethpandaops/reportoor/pkg/indexstore"
	"github.com/ethpandaops/reportoor/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the API HTTP server lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Server = (*server)(nil)

type server struct {
	log           logrus.FieldLogger
	cfg           *config.Config
	api           *config.APIConfig
	presigner     *s3Presigner
	localServer   *localFileServer
	storageReader storage.Reader
	indexStore    indexstore.Store
	indexer       indexer.Indexer
	users         map[string]string
	httpServer    *http.Server
	wg            sync.WaitGroup
	done          chan struct{}
	stopOnce      sync.Once
}

// NewServer creates a new API server. cfg must have passed ValidateAPI.
func NewServer(
	log logrus.FieldLogger,
	cfg *config.Config,
) Server {
	return &server{
		log:  log.WithField("component", "api"),
		cfg:  cfg,
		api:  &cfg.API,
		done: make(chan struct{}),
	}
}

// Start prepares storage and indexing, then starts the HTTP server.
func (s *server) Start(ctx context.Context) error {
	if err := s.prepare(ctx); err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:              s.api.Server.Listen,
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Bind the listener synchronously so we fail fast on port conflicts.
	ln, err := net.Listen("tcp", s.api.Server.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.api.Server.Listen, err)
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.log.WithField("listen", ln.Addr().String()).
			Info("API server starting")

		if err := s.httpServer.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	// Start the background indexer AFTER the API is listening so that
	// the server is reachable while the first (potentially slow) pass runs.
	if s.indexer != nil {
		if err := s.indexer.Start(ctx); err != nil {
			return fmt.Errorf("starting indexer: %w", err)
		}
	}

	return nil
}

// prepare wires the storage backend, the file servers, the credentials and
// the index store. The indexer is created but not started.
func (s *server) prepare(ctx context.Context) error {
	switch {
	case s.api.Storage.S3.Enabled:
		presigner, err := newS3Presigner(s.log, &s.api.Storage.S3)
		if err != nil {
			return fmt.Errorf("initializing s3 presigner: %w", err)
		}

		s.presigner = presigner
		s.storageReader = storage.NewS3Reader(&s.api.Storage.S3)

		s.log.Info("S3 storage enabled")
	case s.api.Storage.Local.Enabled:
		s.localServer = newLocalFileServer(s.log, &s.api.Storage.Local)
		s.storageReader = storage.NewLocalReader(&s.api.Storage.Local)

		s.log.Info("Local storage enabled")
	default:
		return fmt.Errorf("no storage backend configured")
	}

	if s.api.Auth.Basic.Enabled {
		s.users = make(map[string]string, len(s.api.Auth.Basic.Users))
		for _, u := range s.api.Auth.Basic.Users {
			s.users[u.Username] = u.PasswordHash
		}
	}

	if s.api.Indexing.Enabled {
		if err := s.prepareIndexing(ctx); err != nil {
			return fmt.Errorf("preparing indexing: %w", err)
		}
	}

	return nil
}

// prepareIndexing opens the index store and creates the indexer without
// starting its background goroutine.
func (s *server) prepareIndexing(ctx context.Context) error {
	s.indexStore = indexstore.NewStore(s.log, &s.api.Indexing.Database)

	if err := s.indexStore.Start(ctx); err != nil {
		return fmt.Errorf("starting index store: %w", err)
	}

	s.indexer = indexer.NewIndexer(
		s.log,
		s.indexStore,
		s.storageReader,
		s.api.Indexing.Interval,
		s.api.Indexing.Concurrency,
	)

	s.log.Info("Indexing service enabled")

	return nil
}

// Stop gracefully shuts down the HTTP server, the indexer and the store.
func (s *server) Stop() error {
	s.stopOnce.Do(func() { close(s.done) })

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	s.wg.Wait()

	if s.indexer != nil {
		if err := s.indexer.Stop(); err != nil {
			s.log.WithError(err).Warn("Indexer stop error")
		}
	}

	if s.indexStore != nil {
		if err := s.indexStore.Stop(); err != nil {
			return fmt.Errorf("stopping index store: %w", err)
		}
	}

	s.log.Info("API server stopped")

	return nil
}
