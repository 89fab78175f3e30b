// Package server is the privileged operator surface: issuing and revoking
// access capabilities, driving live sessions, and streaming session events
// to passive observers. Everything here sits behind the operator bearer
// token; delegated access goes through internal/gateway instead.
package server

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/clearbrook/screend/internal/events"
	"github.com/clearbrook/screend/internal/gateway"
	"github.com/clearbrook/screend/internal/session"
	"github.com/clearbrook/screend/internal/store"
)

// DefaultTokenTTL is how long an issued capability stays valid when the
// operator does not ask for a specific lifetime.
const DefaultTokenTTL = 24 * time.Hour

// ArtifactStore persists audio blobs recorded during a session.
type ArtifactStore interface {
	Put(ctx context.Context, sessionID, unitID, name string, body io.Reader, contentType string) (string, error)
}

// Server handles the operator HTTP API.
type Server struct {
	store     store.Store
	engine    *session.Engine
	artifacts ArtifactStore
	sseHub    *sseHub
	tokenTTL  time.Duration
	logger    *slog.Logger

	portal    *gateway.PortalGateway
	sessionGW *gateway.SessionGateway
}

// Options configures optional server collaborators.
type Options struct {
	// Artifacts receives uploaded audio blobs. When nil, audio upload
	// returns 503.
	Artifacts ArtifactStore
	// TokenTTL overrides DefaultTokenTTL for issued capabilities.
	TokenTTL time.Duration
	Logger   *slog.Logger
}

// New returns a Server backed by the given store and publisher.
func New(st store.Store, pub events.Publisher, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	return &Server{
		store:     st,
		engine:    session.NewEngine(st, pub),
		artifacts: opts.Artifacts,
		sseHub:    newSSEHub(),
		tokenTTL:  opts.TokenTTL,
		logger:    opts.Logger,
		portal:    gateway.NewPortalGateway(st, opts.Logger),
		sessionGW: gateway.NewSessionGateway(st, opts.Logger),
	}
}

// broadcast fans an already-persisted event out to SSE observers of one
// session. Failures only affect observer freshness.
func (s *Server) broadcast(ch events.Channel, event any) {
	if s.sseHub == nil {
		return
	}
	s.sseHub.broadcast(ch, event)
}
