package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/colabhq/workspace-core/internal/apperr"
	"github.com/colabhq/workspace-core/internal/config"
	"github.com/colabhq/workspace-core/internal/models"
	"github.com/colabhq/workspace-core/internal/repositories"
)

// Actor is the authenticated principal an action is attributed to.
// Only identities that passed the access guard reach this type.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// RecordParams describes one auditable action.
type RecordParams struct {
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	ResourceName *string
	Metadata     map[string]any
}

// RequestInfo carries client attribution lifted off the HTTP request.
type RequestInfo struct {
	IPAddress string
	UserAgent string
}

// AuditStore is the persistence surface the service writes and reads.
// *repositories.AuditRepo is the production implementation.
type AuditStore interface {
	Insert(ctx context.Context, entry models.AuditEntry) error
	Query(ctx context.Context, filter repositories.AuditFilter) ([]models.AuditEntry, error)
}

// AuditService owns audit entry creation. Writes are fire-and-forget:
// they run off the request path with a bounded timeout and a failed
// write is logged, never surfaced to the triggering caller.
type AuditService struct {
	store AuditStore
	cfg   *config.Config
	log   *zap.Logger

	inflight sync.WaitGroup
}

func NewAuditService(store AuditStore, cfg *config.Config, log *zap.Logger) *AuditService {
	return &AuditService{store: store, cfg: cfg, log: log}
}

// Record appends an audit entry for an action the actor already
// performed. It returns immediately; the write happens on its own
// goroutine and is abandoned (with one error log) after the configured
// timeout. Not transactional with the action it documents.
func (s *AuditService) Record(actor Actor, p RecordParams, req *RequestInfo) {
	entry := models.AuditEntry{
		UserID:       actor.ID,
		UserName:     actor.Name,
		Action:       p.Action,
		ResourceType: p.ResourceType,
		ResourceID:   p.ResourceID,
		ResourceName: p.ResourceName,
		Metadata:     p.Metadata,
		IPAddress:    "unknown",
		UserAgent:    "unknown",
	}
	if req != nil {
		if req.IPAddress != "" {
			entry.IPAddress = req.IPAddress
		}
		if req.UserAgent != "" {
			entry.UserAgent = req.UserAgent
		}
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.persist(entry)
	}()
}

func (s *AuditService) persist(entry models.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.AuditWriteTimeout)
	defer cancel()

	if err := s.store.Insert(ctx, entry); err != nil {
		s.log.Error("audit write failed",
			zap.String("action", entry.Action),
			zap.String("user_id", entry.UserID.String()),
			zap.Error(err),
		)
	}
}

// Drain blocks until in-flight writes finish. Called on shutdown.
func (s *AuditService) Drain() {
	s.inflight.Wait()
}

// Query returns audit entries newest-first. The limit is clamped to
// the configured maximum regardless of what the caller asks for.
// Callers reach this only through the audit.read / admin.access guard.
func (s *AuditService) Query(ctx context.Context, filter repositories.AuditFilter) ([]models.AuditEntry, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > s.cfg.AuditQueryMaxLimit {
		filter.Limit = s.cfg.AuditQueryMaxLimit
	}

	entries, err := s.store.Query(ctx, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.UpstreamUnavailable, "audit store unavailable", err)
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	return entries, nil
}
