package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/classtable-engine/internal/models"
	"github.com/noah-isme/classtable-engine/internal/scheduler"
	appErrors "github.com/noah-isme/classtable-engine/pkg/errors"
)

type instanceLoader interface {
	Load(ctx context.Context, instanceID string) (scheduler.Instance, error)
}

type solveRunStore interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, run *models.SolveRun) error
	ListByInstance(ctx context.Context, instanceID string) ([]models.SolveRun, error)
	FindByID(ctx context.Context, id string) (*models.SolveRun, error)
	Delete(ctx context.Context, id string) error
	UpsertAssignments(ctx context.Context, exec sqlx.ExtContext, assignments []models.SolveAssignment) error
	ListAssignments(ctx context.Context, solveRunID string) ([]models.SolveAssignment, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// SolveRequest is the validated input to SolveService.Solve.
type SolveRequest struct {
	InstanceID       string `validate:"required"`
	SolutionLimit    int
	TimeLimitSeconds int
	Seed             int64
	HasSeed          bool
}

// SolveService runs the scheduling engine against a stored instance and
// caches the resulting proposal: a validated Solve step produces a
// short-lived, in-memory proposal; a separate Persist step commits it once
// the caller accepts it.
type SolveService struct {
	instances instanceLoader
	runs      solveRunStore
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	store     *proposalStore
	metrics   *SolveMetrics
	cache     *ResultCache
	cacheTTL  time.Duration
}

// SolveServiceConfig governs proposal lifetime and result-cache freshness.
type SolveServiceConfig struct {
	ProposalTTL time.Duration
	CacheTTL    time.Duration
}

// NewSolveService wires the scheduling pipeline's dependencies. cache may be
// nil, in which case every lookup is a guaranteed miss.
func NewSolveService(
	instances instanceLoader,
	runs solveRunStore,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *SolveMetrics,
	cache *ResultCache,
	cfg SolveServiceConfig,
) *SolveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &SolveService{
		instances: instances,
		runs:      runs,
		tx:        tx,
		validator: validate,
		logger:    logger,
		store:     newProposalStore(cfg.ProposalTTL),
		metrics:   metrics,
		cache:     cache,
		cacheTTL:  cfg.CacheTTL,
	}
}

// Solve loads the instance, runs scheduler.Solve, caches the outcome under a
// fresh proposal id, and returns it. It performs no persistence: call
// Persist once the caller accepts the proposal.
func (s *SolveService) Solve(ctx context.Context, req SolveRequest) (*scheduler.SolveOutcome, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solve request")
	}

	instance, err := s.instances.Load(ctx, req.InstanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "instance not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instance")
	}

	opts := scheduler.SolveOptions{
		SolutionLimit:    req.SolutionLimit,
		TimeLimitSeconds: req.TimeLimitSeconds,
		Seed:             req.Seed,
		HasSeed:          req.HasSeed,
	}

	cacheKey := s.cache.Key(req.InstanceID, opts)
	outcome, cacheErr := s.cache.Get(ctx, cacheKey)
	cached := cacheErr == nil
	if !cached {
		outcome = scheduler.Solve(instance, opts)
		s.cache.Set(ctx, cacheKey, outcome, s.cacheTTL)
	}
	s.metrics.ObserveSolve(outcome)

	s.logger.Info("solve completed",
		zap.String("instance_id", req.InstanceID),
		zap.String("status", string(outcome.Status)),
		zap.Int("candidates", len(outcome.Candidates)),
		zap.Duration("elapsed", outcome.Elapsed),
		zap.Bool("cache_hit", cached),
	)

	proposalID := uuid.NewString()
	s.store.Save(solveProposal{
		ProposalID: proposalID,
		InstanceID: req.InstanceID,
		Outcome:    outcome,
		RequestedAt: time.Now().UTC(),
	})

	return &outcome, proposalID, nil
}

// Persist commits a cached proposal's candidates as a new SolveRun version.
func (s *SolveService) Persist(ctx context.Context, proposalID string) (string, error) {
	proposal, ok := s.store.Get(proposalID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaBytes, marshalErr := json.Marshal(map[string]any{
		"candidateCount": len(proposal.Outcome.Candidates),
		"elapsedMs":      proposal.Outcome.Elapsed.Milliseconds(),
	})
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode solve metadata")
		return "", err
	}

	run := &models.SolveRun{
		InstanceID: proposal.InstanceID,
		Status:     solveRunStatus(proposal.Outcome.Status),
		Reason:     proposal.Outcome.Reason,
		Partial:    proposal.Outcome.Partial,
		ElapsedMs:  proposal.Outcome.Elapsed.Milliseconds(),
		Meta:       types.JSONText(metaBytes),
	}
	if err = s.runs.CreateVersioned(ctx, tx, run); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create solve run")
		return "", err
	}

	var rows []models.SolveAssignment
	for candidateIdx, candidate := range proposal.Outcome.Candidates {
		for _, a := range candidate.Assignments {
			rows = append(rows, models.SolveAssignment{
				SolveRunID:     run.ID,
				CandidateIndex: candidateIdx,
				ClassID:        a.ClassID,
				SubjectID:      a.SubjectID,
				TeacherID:      a.TeacherID,
				RoomID:         a.RoomID,
				Day:            a.Day,
				Period:         a.Period,
			})
		}
	}
	if err = s.runs.UpsertAssignments(ctx, tx, rows); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist solve assignments")
		return "", err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit solve transaction")
		return "", err
	}

	s.store.Delete(proposalID)
	return run.ID, nil
}

// List returns every run recorded for an instance.
func (s *SolveService) List(ctx context.Context, instanceID string) ([]models.SolveRun, error) {
	if instanceID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instanceId is required")
	}
	runs, err := s.runs.ListByInstance(ctx, instanceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list solve runs")
	}
	return runs, nil
}

// Get returns a stored run and its candidate assignments together, the
// shape GET /v1/solves/{id} needs.
func (s *SolveService) Get(ctx context.Context, runID string) (*models.SolveRun, []models.SolveAssignment, error) {
	if runID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "run id is required")
	}
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "solve run not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load solve run")
	}
	assignments, err := s.runs.ListAssignments(ctx, runID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list solve assignments")
	}
	return run, assignments, nil
}

// GetAssignments returns the stored candidate assignments for a run.
func (s *SolveService) GetAssignments(ctx context.Context, runID string) ([]models.SolveAssignment, error) {
	if runID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "run id is required")
	}
	if _, err := s.runs.FindByID(ctx, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "solve run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load solve run")
	}
	assignments, err := s.runs.ListAssignments(ctx, runID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list solve assignments")
	}
	return assignments, nil
}

// Delete removes a stored run.
func (s *SolveService) Delete(ctx context.Context, runID string) error {
	if err := s.runs.Delete(ctx, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "solve run not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete solve run")
	}
	return nil
}

func solveRunStatus(status scheduler.Status) models.SolveRunStatus {
	switch status {
	case scheduler.StatusCompleted:
		return models.SolveRunStatusCompleted
	case scheduler.StatusTimedOut:
		return models.SolveRunStatusTimedOut
	case scheduler.StatusInfeasible:
		return models.SolveRunStatusInfeasible
	case scheduler.StatusInvalidInput:
		return models.SolveRunStatusInvalidInput
	case scheduler.StatusCancelled:
		return models.SolveRunStatusCancelled
	default:
		return models.SolveRunStatusInternal
	}
}

// --- Proposal cache ---

type solveProposal struct {
	ProposalID  string
	InstanceID  string
	Outcome     scheduler.SolveOutcome
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]solveProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{ttl: ttl, items: make(map[string]solveProposal)}
}

func (s *proposalStore) Save(p solveProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[p.ProposalID] = p
}

func (s *proposalStore) Get(id string) (solveProposal, bool) {
	s.mu.RLock()
	p, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return solveProposal{}, false
	}
	if time.Since(p.RequestedAt) > s.ttl {
		s.Delete(id)
		return solveProposal{}, false
	}
	return p, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
