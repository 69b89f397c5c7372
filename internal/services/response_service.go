package services

import (
	"context"
	"errors"

	"github.com/soaringjerry/Empatia/internal/logger"
)

// ResponseStore persists questionnaire outcomes. Implementations assign the record
// id and timestamp and must return *ServiceError values (PersistenceError on failure).
type ResponseStore interface {
	AppendResponse(ctx context.Context, total int, profile Profile) (int64, error)
	ListResponses(ctx context.Context) ([]ResponseRecord, error)
	ClearResponses(ctx context.Context) error
}

// SubmissionObserver is notified after a record has been committed.
type SubmissionObserver interface {
	ObserveSubmission(profile Profile)
}

// CacheInvalidator drops any derived statistics after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Submission is the result returned to a respondent.
type Submission struct {
	ID int64 `json:"id"`
	ScoreResult
}

// ResponseService hosts the submit → score → persist workflow.
type ResponseService struct {
	store    ResponseStore
	observer SubmissionObserver
	cache    CacheInvalidator
	log      logger.Logger
}

type ResponseOption func(*ResponseService)

func WithSubmissionObserver(o SubmissionObserver) ResponseOption {
	return func(s *ResponseService) { s.observer = o }
}

func WithCacheInvalidator(c CacheInvalidator) ResponseOption {
	return func(s *ResponseService) { s.cache = c }
}

func WithResponseLogger(l logger.Logger) ResponseOption {
	return func(s *ResponseService) { s.log = l }
}

func NewResponseService(store ResponseStore, opts ...ResponseOption) *ResponseService {
	s := &ResponseService{store: store, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit scores the selected option scores and appends the outcome. The totals are
// trusted as given; only the persistence step can fail.
func (s *ResponseService) Submit(ctx context.Context, responses []int) (*Submission, error) {
	if s.store == nil {
		return nil, NewPersistenceError(errors.New("response store is nil"))
	}
	res := Score(responses)
	id, err := s.store.AppendResponse(ctx, res.Total, res.Profile)
	if err != nil {
		s.log.Error(ctx, "append response", logger.Int("total", res.Total), logger.Error(err))
		return nil, NewPersistenceError(err)
	}
	if s.observer != nil {
		s.observer.ObserveSubmission(res.Profile)
	}
	s.invalidate(ctx)
	s.log.Info(ctx, "response saved", logger.Int64("id", id), logger.Int("total", res.Total), logger.String("profile", string(res.Profile)))
	return &Submission{ID: id, ScoreResult: res}, nil
}

// List returns every record, most recent first.
func (s *ResponseService) List(ctx context.Context) ([]ResponseRecord, error) {
	rs, err := s.store.ListResponses(ctx)
	if err != nil {
		s.log.Error(ctx, "list responses", logger.Error(err))
		return nil, NewPersistenceError(err)
	}
	return rs, nil
}

// ClearAll deletes every record and restarts id numbering. Administrative only.
func (s *ResponseService) ClearAll(ctx context.Context) error {
	if err := s.store.ClearResponses(ctx); err != nil {
		s.log.Error(ctx, "clear responses", logger.Error(err))
		return NewPersistenceError(err)
	}
	s.invalidate(ctx)
	s.log.Warn(ctx, "all responses cleared")
	return nil
}

func (s *ResponseService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn(ctx, "stats cache invalidate", logger.Error(err))
	}
}
