package service

import (
	"adboard/internal/domain"
	"adboard/internal/infrastructure/events"
	"adboard/internal/infrastructure/metrics"
	"adboard/internal/repository"
	"adboard/pkg/logger"
	"adboard/pkg/utils"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultPageSize = 10

type AdEvent struct {
	ID string     `json:"id"`
	Ad *domain.Ad `json:"ad,omitempty"`
}

type BoardService interface {
	Create(ctx context.Context, in domain.AdInput) (domain.Ad, error)
	Update(ctx context.Context, id string, patch domain.AdPatch) (domain.Ad, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (domain.Ad, error)
	SetQuery(ctx context.Context, query string) domain.BoardView
	SetPage(ctx context.Context, page int) domain.BoardView
	NextPage(ctx context.Context) domain.BoardView
	PrevPage(ctx context.Context) domain.BoardView
	View(ctx context.Context) domain.BoardView
}

type boardService struct {
	mu       sync.Mutex
	ads      []domain.Ad
	query    string
	page     int
	pageSize int

	repository repository.AdRepository
	publisher  events.Publisher
	metrics    *metrics.BoardMetrics
	logger     *logger.Loggers
	tracer     trace.Tracer
}

// NewBoardService loads the stored collection, falling back to the seed ads when
// nothing usable is stored. A nil publisher disables event publishing.
func NewBoardService(ctx context.Context, repository repository.AdRepository, publisher events.Publisher, metrics *metrics.BoardMetrics, loggers *logger.Loggers, pageSize int) BoardService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	s := &boardService{
		page:       1,
		pageSize:   pageSize,
		repository: repository,
		publisher:  publisher,
		metrics:    metrics,
		logger:     loggers,
		tracer:     otel.Tracer("adboard/service"),
	}
	s.load(ctx)
	return s
}

func (s *boardService) load(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "Load")
	defer span.End()

	ads, err := s.repository.LoadAds(ctx)
	if err != nil {
		s.logger.InfoLogger.Info("Using seed ads", "reason", err.Error())
		ads = seedAds()
	}
	s.ads = ads
	s.metrics.AdsTotal.Set(float64(len(ads)))
	span.SetAttributes(attribute.Int("ads.count", len(ads)))
}

func (s *boardService) observe(method, status string, startTime time.Time) {
	duration := time.Since(startTime).Seconds()
	s.metrics.MethodCount.WithLabelValues(method, status).Inc()
	s.metrics.MethodDuration.WithLabelValues(method, status).Observe(duration)
}

func (s *boardService) Create(ctx context.Context, in domain.AdInput) (domain.Ad, error) {
	ctx, span := s.tracer.Start(ctx, "Create")
	defer span.End()

	startTime := time.Now()
	status := "success"
	defer func() { s.observe("Create", status, startTime) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ad := domain.Ad{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
	}

	next := make([]domain.Ad, 0, len(s.ads)+1)
	next = append(next, ad)
	next = append(next, s.ads...)
	s.ads = next
	s.page = 1

	span.SetAttributes(
		attribute.String("ad.id", ad.ID),
		attribute.String("ad.title", ad.Title),
		attribute.Float64("ad.price", ad.Price),
	)

	if err := s.persist(ctx, events.SubjectAdCreated, AdEvent{ID: ad.ID, Ad: &ad}); err != nil {
		status = "error"
		span.RecordError(err)
		return ad, err
	}
	return ad, nil
}

func (s *boardService) Update(ctx context.Context, id string, patch domain.AdPatch) (domain.Ad, error) {
	ctx, span := s.tracer.Start(ctx, "Update")
	defer span.End()

	span.SetAttributes(attribute.String("ad.id", id))

	startTime := time.Now()
	status := "success"
	defer func() { s.observe("Update", status, startTime) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		status = "not_found"
		return domain.Ad{}, domain.ErrAdNotFound
	}

	next := make([]domain.Ad, len(s.ads))
	copy(next, s.ads)
	next[idx] = next[idx].Apply(patch)
	s.ads = next
	updated := next[idx]

	if err := s.persist(ctx, events.SubjectAdUpdated, AdEvent{ID: id, Ad: &updated}); err != nil {
		status = "error"
		span.RecordError(err)
		return updated, err
	}
	return updated, nil
}

func (s *boardService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "Delete")
	defer span.End()

	span.SetAttributes(attribute.String("ad.id", id))

	startTime := time.Now()
	status := "success"
	defer func() { s.observe("Delete", status, startTime) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		status = "not_found"
		return domain.ErrAdNotFound
	}

	next := make([]domain.Ad, 0, len(s.ads)-1)
	next = append(next, s.ads[:idx]...)
	next = append(next, s.ads[idx+1:]...)
	s.ads = next

	// Clamp against the post-removal view so the page never points past the end.
	if last := TotalPages(len(FilterAds(s.ads, s.query)), s.pageSize); s.page > last {
		s.page = last
	}

	if err := s.persist(ctx, events.SubjectAdDeleted, AdEvent{ID: id}); err != nil {
		status = "error"
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *boardService) Get(ctx context.Context, id string) (domain.Ad, error) {
	_, span := s.tracer.Start(ctx, "Get")
	defer span.End()

	span.SetAttributes(attribute.String("ad.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Ad{}, domain.ErrAdNotFound
	}
	return s.ads[idx], nil
}

func (s *boardService) SetQuery(ctx context.Context, query string) domain.BoardView {
	_, span := s.tracer.Start(ctx, "SetQuery")
	defer span.End()

	span.SetAttributes(attribute.String("board.query", query))

	startTime := time.Now()
	defer s.observe("SetQuery", "success", startTime)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.query = query
	s.page = 1
	return s.view()
}

// SetPage does not clamp. Callers keep page within [1, TotalPages].
func (s *boardService) SetPage(ctx context.Context, page int) domain.BoardView {
	_, span := s.tracer.Start(ctx, "SetPage")
	defer span.End()

	span.SetAttributes(attribute.Int("board.page", page))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.page = page
	return s.view()
}

func (s *boardService) NextPage(ctx context.Context) domain.BoardView {
	_, span := s.tracer.Start(ctx, "NextPage")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if last := TotalPages(len(FilterAds(s.ads, s.query)), s.pageSize); s.page < last {
		s.page++
	}
	return s.view()
}

func (s *boardService) PrevPage(ctx context.Context) domain.BoardView {
	_, span := s.tracer.Start(ctx, "PrevPage")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page > 1 {
		s.page--
	}
	return s.view()
}

func (s *boardService) View(ctx context.Context) domain.BoardView {
	_, span := s.tracer.Start(ctx, "View")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.view()
}

func (s *boardService) view() domain.BoardView {
	filtered := FilterAds(s.ads, s.query)
	return domain.BoardView{
		Ads:        PageSlice(filtered, s.page, s.pageSize),
		Query:      s.query,
		Page:       s.page,
		PageSize:   s.pageSize,
		TotalPages: TotalPages(len(filtered), s.pageSize),
		Filtered:   len(filtered),
		Total:      len(s.ads),
	}
}

func (s *boardService) indexOf(id string) int {
	for i := range s.ads {
		if s.ads[i].ID == id {
			return i
		}
	}
	return -1
}

// persist writes the whole collection and announces the change. Callers hold s.mu.
func (s *boardService) persist(ctx context.Context, subject string, event AdEvent) error {
	s.metrics.AdsTotal.Set(float64(len(s.ads)))

	if err := s.repository.SaveAds(ctx, s.ads); err != nil {
		s.logger.ErrorLogger.Error("Failed to persist ads", "count", len(s.ads), utils.Err(err))
		return fmt.Errorf("%w: %w", domain.ErrPersist, err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, subject, event); err != nil {
			s.logger.ErrorLogger.Error("Failed to publish ad event", "subject", subject, utils.Err(err))
		}
	}
	return nil
}
