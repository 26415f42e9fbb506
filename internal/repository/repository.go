package repository

import (
	"adboard/internal/domain"
	"adboard/internal/infrastructure/kv"
	"adboard/internal/infrastructure/metrics"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StorageKey namespaces the serialized collection in the key-value store.
const StorageKey = "ads_v1"

// ErrStorageRead reports a missing or unparsable stored collection.
var ErrStorageRead = errors.New("stored ads unavailable")

type AdRepository interface {
	LoadAds(ctx context.Context) ([]domain.Ad, error)
	SaveAds(ctx context.Context, ads []domain.Ad) error
}

type kvAdRepository struct {
	store   kv.Store
	metrics *metrics.StoreMetrics
	tracer  trace.Tracer
}

func NewKVAdRepository(store kv.Store, metrics *metrics.StoreMetrics) AdRepository {
	tracer := otel.Tracer("adboard/repository")
	return &kvAdRepository{
		store:   store,
		metrics: metrics,
		tracer:  tracer,
	}
}

func (r *kvAdRepository) LoadAds(ctx context.Context) ([]domain.Ad, error) {
	ctx, span := r.tracer.Start(ctx, "Repository LoadAds")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		r.metrics.OpCount.WithLabelValues("LoadAds", status).Inc()
		r.metrics.OpDuration.WithLabelValues("LoadAds", status).Observe(duration)
	}()

	raw, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			status = "not_found"
		} else {
			status = "error"
			span.RecordError(err)
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}

	var ads []domain.Ad
	if err := json.Unmarshal([]byte(raw), &ads); err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("%w: failed to decode ads: %w", ErrStorageRead, err)
	}
	if ads == nil {
		status = "error"
		return nil, fmt.Errorf("%w: stored value is not an array", ErrStorageRead)
	}

	span.SetAttributes(attribute.Int("ads.count", len(ads)))
	return ads, nil
}

func (r *kvAdRepository) SaveAds(ctx context.Context, ads []domain.Ad) error {
	ctx, span := r.tracer.Start(ctx, "Repository SaveAds")
	defer span.End()

	span.SetAttributes(attribute.Int("ads.count", len(ads)))

	startTime := time.Now()
	status := "success"

	defer func() {
		duration := time.Since(startTime).Seconds()
		r.metrics.OpCount.WithLabelValues("SaveAds", status).Inc()
		r.metrics.OpDuration.WithLabelValues("SaveAds", status).Observe(duration)
	}()

	if ads == nil {
		ads = []domain.Ad{}
	}

	adsJSON, err := json.Marshal(ads)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to encode ads: %w", err)
	}
	r.metrics.BytesSaved.Observe(float64(len(adsJSON)))

	if err := r.store.Set(ctx, StorageKey, string(adsJSON)); err != nil {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to store ads: %w", err)
	}

	return nil
}
