package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"adboard/internal/domain"
	"adboard/internal/infrastructure/kv"
	"adboard/internal/infrastructure/metrics"
	"adboard/internal/repository"
	"adboard/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockAdRepository struct {
	MockLoadAds func(ctx context.Context) ([]domain.Ad, error)
	MockSaveAds func(ctx context.Context, ads []domain.Ad) error

	mu    sync.Mutex
	saved [][]domain.Ad
}

func (m *MockAdRepository) LoadAds(ctx context.Context) ([]domain.Ad, error) {
	if m.MockLoadAds != nil {
		return m.MockLoadAds(ctx)
	}
	return nil, repository.ErrStorageRead
}

func (m *MockAdRepository) SaveAds(ctx context.Context, ads []domain.Ad) error {
	m.mu.Lock()
	snapshot := make([]domain.Ad, len(ads))
	copy(snapshot, ads)
	m.saved = append(m.saved, snapshot)
	m.mu.Unlock()

	if m.MockSaveAds != nil {
		return m.MockSaveAds(ctx, ads)
	}
	return nil
}

func (m *MockAdRepository) lastSaved() []domain.Ad {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

type recordingPublisher struct {
	subjects []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.subjects = append(p.subjects, subject)
	return p.err
}

func newBoard(t *testing.T, repo repository.AdRepository) (*boardService, *metrics.BoardMetrics) {
	t.Helper()
	m := metrics.NewBoardMetrics(prometheus.NewRegistry())
	svc := NewBoardService(context.Background(), repo, nil, m, logger.Discard(), DefaultPageSize)
	return svc.(*boardService), m
}

func numberedAds(n int) []domain.Ad {
	ads := make([]domain.Ad, n)
	for i := range ads {
		ads[i] = domain.Ad{
			ID:       fmt.Sprintf("ad-%02d", i+1),
			Title:    fmt.Sprintf("Item %02d", i+1),
			Price:    float64(i),
			ImageURL: "http://x/y.png",
		}
	}
	return ads
}

func withAds(ads []domain.Ad) *MockAdRepository {
	return &MockAdRepository{
		MockLoadAds: func(context.Context) ([]domain.Ad, error) { return ads, nil },
	}
}

func TestNewBoardServiceFallsBackToSeed(t *testing.T) {
	repo := &MockAdRepository{}
	svc, m := newBoard(t, repo)

	view := svc.View(context.Background())
	require.Equal(t, 3, view.Total)
	assert.Equal(t, "CRT монитор Samsung", view.Ads[0].Title)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 1, view.TotalPages)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AdsTotal))

	ids := map[string]bool{}
	for _, ad := range view.Ads {
		assert.NotEmpty(t, ad.ID)
		ids[ad.ID] = true
	}
	assert.Len(t, ids, 3)
	assert.Empty(t, repo.saved, "loading must not write")
}

func TestNewBoardServiceUsesStoredAds(t *testing.T) {
	svc, _ := newBoard(t, withAds(numberedAds(2)))

	view := svc.View(context.Background())
	assert.Equal(t, numberedAds(2), view.Ads)
}

func TestSetQueryScenario(t *testing.T) {
	svc, _ := newBoard(t, &MockAdRepository{})
	ctx := context.Background()
	svc.SetPage(ctx, 1)

	view := svc.SetQuery(ctx, "CRT")

	require.Len(t, view.Ads, 1)
	assert.Equal(t, "CRT монитор Samsung", view.Ads[0].Title)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 1, view.Filtered)
	assert.Equal(t, 3, view.Total)
}

func TestSetQueryResetsPage(t *testing.T) {
	svc, _ := newBoard(t, withAds(numberedAds(25)))
	ctx := context.Background()

	svc.SetPage(ctx, 3)
	view := svc.SetQuery(ctx, "item")

	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 3, view.TotalPages)
}

func TestFilterAds(t *testing.T) {
	ads := []domain.Ad{
		{ID: "1", Title: "Red Lamp"},
		{ID: "2", Title: "Blue chair"},
		{ID: "3", Title: "lamp shade"},
		{ID: "4", Title: "Колонки 2.1"},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3", "4"}},
		{"   ", []string{"1", "2", "3", "4"}},
		{"LAMP", []string{"1", "3"}},
		{"  lamp ", []string{"1", "3"}},
		{"колонки", []string{"4"}},
		{"sofa", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := FilterAds(ads, tt.query)
			ids := []string{}
			for _, ad := range got {
				ids = append(ids, ad.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 3, TotalPages(21, 10))
}

func TestPageSlice(t *testing.T) {
	ads := numberedAds(12)

	assert.Len(t, PageSlice(ads, 1, 10), 10)
	second := PageSlice(ads, 2, 10)
	require.Len(t, second, 2)
	assert.Equal(t, "ad-11", second[0].ID)
	assert.Empty(t, PageSlice(ads, 3, 10))
	assert.Empty(t, PageSlice(ads, 0, 10))
}

func TestCreatePrependsAndResetsPage(t *testing.T) {
	repo := withAds(numberedAds(15))
	svc, _ := newBoard(t, repo)
	ctx := context.Background()
	svc.SetPage(ctx, 2)

	ad, err := svc.Create(ctx, domain.AdInput{Title: "Lamp", ImageURL: "http://x/y.png"})
	require.NoError(t, err)

	view := svc.View(ctx)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, ad, view.Ads[0])
	assert.Equal(t, 16, view.Total)
	assert.NotEmpty(t, ad.ID)

	saved := repo.lastSaved()
	require.Len(t, saved, 16)
	assert.Equal(t, ad, saved[0])
}

func TestCreateStoresNormalizedScenario(t *testing.T) {
	repo := withAds([]domain.Ad{})
	svc, _ := newBoard(t, repo)

	ad, err := svc.Create(context.Background(), domain.AdInput{Title: "Lamp", ImageURL: "http://x/y.png"})
	require.NoError(t, err)

	assert.Equal(t, "Lamp", ad.Title)
	assert.Equal(t, "", ad.Description)
	assert.Equal(t, 0.0, ad.Price)
}

func TestUpdateMergesPatch(t *testing.T) {
	repo := withAds(numberedAds(3))
	svc, _ := newBoard(t, repo)
	ctx := context.Background()
	svc.SetPage(ctx, 1)

	price := 99.5
	updated, err := svc.Update(ctx, "ad-02", domain.AdPatch{Price: &price})
	require.NoError(t, err)

	assert.Equal(t, "Item 02", updated.Title)
	assert.Equal(t, 99.5, updated.Price)

	got, err := svc.Get(ctx, "ad-02")
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.Equal(t, updated, repo.lastSaved()[1])
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	repo := withAds(numberedAds(3))
	svc, m := newBoard(t, repo)

	title := "x"
	_, err := svc.Update(context.Background(), "missing", domain.AdPatch{Title: &title})

	assert.ErrorIs(t, err, domain.ErrAdNotFound)
	assert.Empty(t, repo.saved)
	assert.Equal(t, numberedAds(3), svc.ads)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MethodCount.WithLabelValues("Update", "not_found")))
}

func TestUpdateDoesNotAliasPreviousCollection(t *testing.T) {
	svc, _ := newBoard(t, withAds(numberedAds(2)))
	ctx := context.Background()
	before := svc.View(ctx).Ads

	title := "Changed"
	_, err := svc.Update(ctx, "ad-01", domain.AdPatch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "Item 01", before[0].Title)
}

func TestDeleteKeepsPageWhenItemsRemain(t *testing.T) {
	svc, _ := newBoard(t, withAds(numberedAds(12)))
	ctx := context.Background()
	svc.SetPage(ctx, 2)

	require.NoError(t, svc.Delete(ctx, "ad-12"))

	view := svc.View(ctx)
	assert.Equal(t, 11, view.Total)
	assert.Equal(t, 2, view.TotalPages)
	assert.Equal(t, 2, view.Page)
	require.Len(t, view.Ads, 1)
	assert.Equal(t, "ad-11", view.Ads[0].ID)
}

func TestDeleteLastItemOnLastPageClamps(t *testing.T) {
	repo := withAds(numberedAds(11))
	svc, _ := newBoard(t, repo)
	ctx := context.Background()
	svc.SetPage(ctx, 2)

	require.NoError(t, svc.Delete(ctx, "ad-11"))

	view := svc.View(ctx)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 1, view.TotalPages)
	assert.Len(t, view.Ads, 10)
	assert.Len(t, repo.lastSaved(), 10)
}

func TestDeleteClampsAgainstFilteredView(t *testing.T) {
	ads := numberedAds(30)
	for i := 0; i < 11; i++ {
		ads[i].Title = "Lamp " + ads[i].ID
	}
	svc, _ := newBoard(t, withAds(ads))
	ctx := context.Background()
	svc.SetQuery(ctx, "lamp")
	svc.SetPage(ctx, 2)

	require.NoError(t, svc.Delete(ctx, "ad-11"))

	view := svc.View(ctx)
	assert.Equal(t, 10, view.Filtered)
	assert.Equal(t, 1, view.Page)
}

func TestDeleteOutsideFilterKeepsPage(t *testing.T) {
	ads := numberedAds(30)
	for i := 0; i < 11; i++ {
		ads[i].Title = "Lamp " + ads[i].ID
	}
	svc, _ := newBoard(t, withAds(ads))
	ctx := context.Background()
	svc.SetQuery(ctx, "lamp")
	svc.SetPage(ctx, 2)

	require.NoError(t, svc.Delete(ctx, "ad-30"))

	assert.Equal(t, 2, svc.View(ctx).Page)
}

func TestDeleteEverythingLeavesPageOne(t *testing.T) {
	svc, _ := newBoard(t, withAds(numberedAds(1)))
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "ad-01"))

	view := svc.View(ctx)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 1, view.TotalPages)
	assert.Empty(t, view.Ads)
}

func TestDeleteUnknownID(t *testing.T) {
	repo := withAds(numberedAds(2))
	svc, _ := newBoard(t, repo)

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrAdNotFound)
	assert.Empty(t, repo.saved)
}

func TestNextPrevPageStayInRange(t *testing.T) {
	svc, _ := newBoard(t, withAds(numberedAds(15)))
	ctx := context.Background()

	assert.Equal(t, 1, svc.PrevPage(ctx).Page)
	assert.Equal(t, 2, svc.NextPage(ctx).Page)
	assert.Equal(t, 2, svc.NextPage(ctx).Page)
	assert.Equal(t, 1, svc.PrevPage(ctx).Page)
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	boom := errors.New("store down")
	repo := withAds(numberedAds(1))
	repo.MockSaveAds = func(context.Context, []domain.Ad) error { return boom }
	svc, m := newBoard(t, repo)

	ad, err := svc.Create(context.Background(), domain.AdInput{Title: "Lamp", ImageURL: "http://x/y.png"})

	assert.ErrorIs(t, err, domain.ErrPersist)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ad, svc.View(context.Background()).Ads[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MethodCount.WithLabelValues("Create", "error")))
}

func TestMutationsPublishEvents(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}
	m := metrics.NewBoardMetrics(prometheus.NewRegistry())
	svc := NewBoardService(context.Background(), withAds(numberedAds(2)), pub, m, logger.Discard(), DefaultPageSize)
	ctx := context.Background()

	ad, err := svc.Create(ctx, domain.AdInput{Title: "Lamp", ImageURL: "u"})
	require.NoError(t, err, "publish failures are logged, not returned")
	title := "Lamp 2"
	_, err = svc.Update(ctx, ad.ID, domain.AdPatch{Title: &title})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, ad.ID))

	assert.Equal(t, []string{"ads.created", "ads.updated", "ads.deleted"}, pub.subjects)
}

func TestRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	repo := repository.NewKVAdRepository(store, metrics.NewStoreMetrics(prometheus.NewRegistry()))
	svc, _ := newBoard(t, repo)

	created, err := svc.Create(ctx, domain.AdInput{Title: "Lamp", Description: "desk", Price: 12.5, ImageURL: "data:image/png;base64,AAAA"})
	require.NoError(t, err)
	title := "Lamp XL"
	_, err = svc.Update(ctx, created.ID, domain.AdPatch{Title: &title})
	require.NoError(t, err)
	seeded := svc.View(ctx).Ads[1]
	require.NoError(t, svc.Delete(ctx, seeded.ID))

	reloaded, _ := newBoard(t, repo)
	assert.Equal(t, svc.ads, reloaded.ads)
}
