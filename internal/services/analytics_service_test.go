package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

var fixedNow = time.Date(2025, 3, 20, 15, 0, 0, 0, time.UTC)

func rec(id int64, daysAgo int, total int) ResponseRecord {
	return ResponseRecord{
		ID:        id,
		CreatedAt: fixedNow.AddDate(0, 0, -daysAgo),
		Total:     total,
		Profile:   ProfileFor(total),
	}
}

type fixedAnalyticsStore struct {
	records []ResponseRecord
	err     error
}

func (s *fixedAnalyticsStore) ListResponses(context.Context) ([]ResponseRecord, error) {
	return s.records, s.err
}

func newTestAnalytics(rs ...ResponseRecord) *AnalyticsService {
	return NewAnalyticsService(&fixedAnalyticsStore{records: rs}, WithClock(func() time.Time { return fixedNow }))
}

func TestAnalyticsAggregates(t *testing.T) {
	Convey("Given stored responses across profiles", t, func() {
		svc := newTestAnalytics(
			rec(1, 0, 12), rec(2, 0, 25), rec(3, 1, 19),
			rec(4, 1, 20), rec(5, 2, 30), rec(6, 3, 5),
		)
		ctx := context.Background()

		Convey("CountsByProfile orders by count then canonical order", func() {
			counts, err := svc.CountsByProfile(ctx)
			So(err, ShouldBeNil)
			So(counts.Total, ShouldEqual, 6)
			So(len(counts.Items), ShouldEqual, 4)
			So(counts.Items[0], ShouldResemble, ProfileCount{Profile: ProfileCautious, Count: 2})
			So(counts.Items[1], ShouldResemble, ProfileCount{Profile: ProfileActive, Count: 2})
			So(counts.Items[2], ShouldResemble, ProfileCount{Profile: ProfileOblivious, Count: 1})
			So(counts.Items[3], ShouldResemble, ProfileCount{Profile: ProfileOutOfRange, Count: 1})

			summary, err := svc.SummaryStatistics(ctx)
			So(err, ShouldBeNil)
			So(summary.Count, ShouldEqual, counts.Total)
		})

		Convey("PercentagesByProfile sums to 100", func() {
			pcts, err := svc.PercentagesByProfile(ctx)
			So(err, ShouldBeNil)
			sum := 0.0
			for _, p := range pcts {
				sum += p.Percentage
			}
			So(math.Abs(sum-100), ShouldBeLessThanOrEqualTo, 0.01*float64(len(pcts)))
			So(pcts[0].Percentage, ShouldEqual, 33.33)
			So(pcts[2].Percentage, ShouldEqual, 16.67)
		})

		Convey("SummaryStatistics reports mean, min and max", func() {
			s, err := svc.SummaryStatistics(ctx)
			So(err, ShouldBeNil)
			So(*s.MinTotal, ShouldEqual, 5)
			So(*s.MaxTotal, ShouldEqual, 30)
			So(*s.AverageTotal, ShouldAlmostEqual, 111.0/6.0, 1e-9)
		})

		Convey("ProfileStatistics mirrors the counts order", func() {
			stats, err := svc.ProfileStatistics(ctx)
			So(err, ShouldBeNil)
			So(stats[0].Profile, ShouldEqual, ProfileCautious)
			So(stats[0].MinTotal, ShouldEqual, 19)
			So(stats[0].MaxTotal, ShouldEqual, 20)
			So(stats[0].AverageTotal, ShouldEqual, 19.5)
		})

		Convey("ScoreDistribution is ascending by total", func() {
			dist, err := svc.ScoreDistribution(ctx)
			So(err, ShouldBeNil)
			So(len(dist), ShouldEqual, 6)
			So(dist[0].Total, ShouldEqual, 5)
			So(dist[5].Total, ShouldEqual, 30)
		})

		Convey("ChartSeries carries the palette", func() {
			series, err := svc.ChartSeries(ctx)
			So(err, ShouldBeNil)
			So(series.HasData, ShouldBeTrue)
			So(series.Points[0].Color, ShouldEqual, "#4ECDC4")
		})
	})

	Convey("Given no responses", t, func() {
		svc := newTestAnalytics()
		ctx := context.Background()

		Convey("percentages are empty and summary fields are absent", func() {
			pcts, err := svc.PercentagesByProfile(ctx)
			So(err, ShouldBeNil)
			So(pcts, ShouldBeEmpty)

			s, err := svc.SummaryStatistics(ctx)
			So(err, ShouldBeNil)
			So(s.Count, ShouldEqual, 0)
			So(s.AverageTotal, ShouldBeNil)
			So(s.MinTotal, ShouldBeNil)
			So(s.MaxTotal, ShouldBeNil)

			series, err := svc.ChartSeries(ctx)
			So(err, ShouldBeNil)
			So(series.HasData, ShouldBeFalse)
		})
	})
}

func TestAnalyticsUnknownLabelsSortLast(t *testing.T) {
	svc := newTestAnalytics(
		ResponseRecord{ID: 1, CreatedAt: fixedNow, Total: 12, Profile: "legado"},
		ResponseRecord{ID: 2, CreatedAt: fixedNow, Total: 12, Profile: ProfileOblivious},
	)
	counts, err := svc.CountsByProfile(context.Background())
	if err != nil {
		t.Fatalf("CountsByProfile: %v", err)
	}
	if counts.Items[0].Profile != ProfileOblivious || counts.Items[1].Profile != "legado" {
		t.Fatalf("unexpected order: %+v", counts.Items)
	}
}

func TestDailyTimeline(t *testing.T) {
	svc := newTestAnalytics(
		rec(1, 0, 12), rec(2, 0, 24),
		rec(3, 2, 18),
		rec(4, 30, 20), // first day of the window
		rec(5, 31, 20), // outside
	)
	points, err := svc.DailyTimeline(context.Background(), 30)
	if err != nil {
		t.Fatalf("DailyTimeline: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 days, got %+v", points)
	}
	if points[0].Date != "2025-03-20" || points[0].Count != 2 || points[0].AverageTotal != 18 {
		t.Fatalf("unexpected newest bucket: %+v", points[0])
	}
	if points[1].Date != "2025-03-18" || points[2].Date != "2025-02-18" {
		t.Fatalf("unexpected ordering: %+v", points)
	}
	if points[0].Profiles[ProfileOblivious] != 1 || points[0].Profiles[ProfileActive] != 1 {
		t.Fatalf("unexpected per-day profiles: %+v", points[0].Profiles)
	}

	short, err := svc.DailyTimeline(context.Background(), 1)
	if err != nil {
		t.Fatalf("DailyTimeline: %v", err)
	}
	if len(short) != 1 {
		t.Fatalf("expected only today in a 1-day window, got %+v", short)
	}
}

func TestDailyTimelineUsesLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	late := time.Date(2025, 3, 20, 1, 30, 0, 0, time.UTC) // 22:30 on the 19th in BRT
	svc := NewAnalyticsService(
		&fixedAnalyticsStore{records: []ResponseRecord{{ID: 1, CreatedAt: late, Total: 20, Profile: ProfileCautious}}},
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(loc),
	)
	points, err := svc.DailyTimeline(context.Background(), 0)
	if err != nil {
		t.Fatalf("DailyTimeline: %v", err)
	}
	if len(points) != 1 || points[0].Date != "2025-03-19" {
		t.Fatalf("expected BRT calendar date, got %+v", points)
	}
}

func TestAnalyticsSurfacesStoreFailure(t *testing.T) {
	svc := NewAnalyticsService(&fixedAnalyticsStore{err: errors.New("no such table")})
	ctx := context.Background()
	if _, err := svc.CountsByProfile(ctx); !IsCode(err, ErrorPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if _, err := svc.SummaryStatistics(ctx); !IsCode(err, ErrorPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if _, err := svc.Bundle(ctx); !IsCode(err, ErrorPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

type memStatsCache struct {
	gen     int64
	entries map[int64]*StatsBundle
	gets    int
	sets    int
}

func (c *memStatsCache) Generation(context.Context) (int64, error) { return c.gen, nil }

func (c *memStatsCache) Get(_ context.Context, gen int64) (*StatsBundle, bool, error) {
	c.gets++
	b, ok := c.entries[gen]
	return b, ok, nil
}

func (c *memStatsCache) Set(_ context.Context, gen int64, b *StatsBundle) error {
	c.sets++
	if c.entries == nil {
		c.entries = map[int64]*StatsBundle{}
	}
	c.entries[gen] = b
	return nil
}

func (c *memStatsCache) Invalidate(context.Context) error {
	c.gen++
	return nil
}

func TestBundleUsesCache(t *testing.T) {
	store := &fixedAnalyticsStore{records: []ResponseRecord{rec(1, 0, 12)}}
	cache := &memStatsCache{}
	svc := NewAnalyticsService(store, WithStatsCache(cache), WithClock(func() time.Time { return fixedNow }))

	first, err := svc.Bundle(context.Background())
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	store.records = append(store.records, rec(2, 0, 30))
	second, err := svc.Bundle(context.Background())
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if second != first || cache.sets != 1 {
		t.Fatalf("expected cached bundle, sets=%d", cache.sets)
	}
	if first.Summary.Count != 1 || len(first.Timeline) != 1 {
		t.Fatalf("unexpected bundle: %+v", first)
	}
}

// submitDuringListStore commits a submission while the first snapshot is
// being read, after the snapshot's records were already copied.
type submitDuringListStore struct {
	*stubResponseStore
	during func()
}

func (s *submitDuringListStore) ListResponses(ctx context.Context) ([]ResponseRecord, error) {
	rs, err := s.stubResponseStore.ListResponses(ctx)
	if s.during != nil {
		fn := s.during
		s.during = nil
		fn()
	}
	return rs, err
}

func TestBundleNotCachedAcrossCommittedWrite(t *testing.T) {
	ctx := context.Background()
	cache := &memStatsCache{}
	store := &submitDuringListStore{stubResponseStore: &stubResponseStore{}}
	responses := NewResponseService(store, WithCacheInvalidator(cache))
	analytics := NewAnalyticsService(store, WithStatsCache(cache), WithClock(func() time.Time { return fixedNow }))

	store.during = func() {
		if _, err := responses.Submit(ctx, []int{3, 3, 3, 3, 3, 3, 3, 3, 3, 3}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	first, err := analytics.Bundle(ctx)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if first.Summary.Count != 0 {
		t.Fatalf("first snapshot predates the write, got count %d", first.Summary.Count)
	}

	second, err := analytics.Bundle(ctx)
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	counts, _ := analytics.CountsByProfile(ctx)
	if second.Summary.Count != counts.Total || counts.Total != 1 {
		t.Fatalf("bundle count %d, committed %d", second.Summary.Count, counts.Total)
	}

	third, _ := analytics.Bundle(ctx)
	if third != second {
		t.Fatalf("bundle for the current generation was not cached")
	}
}
