package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/soaringjerry/Empatia/internal/logger"
)

const DefaultTimelineDays = 30

type AnalyticsStore interface {
	ListResponses(ctx context.Context) ([]ResponseRecord, error)
}

// StatsCache holds a computed Bundle between writes. Entries are keyed by a
// generation that every invalidation advances, so a bundle built from a
// snapshot taken before a committed write lands under a retired generation
// and is never served. Get reports ok=false on a miss.
type StatsCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64) (*StatsBundle, bool, error)
	Set(ctx context.Context, gen int64, b *StatsBundle) error
}

type ProfileCount struct {
	Profile Profile `json:"profile" yaml:"profile"`
	Count   int     `json:"count" yaml:"count"`
}

type ProfileCounts struct {
	Items []ProfileCount `json:"profiles" yaml:"profiles"`
	Total int            `json:"total" yaml:"total"`
}

type ProfilePercentage struct {
	Profile    Profile `json:"profile" yaml:"profile"`
	Count      int     `json:"count" yaml:"count"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// Summary reports nil numeric fields when there is no data, so "no records" is
// distinguishable from records that sum to zero.
type Summary struct {
	Count        int      `json:"count" yaml:"count"`
	AverageTotal *float64 `json:"average_total" yaml:"average_total"`
	MinTotal     *int     `json:"min_total" yaml:"min_total"`
	MaxTotal     *int     `json:"max_total" yaml:"max_total"`
}

type ProfileStats struct {
	Profile      Profile `json:"profile" yaml:"profile"`
	Count        int     `json:"count" yaml:"count"`
	AverageTotal float64 `json:"average_total" yaml:"average_total"`
	MinTotal     int     `json:"min_total" yaml:"min_total"`
	MaxTotal     int     `json:"max_total" yaml:"max_total"`
}

type TimelinePoint struct {
	Date         string          `json:"date" yaml:"date"`
	Count        int             `json:"count" yaml:"count"`
	AverageTotal float64         `json:"average_total" yaml:"average_total"`
	Profiles     map[Profile]int `json:"profiles" yaml:"profiles"`
}

type DistributionPoint struct {
	Total   int     `json:"total" yaml:"total"`
	Profile Profile `json:"profile" yaml:"profile"`
	Count   int     `json:"count" yaml:"count"`
}

type ChartPoint struct {
	Label      Profile `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// ChartSeries feeds an external chart renderer. HasData=false is the "awaiting
// submissions" placeholder state.
type ChartSeries struct {
	HasData bool         `json:"has_data"`
	Points  []ChartPoint `json:"points"`
}

// StatsBundle is every aggregate computed over one snapshot.
type StatsBundle struct {
	GeneratedAt  time.Time           `json:"generated_at" yaml:"generated_at"`
	Summary      Summary             `json:"summary" yaml:"summary"`
	Profiles     []ProfileStats      `json:"profiles" yaml:"profiles"`
	Percentages  []ProfilePercentage `json:"percentages" yaml:"percentages"`
	Timeline     []TimelinePoint     `json:"timeline" yaml:"timeline"`
	Distribution []DistributionPoint `json:"distribution" yaml:"distribution"`
}

type AnalyticsService struct {
	store        AnalyticsStore
	cache        StatsCache
	log          logger.Logger
	now          func() time.Time
	loc          *time.Location
	timelineDays int
}

type AnalyticsOption func(*AnalyticsService)

func WithStatsCache(c StatsCache) AnalyticsOption {
	return func(s *AnalyticsService) { s.cache = c }
}

func WithAnalyticsLogger(l logger.Logger) AnalyticsOption {
	return func(s *AnalyticsService) { s.log = l }
}

// WithLocation sets the zone used to cut records into calendar days.
func WithLocation(loc *time.Location) AnalyticsOption {
	return func(s *AnalyticsService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) AnalyticsOption {
	return func(s *AnalyticsService) { s.now = now }
}

func WithTimelineDays(days int) AnalyticsOption {
	return func(s *AnalyticsService) {
		if days > 0 {
			s.timelineDays = days
		}
	}
}

func NewAnalyticsService(store AnalyticsStore, opts ...AnalyticsOption) *AnalyticsService {
	s := &AnalyticsService{
		store:        store,
		log:          logger.Nop(),
		now:          time.Now,
		loc:          time.UTC,
		timelineDays: DefaultTimelineDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AnalyticsService) snapshot(ctx context.Context) ([]ResponseRecord, error) {
	rs, err := s.store.ListResponses(ctx)
	if err != nil {
		s.log.Error(ctx, "analytics snapshot", logger.Error(err))
		return nil, NewPersistenceError(err)
	}
	return rs, nil
}

func (s *AnalyticsService) CountsByProfile(ctx context.Context) (*ProfileCounts, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return countProfiles(rs), nil
}

func (s *AnalyticsService) PercentagesByProfile(ctx context.Context) ([]ProfilePercentage, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return percentages(countProfiles(rs)), nil
}

func (s *AnalyticsService) SummaryStatistics(ctx context.Context) (*Summary, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sum := summarize(rs)
	return &sum, nil
}

// DailyTimeline buckets records by calendar date over the trailing windowDays
// (windowDays <= 0 uses the configured default), most recent date first.
func (s *AnalyticsService) DailyTimeline(ctx context.Context, windowDays int) ([]TimelinePoint, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		windowDays = s.timelineDays
	}
	return buildTimeline(rs, s.now().In(s.loc), windowDays), nil
}

func (s *AnalyticsService) ScoreDistribution(ctx context.Context) ([]DistributionPoint, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return distribution(rs), nil
}

func (s *AnalyticsService) ProfileStatistics(ctx context.Context) ([]ProfileStats, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return profileStats(rs), nil
}

func (s *AnalyticsService) ChartSeries(ctx context.Context) (*ChartSeries, error) {
	rs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	pcts := percentages(countProfiles(rs))
	out := &ChartSeries{HasData: len(pcts) > 0, Points: make([]ChartPoint, 0, len(pcts))}
	for _, p := range pcts {
		out.Points = append(out.Points, ChartPoint{Label: p.Profile, Count: p.Count, Percentage: p.Percentage, Color: p.Profile.Color()})
	}
	return out, nil
}

// Bundle computes every aggregate from a single snapshot, serving from the
// cache when one is configured.
func (s *AnalyticsService) Bundle(ctx context.Context) (*StatsBundle, error) {
	gen, cached := int64(0), s.cache != nil
	if cached {
		var err error
		// the generation is read before the snapshot
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.log.Warn(ctx, "stats cache generation", logger.Error(err))
			cached = false
		}
	}
	if cached {
		if b, ok, err := s.cache.Get(ctx, gen); err != nil {
			s.log.Warn(ctx, "stats cache get", logger.Error(err))
		} else if ok {
			return b, nil
		}
	}
	rs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	b := s.buildBundle(rs)
	if cached {
		if err := s.cache.Set(ctx, gen, b); err != nil {
			s.log.Warn(ctx, "stats cache set", logger.Error(err))
		}
	}
	return b, nil
}

func (s *AnalyticsService) buildBundle(rs []ResponseRecord) *StatsBundle {
	now := s.now().In(s.loc)
	return &StatsBundle{
		GeneratedAt:  now.UTC(),
		Summary:      summarize(rs),
		Profiles:     profileStats(rs),
		Percentages:  percentages(countProfiles(rs)),
		Timeline:     buildTimeline(rs, now, s.timelineDays),
		Distribution: distribution(rs),
	}
}

func sortByCountThenProfile[T any](items []T, count func(T) int, profile func(T) Profile) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := count(items[i]), count(items[j])
		if ci != cj {
			return ci > cj
		}
		pi, pj := profile(items[i]), profile(items[j])
		ri, rj := profileRank(pi), profileRank(pj)
		if ri != rj {
			return ri < rj
		}
		return pi < pj
	})
}

func countProfiles(rs []ResponseRecord) *ProfileCounts {
	counts := map[Profile]int{}
	for _, r := range rs {
		counts[r.Profile]++
	}
	items := make([]ProfileCount, 0, len(counts))
	for p, c := range counts {
		items = append(items, ProfileCount{Profile: p, Count: c})
	}
	sortByCountThenProfile(items,
		func(pc ProfileCount) int { return pc.Count },
		func(pc ProfileCount) Profile { return pc.Profile })
	return &ProfileCounts{Items: items, Total: len(rs)}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func percentages(pc *ProfileCounts) []ProfilePercentage {
	if pc.Total == 0 {
		return []ProfilePercentage{}
	}
	out := make([]ProfilePercentage, 0, len(pc.Items))
	for _, it := range pc.Items {
		out = append(out, ProfilePercentage{
			Profile:    it.Profile,
			Count:      it.Count,
			Percentage: round2(float64(it.Count) * 100 / float64(pc.Total)),
		})
	}
	return out
}

func summarize(rs []ResponseRecord) Summary {
	if len(rs) == 0 {
		return Summary{}
	}
	lo, hi, sum := rs[0].Total, rs[0].Total, 0
	for _, r := range rs {
		sum += r.Total
		if r.Total < lo {
			lo = r.Total
		}
		if r.Total > hi {
			hi = r.Total
		}
	}
	avg := float64(sum) / float64(len(rs))
	return Summary{Count: len(rs), AverageTotal: &avg, MinTotal: &lo, MaxTotal: &hi}
}

func profileStats(rs []ResponseRecord) []ProfileStats {
	type acc struct {
		count, sum, lo, hi int
	}
	accs := map[Profile]*acc{}
	for _, r := range rs {
		a := accs[r.Profile]
		if a == nil {
			a = &acc{lo: r.Total, hi: r.Total}
			accs[r.Profile] = a
		}
		a.count++
		a.sum += r.Total
		a.lo = min(a.lo, r.Total)
		a.hi = max(a.hi, r.Total)
	}
	out := make([]ProfileStats, 0, len(accs))
	for p, a := range accs {
		out = append(out, ProfileStats{
			Profile:      p,
			Count:        a.count,
			AverageTotal: float64(a.sum) / float64(a.count),
			MinTotal:     a.lo,
			MaxTotal:     a.hi,
		})
	}
	sortByCountThenProfile(out,
		func(ps ProfileStats) int { return ps.Count },
		func(ps ProfileStats) Profile { return ps.Profile })
	return out
}

func buildTimeline(rs []ResponseRecord, now time.Time, windowDays int) []TimelinePoint {
	loc := now.Location()
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -windowDays)

	type acc struct {
		count, sum int
		profiles   map[Profile]int
	}
	days := map[string]*acc{}
	for _, r := range rs {
		ts := r.CreatedAt.In(loc)
		if ts.Before(start) || ts.After(now) {
			continue
		}
		key := ts.Format("2006-01-02")
		a := days[key]
		if a == nil {
			a = &acc{profiles: map[Profile]int{}}
			days[key] = a
		}
		a.count++
		a.sum += r.Total
		a.profiles[r.Profile]++
	}
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	out := make([]TimelinePoint, 0, len(keys))
	for _, k := range keys {
		a := days[k]
		out = append(out, TimelinePoint{
			Date:         k,
			Count:        a.count,
			AverageTotal: round2(float64(a.sum) / float64(a.count)),
			Profiles:     a.profiles,
		})
	}
	return out
}

func distribution(rs []ResponseRecord) []DistributionPoint {
	type key struct {
		total   int
		profile Profile
	}
	counts := map[key]int{}
	for _, r := range rs {
		counts[key{r.Total, r.Profile}]++
	}
	out := make([]DistributionPoint, 0, len(counts))
	for k, c := range counts {
		out = append(out, DistributionPoint{Total: k.total, Profile: k.profile, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total < out[j].Total
		}
		return out[i].Profile < out[j].Profile
	})
	return out
}
