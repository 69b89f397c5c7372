package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/soaringjerry/Empatia/internal/services"
)

type fakeCache struct{ hit bool }

func (fakeCache) Generation(context.Context) (int64, error) { return 0, nil }

func (f fakeCache) Get(context.Context, int64) (*services.StatsBundle, bool, error) {
	if f.hit {
		return &services.StatsBundle{}, true, nil
	}
	return nil, false, nil
}

func (fakeCache) Set(context.Context, int64, *services.StatsBundle) error { return nil }

func TestManager(t *testing.T) {
	Convey("Given a metrics manager on its own registry", t, func() {
		m := NewManager(WithNamespace("test"))

		Convey("submissions are counted by profile key", func() {
			m.ObserveSubmission(services.ProfileActive)
			m.ObserveSubmission(services.ProfileActive)
			m.ObserveSubmission(services.ProfileOutOfRange)
			m.ObserveSubmission("legado")
			So(testutil.ToFloat64(m.submissions.WithLabelValues("active")), ShouldEqual, 2)
			So(testutil.ToFloat64(m.submissions.WithLabelValues("out_of_range")), ShouldEqual, 1)
			So(testutil.ToFloat64(m.submissions.WithLabelValues("unknown")), ShouldEqual, 1)
		})

		Convey("requests are recorded per route template", func() {
			m.ObserveRequest("/api/stats", "GET", 200, 5*time.Millisecond)
			So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/stats", "GET", "200")), ShouldEqual, 1)
			So(testutil.CollectAndCount(m.httpDuration), ShouldEqual, 1)
		})

		Convey("cache lookups are split into hits and misses", func() {
			_, _, _ = m.InstrumentStatsCache(fakeCache{hit: true}).Get(context.Background(), 0)
			_, _, _ = m.InstrumentStatsCache(fakeCache{}).Get(context.Background(), 0)
			So(testutil.ToFloat64(m.statsCacheHits.WithLabelValues("hit")), ShouldEqual, 1)
			So(testutil.ToFloat64(m.statsCacheHits.WithLabelValues("miss")), ShouldEqual, 1)
		})

		Convey("the handler exposes the namespace", func() {
			m.ObserveClear()
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
			body, _ := io.ReadAll(rec.Body)
			So(strings.Contains(string(body), "test_response_clears_total 1"), ShouldBeTrue)
		})
	})
}
