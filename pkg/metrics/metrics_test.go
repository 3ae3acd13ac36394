package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// sampleSum gathers the registry and sums every sample of the named family
// whose labels include all of want.
func sampleSum(reg prometheus.Gatherer, name string, want map[string]string) float64 {
	families, err := reg.Gather()
	So(err, ShouldBeNil)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metricLoop:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metricLoop
				}
			}
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metrics are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.generation.Set(4)
				So(sampleSum(registry, "test_unit_generation", map[string]string{"env": "test"}), ShouldEqual, 4)
			})
		})

		Convey("When creating two managers on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the duplicate registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestCatalogueMetrics(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		reg := GetRegistry()

		Convey("When recording refreshes", func() {
			before := sampleSum(reg, "marquee_catalogue_refreshes_total", map[string]string{"result": ResultFailure})
			RecordRefresh(ResultFailure)
			RecordRefresh(ResultSuccess)

			Convey("Then the failure counter moves by one", func() {
				after := sampleSum(reg, "marquee_catalogue_refreshes_total", map[string]string{"result": ResultFailure})
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When updating catalogue gauges", func() {
			UpdateCatalogueSize(12, 3)
			UpdateGeneration(7)

			Convey("Then the gauges hold the last values", func() {
				So(sampleSum(reg, "marquee_catalogue_films", nil), ShouldEqual, 12)
				So(sampleSum(reg, "marquee_catalogue_companies", nil), ShouldEqual, 3)
				So(sampleSum(reg, "marquee_catalogue_generation", nil), ShouldEqual, 7)
			})
		})

		Convey("When recording cache activity", func() {
			hits := sampleSum(reg, "marquee_catalogue_listing_cache_hits_total", nil)
			misses := sampleSum(reg, "marquee_catalogue_listing_cache_misses_total", nil)
			RecordListingCacheHit()
			RecordListingCacheHit()
			RecordListingCacheMiss()
			UpdateListingCacheSize(9)

			Convey("Then hits and misses are counted separately", func() {
				So(sampleSum(reg, "marquee_catalogue_listing_cache_hits_total", nil)-hits, ShouldEqual, 2)
				So(sampleSum(reg, "marquee_catalogue_listing_cache_misses_total", nil)-misses, ShouldEqual, 1)
				So(sampleSum(reg, "marquee_catalogue_listing_cache_entries", nil), ShouldEqual, 9)
			})
		})

		Convey("When recording upstream and HTTP observations", func() {
			So(func() {
				RecordUpstreamRequest("films", "200", 12.5)
				RecordUpstreamRequest("companies", "error", 3)
				RecordRefreshDuration(20)
				RecordReviewSubmission(ResultSuccess)
				RecordHTTPRequest("films", "GET", "200")
				RecordHTTPRequestDuration("films", "GET", "200", 5.0)
				RecordErrorByComponent("upstream", "status")
				RecordErrorByType("server_error", "high")
				RecordErrorByEndpoint("refresh", "POST", "server_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)

			Convey("Then the upstream histogram has samples per endpoint", func() {
				So(sampleSum(reg, "marquee_catalogue_upstream_request_duration_milliseconds", map[string]string{"endpoint": "companies"}), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given the global metrics reconfigured at startup", t, func() {
		previous := GetRegistry()
		Configure(
			WithNamespace("cinema"),
			WithSubsystem("front"),
			WithHistogramBuckets([]float64{5, 50, 500}),
			WithConstLabels(map[string]string{"instance": "a"}),
		)
		Reset(func() { Configure() })

		Convey("When a metric is recorded", func() {
			UpdateGeneration(3)
			RecordRefreshDuration(40)

			Convey("Then it lands on the new registry under the new names", func() {
				reg := GetRegistry()
				So(reg, ShouldNotPointTo, previous)
				So(sampleSum(reg, "cinema_front_generation", map[string]string{"instance": "a"}), ShouldEqual, 3)
				So(sampleSum(reg, "cinema_front_refresh_duration_milliseconds", nil), ShouldEqual, 1)
				So(sampleSum(reg, "marquee_catalogue_generation", nil), ShouldEqual, 0)
			})
		})
	})
}
