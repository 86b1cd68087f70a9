package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "deskclock"

type PrometheusRecorder struct {
	forecastFetches  *prom.CounterVec
	forecastDuration prom.Histogram
	forecastAge      prom.Gauge
	timeSyncs        *prom.CounterVec
	configSaves      *prom.CounterVec
	authFailures     *prom.CounterVec
	linkUp           prom.Gauge
}

// NewPrometheusRecorder creates the collectors and registers them with reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		forecastFetches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_fetches_total",
			Help:      "Forecast requests by result",
		}, []string{"result"}),
		forecastDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_fetch_duration_seconds",
			Help:      "Duration of forecast requests",
			Buckets:   prom.DefBuckets,
		}),
		forecastAge: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "forecast_age_seconds",
			Help:      "Age of the forecast on the display, -1 when there is none",
		}),
		timeSyncs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "time_syncs_total",
			Help:      "NTP synchronisations by result",
		}, []string{"result"}),
		configSaves: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "config_saves_total",
			Help:      "Writes of the persisted configuration by result",
		}, []string{"result"}),
		authFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected control requests by path",
		}, []string{"path"}),
		linkUp: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "link_up",
			Help:      "1 while the network interface is up",
		}),
	}
	pr.forecastAge.Set(-1)
	reg.MustRegister(pr.forecastFetches, pr.forecastDuration, pr.forecastAge,
		pr.timeSyncs, pr.configSaves, pr.authFailures, pr.linkUp)
	return pr
}

func (p *PrometheusRecorder) IncForecastFetch(result ResultLabel) {
	p.forecastFetches.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveForecastFetchDuration(d time.Duration) {
	p.forecastDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetForecastAge(d time.Duration) {
	if d < 0 {
		p.forecastAge.Set(-1)
		return
	}
	p.forecastAge.Set(d.Seconds())
}

func (p *PrometheusRecorder) IncTimeSync(result ResultLabel) {
	p.timeSyncs.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncConfigSave(result ResultLabel) {
	p.configSaves.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncAuthFailure(path string) {
	p.authFailures.WithLabelValues(path).Inc()
}

func (p *PrometheusRecorder) SetLinkUp(up bool) {
	if up {
		p.linkUp.Set(1)
	} else {
		p.linkUp.Set(0)
	}
}

// HTTPHandler serves the metrics registered with reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
