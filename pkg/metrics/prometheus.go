package metrics

// Adapted from https://github.com/zsais/go-gin-prometheus:
// - request counter + latency histogram only
// - metrics served from a dedicated listener to keep /metrics out of the
//   application access log

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var histogramBuckets = []float64{
	25, 50, 75, 100, 150, 200, 300, 400, 500,
	750, 1000, 1500, 2000,
	3000, 5000, 10000, 30000, 60000, 120000,
}

const defaultMetricPath = "/metrics"

// RequestCounterURLLabelMappingFn controls the cardinality of the "url"
// label, e.g. by mapping "/customer/alice" back to "/customer/:name".
type RequestCounterURLLabelMappingFn func(c *gin.Context) string

type Logger interface {
	Errorf(format string, v ...interface{})
}

// Prometheus instruments a gin engine with request count and latency.
type Prometheus struct {
	reqCnt        *prometheus.CounterVec
	reqDur        *prometheus.HistogramVec
	listenAddress string
	MetricsPath   string

	ReqCntURLLabelMappingFn RequestCounterURLLabelMappingFn

	logger Logger
}

type NewPrometheusOptions struct {
	Subsystem               string
	MetricsPath             string
	ReqCntURLLabelMappingFn func(c *gin.Context) string
	Logger                  Logger
}

func NewPrometheus(options NewPrometheusOptions) *Prometheus {
	p := &Prometheus{
		MetricsPath: options.MetricsPath,
		logger:      options.Logger,
	}
	if p.MetricsPath == "" {
		p.MetricsPath = defaultMetricPath
	}
	if options.ReqCntURLLabelMappingFn != nil {
		p.ReqCntURLLabelMappingFn = options.ReqCntURLLabelMappingFn
	} else {
		p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
			return c.Request.URL.Path
		}
	}

	p.reqCnt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: options.Subsystem,
		Name:      "req_total",
		Help:      "How many HTTP requests processed, partitioned by status code, method and URL.",
	}, []string{"code", "method", "url"})
	p.reqDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: options.Subsystem,
		Name:      "req_dur_ms",
		Help:      "The HTTP request latencies in milliseconds.",
		Buckets:   histogramBuckets,
	}, []string{"code", "method", "url"})

	for name, c := range map[string]prometheus.Collector{"req_total": p.reqCnt, "req_dur_ms": p.reqDur} {
		if err := prometheus.Register(c); err != nil && p.logger != nil {
			p.logger.Errorf("%s could not be registered in Prometheus, err=%v", name, err)
		}
	}
	return p
}

// SetListenAddress exposes metrics on a separate address instead of the
// instrumented engine.
func (p *Prometheus) SetListenAddress(address string) {
	p.listenAddress = address
}

// Use adds the middleware to a gin engine and mounts the metrics endpoint.
func (p *Prometheus) Use(e *gin.Engine) {
	e.Use(p.HandlerFunc())
	if p.listenAddress != "" {
		r := gin.New()
		r.GET(p.MetricsPath, gin.WrapH(promhttp.Handler()))
		go r.Run(p.listenAddress)
		return
	}
	e.GET(p.MetricsPath, gin.WrapH(promhttp.Handler()))
}

// HandlerFunc records count and latency for every request.
func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.MetricsPath {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		elapsed := float64(time.Since(start)) / float64(time.Millisecond)
		url := p.ReqCntURLLabelMappingFn(c)

		p.reqDur.WithLabelValues(status, c.Request.Method, url).Observe(elapsed)
		p.reqCnt.WithLabelValues(status, c.Request.Method, url).Inc()
	}
}
