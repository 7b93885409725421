package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// PointsCredited 按来源统计发放的积分
	PointsCredited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_points_credited_total",
			Help: "Points credited to users, by reason",
		},
		[]string{"reason"},
	)

	PointsDebited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_points_debited_total",
			Help: "Points debited for resource downloads",
		},
	)

	// DownloadOutcomes 按结果统计下载闸门请求
	DownloadOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_download_requests_total",
			Help: "Download gate outcomes",
		},
		[]string{"outcome"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(PointsCredited)
		prometheus.MustRegister(PointsDebited)
		prometheus.MustRegister(DownloadOutcomes)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
