package metrics

import (
	"strconv"
	"sync"
	"time"

	"clinicbook/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clinicbook"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repository_operations_total",
			Help:      "Repository operations by outcome (success, failure kind or error).",
		},
		[]string{"operation", "outcome"},
	)

	bookingsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bookings",
			Help:      "Bookings in the last persisted collection by status.",
		},
		[]string{"status"},
	)

	revenue = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "revenue",
		Help:      "Sum of completed booking prices in the last persisted collection.",
	})

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	storeDegraded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_degraded",
		Help:      "1 while the primary store is down and the fallback serves requests.",
	})
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, operations, bookingsByStatus, revenue, notifications, storeDegraded)
	})
}

// ObserveHTTP records one finished request.
func ObserveHTTP(endpoint string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveResult counts a repository call by its outcome.
func ObserveResult(operation string, res models.Result, err error) {
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case !res.Success:
		outcome = string(res.Kind)
	}
	operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveSnapshot refreshes the collection gauges. It is registered as a change listener.
func ObserveSnapshot(bookings []models.Booking) {
	counts := map[models.Status]int{
		models.StatusPending:   0,
		models.StatusConfirmed: 0,
		models.StatusCompleted: 0,
		models.StatusCancelled: 0,
	}
	var total int64
	for _, b := range bookings {
		counts[b.Status]++
		if b.Status == models.StatusCompleted {
			if v, ok := b.Price.Int(); ok {
				total += v
			}
		}
	}
	for status, n := range counts {
		if status.Valid() {
			bookingsByStatus.WithLabelValues(string(status)).Set(float64(n))
		}
	}
	revenue.Set(float64(total))
}

func ObserveDelivery(kind string, failed bool) {
	outcome := "sent"
	if failed {
		outcome = "failed"
	}
	notifications.WithLabelValues(kind, outcome).Inc()
}

func SetStoreDegraded(degraded bool) {
	if degraded {
		storeDegraded.Set(1)
		return
	}
	storeDegraded.Set(0)
}
