package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline counters, labeled by channel.
var (
	NotificationsAdmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notiq",
		Name:      "notifications_admitted_total",
		Help:      "Notifications accepted by the admission gate.",
	}, []string{"type"})

	NotificationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notiq",
		Name:      "notifications_rejected_total",
		Help:      "Notifications rejected at admission for exceeding quota.",
	}, []string{"type"})

	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notiq",
		Name:      "notifications_delivered_total",
		Help:      "Notifications delivered by a channel sender.",
	}, []string{"type"})

	DeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notiq",
		Name:      "delivery_failures_total",
		Help:      "Failed delivery attempts, one per attempt.",
	}, []string{"type"})

	NotificationsDead = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notiq",
		Name:      "notifications_dead_total",
		Help:      "Notifications parked as dead after exhausting retries.",
	}, []string{"type"})

	DeliveryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "notiq",
		Name:      "delivery_duration_seconds",
		Help:      "Channel sender call duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type"})
)

// Handler exposes the default Prometheus registry as a gin handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
