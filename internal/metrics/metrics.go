package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tutorhub",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"service", "method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tutorhub",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service", "method", "path", "status"})

	activeRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tutorhub",
		Name:      "whiteboard_active_rooms",
		Help:      "Number of whiteboard rooms with at least one participant",
	})

	connectedParticipants = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tutorhub",
		Name:      "whiteboard_connected_participants",
		Help:      "Current number of participants across all rooms",
	})

	wsEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tutorhub",
		Name:      "whiteboard_ws_events_total",
		Help:      "Total inbound WebSocket events by frame type",
	}, []string{"type"})
)

func RoomOpened() { activeRooms.Inc() }
func RoomClosed() { activeRooms.Dec() }

func ClientJoined() { connectedParticipants.Inc() }
func ClientLeft() { connectedParticipants.Dec() }

// EventReceived counts one inbound frame of the given type.
func EventReceived(frameType string) { wsEvents.WithLabelValues(frameType).Inc() }

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack is required so the WebSocket upgrade still works behind the
// middleware.
func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("whiteboard metrics: underlying ResponseWriter does not support hijacking")
}

// Middleware records request metrics with Prometheus labels.
func Middleware(service string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rec, r)

			labels := prometheus.Labels{
				"service": service,
				"method":  r.Method,
				"path":    r.URL.Path,
				"status":  strconv.Itoa(rec.status),
			}
			httpRequests.With(labels).Inc()
			httpLatency.With(labels).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
