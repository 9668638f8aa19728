package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "deployment_group"
	subsystem = "groupd"

	StatusOK    = "ok"
	StatusError = "error"

	LabelStatus     = "status"
	LabelStatusCode = "status_code"
	LabelMethod     = "method"
	LabelOperation  = "operation"

	OperationCreate = "create"
	OperationMerge  = "merge"
	OperationDelete = "delete"
)

func statusLabel(err error) string {
	if err == nil {
		return StatusOK
	}
	return StatusError
}

func DatabaseQuery(t time.Time, err error) {
	elapsed := time.Since(t)
	databaseQueries.With(prometheus.Labels{
		LabelStatus: statusLabel(err),
	}).Observe(elapsed.Seconds())
}

// GeoServerRequest records one request to GeoServer. A status code of zero means the
// request never got a response.
func GeoServerRequest(t time.Time, method string, statusCode int) {
	elapsed := time.Since(t)
	labels := prometheus.Labels{
		LabelMethod:     method,
		LabelStatusCode: strconv.Itoa(statusCode),
	}
	geoserverRequests.With(labels).Inc()
	geoserverLatency.With(labels).Observe(elapsed.Seconds())
}

func SyncOperation(operation string, err error) {
	syncOperations.With(prometheus.Labels{
		LabelOperation: operation,
		LabelStatus:    statusLabel(err),
	}).Inc()
}

var (
	databaseQueries = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "database_queries",
		Help:      "time to execute database queries",
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   prometheus.LinearBuckets(0.005, 0.005, 20),
	},
		[]string{
			LabelStatus,
		},
	)

	geoserverRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "geoserver_requests",
		Help:      "number of GeoServer layer group requests made",
		Namespace: namespace,
		Subsystem: subsystem,
	},
		[]string{
			LabelMethod,
			LabelStatusCode,
		},
	)

	geoserverLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:      "geoserver_request_duration",
		Help:      "time to complete GeoServer layer group requests",
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   prometheus.DefBuckets,
	},
		[]string{
			LabelMethod,
			LabelStatusCode,
		},
	)

	syncOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "sync_operations",
		Help:      "deployment group synchronization operations",
		Namespace: namespace,
		Subsystem: subsystem,
	},
		[]string{
			LabelOperation,
			LabelStatus,
		},
	)
)

func init() {
	prometheus.MustRegister(databaseQueries)
	prometheus.MustRegister(geoserverRequests)
	prometheus.MustRegister(geoserverLatency)
	prometheus.MustRegister(syncOperations)
}
