package metrics_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/craigwongva/pz-access/pkg/groupd/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	series:
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if labels[label.GetName()] != label.GetValue() {
					continue series
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestSyncOperation(t *testing.T) {
	const name = "deployment_group_groupd_sync_operations"

	metrics.SyncOperation(metrics.OperationMerge, nil)
	metrics.SyncOperation(metrics.OperationMerge, nil)
	metrics.SyncOperation(metrics.OperationMerge, fmt.Errorf("oops"))

	assert.Equal(t, 2.0, counterValue(t, name, map[string]string{"operation": "merge", "status": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, name, map[string]string{"operation": "merge", "status": "error"}))
}

func TestGeoServerRequest(t *testing.T) {
	const name = "deployment_group_groupd_geoserver_requests"

	metrics.GeoServerRequest(time.Now(), http.MethodPut, http.StatusOK)
	metrics.GeoServerRequest(time.Now(), http.MethodPut, 0)

	assert.Equal(t, 1.0, counterValue(t, name, map[string]string{"method": "PUT", "status_code": "200"}))
	assert.Equal(t, 1.0, counterValue(t, name, map[string]string{"method": "PUT", "status_code": "0"}))
}
