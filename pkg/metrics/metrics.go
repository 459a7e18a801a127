package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

var (
	RecordStoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "record_store_ops_total", Help: "Record store operations by outcome"},
		[]string{"op", "status"},
	)
	BlobUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "blob_uploads_total", Help: "Streamed blob uploads by outcome"},
		[]string{"status"},
	)
	ChainRegistryLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "chain_registry_loads_total", Help: "Chain registry load attempts"},
		[]string{"status"},
	)
	OwnershipChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ownership_checks_total", Help: "Individual collaborator/owner contract checks"},
		[]string{"check", "status"},
	)
)

func init() {
	prometheus.MustRegister(RecordStoreOps, BlobUploads, ChainRegistryLoads, OwnershipChecks)
}

// ObserveRecordOp counts one record store operation
func ObserveRecordOp(op, status string) {
	RecordStoreOps.WithLabelValues(op, status).Inc()
}

// ObserveUpload counts one finished upload
func ObserveUpload(err error) {
	BlobUploads.WithLabelValues(statusOf(err)).Inc()
}

// ObserveRegistryLoad counts one chain registry load
func ObserveRegistryLoad(err error) {
	ChainRegistryLoads.WithLabelValues(statusOf(err)).Inc()
}

// ObserveOwnershipCheck counts one contract check made by the ownership resolver
func ObserveOwnershipCheck(check string, err error) {
	OwnershipChecks.WithLabelValues(check, statusOf(err)).Inc()
}

func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
