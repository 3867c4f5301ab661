package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "guppi_data_service"

var (
	metricUnitsDecoded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "units_decoded_total",
		Help:      "Header/block units decoded, by route.",
	}, []string{"route"})
	metricBlockBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "block_bytes_decoded_total",
		Help:      "Data block bytes read and decoded.",
	})
	metricFailedRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "failed_requests_total",
		Help:      "Requests that failed while opening or decoding a capture, by status code.",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(metricUnitsDecoded, metricBlockBytes, metricFailedRequests)
}

func observeFailure(status int) {
	metricFailedRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}
