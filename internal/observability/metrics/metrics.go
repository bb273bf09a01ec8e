package metrics

import "github.com/prometheus/client_golang/prometheus"

// InvoicingMetrics exposes counters/histograms for invoice issuance.
type InvoicingMetrics struct {
	issuedTotal      *prometheus.CounterVec
	allocateFailures *prometheus.CounterVec
	allocateLatency  prometheus.Histogram
}

func NewInvoicingMetrics(reg prometheus.Registerer) *InvoicingMetrics {
	m := &InvoicingMetrics{
		issuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicops",
			Subsystem: "invoicing",
			Name:      "issued_total",
			Help:      "Total invoices issued",
		}, []string{"partition"}),
		allocateFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicops",
			Subsystem: "invoicing",
			Name:      "allocate_failures_total",
			Help:      "Invoice number allocations that failed",
		}, []string{"reason"}),
		allocateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicops",
			Subsystem: "invoicing",
			Name:      "create_latency_seconds",
			Help:      "Latency of invoice creation including number allocation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.issuedTotal, m.allocateFailures, m.allocateLatency)
	return m
}

func (m *InvoicingMetrics) ObserveIssued(partition string) {
	if m == nil {
		return
	}
	m.issuedTotal.WithLabelValues(partition).Inc()
}

func (m *InvoicingMetrics) ObserveFailure(reason string) {
	if m == nil {
		return
	}
	m.allocateFailures.WithLabelValues(reason).Inc()
}

func (m *InvoicingMetrics) ObserveCreateLatency(seconds float64) {
	if m == nil {
		return
	}
	m.allocateLatency.Observe(seconds)
}

// HTTPMetrics counts requests by route and status class.
type HTTPMetrics struct {
	requestsTotal *prometheus.CounterVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicops",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal)
	return m
}

func (m *HTTPMetrics) ObserveRequest(method, status string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, status).Inc()
}
