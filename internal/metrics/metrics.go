package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the gateway client and the
// callback dispatcher. A nil *Metrics is valid and records nothing, so the
// library stays usable without a metrics endpoint.
type Metrics struct {
	paymentsCreated     prometheus.Counter
	refundsCreated      prometheus.Counter
	gatewayErrors       prometheus.Counter
	callbacksReceived   prometheus.Counter
	callbacksDispatched *prometheus.CounterVec
	hashMismatches      prometheus.Counter
}

func New() *Metrics {
	return newWithRegisterer(prometheus.DefaultRegisterer)
}

func newWithRegisterer(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		paymentsCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "vallet_payments_created_total",
			Help: "Total number of payment links created successfully",
		}),
		refundsCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "vallet_refunds_created_total",
			Help: "Total number of refunds created successfully",
		}),
		gatewayErrors: registerCounter(registerer, prometheus.CounterOpts{
			Name: "vallet_gateway_errors_total",
			Help: "Total number of failed outbound gateway calls",
		}),
		callbacksReceived: registerCounter(registerer, prometheus.CounterOpts{
			Name: "vallet_callbacks_received_total",
			Help: "Total number of inbound payment callbacks received",
		}),
		callbacksDispatched: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "vallet_callbacks_dispatched_total",
			Help: "Total number of callbacks dispatched, by payment status",
		}, []string{"status"}),
		hashMismatches: registerCounter(registerer, prometheus.CounterOpts{
			Name: "vallet_callback_hash_mismatch_total",
			Help: "Total number of callbacks whose declared hash did not verify",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func (m *Metrics) RecordPaymentCreated() {
	if m == nil {
		return
	}
	m.paymentsCreated.Inc()
}

func (m *Metrics) RecordRefundCreated() {
	if m == nil {
		return
	}
	m.refundsCreated.Inc()
}

func (m *Metrics) RecordGatewayError() {
	if m == nil {
		return
	}
	m.gatewayErrors.Inc()
}

func (m *Metrics) RecordCallbackReceived() {
	if m == nil {
		return
	}
	m.callbacksReceived.Inc()
}

func (m *Metrics) RecordCallbackDispatched(status string) {
	if m == nil {
		return
	}
	m.callbacksDispatched.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordHashMismatch() {
	if m == nil {
		return
	}
	m.hashMismatches.Inc()
}
