package transport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gregLibert/iot-safe/pkg/iso7816"
)

const (
	// Namespace is the Prometheus namespace of the transport metrics.
	Namespace = "iotsafe"

	// Label names
	LabelIns    = "ins"
	LabelStatus = "status"
)

// Metrics counts and times raw exchanges.
type Metrics struct {
	// Exchanges counts completed exchanges by instruction and status word.
	Exchanges *prometheus.CounterVec

	// Failures counts exchanges the carrier could not complete, by instruction.
	Failures *prometheus.CounterVec

	// Duration observes the round trip time by instruction.
	Duration *prometheus.HistogramVec

	// BytesSent and BytesReceived count raw APDU bytes.
	BytesSent     prometheus.Counter
	BytesReceived prometheus.Counter
}

// NewMetrics creates the transport metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Exchanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "apdu",
				Name:      "exchanges_total",
				Help:      "Total number of APDU exchanges by instruction and status word",
			},
			[]string{LabelIns, LabelStatus},
		),
		Failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "apdu",
				Name:      "transport_failures_total",
				Help:      "Total number of APDU exchanges that did not complete, by instruction",
			},
			[]string{LabelIns},
		),
		Duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "apdu",
				Name:      "exchange_duration_seconds",
				Help:      "Duration of APDU exchanges in seconds",
				// Modems add tens of milliseconds, key generation takes seconds.
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{LabelIns},
		),
		BytesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "apdu",
			Name:      "sent_bytes_total",
			Help:      "Total number of command APDU bytes sent",
		}),
		BytesReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "apdu",
			Name:      "received_bytes_total",
			Help:      "Total number of response APDU bytes received",
		}),
	}
}

// Instrument wraps next so that its exchanges are recorded in m.
func (m *Metrics) Instrument(next iso7816.Transmitter) iso7816.Transmitter {
	return &instrumented{next: next, m: m}
}

type instrumented struct {
	next iso7816.Transmitter
	m    *Metrics
}

func (i *instrumented) Transmit(cmd []byte) ([]byte, error) {
	ins := insLabel(cmd)
	start := time.Now()
	resp, err := i.next.Transmit(cmd)
	i.m.Duration.WithLabelValues(ins).Observe(time.Since(start).Seconds())
	i.m.BytesSent.Add(float64(len(cmd)))

	if err != nil {
		i.m.Failures.WithLabelValues(ins).Inc()
		return nil, err
	}
	i.m.BytesReceived.Add(float64(len(resp)))
	i.m.Exchanges.WithLabelValues(ins, swLabel(resp)).Inc()
	return resp, nil
}
