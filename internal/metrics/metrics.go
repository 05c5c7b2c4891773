// internal/metrics/metrics.go
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/modbus-sensorlink/internal/event"
	"github.com/tamzrod/modbus-sensorlink/internal/session"
)

const namespace = "sensorlink"

// Metrics holds every collector of the process.
// It satisfies the recorder interfaces of the poller, the watcher and the dispatcher.
type Metrics struct {
	cycles       prometheus.Counter
	cycleSeconds prometheus.Histogram
	readFailures *prometheus.CounterVec
	connected    prometheus.Gauge
	ports        prometheus.Gauge
	actions      *prometheus.CounterVec
	commands     *prometheus.CounterVec
	registers    *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Completed poll cycles.",
		}),
		cycleSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of a complete poll cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8),
		}),
		readFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_failures_total",
			Help:      "Register reads that aborted a poll cycle, by error kind.",
		}, []string{"kind"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while a session is polling.",
		}),
		ports: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ports",
			Help:      "Transports in the last reported snapshot.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Device actions by action and result.",
		}, []string{"action", "result"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled by the dispatcher.",
		}, []string{"command"}),
		registers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "register_value",
			Help:      "Raw value of each register in the last published frame.",
		}, []string{"offset"}),
	}

	for _, c := range []prometheus.Collector{
		m.cycles, m.cycleSeconds, m.readFailures, m.connected,
		m.ports, m.actions, m.commands, m.registers,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ---- poller ----

func (m *Metrics) CycleCompleted(d time.Duration) {
	m.cycles.Inc()
	m.cycleSeconds.Observe(d.Seconds())
}

func (m *Metrics) ReadFailed(_ uint16, kind error) {
	m.readFailures.WithLabelValues(session.KindName(kind)).Inc()
}

// ---- watcher ----

func (m *Metrics) PortsSeen(n int) { m.ports.Set(float64(n)) }

// ---- dispatcher ----

func (m *Metrics) SetConnected(on bool) {
	if on {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
	m.registers.Reset()
}

func (m *Metrics) ActionDone(tag string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.actions.WithLabelValues(tag, result).Inc()
}

func (m *Metrics) CommandHandled(name string) {
	m.commands.WithLabelValues(name).Inc()
}

// ---- frames ----

// ObserveFrame exports the raw frame, one gauge per offset.
func (m *Metrics) ObserveFrame(start uint16, frame event.Frame) {
	for i, v := range frame {
		m.registers.WithLabelValues(strconv.Itoa(int(start) + i)).Set(float64(v))
	}
}

// Sink wraps next so that every published frame is also exported.
func (m *Metrics) Sink(start uint16, next event.Sink) event.Sink {
	return event.SinkFunc(func(ctx context.Context, ev event.Event) error {
		if err := next.Emit(ctx, ev); err != nil {
			return err
		}
		if ru, ok := ev.(event.RegistersUpdated); ok {
			m.ObserveFrame(start, ru.Frame)
		}
		return nil
	})
}
