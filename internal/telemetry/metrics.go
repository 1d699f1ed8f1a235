package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters is the set of runtime replication counters the update loop
// updates every tick: running totals of packets sent/received/dropped
// and bytes in/out, which are never reset, plus the latest per-session
// RTT and resend count.
type Counters struct {
	PacketsSent     uint64
	PacketsReceived uint64
	PacketsDropped  uint64
	BytesSent       uint64
	BytesReceived   uint64

	mu         sync.Mutex
	sessionRTT map[int]float64
	resends    map[int]uint64
}

func NewCounters() *Counters {
	return &Counters{sessionRTT: make(map[int]float64), resends: make(map[int]uint64)}
}

func (c *Counters) AddSent(bytes int) {
	atomic.AddUint64(&c.PacketsSent, 1)
	atomic.AddUint64(&c.BytesSent, uint64(bytes))
}

func (c *Counters) AddReceived(bytes int) {
	atomic.AddUint64(&c.PacketsReceived, 1)
	atomic.AddUint64(&c.BytesReceived, uint64(bytes))
}

func (c *Counters) AddDropped() { atomic.AddUint64(&c.PacketsDropped, 1) }

func (c *Counters) SetSessionRTT(clientID int, rtt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionRTT[clientID] = rtt
}

func (c *Counters) SetSessionResends(clientID int, resends uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resends[clientID] = resends
}

func (c *Counters) ClearSession(clientID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessionRTT, clientID)
	delete(c.resends, clientID)
}

// Collector is a prometheus.Collector reading a Counters value live at
// scrape time, grounded in
// runZeroInc-conniver/pkg/exporter and runZeroInc-sockstats/pkg/
// exporter's Collect-reads-live-state pattern rather than accumulating
// its own shadow copy.
type Collector struct {
	counters *Counters

	packetsSent     *prometheus.Desc
	packetsReceived *prometheus.Desc
	packetsDropped  *prometheus.Desc
	bytesSent       *prometheus.Desc
	bytesReceived   *prometheus.Desc
	sessionRTT      *prometheus.Desc
	sessionResends  *prometheus.Desc
}

func NewCollector(counters *Counters) *Collector {
	return &Collector{
		counters:        counters,
		packetsSent:     prometheus.NewDesc("deceiver_net_packets_sent_total", "Total datagrams sent.", nil, nil),
		packetsReceived: prometheus.NewDesc("deceiver_net_packets_received_total", "Total datagrams received.", nil, nil),
		packetsDropped:  prometheus.NewDesc("deceiver_net_packets_dropped_total", "Total datagrams dropped (checksum mismatch, sequence gap, unknown sender).", nil, nil),
		bytesSent:       prometheus.NewDesc("deceiver_net_bytes_sent_total", "Total bytes sent.", nil, nil),
		bytesReceived:   prometheus.NewDesc("deceiver_net_bytes_received_total", "Total bytes received.", nil, nil),
		sessionRTT:      prometheus.NewDesc("deceiver_net_session_rtt_seconds", "Smoothed round-trip time for one client session.", []string{"client_id"}, nil),
		sessionResends:  prometheus.NewDesc("deceiver_net_session_resends_total", "Total reliable-message resends for one client session.", []string{"client_id"}, nil),
	}
}

func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- c.packetsSent
	descs <- c.packetsReceived
	descs <- c.packetsDropped
	descs <- c.bytesSent
	descs <- c.bytesReceived
	descs <- c.sessionRTT
	descs <- c.sessionResends
}

func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	metrics <- prometheus.MustNewConstMetric(c.packetsSent, prometheus.CounterValue, float64(atomic.LoadUint64(&c.counters.PacketsSent)))
	metrics <- prometheus.MustNewConstMetric(c.packetsReceived, prometheus.CounterValue, float64(atomic.LoadUint64(&c.counters.PacketsReceived)))
	metrics <- prometheus.MustNewConstMetric(c.packetsDropped, prometheus.CounterValue, float64(atomic.LoadUint64(&c.counters.PacketsDropped)))
	metrics <- prometheus.MustNewConstMetric(c.bytesSent, prometheus.CounterValue, float64(atomic.LoadUint64(&c.counters.BytesSent)))
	metrics <- prometheus.MustNewConstMetric(c.bytesReceived, prometheus.CounterValue, float64(atomic.LoadUint64(&c.counters.BytesReceived)))

	c.counters.mu.Lock()
	defer c.counters.mu.Unlock()
	for clientID, rtt := range c.counters.sessionRTT {
		metrics <- prometheus.MustNewConstMetric(c.sessionRTT, prometheus.GaugeValue, rtt, fmt.Sprint(clientID))
	}
	for clientID, resends := range c.counters.resends {
		metrics <- prometheus.MustNewConstMetric(c.sessionResends, prometheus.CounterValue, float64(resends), fmt.Sprint(clientID))
	}
}

// ServeMetrics starts a small net/http listener exposing /metrics on
// addr, stopping when ctx is cancelled (spec.md §4.12's "served over
// /metrics").
func ServeMetrics(ctx context.Context, addr string, collector *Collector) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return fmt.Errorf("telemetry: register collector: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("telemetry: metrics server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
