package metric

import "github.com/prometheus/client_golang/prometheus"

// Stats is a point-in-time snapshot of server state that is only readable
// on the event loop.
type Stats struct {
	Keys          int
	PendingTasks  int
	Connections   int
	QueuedReplies int
}

// Collector exposes Stats at scrape time.
type Collector struct {
	snapshot func() (Stats, bool)

	keys          *prometheus.Desc
	pendingTasks  *prometheus.Desc
	queuedReplies *prometheus.Desc
}

// NewCollector creates a collector. snapshot returns false when the server
// could not produce stats (for example while shutting down); nothing is
// reported for that scrape.
func NewCollector(snapshot func() (Stats, bool)) *Collector {
	return &Collector{
		snapshot: snapshot,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keys"),
			"Number of keys in the database.", nil, nil),
		pendingTasks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "tasks_pending"),
			"Number of armed scheduled tasks.", nil, nil),
		queuedReplies: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "replies_queued"),
			"Reply values waiting to be written across all connections.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.pendingTasks
	ch <- c.queuedReplies
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s, ok := c.snapshot()
	if !ok {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(s.Keys))
	ch <- prometheus.MustNewConstMetric(c.pendingTasks, prometheus.GaugeValue, float64(s.PendingTasks))
	ch <- prometheus.MustNewConstMetric(c.queuedReplies, prometheus.GaugeValue, float64(s.QueuedReplies))
}
