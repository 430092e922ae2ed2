package metric

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/blueis/internal/storage"
)

// StatsSource provides storage statistics.
type StatsSource interface {
	Stats(ctx context.Context) (*storage.Stats, error)
}

// StorageCollector reports storage statistics at scrape time.
type StorageCollector struct {
	src     StatsSource
	timeout time.Duration
	logger  *slog.Logger

	lists    *prometheus.Desc
	elements *prometheus.Desc
	size     *prometheus.Desc
	up       *prometheus.Desc
}

// NewStorageCollector creates a collector reading from src.
func NewStorageCollector(src StatsSource, logger *slog.Logger) *StorageCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageCollector{
		src:     src,
		timeout: 5 * time.Second,
		logger:  logger,
		lists: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "storage", "lists"),
			"Number of non-empty lists.", nil, nil),
		elements: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "storage", "elements"),
			"Total number of list elements.", nil, nil),
		size: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "storage", "file_size_bytes"),
			"Database file size including the WAL file.", nil, nil),
		up: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "storage", "up"),
			"Whether the last statistics query succeeded.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StorageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.lists
	ch <- c.elements
	ch <- c.size
	ch <- c.up
}

// Collect implements prometheus.Collector.
func (c *StorageCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	st, err := c.src.Stats(ctx)
	if err != nil {
		c.logger.Warn("collect storage stats failed", "error", err)
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.lists, prometheus.GaugeValue, float64(st.Lists))
	ch <- prometheus.MustNewConstMetric(c.elements, prometheus.GaugeValue, float64(st.Elements))
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(st.FileSize))
}
