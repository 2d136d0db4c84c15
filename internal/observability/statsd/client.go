package statsd

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/target/zenithflow/config"
)

// ServiceTag is attached to every metric emitted by a client built from config.
const ServiceTag = "zenithflow"

const dialTimeout = 5 * time.Second

// Sink receives counters, gauges and timings. *Client implements it; tests
// substitute recorders.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// Config describes how to reach a StatsD agent.
type Config struct {
	Enabled    bool
	Address    string
	Prefix     string
	Logger     *slog.Logger
	GlobalTags map[string]string
}

// Client writes StatsD lines with DogStatsD-style tags over UDP. A nil,
// disabled or closed Client drops metrics silently.
type Client struct {
	prefix string
	tags   map[string]string
	logger *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

var _ Sink = (*Client)(nil)

// metric types of the line protocol.
const (
	typeCounter = "c"
	typeGauge   = "g"
	typeTiming  = "ms"
)

// NewClient dials address when metrics are enabled. An enabled config with a
// blank address yields a disabled client.
func NewClient(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		prefix: metricPath(cfg.Prefix),
		tags:   cleanTags(cfg.GlobalTags),
		logger: logger.With("component", "statsd"),
	}

	address := strings.TrimSpace(cfg.Address)
	if !cfg.Enabled || address == "" {
		return c, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", address, err)
	}
	c.conn = conn
	return c, nil
}

// FromConfig builds a client from the application metrics settings. A
// disabled configuration yields a client that drops every metric.
func FromConfig(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) (*Client, error) {
	return NewClient(Config{
		Enabled:    cfg.IsEnabled(),
		Address:    cfg.StatsdAddress,
		Prefix:     cfg.Prefix,
		Logger:     logger,
		GlobalTags: map[string]string{"service": ServiceTag},
	})
}

// Enabled reports whether metrics are being sent.
func (c *Client) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Count adds value to a counter.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	c.send(name, strconv.FormatInt(value, 10), typeCounter, tags)
}

// Gauge sets a gauge to value.
func (c *Client) Gauge(name string, value float64, tags map[string]string) {
	c.send(name, strconv.FormatFloat(value, 'f', -1, 64), typeGauge, tags)
}

// Timing records a duration in milliseconds.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	ms := float64(value) / float64(time.Millisecond)
	c.send(name, strconv.FormatFloat(ms, 'f', -1, 64), typeTiming, tags)
}

// Close drops the connection; later metrics are discarded. Safe to repeat.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) send(name, value, metricType string, tags map[string]string) {
	if c == nil {
		return
	}
	line, ok := formatLine(c.prefix, name, value, metricType, c.tags, tags)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		c.logger.Debug("statsd write failed", "metric", name, "error", err)
	}
}

// formatLine renders "prefix.name:value|type|#k:v,...". It reports false when
// name is empty after normalization.
func formatLine(prefix, name, value, metricType string, global, local map[string]string) (string, bool) {
	metric := metricPath(name)
	if metric == "" {
		return "", false
	}
	if prefix != "" {
		metric = prefix + "." + metric
	}

	var b strings.Builder
	b.WriteString(metric)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteByte('|')
	b.WriteString(metricType)
	b.WriteString(renderTags(global, local))
	return b.String(), true
}

var pathReplacer = strings.NewReplacer(" ", "_", "/", "_")

// metricPath trims s, replaces spaces and slashes with underscores and drops
// empty dot-separated segments.
func metricPath(s string) string {
	s = pathReplacer.Replace(strings.TrimSpace(s))
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '.' })
	return strings.Join(parts, ".")
}

// renderTags merges local over global and renders them sorted by key.
func renderTags(global, local map[string]string) string {
	merged := cleanTags(global)
	maps.Copy(merged, cleanTags(local))
	if len(merged) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(merged))
	for _, k := range slices.Sorted(maps.Keys(merged)) {
		pairs = append(pairs, k+":"+merged[k])
	}
	return "|#" + strings.Join(pairs, ",")
}

// cleanTags copies tags with keys and values trimmed, dropping empty keys.
func cleanTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if key := strings.TrimSpace(k); key != "" {
			out[key] = strings.TrimSpace(v)
		}
	}
	return out
}
