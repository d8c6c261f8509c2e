package main

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromExporter collects metrics in Prometheus format from an offchat server.
type PromExporter struct {
	address   string
	timeout   time.Duration
	namespace string

	scraper *Scraper

	up             *prometheus.Desc
	sessionsLive   *prometheus.Desc
	sessionsTotal  *prometheus.Desc
	usersLive      *prometheus.Desc
	directMessages *prometheus.Desc
	groupMessages  *prometheus.Desc
	callsConnected *prometheus.Desc
	callsTimedOut  *prometheus.Desc
	statusesPosted *prometheus.Desc
	malloced       *prometheus.Desc
}

// NewPromExporter returns an initialized Prometheus exporter.
func NewPromExporter(server, namespace string, timeout time.Duration, scraper *Scraper) *PromExporter {
	return &PromExporter{
		address:   server,
		timeout:   timeout,
		namespace: namespace,
		scraper:   scraper,
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "up"),
			"If the offchat instance is reachable.",
			nil,
			nil,
		),
		sessionsLive: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "sessions_live_count"),
			"Number of currently active sessions.",
			nil,
			nil,
		),
		sessionsTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "sessions_total"),
			"Total number of sessions since instance start.",
			nil,
			nil,
		),
		usersLive: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "users_live_count"),
			"Number of users currently online.",
			nil,
			nil,
		),
		directMessages: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "direct_messages_total"),
			"Total number of direct messages routed.",
			nil,
			nil,
		),
		groupMessages: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "group_messages_total"),
			"Total number of group messages routed.",
			nil,
			nil,
		),
		callsConnected: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "calls_connected_total"),
			"Total number of calls successfully connected.",
			nil,
			nil,
		),
		callsTimedOut: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "calls_timed_out_total"),
			"Total number of calls dropped during establishment.",
			nil,
			nil,
		),
		statusesPosted: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "statuses_posted_total"),
			"Total number of status posts.",
			nil,
			nil,
		),
		malloced: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "malloced_bytes"),
			"Number of bytes of memory allocated and in use.",
			nil,
			nil,
		),
	}
}

// Describe describes all the metrics exported by the offchat exporter. It
// implements prometheus.Collector.
func (e *PromExporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.up
	ch <- e.sessionsLive
	ch <- e.sessionsTotal
	ch <- e.usersLive
	ch <- e.directMessages
	ch <- e.groupMessages
	ch <- e.callsConnected
	ch <- e.callsTimedOut
	ch <- e.statusesPosted
	ch <- e.malloced
}

// Collect fetches statistics from the configured offchat instance, and
// delivers them as Prometheus metrics. It implements prometheus.Collector.
func (e *PromExporter) Collect(ch chan<- prometheus.Metric) {
	up := float64(1)
	if stats, err := e.scraper.Scrape(); err != nil {
		log.Println("Failed to fetch or parse response", err)
		up = 0
	} else if err := e.parseStats(ch, stats); err != nil {
		up = 0
	}

	ch <- prometheus.MustNewConstMetric(e.up, prometheus.GaugeValue, up)
}

func (e *PromExporter) parseStats(ch chan<- prometheus.Metric, stats map[string]interface{}) error {
	return firstError(
		e.parseAndUpdate(ch, e.sessionsLive, prometheus.GaugeValue, stats, "LiveSessions"),
		e.parseAndUpdate(ch, e.sessionsTotal, prometheus.CounterValue, stats, "TotalSessions"),
		e.parseAndUpdate(ch, e.usersLive, prometheus.GaugeValue, stats, "LiveUsers"),
		e.parseAndUpdate(ch, e.directMessages, prometheus.CounterValue, stats, "DirectMessagesTotal"),
		e.parseAndUpdate(ch, e.groupMessages, prometheus.CounterValue, stats, "GroupMessagesTotal"),
		e.parseAndUpdate(ch, e.callsConnected, prometheus.CounterValue, stats, "CallsConnectedTotal"),
		e.parseAndUpdate(ch, e.callsTimedOut, prometheus.CounterValue, stats, "CallsTimedOutTotal"),
		e.parseAndUpdate(ch, e.statusesPosted, prometheus.CounterValue, stats, "StatusesPostedTotal"),
		e.parseAndUpdate(ch, e.malloced, prometheus.GaugeValue, stats, "memstats.Alloc"),
	)
}

func (e *PromExporter) parseAndUpdate(ch chan<- prometheus.Metric, desc *prometheus.Desc, valueType prometheus.ValueType,
	stats map[string]interface{}, key string) error {
	v, err := parseMetric(stats, key)
	if err != nil {
		return err
	}
	ch <- prometheus.MustNewConstMetric(desc, valueType, v)
	return nil
}

func firstError(errs ...error) error {
	for _, v := range errs {
		if v != nil {
			return v
		}
	}
	return nil
}
