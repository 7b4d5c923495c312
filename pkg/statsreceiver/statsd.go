// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package statsreceiver

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	statsd "github.com/smira/go-statsd"

	"github.com/snowplow-devops/identity-router/pkg/models"
)

// StatsDStatsReceiver holds a new client for writing statistics to a StatsD server
type StatsDStatsReceiver struct {
	client *statsd.Client
}

// NewStatsDStatsReceiver creates a new client for writing metrics to StatsD
func NewStatsDStatsReceiver(address string, prefix string, tagsRaw string, tagsMapClient map[string]string) (*StatsDStatsReceiver, error) {
	tagsMap := map[string]string{}
	if tagsRaw != "" {
		err := json.Unmarshal([]byte(tagsRaw), &tagsMap)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to unmarshall STATSD_TAGS to map")
		}
	}

	var tags []statsd.Tag
	for key, value := range tagsMap {
		tags = append(tags, statsd.StringTag(key, value))
	}
	for key, value := range tagsMapClient {
		tags = append(tags, statsd.StringTag(key, value))
	}

	client := statsd.NewClient(address,
		statsd.MaxPacketSize(1400),
		statsd.MetricPrefix(fmt.Sprintf("%s.", prefix)),
		statsd.TagStyle(statsd.TagFormatDatadog),
		statsd.DefaultTags(tags...),
		statsd.ReconnectInterval(60*time.Second),
	)

	return &StatsDStatsReceiver{
		client: client,
	}, nil
}

// Send emits the bufferred metrics to the receiver
func (s *StatsDStatsReceiver) Send(b *models.ObserverBuffer) {
	s.client.Incr("invocations", b.Invocations)
	s.client.Incr("records_total", b.RecordsTotal)
	s.client.Incr("records_malformed", b.RecordsMalformed)
	s.client.Incr("records_dead_lettered", b.RecordsDeadLettered)
	s.client.Incr("events_enriched", b.EventsEnriched)
	s.client.Incr("events_passthrough", b.EventsPassthrough)
	s.client.Incr("store_calls", b.StoreCalls)
	s.client.Incr("store_sent", b.StoreSent)
	s.client.Incr("store_failed", b.StoreFailed)
	s.client.Incr("queue_calls", b.QueueCalls)
	s.client.Incr("queue_sent", b.QueueSent)
	s.client.Incr("queue_failed", b.QueueFailed)
	s.client.PrecisionTiming("latency_processing_max", b.MaxProcLatency)
	s.client.PrecisionTiming("latency_message_max", b.MaxMsgLatency)
	s.client.PrecisionTiming("latency_store_request", b.StoreRequestLatency)
	s.client.PrecisionTiming("latency_queue_request", b.QueueRequestLatency)
}

// Close flushes anything still buffered and closes the connection
func (s *StatsDStatsReceiver) Close() error {
	return s.client.Close()
}
