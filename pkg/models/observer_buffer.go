// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"fmt"
	"time"
)

// ObserverBuffer contains all the metrics gathered for one invocation
type ObserverBuffer struct {
	Invocations int64

	RecordsTotal        int64
	RecordsMalformed    int64
	RecordsDeadLettered int64

	EventsEnriched    int64
	EventsPassthrough int64

	StoreCalls  int64
	StoreSent   int64
	StoreFailed int64

	QueueCalls  int64
	QueueSent   int64
	QueueFailed int64

	// Delta between TimePulled and the end of dispatch
	MaxProcLatency time.Duration

	// Delta between TimeCreated and the end of dispatch
	MaxMsgLatency time.Duration

	StoreRequestLatency time.Duration
	QueueRequestLatency time.Duration
}

// AppendReport adds the outcome of a dispatch onto the buffer
func (b *ObserverBuffer) AppendReport(report *DispatchReport) {
	if report == nil {
		return
	}

	if res := report.Store; res != nil {
		b.StoreCalls += res.Calls
		b.StoreSent += res.Sent
		b.StoreFailed += res.Failed
		b.StoreRequestLatency += res.RequestLatency
	}
	if res := report.Queue; res != nil {
		b.QueueCalls += res.Calls
		b.QueueSent += res.Sent
		b.QueueFailed += res.Failed
		b.QueueRequestLatency += res.RequestLatency
	}
}

// AppendLatencies records the processing and message latencies of the given
// messages against timeOfWrite
func (b *ObserverBuffer) AppendLatencies(messages []*Message, timeOfWrite time.Time) {
	for _, msg := range messages {
		if !msg.TimePulled.IsZero() {
			if procLatency := timeOfWrite.Sub(msg.TimePulled); procLatency > b.MaxProcLatency {
				b.MaxProcLatency = procLatency
			}
		}
		if !msg.TimeCreated.IsZero() {
			if msgLatency := timeOfWrite.Sub(msg.TimeCreated); msgLatency > b.MaxMsgLatency {
				b.MaxMsgLatency = msgLatency
			}
		}
	}
}

// Append folds another buffer into this one. Counters are summed while
// latencies keep the maximum seen.
func (b *ObserverBuffer) Append(other *ObserverBuffer) {
	if other == nil {
		return
	}

	b.Invocations += other.Invocations
	b.RecordsTotal += other.RecordsTotal
	b.RecordsMalformed += other.RecordsMalformed
	b.RecordsDeadLettered += other.RecordsDeadLettered
	b.EventsEnriched += other.EventsEnriched
	b.EventsPassthrough += other.EventsPassthrough

	b.StoreCalls += other.StoreCalls
	b.StoreSent += other.StoreSent
	b.StoreFailed += other.StoreFailed
	b.QueueCalls += other.QueueCalls
	b.QueueSent += other.QueueSent
	b.QueueFailed += other.QueueFailed

	if other.MaxProcLatency > b.MaxProcLatency {
		b.MaxProcLatency = other.MaxProcLatency
	}
	if other.MaxMsgLatency > b.MaxMsgLatency {
		b.MaxMsgLatency = other.MaxMsgLatency
	}
	b.StoreRequestLatency += other.StoreRequestLatency
	b.QueueRequestLatency += other.QueueRequestLatency
}

func (b *ObserverBuffer) String() string {
	return fmt.Sprintf(
		"Invocations:%d,RecordsTotal:%d,RecordsMalformed:%d,RecordsDeadLettered:%d,EventsEnriched:%d,EventsPassthrough:%d,StoreCalls:%d,StoreSent:%d,StoreFailed:%d,QueueCalls:%d,QueueSent:%d,QueueFailed:%d,MaxProcLatency:%d,MaxMsgLatency:%d",
		b.Invocations,
		b.RecordsTotal,
		b.RecordsMalformed,
		b.RecordsDeadLettered,
		b.EventsEnriched,
		b.EventsPassthrough,
		b.StoreCalls,
		b.StoreSent,
		b.StoreFailed,
		b.QueueCalls,
		b.QueueSent,
		b.QueueFailed,
		b.MaxProcLatency.Milliseconds(),
		b.MaxMsgLatency.Milliseconds(),
	)
}
