// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package observer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/identity-router/pkg/models"
)

// --- Test StatsReceiver

type TestStatsReceiver struct {
	mu   sync.Mutex
	sent []models.ObserverBuffer
}

func (s *TestStatsReceiver) Send(b *models.ObserverBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, *b)
}

func (s *TestStatsReceiver) Sent() []models.ObserverBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ObserverBuffer{}, s.sent...)
}

// --- Tests

func TestImmediate(t *testing.T) {
	assert := assert.New(t)

	sr := &TestStatsReceiver{}
	reporter := NewImmediate(sr)
	reporter.Report(&models.ObserverBuffer{Invocations: 1, RecordsTotal: 3})

	sent := sr.Sent()
	if assert.Equal(1, len(sent)) {
		assert.Equal(int64(3), sent[0].RecordsTotal)
	}

	// No receiver configured
	NewImmediate(nil).Report(&models.ObserverBuffer{Invocations: 1})
}

func TestObserverReport(t *testing.T) {
	assert := assert.New(t)

	sr := &TestStatsReceiver{}

	observer := New(sr, 100*time.Millisecond, 300*time.Millisecond)
	assert.NotNil(observer)
	observer.Start()

	// This does nothing
	observer.Start()

	for i := 0; i < 5; i++ {
		observer.Report(&models.ObserverBuffer{
			Invocations:   1,
			RecordsTotal:  2,
			StoreSent:     1,
			QueueSent:     1,
			MaxMsgLatency: time.Duration(i) * time.Second,
		})
	}

	// Trigger the periodic flush
	time.Sleep(600 * time.Millisecond)

	// Picked up by the final flush
	observer.Report(&models.ObserverBuffer{Invocations: 1, RecordsTotal: 1})
	observer.Stop()

	sent := sr.Sent()
	if assert.True(len(sent) >= 2) {
		assert.Equal(int64(5), sent[0].Invocations)
		assert.Equal(int64(10), sent[0].RecordsTotal)
		assert.Equal(int64(5), sent[0].StoreSent)
		assert.Equal(4*time.Second, sent[0].MaxMsgLatency)

		var invocations int64
		for _, b := range sent {
			invocations += b.Invocations
		}
		assert.Equal(int64(6), invocations)
	}
}
