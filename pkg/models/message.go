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

// Message holds one transport-encoded record as delivered by a source
type Message struct {
	// Data is the encoded payload (base64 text of a JSON envelope)
	Data []byte

	// Key, Topic, Partition and Offset are source metadata which are only
	// passed through for logging and dead-lettering
	Key       string
	Topic     string
	Partition int64
	Offset    int64

	// TimeCreated is when the record was created originally
	TimeCreated time.Time

	// TimePulled is when the record was pulled from the source
	TimePulled time.Time

	// AckFunc must be called once the invocation this message belongs to
	// was fully dispatched so that the source can commit it
	AckFunc func()
}

func (m *Message) String() string {
	return fmt.Sprintf(
		"Topic:%s,Partition:%d,Offset:%d,Key:%s,TimeCreated:%v,TimePulled:%v,Data:%s",
		m.Topic,
		m.Partition,
		m.Offset,
		m.Key,
		m.TimeCreated,
		m.TimePulled,
		string(m.Data),
	)
}

// Location returns a short human readable reference to where the message
// came from
func (m *Message) Location() string {
	return fmt.Sprintf("%s-%d@%d", m.Topic, m.Partition, m.Offset)
}

// AckMessages calls the AckFunc of every message that has one
func AckMessages(messages []*Message) {
	for _, msg := range messages {
		if msg.AckFunc != nil {
			msg.AckFunc()
		}
	}
}
