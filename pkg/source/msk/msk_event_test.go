// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package msksource

import (
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func record(topic string, partition int64, offset int64, value string) events.KafkaRecord {
	return events.KafkaRecord{
		Topic:     topic,
		Partition: partition,
		Offset:    offset,
		Timestamp: events.MilliSecondsEpochTime{Time: time.Unix(1660000000, 0).UTC()},
		Value:     value,
	}
}

func TestFromKafkaEvent_Ordering(t *testing.T) {
	assert := assert.New(t)

	event := events.KafkaEvent{
		EventSource: "aws:kafka",
		Records: map[string][]events.KafkaRecord{
			"users-1":  {record("users", 1, 5, "c"), record("users", 1, 6, "d")},
			"users-0":  {record("users", 0, 9, "a"), record("users", 0, 10, "b")},
			"alerts-3": {record("alerts", 3, 1, "z")},
			"users-10": {record("users", 10, 1, "e")},
		},
	}

	messages := FromKafkaEvent(event)

	var values []string
	for _, msg := range messages {
		values = append(values, string(msg.Data))
	}
	assert.Equal([]string{"z", "a", "b", "c", "d", "e"}, values)

	assert.Equal("users", messages[1].Topic)
	assert.Equal(int64(0), messages[1].Partition)
	assert.Equal(int64(9), messages[1].Offset)
	assert.Equal("users-0@9", messages[1].Location())
	assert.Equal(time.Unix(1660000000, 0).UTC(), messages[1].TimeCreated)
	assert.False(messages[1].TimePulled.IsZero())
}

func TestFromKafkaEvent_Empty(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, len(FromKafkaEvent(events.KafkaEvent{})))
	assert.Equal(0, len(FromKafkaEvent(events.KafkaEvent{Records: map[string][]events.KafkaRecord{"users-0": {}}})))
}

func TestFromKafkaEvent_Unmarshalled(t *testing.T) {
	assert := assert.New(t)

	raw := `{
		"eventSource": "aws:kafka",
		"eventSourceArn": "arn:aws:kafka:us-east-1:123456789012:cluster/vpc-2priv-2pub/751d2973-a626-431c-9d4e-d7975eb44dd7-2",
		"bootstrapServers": "b-2.demo-cluster-1.a1bcde.c1.kafka.us-east-1.amazonaws.com:9092",
		"records": {
			"mytopic-0": [
				{
					"topic": "mytopic",
					"partition": 0,
					"offset": 15,
					"timestamp": 1545084650987,
					"timestampType": "CREATE_TIME",
					"value": "SGVsbG8sIHRoaXMgaXMgYSB0ZXN0Lg=="
				}
			]
		}
	}`

	var event events.KafkaEvent
	assert.Nil(json.Unmarshal([]byte(raw), &event))

	messages := FromKafkaEvent(event)
	if assert.Equal(1, len(messages)) {
		assert.Equal("SGVsbG8sIHRoaXMgaXMgYSB0ZXN0Lg==", string(messages[0].Data))
		assert.Equal("mytopic-0@15", messages[0].Location())
		assert.Equal(int64(1545084650987), messages[0].TimeCreated.UnixNano()/int64(time.Millisecond))
	}
}
