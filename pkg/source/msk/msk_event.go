// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package msksource

import (
	"sort"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/snowplow-devops/identity-router/pkg/models"
)

type group struct {
	key       string
	topic     string
	partition int64
	records   []events.KafkaRecord
}

// FromKafkaEvent flattens the record groups of an MSK trigger event into a
// single batch. Groups are ordered by topic, then partition, then group key
// while records keep their delivery order within a group.
func FromKafkaEvent(event events.KafkaEvent) []*models.Message {
	groups := make([]group, 0, len(event.Records))
	total := 0
	for key, records := range event.Records {
		g := group{key: key, records: records}
		if len(records) > 0 {
			g.topic = records[0].Topic
			g.partition = records[0].Partition
		}
		groups = append(groups, g)
		total += len(records)
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.topic != b.topic {
			return a.topic < b.topic
		}
		if a.partition != b.partition {
			return a.partition < b.partition
		}
		return a.key < b.key
	})

	timePulled := time.Now().UTC()
	messages := make([]*models.Message, 0, total)
	for _, g := range groups {
		for _, record := range g.records {
			messages = append(messages, &models.Message{
				Data:        []byte(record.Value),
				Key:         record.Key,
				Topic:       record.Topic,
				Partition:   record.Partition,
				Offset:      record.Offset,
				TimeCreated: record.Timestamp.Time,
				TimePulled:  timePulled,
			})
		}
	}
	return messages
}
