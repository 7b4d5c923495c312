// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package batch

import (
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/snowplow-devops/identity-router/pkg/models"
)

// Builder accumulates routed events into the two sink-bound entry lists
type Builder struct {
	store []*models.PutEntry
	queue []*models.SendEntry
}

// NewBuilder returns an empty Builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends the event to the list of its partition.
// Enriched events become store upserts with the event marshalled to DynamoDB
// attribute values, passthrough events become queue messages with the event
// serialized as JSON without HTML escaping.
func (b *Builder) Add(routed models.RoutedEvent) error {
	event := routed.Event

	switch routed.Partition {
	case models.PartitionEnriched:
		item, err := marshalItem(event)
		if err != nil {
			return &models.ShapeError{Location: event.ID, Field: "payload", Err: err}
		}
		b.store = append(b.store, &models.PutEntry{
			Key:  event.ID,
			Item: item,
		})
	default:
		body, err := json.MarshalNoEscape(event)
		if err != nil {
			return &models.ShapeError{Location: event.ID, Field: "payload", Err: err}
		}
		b.queue = append(b.queue, &models.SendEntry{
			ID:   event.ID,
			Body: string(body),
		})
	}
	return nil
}

// itemEncoder keeps empty strings as S values, the default encoder turns
// them into NULL
var itemEncoder = dynamodbattribute.NewEncoder(func(e *dynamodbattribute.Encoder) {
	e.NullEmptyString = false
})

func marshalItem(event *models.UserEvent) (map[string]*dynamodb.AttributeValue, error) {
	av, err := itemEncoder.Encode(event)
	if err != nil {
		return nil, err
	}
	if av == nil || av.M == nil {
		return nil, errors.New("event did not encode to a map attribute")
	}
	return av.M, nil
}

// Batches returns everything accumulated so far
func (b *Builder) Batches() *models.Batches {
	return &models.Batches{
		Store: b.store,
		Queue: b.queue,
	}
}

// Build is a shorthand for adding every routed event to a new Builder
func Build(routed []models.RoutedEvent) (*models.Batches, error) {
	b := NewBuilder()
	for _, r := range routed {
		if err := b.Add(r); err != nil {
			return nil, err
		}
	}
	return b.Batches(), nil
}
