// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package failure

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/target"
	"github.com/snowplow-devops/identity-router/pkg/testutil"
)

func TestDeadLetterFailure_WriteMalformed(t *testing.T) {
	assert := assert.New(t)

	client := &testutil.MockSQSClient{}
	queue, err := target.NewSQSTargetWithInterfaces(client, "us-east-1", "dead-letters")
	assert.Nil(err)

	dl, err := NewDeadLetterFailure(queue, "identity-router", "0.1.0")
	assert.Nil(err)
	assert.Equal("dead-letters", dl.GetID())

	malformed := []*models.MalformedMessage{
		{
			Message: &models.Message{Data: []byte("not base64!"), Topic: "users", Partition: 2, Offset: 9},
			Err:     &models.DecodeError{Location: "users-2@9", Err: errors.New("illegal base64 data at input byte 3")},
		},
		{
			Message: &models.Message{Data: []byte("e30="), Topic: "users", Partition: 2, Offset: 10},
			Err:     &models.ShapeError{Location: "users-2@10", Field: "payload"},
		},
	}

	res, err := dl.WriteMalformed(context.Background(), malformed)
	assert.Nil(err)
	assert.Equal(int64(2), res.Sent)

	if assert.Equal(1, client.CallCount()) {
		entries := client.Calls[0].Entries
		assert.Equal(2, len(entries))
		assert.Equal("0", aws.StringValue(entries[0].Id))

		var first deadLetter
		assert.Nil(json.Unmarshal([]byte(aws.StringValue(entries[0].MessageBody)), &first))
		assert.Equal("identity-router", first.Processor.Artifact)
		assert.Equal(models.ErrorTypeDecode, first.Failure.ErrorType)
		assert.Equal("users", first.Source.Topic)
		assert.Equal(int64(9), first.Source.Offset)
		assert.Equal("not base64!", first.Payload)
		assert.Contains(first.Failure.Error, "illegal base64 data")

		var second deadLetter
		assert.Nil(json.Unmarshal([]byte(aws.StringValue(entries[1].MessageBody)), &second))
		assert.Equal(models.ErrorTypeShape, second.Failure.ErrorType)
		assert.Equal("payload", second.Failure.Field)
	}
}

func TestDeadLetterFailure_WriteNothing(t *testing.T) {
	assert := assert.New(t)

	client := &testutil.MockSQSClient{}
	queue, _ := target.NewSQSTargetWithInterfaces(client, "us-east-1", "dead-letters")
	dl, _ := NewDeadLetterFailure(queue, "identity-router", "0.1.0")

	res, err := dl.WriteMalformed(context.Background(), nil)
	assert.Nil(err)
	assert.Equal(int64(0), res.Total())
	assert.Equal(0, client.CallCount())
}

func TestDeadLetterFailure_QueueFailure(t *testing.T) {
	assert := assert.New(t)

	client := &testutil.MockSQSClient{Err: errors.New("AccessDenied")}
	queue, _ := target.NewSQSTargetWithInterfaces(client, "us-east-1", "dead-letters")
	dl, _ := NewDeadLetterFailure(queue, "identity-router", "0.1.0")

	_, err := dl.WriteMalformed(context.Background(), []*models.MalformedMessage{
		{Message: &models.Message{Data: []byte("x")}, Err: errors.New("bad")},
	})

	var sinkErr *models.SinkError
	assert.True(errors.As(err, &sinkErr))
}
