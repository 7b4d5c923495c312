// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/identity-router/pkg/batch"
	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/passcode"
	"github.com/snowplow-devops/identity-router/pkg/router"
	"github.com/snowplow-devops/identity-router/pkg/target"
	"github.com/snowplow-devops/identity-router/pkg/testutil"
)

func setup(t *testing.T) (*Dispatcher, *testutil.MockDynamoDBClient, *testutil.MockSQSClient) {
	dynamodbClient := &testutil.MockDynamoDBClient{}
	sqsClient := &testutil.MockSQSClient{}

	store, err := target.NewDynamoDBTargetWithInterfaces(dynamodbClient, "00000000000", "us-east-1", "users", 2, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	queue, err := target.NewSQSTargetWithInterfaces(sqsClient, "us-east-1", "lookup")
	if err != nil {
		t.Fatal(err)
	}

	return NewDispatcher(store, queue), dynamodbClient, sqsClient
}

func buildBatches(t *testing.T, events []*models.UserEvent) *models.Batches {
	enricher := router.NewEnricher(passcode.GeneratorFunc(func() int64 { return 12345678 }))
	batches, err := batch.Build(enricher.Route(events))
	if err != nil {
		t.Fatal(err)
	}
	return batches
}

func TestDispatch_Mixed(t *testing.T) {
	assert := assert.New(t)

	d, dynamodbClient, sqsClient := setup(t)
	batches := buildBatches(t, []*models.UserEvent{
		testutil.GetTestUserEvent("1", "user"),
		testutil.GetTestUserEvent("2", "admin"),
	})

	report, err := d.Dispatch(context.Background(), batches)
	assert.Nil(err)
	assert.Equal(1, dynamodbClient.CallCount())
	assert.Equal(1, sqsClient.CallCount())
	assert.Equal(int64(1), report.Store.Sent)
	assert.Equal(int64(1), report.Queue.Sent)
}

func TestDispatch_OnlyQueue(t *testing.T) {
	assert := assert.New(t)

	d, dynamodbClient, sqsClient := setup(t)
	batches := buildBatches(t, testutil.GetTestUserEvents(2, "admin"))

	report, err := d.Dispatch(context.Background(), batches)
	assert.Nil(err)
	assert.Equal(0, dynamodbClient.CallCount())
	assert.Nil(report.Store)
	if assert.Equal(1, sqsClient.CallCount()) {
		assert.Equal(2, len(sqsClient.Calls[0].Entries))
	}
}

func TestDispatch_OnlyStore(t *testing.T) {
	assert := assert.New(t)

	d, dynamodbClient, sqsClient := setup(t)
	batches := buildBatches(t, testutil.GetTestUserEvents(2, "user"))

	report, err := d.Dispatch(context.Background(), batches)
	assert.Nil(err)
	assert.Equal(0, sqsClient.CallCount())
	assert.Nil(report.Queue)
	if assert.Equal(1, dynamodbClient.CallCount()) {
		assert.Equal(2, len(dynamodbClient.Calls[0].RequestItems["users"]))
	}
}

func TestDispatch_Empty(t *testing.T) {
	assert := assert.New(t)

	d, dynamodbClient, sqsClient := setup(t)

	report, err := d.Dispatch(context.Background(), &models.Batches{})
	assert.Nil(err)
	assert.Nil(report.Store)
	assert.Nil(report.Queue)
	assert.Equal(0, dynamodbClient.CallCount())
	assert.Equal(0, sqsClient.CallCount())
}

func TestDispatch_StoreFailureStillSendsQueue(t *testing.T) {
	assert := assert.New(t)

	d, dynamodbClient, sqsClient := setup(t)
	dynamodbClient.Err = errors.New("ProvisionedThroughputExceededException")

	batches := buildBatches(t, []*models.UserEvent{
		testutil.GetTestUserEvent("1", "user"),
		testutil.GetTestUserEvent("2", "admin"),
	})

	report, err := d.Dispatch(context.Background(), batches)
	assert.NotNil(err)
	assert.Equal(1, sqsClient.CallCount())
	assert.Equal(int64(1), report.Queue.Sent)
	assert.Equal(int64(1), report.Store.Failed)

	var sinkErr *models.SinkError
	if assert.True(errors.As(err, &sinkErr)) {
		assert.Equal([]string{"1"}, sinkErr.Failed)
	}
}

func TestDispatch_BothFail(t *testing.T) {
	assert := assert.New(t)

	d, dynamodbClient, sqsClient := setup(t)
	dynamodbClient.Err = errors.New("store down")
	sqsClient.Err = errors.New("queue down")

	batches := buildBatches(t, []*models.UserEvent{
		testutil.GetTestUserEvent("1", "user"),
		testutil.GetTestUserEvent("2", "admin"),
	})

	_, err := d.Dispatch(context.Background(), batches)
	merr, ok := err.(*multierror.Error)
	if assert.True(ok) {
		assert.Equal(2, len(merr.Errors))
		assert.Contains(merr.Errors[0].Error(), "store down")
		assert.Contains(merr.Errors[1].Error(), "queue down")
	}
}

type failingStore struct{}

func (failingStore) Put(ctx context.Context, entries []*models.PutEntry) (*models.DispatchResult, error) {
	return nil, errors.New("boom")
}

func (failingStore) GetID() string {
	return "failing"
}

func TestDispatch_WrapsPlainErrors(t *testing.T) {
	assert := assert.New(t)

	_, _, sqsClient := setup(t)
	queue, _ := target.NewSQSTargetWithInterfaces(sqsClient, "us-east-1", "lookup")
	d := NewDispatcher(failingStore{}, queue)

	report, err := d.Dispatch(context.Background(), &models.Batches{Store: []*models.PutEntry{{Key: "1"}}})
	assert.NotNil(report.Store)

	var sinkErr *models.SinkError
	if assert.True(errors.As(err, &sinkErr)) {
		assert.Equal("failing", sinkErr.Sink)
		assert.Equal("sink failing failed: boom", sinkErr.Error())
	}
}
