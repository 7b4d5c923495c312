// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package testutil

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

// MockSQSClient records every SendMessageBatch call it receives. Only the
// methods used by the router are implemented.
type MockSQSClient struct {
	sqsiface.SQSAPI

	mu    sync.Mutex
	Calls []*sqs.SendMessageBatchInput

	// Err is returned from every call when set
	Err error

	// FailedIDs maps an entry id to the error code it should be rejected with
	FailedIDs map[string]string
}

// SendMessageBatchWithContext implements sqsiface.SQSAPI
func (m *MockSQSClient) SendMessageBatchWithContext(ctx aws.Context, input *sqs.SendMessageBatchInput, opts ...request.Option) (*sqs.SendMessageBatchOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, input)
	if m.Err != nil {
		return nil, m.Err
	}

	out := &sqs.SendMessageBatchOutput{}
	for _, entry := range input.Entries {
		if code, ok := m.FailedIDs[*entry.Id]; ok {
			out.Failed = append(out.Failed, &sqs.BatchResultErrorEntry{
				Id:          entry.Id,
				Code:        aws.String(code),
				Message:     aws.String("rejected by mock"),
				SenderFault: aws.Bool(true),
			})
			continue
		}
		out.Successful = append(out.Successful, &sqs.SendMessageBatchResultEntry{
			Id:        entry.Id,
			MessageId: aws.String("mock-" + *entry.Id),
		})
	}
	return out, nil
}

// CallCount returns the number of bulk calls received
func (m *MockSQSClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockDynamoDBClient records every BatchWriteItem call it receives. Only the
// methods used by the router are implemented.
type MockDynamoDBClient struct {
	dynamodbiface.DynamoDBAPI

	mu    sync.Mutex
	Calls []*dynamodb.BatchWriteItemInput

	// Err is returned from every call when set
	Err error

	// UnprocessedRounds is the number of calls which will hand back their
	// last write request as unprocessed
	UnprocessedRounds int
}

// BatchWriteItemWithContext implements dynamodbiface.DynamoDBAPI
func (m *MockDynamoDBClient) BatchWriteItemWithContext(ctx aws.Context, input *dynamodb.BatchWriteItemInput, opts ...request.Option) (*dynamodb.BatchWriteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, input)
	if m.Err != nil {
		return nil, m.Err
	}

	out := &dynamodb.BatchWriteItemOutput{}
	if m.UnprocessedRounds > 0 {
		m.UnprocessedRounds--
		out.UnprocessedItems = map[string][]*dynamodb.WriteRequest{}
		for table, requests := range input.RequestItems {
			if len(requests) > 0 {
				out.UnprocessedItems[table] = requests[len(requests)-1:]
			}
		}
	}
	return out, nil
}

// CallCount returns the number of bulk calls received
func (m *MockDynamoDBClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
