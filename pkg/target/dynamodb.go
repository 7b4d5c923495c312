// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package target

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/identity-router/pkg/common"
	"github.com/snowplow-devops/identity-router/pkg/models"
)

const (
	// API Documentation: https://docs.aws.amazon.com/amazondynamodb/latest/APIReference/API_BatchWriteItem.html

	// Limited to 25 put requests in a single call
	dynamodbBatchWriteChunkSize = 25

	dynamodbKeyAttribute = "id"
)

// errUnprocessedItems is returned internally while DynamoDB keeps handing
// back part of a request
type errUnprocessedItems struct {
	count int
}

func (e *errUnprocessedItems) Error() string {
	return fmt.Sprintf("%d items were left unprocessed", e.count)
}

func isUnprocessed(err error) bool {
	_, ok := err.(*errUnprocessedItems)
	return ok
}

// DynamoDBTarget holds a new client for writing items to a DynamoDB table
type DynamoDBTarget struct {
	client     dynamodbiface.DynamoDBAPI
	tableName  string
	region     string
	accountID  string
	attempts   uint
	retryDelay time.Duration

	log *log.Entry
}

// NewDynamoDBTarget creates a new client for writing items to DynamoDB
func NewDynamoDBTarget(region string, tableName string, roleARN string, endpoint string, maxAttempts int, retryDelay time.Duration) (*DynamoDBTarget, error) {
	awsSession, awsConfig, awsAccountID, err := common.GetAWSSession(region, roleARN, endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create AWS session for DynamoDB")
	}
	dynamodbClient := dynamodb.New(awsSession, awsConfig)

	return NewDynamoDBTargetWithInterfaces(dynamodbClient, aws.StringValue(awsAccountID), region, tableName, maxAttempts, retryDelay)
}

// NewDynamoDBTargetWithInterfaces allows you to provide a DynamoDB client directly to allow
// for mocking and localstack usage
func NewDynamoDBTargetWithInterfaces(client dynamodbiface.DynamoDBAPI, awsAccountID string, region string, tableName string, maxAttempts int, retryDelay time.Duration) (*DynamoDBTarget, error) {
	if tableName == "" {
		return nil, &models.ConfigError{Field: "table_name"}
	}
	// retry-go treats zero attempts as "retry forever"
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &DynamoDBTarget{
		client:     client,
		tableName:  tableName,
		region:     region,
		accountID:  awsAccountID,
		attempts:   uint(maxAttempts),
		retryDelay: retryDelay,
		log:        log.WithFields(log.Fields{"target": "dynamodb", "cloud": "AWS", "region": region, "table": tableName}),
	}, nil
}

// Put upserts all entries into the table. Items DynamoDB leaves unprocessed
// are retried with exponential backoff; whatever remains after the last
// attempt is listed in the returned SinkError.
func (dt *DynamoDBTarget) Put(ctx context.Context, entries []*models.PutEntry) (*models.DispatchResult, error) {
	dt.log.Debugf("Writing %d items to target table ...", len(entries))

	chunks := models.GetChunkedPutEntries(entries, dynamodbBatchWriteChunkSize)

	result := &models.DispatchResult{}
	var errResult error

	for _, chunk := range chunks {
		res, err := dt.process(ctx, chunk)
		result = result.Append(res)

		if err != nil {
			errResult = multierror.Append(errResult, err)
		}
	}

	dt.log.Debugf("Successfully wrote %d/%d items", result.Sent, result.Total())

	if errResult != nil {
		return result, &models.SinkError{
			Sink:   dt.GetID(),
			Failed: result.FailedIDs,
			Err:    errors.Wrap(errResult, "Error writing items to DynamoDB table"),
		}
	}
	return result, nil
}

func (dt *DynamoDBTarget) process(ctx context.Context, chunk []*models.PutEntry) (*models.DispatchResult, error) {
	dt.log.Debugf("Writing chunk of %d items to target table ...", len(chunk))

	pending := make([]*dynamodb.WriteRequest, len(chunk))
	for i, entry := range chunk {
		pending[i] = &dynamodb.WriteRequest{
			PutRequest: &dynamodb.PutRequest{Item: entry.Item},
		}
	}

	result := &models.DispatchResult{}

	err := retry.Do(
		func() error {
			requestStarted := time.Now()
			res, err := dt.client.BatchWriteItemWithContext(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]*dynamodb.WriteRequest{
					dt.tableName: pending,
				},
			})
			result.Calls++
			result.RequestLatency += time.Since(requestStarted)

			if err != nil {
				return errors.Wrap(err, "Failed to write item batch to DynamoDB table")
			}

			unprocessed := res.UnprocessedItems[dt.tableName]
			if len(unprocessed) == 0 {
				pending = nil
				return nil
			}

			dt.log.Debugf("%d items left unprocessed, retrying ...", len(unprocessed))
			pending = unprocessed
			return &errUnprocessedItems{count: len(unprocessed)}
		},
		retry.Context(ctx),
		retry.Attempts(dt.attempts),
		retry.Delay(dt.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isUnprocessed),
		retry.LastErrorOnly(true),
	)

	for _, request := range pending {
		result.FailedIDs = append(result.FailedIDs, keyOf(request))
	}
	result.Failed = int64(len(pending))
	result.Sent = int64(len(chunk)) - result.Failed

	return result, err
}

func keyOf(request *dynamodb.WriteRequest) string {
	if request.PutRequest == nil {
		return ""
	}
	if attr, ok := request.PutRequest.Item[dynamodbKeyAttribute]; ok && attr != nil {
		return aws.StringValue(attr.S)
	}
	return ""
}

// GetID returns the identifier for this target
func (dt *DynamoDBTarget) GetID() string {
	return fmt.Sprintf("arn:aws:dynamodb:%s:%s:table/%s", dt.region, dt.accountID, dt.tableName)
}
