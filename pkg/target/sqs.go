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

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/identity-router/pkg/common"
	"github.com/snowplow-devops/identity-router/pkg/models"
)

const (
	// API Documentation: https://docs.aws.amazon.com/AWSSimpleQueueService/latest/SQSDeveloperGuide/quotas-messages.html

	// Limited to 10 messages in a single request
	sqsSendMessageBatchChunkSize = 10
	// Each message can only be up to 256 KB in size
	sqsSendMessageByteLimit = 262144
	// Each request can be a maximum of 256 KB in size total
	sqsSendMessageBatchByteLimit = 262144
)

// SQSTarget holds a new client for writing messages to sqs
type SQSTarget struct {
	client   sqsiface.SQSAPI
	queueURL string
	region   string

	log *log.Entry
}

// NewSQSTarget creates a new client for writing messages to sqs
func NewSQSTarget(region string, queueURL string, roleARN string, endpoint string) (*SQSTarget, error) {
	awsSession, awsConfig, _, err := common.GetAWSSession(region, roleARN, endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create AWS session for SQS")
	}
	sqsClient := sqs.New(awsSession, awsConfig)

	return NewSQSTargetWithInterfaces(sqsClient, region, queueURL)
}

// NewSQSTargetWithInterfaces allows you to provide an SQS client directly to allow
// for mocking and localstack usage
func NewSQSTargetWithInterfaces(client sqsiface.SQSAPI, region string, queueURL string) (*SQSTarget, error) {
	if queueURL == "" {
		return nil, &models.ConfigError{Field: "queue_url"}
	}

	return &SQSTarget{
		client:   client,
		queueURL: queueURL,
		region:   region,
		log:      log.WithFields(log.Fields{"target": "sqs", "cloud": "AWS", "region": region, "queue": queueURL}),
	}, nil
}

// Send pushes all entries to the queue in as few calls as the service
// limits allow. Any entry which was not accepted is listed in the
// returned SinkError.
func (st *SQSTarget) Send(ctx context.Context, entries []*models.SendEntry) (*models.DispatchResult, error) {
	st.log.Debugf("Writing %d entries to target queue ...", len(entries))

	chunks, oversized := models.GetChunkedSendEntries(
		entries,
		sqsSendMessageBatchChunkSize,
		sqsSendMessageByteLimit,
		sqsSendMessageBatchByteLimit,
	)

	result := &models.DispatchResult{}
	var errResult error

	for _, entry := range oversized {
		result.Failed++
		result.FailedIDs = append(result.FailedIDs, entry.ID)
		errResult = multierror.Append(errResult, fmt.Errorf("entry %s is %d bytes which exceeds the %d byte limit", entry.ID, len(entry.Body), sqsSendMessageByteLimit))
	}

	for _, chunk := range chunks {
		res, err := st.process(ctx, chunk)
		result = result.Append(res)

		if err != nil {
			errResult = multierror.Append(errResult, err)
		}
	}

	st.log.Debugf("Successfully wrote %d/%d entries", result.Sent, result.Total())

	if errResult != nil {
		return result, &models.SinkError{
			Sink:   st.GetID(),
			Failed: result.FailedIDs,
			Err:    errors.Wrap(errResult, "Error writing entries to SQS queue"),
		}
	}
	return result, nil
}

func (st *SQSTarget) process(ctx context.Context, chunk []*models.SendEntry) (*models.DispatchResult, error) {
	st.log.Debugf("Writing chunk of %d entries to target queue ...", len(chunk))

	requestEntries := make([]*sqs.SendMessageBatchRequestEntry, len(chunk))
	for i, entry := range chunk {
		requestEntries[i] = &sqs.SendMessageBatchRequestEntry{
			Id:          aws.String(entry.ID),
			MessageBody: aws.String(entry.Body),
		}
	}

	requestStarted := time.Now()
	res, err := st.client.SendMessageBatchWithContext(ctx, &sqs.SendMessageBatchInput{
		Entries:  requestEntries,
		QueueUrl: aws.String(st.queueURL),
	})
	result := &models.DispatchResult{
		Calls:          1,
		RequestLatency: time.Since(requestStarted),
	}

	if err != nil {
		result.Failed = int64(len(chunk))
		for _, entry := range chunk {
			result.FailedIDs = append(result.FailedIDs, entry.ID)
		}
		return result, errors.Wrap(err, "Failed to send message batch to SQS queue")
	}

	var errResult error
	failed := make(map[string]bool, len(res.Failed))
	for _, f := range res.Failed {
		failed[aws.StringValue(f.Id)] = true
		errResult = multierror.Append(errResult, fmt.Errorf("%s: %s", aws.StringValue(f.Code), aws.StringValue(f.Message)))
	}

	for _, entry := range chunk {
		if failed[entry.ID] {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, entry.ID)
		} else {
			result.Sent++
		}
	}

	return result, errResult
}

// GetID returns the identifier for this target
func (st *SQSTarget) GetID() string {
	return st.queueURL
}
