// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package testutil

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

var (
	// AWSLocalstackEndpoint is the default endpoint localstack runs under
	AWSLocalstackEndpoint = "http://localhost:4566"

	// AWSLocalstackRegion is the default region we are using for testing
	AWSLocalstackRegion = "us-east-1"
)

// GetAWSLocalstackSession will return an AWS session ready to interact with localstack
func GetAWSLocalstackSession() *session.Session {
	return session.Must(session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials("foo", "var", ""),
		S3ForcePathStyle: aws.Bool(true),
		Region:           aws.String(AWSLocalstackRegion),
		Endpoint:         aws.String(AWSLocalstackEndpoint),
	}))
}

// --- DynamoDB Testing

// GetAWSLocalstackDynamoDBClient returns a DynamoDB client
func GetAWSLocalstackDynamoDBClient() dynamodbiface.DynamoDBAPI {
	return dynamodb.New(GetAWSLocalstackSession())
}

// CreateAWSLocalstackUserTable creates a new user table keyed on "id" and
// polls until the table is in an ACTIVE state
func CreateAWSLocalstackUserTable(client dynamodbiface.DynamoDBAPI, tableName string) error {
	_, err := client.CreateTable(&dynamodb.CreateTableInput{
		AttributeDefinitions: []*dynamodb.AttributeDefinition{{
			AttributeName: aws.String("id"),
			AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
		}},
		KeySchema: []*dynamodb.KeySchemaElement{{
			AttributeName: aws.String("id"),
			KeyType:       aws.String(dynamodb.KeyTypeHash),
		}},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
		TableName:   aws.String(tableName),
	})
	if err != nil {
		return err
	}

	for {
		res, err1 := client.DescribeTable(&dynamodb.DescribeTableInput{TableName: &tableName})
		if err1 != nil {
			return err1
		}

		if *res.Table.TableStatus == dynamodb.TableStatusActive {
			return nil
		}
	}
}

// DeleteAWSLocalstackUserTable deletes an existing Dynamo DB table
func DeleteAWSLocalstackUserTable(client dynamodbiface.DynamoDBAPI, tableName string) (*dynamodb.DeleteTableOutput, error) {
	return client.DeleteTable(&dynamodb.DeleteTableInput{TableName: &tableName})
}

// GetAWSLocalstackUserItem reads a single user item back by id
func GetAWSLocalstackUserItem(client dynamodbiface.DynamoDBAPI, tableName string, id string) (map[string]*dynamodb.AttributeValue, error) {
	res, err := client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {S: aws.String(id)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	return res.Item, nil
}

// --- SQS Testing

// GetAWSLocalstackSQSClient returns an SQS client
func GetAWSLocalstackSQSClient() sqsiface.SQSAPI {
	return sqs.New(GetAWSLocalstackSession())
}

// CreateAWSLocalstackSQSQueue creates a new SQS queue
func CreateAWSLocalstackSQSQueue(client sqsiface.SQSAPI, queueName string) (*sqs.CreateQueueOutput, error) {
	return client.CreateQueue(&sqs.CreateQueueInput{
		QueueName: aws.String(queueName),
	})
}

// DeleteAWSLocalstackSQSQueue deletes an existing SQS queue
func DeleteAWSLocalstackSQSQueue(client sqsiface.SQSAPI, queueURL *string) (*sqs.DeleteQueueOutput, error) {
	return client.DeleteQueue(&sqs.DeleteQueueInput{
		QueueUrl: queueURL,
	})
}

// ReceiveAWSLocalstackSQSMessages drains up to max message bodies from a queue
func ReceiveAWSLocalstackSQSMessages(client sqsiface.SQSAPI, queueURL *string, max int) ([]string, error) {
	var bodies []string
	for len(bodies) < max {
		res, err := client.ReceiveMessage(&sqs.ReceiveMessageInput{
			QueueUrl:            queueURL,
			MaxNumberOfMessages: aws.Int64(10),
			WaitTimeSeconds:     aws.Int64(1),
		})
		if err != nil {
			return bodies, err
		}
		if len(res.Messages) == 0 {
			return bodies, nil
		}
		for _, msg := range res.Messages {
			bodies = append(bodies, *msg.Body)
		}
	}
	return bodies, nil
}
