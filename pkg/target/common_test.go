// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package target

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/snowplow-devops/identity-router/pkg/models"
)

func getTestPutEntries(ids ...string) []*models.PutEntry {
	var entries []*models.PutEntry
	for _, id := range ids {
		entries = append(entries, &models.PutEntry{
			Key: id,
			Item: map[string]*dynamodb.AttributeValue{
				"id":  {S: aws.String(id)},
				"lid": {S: aws.String("123123")},
				"data": {M: map[string]*dynamodb.AttributeValue{
					"userType": {S: aws.String("user")},
					"passcode": {N: aws.String("12345678")},
				}},
			},
		})
	}
	return entries
}

func getTestSendEntries(ids ...string) []*models.SendEntry {
	var entries []*models.SendEntry
	for _, id := range ids {
		entries = append(entries, &models.SendEntry{
			ID:   id,
			Body: fmt.Sprintf(`{"id":"%s","lid":"","data":{"userType":"admin"}}`, id),
		})
	}
	return entries
}

func sequentialIDs(count int) []string {
	ids := make([]string, count)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	return ids
}
