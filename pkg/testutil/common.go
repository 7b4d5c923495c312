// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package testutil

import (
	"encoding/base64"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/goccy/go-json"
	"github.com/twinj/uuid"

	"github.com/snowplow-devops/identity-router/pkg/models"
)

const charset = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	seededRand *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// GenRandomString can produce a random string of any provided length which is
// useful for testing situations that might have byte limitations
func GenRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}

// GetTestUserEvent returns a user event filled with fake personal data
func GetTestUserEvent(id string, userType string) *models.UserEvent {
	return &models.UserEvent{
		ID:  id,
		Lid: gofakeit.Numerify("######"),
		Data: models.UserData{
			FormID:       "KM_HomeEdition_Short_155",
			FirstName:    gofakeit.FirstName(),
			LastName:     gofakeit.LastName(),
			EmailAddress: gofakeit.Email(),
			UserType:     userType,
		},
	}
}

// EncodeEnvelope wraps the event in a FormDataProcessed envelope and returns
// it JSON serialized and base64 encoded, as a stream delivers it
func EncodeEnvelope(event *models.UserEvent) []byte {
	return EncodeRaw(models.Envelope{
		EventType: "FormDataProcessed",
		Payload:   event,
	})
}

// EncodeRaw JSON serializes and base64 encodes any value
func EncodeRaw(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return []byte(base64.StdEncoding.EncodeToString(b))
}

// GetTestMessages returns one encoded message per event, ready to be used for
// testing the pipeline and sources
func GetTestMessages(events []*models.UserEvent, ackFunc func()) []*models.Message {
	var messages []*models.Message
	timeNow := time.Now().UTC()
	for i, event := range events {
		messages = append(messages, &models.Message{
			Data:        EncodeEnvelope(event),
			Key:         uuid.NewV4().String(),
			Topic:       "kafkaTopic",
			Partition:   1,
			Offset:      int64(i + 1),
			TimeCreated: timeNow,
			TimePulled:  timeNow,
			AckFunc:     ackFunc,
		})
	}
	return messages
}

// GetTestUserEvents returns count fake events of the given user type with
// unique ids
func GetTestUserEvents(count int, userType string) []*models.UserEvent {
	var events []*models.UserEvent
	for i := 0; i < count; i++ {
		events = append(events, GetTestUserEvent(uuid.NewV4().String(), userType))
	}
	return events
}
