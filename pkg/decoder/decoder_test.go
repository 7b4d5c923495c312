// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package decoder

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/testutil"
)

const adminRecord = "eyJldmVudFR5cGUiOiJGb3JtRGF0YVByb2Nlc3NlZCIsInBheWxvYWQiOnsiaWQiOiIxMjMiLCJsaWQiOiIxMjMxMjMiLCJkYXRhIjp7ImZvcm1JZCI6IktNX0hvbWVFZGl0aW9uX1Nob3J0XzE1NSIsImZpcnN0TmFtZSI6IkphbmUiLCJsYXN0TmFtZSI6IkNvbm5vciIsImVtYWlsQWRkcmVzcyI6ImV4YW1wbGVAZW1haWwuY29tIiwidXNlclR5cGUiOiJhZG1pbiJ9fX0="

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	event, err := Decode(&models.Message{Data: []byte(adminRecord)})
	assert.Nil(err)
	assert.Equal(&models.UserEvent{
		ID:  "123",
		Lid: "123123",
		Data: models.UserData{
			FormID:       "KM_HomeEdition_Short_155",
			FirstName:    "Jane",
			LastName:     "Connor",
			EmailAddress: "example@email.com",
			UserType:     "admin",
		},
	}, event)
}

func TestDecode_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	original := testutil.GetTestUserEvent("abc", "user")
	event, err := Decode(&models.Message{Data: testutil.EncodeEnvelope(original)})

	assert.Nil(err)
	assert.Equal(original, event)
}

func TestDecode_IgnoresIncomingPasscode(t *testing.T) {
	assert := assert.New(t)

	data := testutil.EncodeRaw(map[string]interface{}{
		"eventType": "FormDataProcessed",
		"payload": map[string]interface{}{
			"id":   "1",
			"data": map[string]interface{}{"userType": "user", "passcode": 11111111},
		},
	})

	event, err := Decode(&models.Message{Data: data})
	assert.Nil(err)
	assert.False(event.HasPasscode())
	assert.Equal("", event.Lid)
	assert.Equal("user", event.Data.UserType)
}

func TestDecode_EmptyUserTypeIsValid(t *testing.T) {
	assert := assert.New(t)

	data := testutil.EncodeRaw(map[string]interface{}{
		"payload": map[string]interface{}{
			"id":   "1",
			"data": map[string]interface{}{"userType": ""},
		},
	})

	event, err := Decode(&models.Message{Data: data})
	assert.Nil(err)
	assert.Equal("", event.Data.UserType)
}

func TestDecode_TrimsWhitespace(t *testing.T) {
	assert := assert.New(t)

	event, err := Decode(&models.Message{Data: []byte("  " + adminRecord + "\n")})
	assert.Nil(err)
	assert.Equal("123", event.ID)
}

func TestDecode_DecodeErrors(t *testing.T) {
	testCases := []struct {
		Name string
		Data []byte
	}{
		{"not base64", []byte("this is not base64!")},
		{"not json", []byte(base64.StdEncoding.EncodeToString([]byte("hello world")))},
		{"truncated json", []byte(base64.StdEncoding.EncodeToString([]byte(`{"payload":{"id":"1"`)))},
		{"json array", []byte(base64.StdEncoding.EncodeToString([]byte(`[1,2,3]`)))},
		{"empty", []byte("")},
	}

	for _, tt := range testCases {
		t.Run(tt.Name, func(t *testing.T) {
			assert := assert.New(t)

			event, err := Decode(&models.Message{Data: tt.Data, Topic: "kafkaTopic", Partition: 1, Offset: 7})
			assert.Nil(event)
			if assert.NotNil(err) {
				decodeErr, ok := err.(*models.DecodeError)
				assert.True(ok)
				if ok {
					assert.Equal("kafkaTopic-1@7", decodeErr.Location)
				}
			}
		})
	}
}

func TestDecode_ShapeErrors(t *testing.T) {
	testCases := []struct {
		Name    string
		Payload interface{}
		Field   string
	}{
		{"no payload", map[string]interface{}{"eventType": "FormDataProcessed"}, "payload"},
		{"null document", nil, "payload"},
		{"no id", map[string]interface{}{"payload": map[string]interface{}{"data": map[string]interface{}{"userType": "user"}}}, "payload.id"},
		{"empty id", map[string]interface{}{"payload": map[string]interface{}{"id": "", "data": map[string]interface{}{"userType": "user"}}}, "payload.id"},
		{"no data", map[string]interface{}{"payload": map[string]interface{}{"id": "1"}}, "payload.data"},
		{"no userType", map[string]interface{}{"payload": map[string]interface{}{"id": "1", "data": map[string]interface{}{"firstName": "Jane"}}}, "payload.data.userType"},
	}

	for _, tt := range testCases {
		t.Run(tt.Name, func(t *testing.T) {
			assert := assert.New(t)

			event, err := Decode(&models.Message{Data: testutil.EncodeRaw(tt.Payload)})
			assert.Nil(event)
			if assert.NotNil(err) {
				shapeErr, ok := err.(*models.ShapeError)
				assert.True(ok)
				if ok {
					assert.Equal(tt.Field, shapeErr.Field)
				}
			}
		})
	}
}

func TestDecode_WrongFieldType(t *testing.T) {
	assert := assert.New(t)

	data := testutil.EncodeRaw(map[string]interface{}{
		"payload": map[string]interface{}{
			"id":   "1",
			"data": map[string]interface{}{"userType": 42},
		},
	})

	event, err := Decode(&models.Message{Data: data})
	assert.Nil(event)
	assert.NotNil(err)
}
