// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package decoder

import (
	"bytes"
	"encoding/base64"
	"errors"

	"github.com/goccy/go-json"

	"github.com/snowplow-devops/identity-router/pkg/models"
)

// The raw types mirror models.Envelope with pointers so that a missing field
// can be told apart from an empty one
type rawEnvelope struct {
	EventType *string       `json:"eventType"`
	Payload   *rawUserEvent `json:"payload"`
}

type rawUserEvent struct {
	ID   *string      `json:"id"`
	Lid  *string      `json:"lid"`
	Data *rawUserData `json:"data"`
}

type rawUserData struct {
	FormID       *string `json:"formId"`
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	EmailAddress *string `json:"emailAddress"`
	UserType     *string `json:"userType"`
}

// Decode reverses the transport encoding of a message and returns the user
// event held in its payload. A *models.DecodeError is returned for data that
// is not base64 encoded JSON and a *models.ShapeError when the payload lacks
// one of id, data or data.userType.
func Decode(msg *models.Message) (*models.UserEvent, error) {
	location := msg.Location()

	envelope, err := decodeEnvelope(msg.Data)
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &models.ShapeError{Location: location, Field: typeErr.Field, Err: err}
		}
		return nil, &models.DecodeError{Location: location, Err: err}
	}

	payload := envelope.Payload
	switch {
	case payload == nil:
		return nil, &models.ShapeError{Location: location, Field: "payload"}
	case payload.ID == nil || *payload.ID == "":
		return nil, &models.ShapeError{Location: location, Field: "payload.id"}
	case payload.Data == nil:
		return nil, &models.ShapeError{Location: location, Field: "payload.data"}
	case payload.Data.UserType == nil:
		return nil, &models.ShapeError{Location: location, Field: "payload.data.userType"}
	}

	return &models.UserEvent{
		ID:  *payload.ID,
		Lid: deref(payload.Lid),
		Data: models.UserData{
			FormID:       deref(payload.Data.FormID),
			FirstName:    deref(payload.Data.FirstName),
			LastName:     deref(payload.Data.LastName),
			EmailAddress: deref(payload.Data.EmailAddress),
			UserType:     *payload.Data.UserType,
		},
	}, nil
}

func decodeEnvelope(data []byte) (*rawEnvelope, error) {
	data = bytes.TrimSpace(data)

	b64DecodedData := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	nWrittenBytes, err := base64.StdEncoding.Decode(b64DecodedData, data)
	if err != nil {
		return nil, err
	}
	b64DecodedData = b64DecodedData[:nWrittenBytes]

	var envelope rawEnvelope
	if err := json.Unmarshal(b64DecodedData, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
