// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package failure

import (
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/target/targetiface"
)

type processor struct {
	Artifact string `json:"artifact"`
	Version  string `json:"version"`
}

type failureDetails struct {
	Timestamp time.Time `json:"timestamp"`
	ErrorType string    `json:"errorType"`
	Field     string    `json:"field,omitempty"`
	Error     string    `json:"error"`
}

type source struct {
	Topic     string `json:"topic"`
	Partition int64  `json:"partition"`
	Offset    int64  `json:"offset"`
	Key       string `json:"key,omitempty"`
}

// deadLetter is the document pushed for every malformed record. Payload is
// the record value exactly as it was received.
type deadLetter struct {
	Processor processor      `json:"processor"`
	Failure   failureDetails `json:"failure"`
	Source    source         `json:"source"`
	Payload   string         `json:"payload"`
}

// DeadLetterFailure holds a new client for wrapping malformed records and
// emitting them to a queue
type DeadLetterFailure struct {
	processorArtifact string
	processorVersion  string
	target            targetiface.QueueTarget

	log *log.Entry
}

// NewDeadLetterFailure will create a new client for handling malformed
// records by wrapping them with their failure details and pushing them to a
// queue
func NewDeadLetterFailure(target targetiface.QueueTarget, processorArtifact string, processorVersion string) (*DeadLetterFailure, error) {
	return &DeadLetterFailure{
		processorArtifact: processorArtifact,
		processorVersion:  processorVersion,
		target:            target,
		log:               log.WithFields(log.Fields{"failed": "dead_letter", "queue": target.GetID()}),
	}, nil
}

// WriteMalformed converts every malformed record into a dead letter and
// sends them all to the queue
func (dl *DeadLetterFailure) WriteMalformed(ctx context.Context, malformed []*models.MalformedMessage) (*models.DispatchResult, error) {
	if len(malformed) == 0 {
		return &models.DispatchResult{}, nil
	}

	entries := make([]*models.SendEntry, 0, len(malformed))
	for i, m := range malformed {
		body, err := json.Marshal(dl.newDeadLetter(m))
		if err != nil {
			return nil, errors.Wrap(err, "Failed to marshal dead letter JSON")
		}

		entries = append(entries, &models.SendEntry{
			ID:   strconv.Itoa(i),
			Body: string(body),
		})
	}

	dl.log.Debugf("Dead-lettering %d malformed records ...", len(entries))
	return dl.target.Send(ctx, entries)
}

func (dl *DeadLetterFailure) newDeadLetter(m *models.MalformedMessage) *deadLetter {
	msg := m.Message

	details := failureDetails{
		Timestamp: time.Now().UTC(),
		Error:     m.Err.Error(),
	}
	if reportable, ok := m.Err.(models.ErrorMetadata); ok {
		details.ErrorType = reportable.ReportableType()
	}
	if shapeErr, ok := m.Err.(*models.ShapeError); ok {
		details.Field = shapeErr.Field
	}

	return &deadLetter{
		Processor: processor{
			Artifact: dl.processorArtifact,
			Version:  dl.processorVersion,
		},
		Failure: details,
		Source: source{
			Topic:     msg.Topic,
			Partition: msg.Partition,
			Offset:    msg.Offset,
			Key:       msg.Key,
		},
		Payload: string(msg.Data),
	}
}

// GetID returns the identifier for this failure target
func (dl *DeadLetterFailure) GetID() string {
	return dl.target.GetID()
}
