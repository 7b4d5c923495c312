// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package target

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/identity-router/pkg/models"
)

type stdoutPutLine struct {
	Table string                 `json:"table"`
	Key   string                 `json:"key"`
	Item  map[string]interface{} `json:"item"`
}

type stdoutSendLine struct {
	Queue string `json:"queue"`
	ID    string `json:"id"`
	Body  string `json:"body"`
}

// StdoutTarget prints entries instead of delivering them. It stands in for
// either sink so the router can be run locally.
type StdoutTarget struct {
	output io.Writer
	name   string

	log *log.Entry
}

// NewStdoutTarget creates a new client for writing entries to stdout
func NewStdoutTarget(name string) (*StdoutTarget, error) {
	return NewStdoutTargetWithInterfaces(os.Stdout, name)
}

// NewStdoutTargetWithInterfaces allows you to provide a writer directly to allow
// for testing
func NewStdoutTargetWithInterfaces(writer io.Writer, name string) (*StdoutTarget, error) {
	return &StdoutTarget{
		output: writer,
		name:   name,
		log:    log.WithFields(log.Fields{"target": "stdout", "name": name}),
	}, nil
}

// Put prints one line per item in its plain JSON form
func (st *StdoutTarget) Put(ctx context.Context, entries []*models.PutEntry) (*models.DispatchResult, error) {
	st.log.Debugf("Writing %d items to stdout ...", len(entries))

	for _, entry := range entries {
		var item map[string]interface{}
		if err := dynamodbattribute.UnmarshalMap(entry.Item, &item); err != nil {
			return nil, errors.Wrap(err, "Failed to unmarshal item")
		}

		if err := st.println(stdoutPutLine{Table: st.name, Key: entry.Key, Item: item}); err != nil {
			return nil, err
		}
	}

	return &models.DispatchResult{Calls: 1, Sent: int64(len(entries))}, nil
}

// Send prints one line per message
func (st *StdoutTarget) Send(ctx context.Context, entries []*models.SendEntry) (*models.DispatchResult, error) {
	st.log.Debugf("Writing %d messages to stdout ...", len(entries))

	for _, entry := range entries {
		if err := st.println(stdoutSendLine{Queue: st.name, ID: entry.ID, Body: entry.Body}); err != nil {
			return nil, err
		}
	}

	return &models.DispatchResult{Calls: 1, Sent: int64(len(entries))}, nil
}

func (st *StdoutTarget) println(v interface{}) error {
	line, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal stdout line")
	}
	_, err = fmt.Fprintf(st.output, "%s\n", line)
	return err
}

// GetID returns the identifier for this target
func (st *StdoutTarget) GetID() string {
	return "stdout"
}
