// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package cmd

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/pipeline"
	"github.com/snowplow-devops/identity-router/pkg/source/msk"
)

// ServerlessHandler is built once per container and reused by every
// invocation it serves
type ServerlessHandler struct {
	pipeline      *pipeline.Pipeline
	sentryEnabled bool
}

// NewServerlessHandler loads and validates the configuration and builds the
// sinks. An error here means no record can be processed.
func NewServerlessHandler() (*ServerlessHandler, error) {
	cfg, sentryEnabled, err := Init()
	if err != nil {
		return nil, err
	}

	tags, err := cfg.GetTags()
	if err != nil {
		return nil, err
	}

	reporter, err := cfg.GetReporter(tags)
	if err != nil {
		return nil, err
	}

	p, err := NewPipeline(cfg, reporter)
	if err != nil {
		return nil, err
	}

	return &ServerlessHandler{
		pipeline:      p,
		sentryEnabled: sentryEnabled,
	}, nil
}

// HandleKafkaEvent processes one MSK trigger invocation. Any error is
// returned to the runtime so that the batch is retried.
func (h *ServerlessHandler) HandleKafkaEvent(ctx context.Context, event events.KafkaEvent) error {
	return h.ServerlessRequestHandler(ctx, msksource.FromKafkaEvent(event))
}

// ServerlessRequestHandler is a common function for all
// serverless implementations to leverage
func (h *ServerlessHandler) ServerlessRequestHandler(ctx context.Context, messages []*models.Message) error {
	if h.sentryEnabled {
		defer sentry.Flush(2 * time.Second)
	}

	err := h.pipeline.Process(ctx, messages)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error(err)
	}
	return err
}
