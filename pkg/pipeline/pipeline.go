// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/identity-router/pkg/batch"
	"github.com/snowplow-devops/identity-router/pkg/decoder"
	"github.com/snowplow-devops/identity-router/pkg/dispatcher"
	"github.com/snowplow-devops/identity-router/pkg/failure/failureiface"
	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/observer"
	"github.com/snowplow-devops/identity-router/pkg/router"
)

// Pipeline runs one batch of raw records through decode, route, build and
// dispatch
type Pipeline struct {
	enricher   *router.Enricher
	dispatcher *dispatcher.Dispatcher
	failure    failureiface.Failure
	reporter   observer.Reporter

	log *log.Entry
}

// New returns a Pipeline. A nil failure target makes the first malformed
// record abort the whole invocation; a nil reporter disables metrics.
func New(enricher *router.Enricher, d *dispatcher.Dispatcher, f failureiface.Failure, reporter observer.Reporter) *Pipeline {
	return &Pipeline{
		enricher:   enricher,
		dispatcher: d,
		failure:    f,
		reporter:   reporter,
		log:        log.WithFields(log.Fields{"component": "pipeline"}),
	}
}

// Process handles one invocation. Messages are acked only once every sink
// accepted everything it was sent.
func (p *Pipeline) Process(ctx context.Context, messages []*models.Message) error {
	buffer := &models.ObserverBuffer{
		Invocations:  1,
		RecordsTotal: int64(len(messages)),
	}
	if p.reporter != nil {
		defer p.reporter.Report(buffer)
	}

	p.log.Debugf("Processing %d records ...", len(messages))

	events := make([]*models.UserEvent, 0, len(messages))
	var malformed []*models.MalformedMessage

	for _, msg := range messages {
		event, err := decoder.Decode(msg)
		if err != nil {
			buffer.RecordsMalformed++
			if p.failure == nil {
				return err
			}
			malformed = append(malformed, &models.MalformedMessage{Message: msg, Err: err})
			continue
		}
		events = append(events, event)
	}

	if len(malformed) > 0 {
		p.log.Warnf("Dead-lettering %d malformed records", len(malformed))
		res, err := p.failure.WriteMalformed(ctx, malformed)
		if res != nil {
			buffer.RecordsDeadLettered += res.Sent
		}
		if err != nil {
			return errors.Wrap(err, "Failed to dead-letter malformed records")
		}
	}

	routed := p.enricher.Route(events)
	for _, r := range routed {
		if r.Partition == models.PartitionEnriched {
			buffer.EventsEnriched++
		} else {
			buffer.EventsPassthrough++
		}
	}

	batches, err := batch.Build(routed)
	if err != nil {
		return err
	}

	report, err := p.dispatcher.Dispatch(ctx, batches)
	buffer.AppendReport(report)
	buffer.AppendLatencies(messages, time.Now().UTC())
	if err != nil {
		return err
	}

	models.AckMessages(messages)
	p.log.Debugf("Processed %d records (%d enriched, %d passthrough)", len(messages), buffer.EventsEnriched, buffer.EventsPassthrough)
	return nil
}
