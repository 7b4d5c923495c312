// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package dispatcher

import (
	"context"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/target/targetiface"
)

// Dispatcher hands each non-empty batch to its sink
type Dispatcher struct {
	store targetiface.StoreTarget
	queue targetiface.QueueTarget

	log *log.Entry
}

// NewDispatcher returns a Dispatcher bound to both sinks
func NewDispatcher(store targetiface.StoreTarget, queue targetiface.QueueTarget) *Dispatcher {
	return &Dispatcher{
		store: store,
		queue: queue,
		log:   log.WithFields(log.Fields{"component": "dispatcher", "store": store.GetID(), "queue": queue.GetID()}),
	}
}

// Dispatch issues the store call and then the queue call. An empty batch
// issues no call at all. A failing store call does not prevent the queue
// call; both failures are returned together.
func (d *Dispatcher) Dispatch(ctx context.Context, batches *models.Batches) (*models.DispatchReport, error) {
	report := &models.DispatchReport{}
	var errResult error

	if len(batches.Store) > 0 {
		res, err := d.store.Put(ctx, batches.Store)
		report.Store = orEmpty(res)
		if err != nil {
			errResult = multierror.Append(errResult, asSinkError(d.store.GetID(), err))
		}
	}

	if len(batches.Queue) > 0 {
		res, err := d.queue.Send(ctx, batches.Queue)
		report.Queue = orEmpty(res)
		if err != nil {
			errResult = multierror.Append(errResult, asSinkError(d.queue.GetID(), err))
		}
	}

	if report.Store != nil || report.Queue != nil {
		d.log.Debugf("Dispatched %d store and %d queue entries", len(batches.Store), len(batches.Queue))
	}
	return report, errResult
}

func orEmpty(res *models.DispatchResult) *models.DispatchResult {
	if res == nil {
		return &models.DispatchResult{}
	}
	return res
}

// asSinkError makes sure every sink failure carries the sink it came from
func asSinkError(sink string, err error) error {
	if _, ok := err.(*models.SinkError); ok {
		return err
	}
	return &models.SinkError{Sink: sink, Err: err}
}
