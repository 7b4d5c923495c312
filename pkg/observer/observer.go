// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package observer

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/statsreceiver/statsreceiveriface"
)

// Reporter accepts the metrics of one finished invocation
type Reporter interface {
	Report(buffer *models.ObserverBuffer)
}

// Immediate logs and emits every buffer as soon as it is reported. It is
// meant for hosts where the process may be frozen between invocations.
type Immediate struct {
	statsClient statsreceiveriface.StatsReceiver

	log *log.Entry
}

// NewImmediate returns a Reporter which never buffers
func NewImmediate(statsClient statsreceiveriface.StatsReceiver) *Immediate {
	return &Immediate{
		statsClient: statsClient,
		log:         log.WithFields(log.Fields{"name": "Observer"}),
	}
}

// Report implements Reporter
func (i *Immediate) Report(buffer *models.ObserverBuffer) {
	i.log.Info(buffer.String())
	if i.statsClient != nil {
		i.statsClient.Send(buffer)
	}
}

// Observer holds the channels and settings for aggregating telemetry from
// invocations and emitting them to downstream destinations
type Observer struct {
	statsClient    statsreceiveriface.StatsReceiver
	exitSignal     chan struct{}
	stopDone       chan struct{}
	reportChan     chan *models.ObserverBuffer
	timeout        time.Duration
	reportInterval time.Duration
	isRunning      bool

	log *log.Entry
}

// New builds a new observer to be used to gather telemetry
// about invocations
func New(statsClient statsreceiveriface.StatsReceiver, timeout time.Duration, reportInterval time.Duration) *Observer {
	return &Observer{
		statsClient:    statsClient,
		exitSignal:     make(chan struct{}),
		stopDone:       make(chan struct{}),
		reportChan:     make(chan *models.ObserverBuffer, 1000),
		timeout:        timeout,
		reportInterval: reportInterval,
		log:            log.WithFields(log.Fields{"name": "Observer"}),
		isRunning:      false,
	}
}

// Start launches a goroutine which aggregates invocation metrics
func (o *Observer) Start() {
	if o.isRunning {
		o.log.Warn("Observer is already running")
		return
	}
	o.isRunning = true

	go func() {
		reportTime := time.Now().UTC().Add(o.reportInterval)
		buffer := models.ObserverBuffer{}

	ObserverLoop:
		for {
			select {
			case <-o.exitSignal:
				o.log.Warn("Received exit signal, shutting down Observer ...")

				// Attempt final flush
			DrainLoop:
				for {
					select {
					case res := <-o.reportChan:
						buffer.Append(res)
					default:
						break DrainLoop
					}
				}
				o.log.Info(buffer.String())
				if o.statsClient != nil {
					o.statsClient.Send(&buffer)
				}

				o.isRunning = false
				break ObserverLoop
			case res := <-o.reportChan:
				buffer.Append(res)
			case <-time.After(o.timeout):
				o.log.Debugf("Observer timed out after (%v) waiting for result", o.timeout)
			}

			if time.Now().UTC().After(reportTime) {
				o.log.Info(buffer.String())
				if o.statsClient != nil {
					o.statsClient.Send(&buffer)
				}

				reportTime = time.Now().UTC().Add(o.reportInterval)
				buffer = models.ObserverBuffer{}
			}
		}
		o.stopDone <- struct{}{}
	}()
}

// Stop issues a signal to halt observer processing
func (o *Observer) Stop() {
	o.log.Info("Observer Stop() called")
	if o.isRunning {
		o.exitSignal <- struct{}{}
		<-o.stopDone
	}
}

// Report pushes the metrics of one invocation onto a channel for
// aggregation by the observer
func (o *Observer) Report(buffer *models.ObserverBuffer) {
	o.reportChan <- buffer
}
