// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package cmd

import (
	"github.com/snowplow-devops/identity-router/config"
	"github.com/snowplow-devops/identity-router/pkg/dispatcher"
	"github.com/snowplow-devops/identity-router/pkg/observer"
	"github.com/snowplow-devops/identity-router/pkg/passcode"
	"github.com/snowplow-devops/identity-router/pkg/pipeline"
	"github.com/snowplow-devops/identity-router/pkg/router"
)

// NewPipeline builds the sinks named by the config and joins them into a
// pipeline reporting to the given reporter
func NewPipeline(cfg *config.Config, reporter observer.Reporter) (*pipeline.Pipeline, error) {
	store, err := cfg.GetStoreTarget()
	if err != nil {
		return nil, err
	}

	queue, err := cfg.GetQueueTarget()
	if err != nil {
		return nil, err
	}

	ft, err := cfg.GetFailureTarget(AppName, AppVersion)
	if err != nil {
		return nil, err
	}

	enricher := router.NewEnricher(passcode.NewGenerator())
	d := dispatcher.NewDispatcher(store, queue)

	return pipeline.New(enricher, d, ft, reporter), nil
}
