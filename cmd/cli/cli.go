// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// pprof imported for the side effect of registering its HTTP handlers
	_ "net/http/pprof"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/snowplow-devops/identity-router/cmd"
	"github.com/snowplow-devops/identity-router/config"
	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/pipeline"
	"github.com/snowplow-devops/identity-router/pkg/source/sourceiface"
)

const (
	appVersion   = cmd.AppVersion
	appName      = cmd.AppName
	appUsage     = "Routes user events to the identity store or the lookup queue"
	appCopyright = "(c) 2020-2022 Snowplow Analytics Ltd. All rights reserved."
)

// RunCli allows running application from cli
func RunCli() {
	cfg, sentryEnabled, err := cmd.Init()
	if err != nil {
		exitWithError(err, sentryEnabled)
	}

	app := cli.NewApp()
	app.Name = appName
	app.Usage = appUsage
	app.Version = appVersion
	app.Copyright = appCopyright
	app.Compiled = time.Now().UTC()
	app.Authors = []cli.Author{
		{
			Name:  "Snowplow Analytics",
			Email: "support@snowplow.io",
		},
	}

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "profile, p",
			Usage: "Enable application profiling endpoint on port 8080",
		},
	}

	app.Action = func(c *cli.Context) error {
		if c.Bool("profile") {
			go func() {
				if err := http.ListenAndServe("localhost:8080", nil); err != nil {
					log.WithError(err).Fatal("failed to start up the server")
				}
			}()
		}

		tags, err := cfg.GetTags()
		if err != nil {
			return err
		}

		source, err := cfg.GetSource(tags["host"])
		if err != nil {
			return err
		}

		return RunApp(cfg, source)
	}

	app.ExitErrHandler = func(context *cli.Context, err error) {
		if err != nil {
			exitWithError(err, sentryEnabled)
		}
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Error("failed to run cli")
	}
}

// RunApp reads from the source until it is exhausted or stopped, running
// every batch it hands over through the pipeline
func RunApp(cfg *config.Config, source sourceiface.Source) error {
	tags, err := cfg.GetTags()
	if err != nil {
		return err
	}

	obs, err := cfg.GetObserver(tags)
	if err != nil {
		return err
	}
	obs.Start()

	p, err := cmd.NewPipeline(cfg, obs)
	if err != nil {
		obs.Stop()
		return err
	}

	// Handle SIGTERM
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-sig:
		case <-done:
			return
		}
		log.Warn("SIGTERM called, cleaning up and closing application ...")

		stop := make(chan struct{}, 1)
		go func() {
			source.Stop()
			stop <- struct{}{}
		}()

		select {
		case <-stop:
			log.Debug("source.Stop() finished successfully!")
		case <-time.After(5 * time.Second):
			log.Error("source.Stop() took more than 5 seconds, forcing shutdown ...")
			obs.Stop()
			os.Exit(1)
		}
	}()

	sf := sourceiface.SourceFunctions{
		ProcessBatch: sourceProcessFunc(p),
	}

	// Read is a long running process and will only return when the source
	// is exhausted or if an error occurs
	err = source.Read(&sf)
	obs.Stop()
	return err
}

// sourceProcessFunc wraps the pipeline so that every failed batch is logged
// before the source decides what to do with it
func sourceProcessFunc(p *pipeline.Pipeline) func(ctx context.Context, messages []*models.Message) error {
	return func(ctx context.Context, messages []*models.Message) error {
		err := p.Process(ctx, messages)
		if err != nil {
			log.WithFields(log.Fields{"error": err, "records": len(messages)}).Error("Failed to process batch")
		}
		return err
	}
}

// exitWithError will ensure we log the error and leave time for Sentry to flush
func exitWithError(err error, flushSentry bool) {
	log.WithFields(log.Fields{"error": err}).Error(err)
	if flushSentry {
		sentry.Flush(2 * time.Second)
	}
	os.Exit(1)
}
