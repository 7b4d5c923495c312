// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/identity-router/cmd"
)

func main() {
	handler, err := cmd.NewServerlessHandler()
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Fatal(err)
	}

	lambda.Start(handler.HandleKafkaEvent)
}
