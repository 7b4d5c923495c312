// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package router

import (
	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/passcode"
)

// Classify assigns an event to a partition based on data.userType.
// Anything other than exactly "admin" is enriched; admin events pass through.
func Classify(event *models.UserEvent) models.Partition {
	if event.Data.UserType != models.AdminUserType {
		return models.PartitionEnriched
	}
	return models.PartitionPassthrough
}

// Enricher attaches generated passcodes to events
type Enricher struct {
	generator passcode.Generator
}

// NewEnricher returns an Enricher drawing codes from generator
func NewEnricher(generator passcode.Generator) *Enricher {
	return &Enricher{
		generator: generator,
	}
}

// Enrich returns a copy of the event carrying a freshly generated passcode
func (e *Enricher) Enrich(event *models.UserEvent) *models.UserEvent {
	return event.WithPasscode(e.generator.Generate())
}

// Route classifies every event in order and enriches the ones which land in
// the enriched partition. The input events are never modified.
func (e *Enricher) Route(events []*models.UserEvent) []models.RoutedEvent {
	routed := make([]models.RoutedEvent, 0, len(events))
	for _, event := range events {
		partition := Classify(event)
		if partition == models.PartitionEnriched {
			event = e.Enrich(event)
		}
		routed = append(routed, models.RoutedEvent{
			Partition: partition,
			Event:     event,
		})
	}
	return routed
}
