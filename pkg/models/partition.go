// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

// Partition is the routing destination assigned to an event
type Partition string

const (
	// PartitionEnriched events get a passcode and are written to the store
	PartitionEnriched Partition = "ENRICHED"

	// PartitionPassthrough events are forwarded to the queue unmodified
	PartitionPassthrough Partition = "PASSTHROUGH"
)

// RoutedEvent pairs an event with the partition it was assigned to
type RoutedEvent struct {
	Partition Partition
	Event     *UserEvent
}
