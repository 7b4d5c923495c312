// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/passcode"
	"github.com/snowplow-devops/identity-router/pkg/testutil"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		UserType string
		Expected models.Partition
	}{
		{"admin", models.PartitionPassthrough},
		{"user", models.PartitionEnriched},
		{"Admin", models.PartitionEnriched},
		{"ADMIN", models.PartitionEnriched},
		{" admin", models.PartitionEnriched},
		{"admin ", models.PartitionEnriched},
		{"", models.PartitionEnriched},
		{"superadmin", models.PartitionEnriched},
	}

	for _, tt := range testCases {
		t.Run(tt.UserType, func(t *testing.T) {
			assert := assert.New(t)

			event := testutil.GetTestUserEvent("1", tt.UserType)
			assert.Equal(tt.Expected, Classify(event))
			assert.Equal(tt.Expected, Classify(event))
		})
	}
}

func TestEnrich(t *testing.T) {
	assert := assert.New(t)

	calls := 0
	e := NewEnricher(passcode.GeneratorFunc(func() int64 {
		calls++
		return int64(10000000 + calls)
	}))

	event := testutil.GetTestUserEvent("1", "user")
	enriched := e.Enrich(event)

	assert.Equal(1, calls)
	assert.False(event.HasPasscode())
	assert.Equal(int64(10000001), *enriched.Data.Passcode)
	assert.Equal(event.Data.EmailAddress, enriched.Data.EmailAddress)
}

func TestRoute(t *testing.T) {
	assert := assert.New(t)

	calls := 0
	e := NewEnricher(passcode.GeneratorFunc(func() int64 {
		calls++
		return int64(20000000 + calls)
	}))

	events := []*models.UserEvent{
		testutil.GetTestUserEvent("1", "admin"),
		testutil.GetTestUserEvent("2", "user"),
		testutil.GetTestUserEvent("3", "guest"),
		testutil.GetTestUserEvent("4", "admin"),
	}

	routed := e.Route(events)

	assert.Equal(2, calls)
	assert.Equal(4, len(routed))

	assert.Equal(models.PartitionPassthrough, routed[0].Partition)
	assert.Equal("1", routed[0].Event.ID)
	assert.False(routed[0].Event.HasPasscode())
	assert.Same(events[0], routed[0].Event)

	assert.Equal(models.PartitionEnriched, routed[1].Partition)
	assert.Equal("2", routed[1].Event.ID)
	assert.Equal(int64(20000001), *routed[1].Event.Data.Passcode)

	assert.Equal(models.PartitionEnriched, routed[2].Partition)
	assert.Equal(int64(20000002), *routed[2].Event.Data.Passcode)

	assert.Equal(models.PartitionPassthrough, routed[3].Partition)
	assert.False(routed[3].Event.HasPasscode())

	for _, event := range events {
		assert.False(event.HasPasscode())
	}
}

func TestRoute_RealGenerator(t *testing.T) {
	assert := assert.New(t)

	e := NewEnricher(passcode.NewGenerator())
	routed := e.Route(testutil.GetTestUserEvents(50, "user"))

	for _, r := range routed {
		assert.Equal(models.PartitionEnriched, r.Partition)
		if assert.True(r.Event.HasPasscode()) {
			assert.GreaterOrEqual(*r.Event.Data.Passcode, passcode.Min)
			assert.LessOrEqual(*r.Event.Data.Passcode, passcode.Max)
		}
	}
}

func TestRoute_Empty(t *testing.T) {
	assert := assert.New(t)

	e := NewEnricher(passcode.NewGenerator())
	assert.Equal(0, len(e.Route(nil)))
}
