// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package targetiface

import (
	"context"

	"github.com/snowplow-devops/identity-router/pkg/models"
)

// StoreTarget describes the interface for bulk upserting into the primary store
type StoreTarget interface {
	Put(ctx context.Context, entries []*models.PutEntry) (*models.DispatchResult, error)
	GetID() string
}

// QueueTarget describes the interface for bulk sending onto the message queue
type QueueTarget interface {
	Send(ctx context.Context, entries []*models.SendEntry) (*models.DispatchResult, error)
	GetID() string
}
