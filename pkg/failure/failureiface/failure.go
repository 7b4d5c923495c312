// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package failureiface

import (
	"context"

	"github.com/snowplow-devops/identity-router/pkg/models"
)

// Failure describes the interface for where to push records that can never
// be routed and therefore should no longer be retried
type Failure interface {
	WriteMalformed(ctx context.Context, malformed []*models.MalformedMessage) (*models.DispatchResult, error)
	GetID() string
}
