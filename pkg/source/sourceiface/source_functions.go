// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package sourceiface

import (
	"context"

	"github.com/snowplow-devops/identity-router/pkg/models"
)

// SourceFunctions contain the callback functions required by each source
type SourceFunctions struct {
	// ProcessBatch runs one invocation over a batch of messages. Messages
	// are acked through their AckFunc once the batch succeeded.
	ProcessBatch func(ctx context.Context, messages []*models.Message) error
}
