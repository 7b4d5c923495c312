// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"time"
)

// DispatchResult contains the results from a sink write operation
type DispatchResult struct {
	// Calls is the number of bulk requests issued
	Calls int64

	Sent   int64
	Failed int64

	// FailedIDs holds the keys of every entry the sink did not accept
	FailedIDs []string

	// RequestLatency is the total time spent waiting on the sink
	RequestLatency time.Duration
}

// Total returns the sum of Sent + Failed entries
func (r *DispatchResult) Total() int64 {
	return r.Sent + r.Failed
}

// Append will add another result to the source one to allow for
// result concatenation and then return the resultant struct
func (r *DispatchResult) Append(nr *DispatchResult) *DispatchResult {
	rC := *r

	if nr != nil {
		rC.Calls += nr.Calls
		rC.Sent += nr.Sent
		rC.Failed += nr.Failed
		rC.FailedIDs = append(append([]string{}, rC.FailedIDs...), nr.FailedIDs...)
		rC.RequestLatency += nr.RequestLatency
	}

	return &rC
}

// DispatchReport holds the outcome of both sinks for one invocation. A nil
// result means the sink was not called.
type DispatchReport struct {
	Store *DispatchResult
	Queue *DispatchResult
}
