// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

// MalformedMessage pairs a message which could not be decoded with the
// reason why
type MalformedMessage struct {
	Message *Message
	Err     error
}
