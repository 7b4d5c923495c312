// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"fmt"
	"strings"
)

// ErrorMetadata is implemented by every error the router produces so that
// it can be reported without leaking record contents
type ErrorMetadata interface {
	ReportableType() string
	ReportableDescription() string
}

const (
	ErrorTypeConfig = "config"
	ErrorTypeDecode = "decode"
	ErrorTypeShape  = "shape"
	ErrorTypeSink   = "sink"
)

// ConfigError is returned when a required setting is missing
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Field)
}

func (e *ConfigError) ReportableType() string {
	return ErrorTypeConfig
}

func (e *ConfigError) ReportableDescription() string {
	return e.Field
}

// DecodeError is returned when a record is not valid base64 or JSON
type DecodeError struct {
	Location string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode record %s: %s", e.Location, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) ReportableType() string {
	return ErrorTypeDecode
}

func (e *DecodeError) ReportableDescription() string {
	return fmt.Sprintf("record %s is not a base64 encoded JSON document", e.Location)
}

// ShapeError is returned when a decoded record lacks a required field
type ShapeError struct {
	Location string
	Field    string
	Err      error
}

func (e *ShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("record %s has an invalid field %q: %s", e.Location, e.Field, e.Err)
	}
	return fmt.Sprintf("record %s is missing required field %q", e.Location, e.Field)
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

func (e *ShapeError) ReportableType() string {
	return ErrorTypeShape
}

func (e *ShapeError) ReportableDescription() string {
	return e.Field
}

// SinkError is returned when a bulk call was rejected, the sink was
// unreachable or some entries were not accepted
type SinkError struct {
	Sink   string
	Failed []string
	Err    error
}

func (e *SinkError) Error() string {
	if len(e.Failed) > 0 {
		return fmt.Sprintf("sink %s failed for entries [%s]: %s", e.Sink, strings.Join(e.Failed, ","), e.Err)
	}
	return fmt.Sprintf("sink %s failed: %s", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

func (e *SinkError) ReportableType() string {
	return ErrorTypeSink
}

func (e *SinkError) ReportableDescription() string {
	return e.Sink
}
