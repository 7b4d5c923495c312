// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

// AdminUserType is the discriminant value which keeps an event out of
// enrichment
const AdminUserType = "admin"

// Envelope is the decoded form of a record payload
type Envelope struct {
	EventType string     `json:"eventType"`
	Payload   *UserEvent `json:"payload"`
}

// UserEvent is a single user registration event
type UserEvent struct {
	ID   string   `json:"id" dynamodbav:"id"`
	Lid  string   `json:"lid" dynamodbav:"lid"`
	Data UserData `json:"data" dynamodbav:"data"`
}

// UserData holds the form data of a user registration
type UserData struct {
	FormID       string `json:"formId" dynamodbav:"formId"`
	FirstName    string `json:"firstName" dynamodbav:"firstName"`
	LastName     string `json:"lastName" dynamodbav:"lastName"`
	EmailAddress string `json:"emailAddress" dynamodbav:"emailAddress"`
	UserType     string `json:"userType" dynamodbav:"userType"`

	// Passcode is only ever set by enrichment
	Passcode *int64 `json:"passcode,omitempty" dynamodbav:"passcode,omitempty"`
}

// WithPasscode returns a copy of the event with the passcode set, the
// receiver is left untouched
func (e *UserEvent) WithPasscode(passcode int64) *UserEvent {
	c := *e
	c.Data.Passcode = &passcode
	return &c
}

// HasPasscode reports whether the event has been enriched
func (e *UserEvent) HasPasscode() bool {
	return e.Data.Passcode != nil
}
