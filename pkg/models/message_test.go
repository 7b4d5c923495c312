// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageString(t *testing.T) {
	assert := assert.New(t)

	msg := Message{
		Data:      []byte("Hello World!"),
		Key:       "some-key",
		Topic:     "kafkaTopic",
		Partition: 1,
		Offset:    2,
	}

	assert.Equal("Topic:kafkaTopic,Partition:1,Offset:2,Key:some-key,TimeCreated:0001-01-01 00:00:00 +0000 UTC,TimePulled:0001-01-01 00:00:00 +0000 UTC,Data:Hello World!", msg.String())
	assert.Equal("kafkaTopic-1@2", msg.Location())
}

func TestAckMessages(t *testing.T) {
	assert := assert.New(t)

	acked := 0
	ackFunc := func() { acked++ }

	AckMessages([]*Message{
		{Data: []byte("a"), AckFunc: ackFunc},
		{Data: []byte("b")},
		{Data: []byte("c"), AckFunc: ackFunc},
	})

	assert.Equal(2, acked)
}

func TestUserEventWithPasscode(t *testing.T) {
	assert := assert.New(t)

	original := &UserEvent{
		ID:  "123",
		Lid: "123123",
		Data: UserData{
			FirstName: "John",
			UserType:  "user",
		},
	}

	enriched := original.WithPasscode(12345678)

	assert.False(original.HasPasscode())
	assert.Nil(original.Data.Passcode)
	assert.True(enriched.HasPasscode())
	assert.Equal(int64(12345678), *enriched.Data.Passcode)
	assert.Equal("John", enriched.Data.FirstName)
	assert.Equal("123", enriched.ID)
}

func TestGetChunkedPutEntries(t *testing.T) {
	assert := assert.New(t)

	entries := []*PutEntry{
		{Key: "1"},
		{Key: "2"},
		{Key: "3"},
		{Key: "4"},
		{Key: "5"},
	}

	res := GetChunkedPutEntries(entries, 2)
	assert.Equal(3, len(res))
	assert.Equal(2, len(res[0]))
	assert.Equal(2, len(res[1]))
	assert.Equal(1, len(res[2]))
	assert.Equal("1", res[0][0].Key)
	assert.Equal("5", res[2][0].Key)

	res1 := GetChunkedPutEntries(entries, 25)
	assert.Equal(1, len(res1))
	assert.Equal(5, len(res1[0]))

	assert.Equal(0, len(GetChunkedPutEntries(nil, 25)))
}

func TestGetChunkedPutEntries_DuplicateKeys(t *testing.T) {
	assert := assert.New(t)

	entries := []*PutEntry{
		{Key: "123"},
		{Key: "456"},
		{Key: "123"},
		{Key: "789"},
	}

	res := GetChunkedPutEntries(entries, 25)
	assert.Equal(2, len(res))
	assert.Equal([]*PutEntry{entries[0], entries[1]}, res[0])
	assert.Equal([]*PutEntry{entries[2], entries[3]}, res[1])
}

func TestGetChunkedSendEntries(t *testing.T) {
	assert := assert.New(t)

	entries := []*SendEntry{
		{ID: "1", Body: "Hello World!"},
		{ID: "2", Body: "Hello World1!"},
		{ID: "3", Body: "Hello World2!"},
		{ID: "4", Body: "Hello World3!"},
		{ID: "5", Body: "Hello World4!"},
	}

	res, oversized := GetChunkedSendEntries(entries, 2, 1000, 1000)
	assert.Equal(3, len(res))
	assert.Equal(0, len(oversized))
	assert.Equal(2, len(res[0]))
	assert.Equal(2, len(res[1]))
	assert.Equal(1, len(res[2]))

	res1, oversized1 := GetChunkedSendEntries(entries, 1000, 2, 1000)
	assert.Equal(0, len(res1))
	assert.Equal(5, len(oversized1))

	res2, oversized2 := GetChunkedSendEntries(entries, 1000, 1000, 2)
	assert.Equal(5, len(res2))
	assert.Equal(0, len(oversized2))
	for _, chunk := range res2 {
		assert.Equal(1, len(chunk))
	}
}

func TestGetChunkedSendEntries_DuplicateIDs(t *testing.T) {
	assert := assert.New(t)

	entries := []*SendEntry{
		{ID: "123", Body: "a"},
		{ID: "123", Body: "b"},
		{ID: "123", Body: "c"},
	}

	res, oversized := GetChunkedSendEntries(entries, 10, 1000, 1000)
	assert.Equal(0, len(oversized))
	assert.Equal(3, len(res))
	assert.Equal("a", res[0][0].Body)
	assert.Equal("b", res[1][0].Body)
	assert.Equal("c", res[2][0].Body)
}

func TestBatchesIsEmpty(t *testing.T) {
	assert := assert.New(t)

	assert.True((&Batches{}).IsEmpty())
	assert.False((&Batches{Store: []*PutEntry{{Key: "1"}}}).IsEmpty())
	assert.False((&Batches{Queue: []*SendEntry{{ID: "1"}}}).IsEmpty())
}
