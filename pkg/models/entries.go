// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// PutEntry is an upsert bound for the primary store
type PutEntry struct {
	Key  string
	Item map[string]*dynamodb.AttributeValue
}

// SendEntry is a message bound for the queue
type SendEntry struct {
	ID   string
	Body string
}

// Batches holds the two sink-bound entry lists of one invocation, each in
// arrival order
type Batches struct {
	Store []*PutEntry
	Queue []*SendEntry
}

// IsEmpty returns true when neither sink has anything to receive
func (b *Batches) IsEmpty() bool {
	return len(b.Store) == 0 && len(b.Queue) == 0
}

// GetChunkedPutEntries splits entries into ordered chunks holding at most
// chunkSize entries each. A new chunk is also started whenever a key is
// already present in the current chunk as the store refuses duplicate keys
// within a single request.
func GetChunkedPutEntries(entries []*PutEntry, chunkSize int) [][]*PutEntry {
	bounds := chunkBounds(
		len(entries),
		chunkSize,
		0,
		func(i int) string { return entries[i].Key },
		func(i int) int { return 0 },
	)

	divided := make([][]*PutEntry, 0, len(bounds))
	for _, b := range bounds {
		divided = append(divided, entries[b[0]:b[1]])
	}
	return divided
}

// GetChunkedSendEntries returns an array of chunked entry arrays from the
// original slice by taking into account:
//
// 1. How many entries can be in a chunk
// 2. How big any individual body can be (in bytes)
// 3. How many bytes can be in a chunk
// 4. That an ID can only appear once per chunk
//
// Bodies above maxEntryByteSize are returned separately as oversized.
func GetChunkedSendEntries(entries []*SendEntry, chunkSize int, maxEntryByteSize int, maxChunkByteSize int) (divided [][]*SendEntry, oversized []*SendEntry) {
	var safe []*SendEntry
	for _, entry := range entries {
		if len(entry.Body) > maxEntryByteSize {
			oversized = append(oversized, entry)
		} else {
			safe = append(safe, entry)
		}
	}

	bounds := chunkBounds(
		len(safe),
		chunkSize,
		maxChunkByteSize,
		func(i int) string { return safe[i].ID },
		func(i int) int { return len(safe[i].Body) },
	)
	for _, b := range bounds {
		divided = append(divided, safe[b[0]:b[1]])
	}
	return divided, oversized
}

// chunkBounds returns [start, end) ranges over n consecutive entries. A
// maxChunkBytes of 0 disables the byte limit.
func chunkBounds(n int, chunkSize int, maxChunkBytes int, keyAt func(int) string, sizeAt func(int) int) [][2]int {
	var bounds [][2]int

	start := 0
	chunkBytes := 0
	seen := map[string]struct{}{}

	for i := 0; i < n; i++ {
		key := keyAt(i)
		size := sizeAt(i)
		_, duplicate := seen[key]

		full := i-start == chunkSize ||
			duplicate ||
			(maxChunkBytes > 0 && chunkBytes > 0 && chunkBytes+size > maxChunkBytes)

		if full && i > start {
			bounds = append(bounds, [2]int{start, i})
			start = i
			chunkBytes = 0
			seen = map[string]struct{}{}
		}

		seen[key] = struct{}{}
		chunkBytes += size
	}

	if n > start {
		bounds = append(bounds, [2]int{start, n})
	}
	return bounds
}
