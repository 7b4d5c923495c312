// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package passcode

import (
	"math/rand"
	"sync"
	"time"
)

const (
	// Min is the smallest passcode that can be generated
	Min int64 = 10000000

	// Max is the largest passcode that can be generated
	Max int64 = 99999999
)

// Generator produces 8-digit numeric passcodes.
// Codes are not cryptographically secure and are not checked for uniqueness.
type Generator interface {
	Generate() int64
}

type randomGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a Generator seeded from the current time
func NewGenerator() Generator {
	return NewGeneratorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewGeneratorWithSource returns a Generator backed by the given source so
// that tests can make the output deterministic
func NewGeneratorWithSource(src rand.Source) Generator {
	return &randomGenerator{
		rnd: rand.New(src),
	}
}

// Generate returns a value uniformly distributed over [Min, Max]
func (g *randomGenerator) Generate() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return Min + g.rnd.Int63n(Max-Min+1)
}

// GeneratorFunc adapts a plain function to the Generator interface
type GeneratorFunc func() int64

// Generate calls f()
func (f GeneratorFunc) Generate() int64 {
	return f()
}
