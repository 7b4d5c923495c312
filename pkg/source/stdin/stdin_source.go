// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package stdinsource

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/twinj/uuid"

	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/source/sourceiface"
)

// Records are base64 text so a line can be far larger than the scanner
// default of 64 KiB
const maxLineBytes = 10 * 1024 * 1024

// StdinSource holds a new client for reading messages from stdin
type StdinSource struct {
	input     io.Reader
	batchSize int

	log *log.Entry
}

// NewStdinSource creates a new client for reading messages from stdin
func NewStdinSource(batchSize int) (*StdinSource, error) {
	return NewStdinSourceWithInterfaces(os.Stdin, batchSize)
}

// NewStdinSourceWithInterfaces allows you to provide the reader directly to
// allow for testing
func NewStdinSourceWithInterfaces(input io.Reader, batchSize int) (*StdinSource, error) {
	if batchSize < 1 {
		return nil, errors.Errorf("batch size must be at least 1, got %d", batchSize)
	}

	return &StdinSource{
		input:     input,
		batchSize: batchSize,
		log:       log.WithFields(log.Fields{"source": "stdin"}),
	}, nil
}

// Read will execute until CTRL + D is pressed or until EOF is passed. Every
// full batch is processed straight away and whatever is left is processed
// at EOF.
func (ss *StdinSource) Read(sf *sourceiface.SourceFunctions) error {
	ss.log.Infof("Reading messages from 'stdin', scanning until EOF detected (Note: Press 'CTRL + D' to exit)")

	ctx := context.Background()
	var batch []*models.Message
	var offset int64

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := sf.ProcessBatch(ctx, batch); err != nil {
			ss.log.WithFields(log.Fields{"error": err}).Error(err)
		}
		batch = nil
	}

	scanner := bufio.NewScanner(ss.input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		offset++
		if line == "" {
			continue
		}

		timeNow := time.Now().UTC()
		batch = append(batch, &models.Message{
			Data:        []byte(line),
			Key:         uuid.NewV4().String(),
			Topic:       "stdin",
			Offset:      offset,
			TimeCreated: timeNow,
			TimePulled:  timeNow,
		})

		if len(batch) >= ss.batchSize {
			flush()
		}
	}
	flush()

	if scanner.Err() != nil {
		return errors.Wrap(scanner.Err(), "Failed to read from stdin scanner")
	}
	return nil
}

// Stop will halt the reader processing more events
func (ss *StdinSource) Stop() {
	ss.log.Warn("Press CTRL + D to exit!")
}

// GetID returns the identifier for this source
func (ss *StdinSource) GetID() string {
	return "stdin"
}
