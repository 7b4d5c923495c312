// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"

	"github.com/snowplow-devops/identity-router/pkg/failure"
	"github.com/snowplow-devops/identity-router/pkg/failure/failureiface"
	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/observer"
	"github.com/snowplow-devops/identity-router/pkg/source/kafka"
	"github.com/snowplow-devops/identity-router/pkg/source/sourceiface"
	"github.com/snowplow-devops/identity-router/pkg/source/stdin"
	"github.com/snowplow-devops/identity-router/pkg/statsreceiver"
	"github.com/snowplow-devops/identity-router/pkg/statsreceiver/statsreceiveriface"
	"github.com/snowplow-devops/identity-router/pkg/target"
	"github.com/snowplow-devops/identity-router/pkg/target/targetiface"
)

// ConfigFileEnvVar names the variable pointing at an HCL configuration file
const ConfigFileEnvVar = "IDENTITY_ROUTER_CONFIG_FILE"

// Config holds the configuration data
type Config struct {
	Data *ConfigurationData
}

// ConfigurationData for holding all configuration options
type ConfigurationData struct {
	TableName       string `hcl:"table_name,optional" env:"TABLE_NAME"`
	QueueURL        string `hcl:"queue_url,optional" env:"IDENTITY_LOOKUP_QUEUE"`
	FailureQueueURL string `hcl:"failure_queue_url,optional" env:"FAILURE_QUEUE_URL"`
	StoreTarget     string `hcl:"store_target,optional" env:"STORE_TARGET"`
	QueueTarget     string `hcl:"queue_target,optional" env:"QUEUE_TARGET"`

	AWS           *AWSConfig      `hcl:"aws,block"`
	Dispatch      *DispatchConfig `hcl:"dispatch,block"`
	Source        *SourceConfig   `hcl:"source,block"`
	Sentry        *SentryConfig   `hcl:"sentry,block"`
	StatsReceiver *StatsConfig    `hcl:"stats_receiver,block"`

	LogLevel string `hcl:"log_level,optional" env:"LOG_LEVEL"`
}

// AWSConfig configures how the AWS sinks connect
type AWSConfig struct {
	Region   string `hcl:"region,optional" env:"AWS_REGION"`
	RoleARN  string `hcl:"role_arn,optional" env:"AWS_ROLE_ARN"`
	Endpoint string `hcl:"endpoint,optional" env:"AWS_ENDPOINT"`
}

// DispatchConfig configures retries of items the store left unprocessed
type DispatchConfig struct {
	MaxAttempts  int `hcl:"max_attempts,optional" env:"DISPATCH_MAX_ATTEMPTS"`
	RetryDelayMs int `hcl:"retry_delay_ms,optional" env:"DISPATCH_RETRY_DELAY_MS"`
}

// SourceConfig configures the long running source used by the CLI
type SourceConfig struct {
	Name            string                     `hcl:"name,optional" env:"SOURCE_NAME"`
	BatchSize       int                        `hcl:"batch_size,optional" env:"SOURCE_BATCH_SIZE"`
	FlushIntervalMs int                        `hcl:"flush_interval_ms,optional" env:"SOURCE_FLUSH_INTERVAL_MS"`
	Kafka           *kafkasource.Configuration `hcl:"kafka,block"`
}

// SentryConfig configures the Sentry error tracker.
type SentryConfig struct {
	Dsn   string `hcl:"dsn,optional" env:"SENTRY_DSN"`
	Tags  string `hcl:"tags,optional" env:"SENTRY_TAGS"`
	Debug bool   `hcl:"debug,optional" env:"SENTRY_DEBUG"`
}

// StatsConfig holds configuration for the StatsD stats receiver
type StatsConfig struct {
	Address    string `hcl:"address,optional" env:"STATS_RECEIVER_STATSD_ADDRESS"`
	Prefix     string `hcl:"prefix,optional" env:"STATS_RECEIVER_STATSD_PREFIX"`
	Tags       string `hcl:"tags,optional" env:"STATS_RECEIVER_STATSD_TAGS"`
	TimeoutSec int    `hcl:"timeout_sec,optional" env:"STATS_RECEIVER_TIMEOUT_SEC"`
	BufferSec  int    `hcl:"buffer_sec,optional" env:"STATS_RECEIVER_BUFFER_SEC"`
}

// defaultConfigData returns the initial main configuration target.
func defaultConfigData() *ConfigurationData {
	return &ConfigurationData{
		StoreTarget: "dynamodb",
		QueueTarget: "sqs",
		AWS: &AWSConfig{
			Region: "us-east-1",
		},
		Dispatch: &DispatchConfig{
			MaxAttempts:  5,
			RetryDelayMs: 100,
		},
		Source: &SourceConfig{
			Name:            "stdin",
			BatchSize:       100,
			FlushIntervalMs: 1000,
			Kafka: &kafkasource.Configuration{
				Assignor:       "range",
				SASLAlgorithm:  "sha512",
				OffsetsInitial: -2,
			},
		},
		Sentry: &SentryConfig{
			Tags: "{}",
		},
		StatsReceiver: &StatsConfig{
			Prefix:     "snowplow.identity-router",
			Tags:       "{}",
			TimeoutSec: 1,
			BufferSec:  15,
		},
		LogLevel: "info",
	}
}

// NewConfig returns a configuration read from the file named by
// IDENTITY_ROUTER_CONFIG_FILE or, when unset, from the environment
func NewConfig() (*Config, error) {
	filename := os.Getenv(ConfigFileEnvVar)
	if filename == "" {
		return newEnvConfig()
	}

	switch suffix := strings.ToLower(filepath.Ext(filename)); suffix {
	case ".hcl":
		return newHclConfig(filename)
	default:
		return nil, errors.New("invalid extension for the configuration file")
	}
}

func newEnvConfig() (*Config, error) {
	configData := defaultConfigData()
	envDecoder := &envDecoder{}

	if err := envDecoder.decode(&DecoderOptions{}, configData); err != nil {
		return nil, err
	}
	fillDefaults(configData)

	return &Config{Data: configData}, nil
}

func newHclConfig(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	parser := hclparse.NewParser()
	fileHCL, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	configData := defaultConfigData()
	hclDecoder := &hclDecoder{EvalContext: createHclContext()}

	if err := hclDecoder.decode(&DecoderOptions{Input: fileHCL.Body}, configData); err != nil {
		return nil, err
	}
	fillDefaults(configData)

	return &Config{Data: configData}, nil
}

// fillDefaults restores defaults for anything a file left out. gohcl
// replaces a block wholesale, so an absent block comes back nil and a
// present block loses the defaults of the attributes it omits.
func fillDefaults(d *ConfigurationData) {
	def := defaultConfigData()

	if d.StoreTarget == "" {
		d.StoreTarget = def.StoreTarget
	}
	if d.QueueTarget == "" {
		d.QueueTarget = def.QueueTarget
	}
	if d.LogLevel == "" {
		d.LogLevel = def.LogLevel
	}

	if d.AWS == nil {
		d.AWS = def.AWS
	} else if d.AWS.Region == "" {
		d.AWS.Region = def.AWS.Region
	}

	if d.Dispatch == nil {
		d.Dispatch = def.Dispatch
	} else {
		if d.Dispatch.MaxAttempts == 0 {
			d.Dispatch.MaxAttempts = def.Dispatch.MaxAttempts
		}
		if d.Dispatch.RetryDelayMs == 0 {
			d.Dispatch.RetryDelayMs = def.Dispatch.RetryDelayMs
		}
	}

	if d.Source == nil {
		d.Source = def.Source
	} else {
		if d.Source.Name == "" {
			d.Source.Name = def.Source.Name
		}
		if d.Source.BatchSize == 0 {
			d.Source.BatchSize = def.Source.BatchSize
		}
		if d.Source.FlushIntervalMs == 0 {
			d.Source.FlushIntervalMs = def.Source.FlushIntervalMs
		}
		if d.Source.Kafka == nil {
			d.Source.Kafka = def.Source.Kafka
		} else {
			if d.Source.Kafka.Assignor == "" {
				d.Source.Kafka.Assignor = def.Source.Kafka.Assignor
			}
			if d.Source.Kafka.SASLAlgorithm == "" {
				d.Source.Kafka.SASLAlgorithm = def.Source.Kafka.SASLAlgorithm
			}
			if d.Source.Kafka.OffsetsInitial == 0 {
				d.Source.Kafka.OffsetsInitial = def.Source.Kafka.OffsetsInitial
			}
		}
	}

	if d.Sentry == nil {
		d.Sentry = def.Sentry
	} else if d.Sentry.Tags == "" {
		d.Sentry.Tags = def.Sentry.Tags
	}

	if d.StatsReceiver == nil {
		d.StatsReceiver = def.StatsReceiver
	} else {
		if d.StatsReceiver.Prefix == "" {
			d.StatsReceiver.Prefix = def.StatsReceiver.Prefix
		}
		if d.StatsReceiver.Tags == "" {
			d.StatsReceiver.Tags = def.StatsReceiver.Tags
		}
		if d.StatsReceiver.TimeoutSec == 0 {
			d.StatsReceiver.TimeoutSec = def.StatsReceiver.TimeoutSec
		}
		if d.StatsReceiver.BufferSec == 0 {
			d.StatsReceiver.BufferSec = def.StatsReceiver.BufferSec
		}
	}
}

// Validate checks that both sink addresses are present. It must pass before
// any record is processed.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Data.TableName) == "" {
		return &models.ConfigError{Field: "TABLE_NAME"}
	}
	if strings.TrimSpace(c.Data.QueueURL) == "" {
		return &models.ConfigError{Field: "IDENTITY_LOOKUP_QUEUE"}
	}
	return nil
}

// GetStoreTarget builds and returns the primary store sink
func (c *Config) GetStoreTarget() (targetiface.StoreTarget, error) {
	switch c.Data.StoreTarget {
	case "dynamodb":
		return target.NewDynamoDBTarget(
			c.Data.AWS.Region,
			c.Data.TableName,
			c.Data.AWS.RoleARN,
			c.Data.AWS.Endpoint,
			c.Data.Dispatch.MaxAttempts,
			time.Duration(c.Data.Dispatch.RetryDelayMs)*time.Millisecond,
		)
	case "stdout":
		return target.NewStdoutTarget(c.Data.TableName)
	default:
		return nil, errors.New(fmt.Sprintf("Invalid store target found; expected one of 'dynamodb, stdout' and got '%s'", c.Data.StoreTarget))
	}
}

// GetQueueTarget builds and returns the message queue sink
func (c *Config) GetQueueTarget() (targetiface.QueueTarget, error) {
	return c.newQueueTarget(c.Data.QueueURL)
}

func (c *Config) newQueueTarget(queueURL string) (targetiface.QueueTarget, error) {
	switch c.Data.QueueTarget {
	case "sqs":
		return target.NewSQSTarget(
			c.Data.AWS.Region,
			queueURL,
			c.Data.AWS.RoleARN,
			c.Data.AWS.Endpoint,
		)
	case "stdout":
		return target.NewStdoutTarget(queueURL)
	default:
		return nil, errors.New(fmt.Sprintf("Invalid queue target found; expected one of 'sqs, stdout' and got '%s'", c.Data.QueueTarget))
	}
}

// GetFailureTarget builds the dead-letter target for malformed records. It
// returns nil when no failure queue is configured, in which case a
// malformed record fails the whole invocation.
func (c *Config) GetFailureTarget(appName string, appVersion string) (failureiface.Failure, error) {
	if c.Data.FailureQueueURL == "" {
		return nil, nil
	}

	t, err := c.newQueueTarget(c.Data.FailureQueueURL)
	if err != nil {
		return nil, err
	}
	return failure.NewDeadLetterFailure(t, appName, appVersion)
}

// GetSource builds and returns the source used by the CLI
func (c *Config) GetSource(clientID string) (sourceiface.Source, error) {
	sourceConfig := c.Data.Source

	switch sourceConfig.Name {
	case "stdin":
		return stdinsource.NewStdinSource(sourceConfig.BatchSize)
	case "kafka":
		return kafkasource.NewKafkaSource(
			sourceConfig.Kafka,
			clientID,
			sourceConfig.BatchSize,
			time.Duration(sourceConfig.FlushIntervalMs)*time.Millisecond,
		)
	default:
		return nil, errors.New(fmt.Sprintf("Invalid source found; expected one of 'stdin, kafka' and got '%s'", sourceConfig.Name))
	}
}

// GetStatsReceiver builds the StatsD receiver. It returns nil when no
// address is configured.
func (c *Config) GetStatsReceiver(tags map[string]string) (statsreceiveriface.StatsReceiver, error) {
	statsConfig := c.Data.StatsReceiver
	if statsConfig.Address == "" {
		return nil, nil
	}

	return statsreceiver.NewStatsDStatsReceiver(
		statsConfig.Address,
		statsConfig.Prefix,
		statsConfig.Tags,
		tags,
	)
}

// GetObserver builds the aggregating observer used by long running sources
func (c *Config) GetObserver(tags map[string]string) (*observer.Observer, error) {
	sr, err := c.GetStatsReceiver(tags)
	if err != nil {
		return nil, err
	}
	return observer.New(
		sr,
		time.Duration(c.Data.StatsReceiver.TimeoutSec)*time.Second,
		time.Duration(c.Data.StatsReceiver.BufferSec)*time.Second,
	), nil
}

// GetReporter builds the reporter used by the serverless handler, which
// emits the metrics of every invocation immediately
func (c *Config) GetReporter(tags map[string]string) (*observer.Immediate, error) {
	sr, err := c.GetStatsReceiver(tags)
	if err != nil {
		return nil, err
	}
	return observer.NewImmediate(sr), nil
}

// GetTags returns a list of tags to use in identifying this instance
func (c *Config) GetTags() (map[string]string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get hostname")
	}

	processID := os.Getpid()
	tags := map[string]string{
		"host":       hostname,
		"process_id": strconv.Itoa(processID),
	}

	return tags, nil
}
