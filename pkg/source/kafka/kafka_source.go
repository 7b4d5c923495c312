// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package kafkasource

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/identity-router/pkg/common"
	"github.com/snowplow-devops/identity-router/pkg/models"
	"github.com/snowplow-devops/identity-router/pkg/source/sourceiface"
)

// Configuration configures the source for records
type Configuration struct {
	Brokers        string `hcl:"brokers,optional" env:"SOURCE_KAFKA_BROKERS"`
	TopicName      string `hcl:"topic_name,optional" env:"SOURCE_KAFKA_TOPIC_NAME"`
	ConsumerName   string `hcl:"consumer_name,optional" env:"SOURCE_KAFKA_CONSUMER_NAME"`
	OffsetsInitial int64  `hcl:"offsets_initial,optional" env:"SOURCE_KAFKA_OFFSETS_INITIAL"`

	Assignor      string `hcl:"assignor,optional" env:"SOURCE_KAFKA_ASSIGNOR"`
	TargetVersion string `hcl:"target_version,optional" env:"SOURCE_KAFKA_TARGET_VERSION"`
	EnableSASL    bool   `hcl:"enable_sasl,optional" env:"SOURCE_KAFKA_ENABLE_SASL"`
	SASLUsername  string `hcl:"sasl_username,optional" env:"SOURCE_KAFKA_SASL_USERNAME"`
	SASLPassword  string `hcl:"sasl_password,optional" env:"SOURCE_KAFKA_SASL_PASSWORD"`
	SASLAlgorithm string `hcl:"sasl_algorithm,optional" env:"SOURCE_KAFKA_SASL_ALGORITHM"`
	CertFile      string `hcl:"cert_file,optional" env:"SOURCE_KAFKA_TLS_CERT_FILE"`
	KeyFile       string `hcl:"key_file,optional" env:"SOURCE_KAFKA_TLS_KEY_FILE"`
	CaFile        string `hcl:"ca_file,optional" env:"SOURCE_KAFKA_TLS_CA_FILE"`
	SkipVerifyTLS bool   `hcl:"skip_verify_tls,optional" env:"SOURCE_KAFKA_TLS_SKIP_VERIFY_TLS"`
}

// KafkaSource holds a new client for reading messages from Apache Kafka
type KafkaSource struct {
	topic         string
	brokers       string
	batchSize     int
	flushInterval time.Duration
	cancel        context.CancelFunc

	client sarama.ConsumerGroup

	log *log.Entry
}

// consumer represents a Sarama consumer group consumer
type consumer struct {
	batchSize     int
	flushInterval time.Duration
	source        *sourceiface.SourceFunctions

	log *log.Entry
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (c *consumer) Setup(sarama.ConsumerGroupSession) error {
	c.log.Debugf("New session started")
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (c *consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim accumulates the messages of a claim into batches of at most
// batchSize, flushing early when flushInterval passes. A batch which fails
// ends the session without marking its offsets so that the next session
// resumes from the last committed offset.
func (c *consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := context.Background()
	if session != nil {
		ctx = session.Context()
	}

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	var batch []*models.Message
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.source.ProcessBatch(ctx, batch)
		batch = nil
		return err
	}

	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return flush()
			}
			batch = append(batch, c.newMessage(session, message))
			if len(batch) >= c.batchSize {
				if err := flush(); err != nil {
					c.log.WithFields(log.Fields{"error": err}).Error(err)
					return err
				}
			}
		case <-ticker.C:
			if err := flush(); err != nil {
				c.log.WithFields(log.Fields{"error": err}).Error(err)
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// newMessage converts a Kafka message. The value is base64 encoded so that
// it matches the records delivered by an MSK trigger.
func (c *consumer) newMessage(session sarama.ConsumerGroupSession, message *sarama.ConsumerMessage) *models.Message {
	c.log.Debugf("Read message with key: %s", string(message.Key))

	newMessage := &models.Message{
		Data:        []byte(base64.StdEncoding.EncodeToString(message.Value)),
		Key:         string(message.Key),
		Topic:       message.Topic,
		Partition:   int64(message.Partition),
		Offset:      message.Offset,
		TimeCreated: message.Timestamp,
		TimePulled:  time.Now().UTC(),
	}
	if session != nil {
		newMessage.AckFunc = func() {
			session.MarkMessage(message, "")
		}
	}
	return newMessage
}

// Read initializes the Kafka consumer group and starts the message consumption loop
func (ks *KafkaSource) Read(sf *sourceiface.SourceFunctions) error {
	ks.log.Info("Reading messages from topic...")

	consumer := consumer{
		batchSize:     ks.batchSize,
		flushInterval: ks.flushInterval,
		source:        sf,
		log:           ks.log,
	}

	cctx, cancel := context.WithCancel(context.Background())
	// store reference to context cancel
	ks.cancel = cancel
	defer ks.client.Close()

	for {
		if err := ks.client.Consume(cctx, strings.Split(ks.topic, ","), &consumer); err != nil {
			return err
		}
		if ctxErr := cctx.Err(); ctxErr != nil {
			// cancelled on application exit
			return nil
		}
	}
}

// Stop cancels the source receiver
func (ks *KafkaSource) Stop() {
	if ks.cancel != nil {
		ks.log.Warn("Cancelling Kafka receiver...")
		ks.cancel()
	}
	ks.cancel = nil
}

// NewKafkaSource creates a new source for reading messages from Apache Kafka
func NewKafkaSource(cfg *Configuration, clientID string, batchSize int, flushInterval time.Duration) (*KafkaSource, error) {
	kafkaVersion, err := common.GetKafkaVersion(cfg.TargetVersion)
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"source":  "kafka",
		"brokers": cfg.Brokers,
		"topic":   cfg.TopicName,
		"version": kafkaVersion,
	})
	sarama.Logger = logger

	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = clientID
	saramaConfig.Version = kafkaVersion

	// -1 => OffsetNewest, -2 => OffsetOldest
	saramaConfig.Consumer.Offsets.Initial = cfg.OffsetsInitial

	// Kafka rebalance strategy, defaulted to "range"
	switch cfg.Assignor {
	case "sticky":
		saramaConfig.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategySticky
	case "roundrobin":
		saramaConfig.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	default:
		saramaConfig.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRange
	}

	if cfg.EnableSASL {
		if err := common.ConfigureSASL(saramaConfig, cfg.SASLAlgorithm, cfg.SASLUsername, cfg.SASLPassword); err != nil {
			return nil, errors.Wrap(err, "Failed to configure SASL")
		}
	}

	tlsConfig, err := common.CreateTLSConfiguration(cfg.CertFile, cfg.KeyFile, cfg.CaFile, cfg.SkipVerifyTLS)
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		saramaConfig.Net.TLS.Config = tlsConfig
		saramaConfig.Net.TLS.Enable = true
	}

	client, err := sarama.NewConsumerGroup(strings.Split(cfg.Brokers, ","), fmt.Sprintf(`%s-%s`, cfg.ConsumerName, cfg.TopicName), saramaConfig)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create Kafka client")
	}

	return NewKafkaSourceWithInterfaces(client, cfg.Brokers, cfg.TopicName, batchSize, flushInterval)
}

// NewKafkaSourceWithInterfaces allows you to provide a consumer group
// directly to allow for mocking
func NewKafkaSourceWithInterfaces(client sarama.ConsumerGroup, brokers string, topic string, batchSize int, flushInterval time.Duration) (*KafkaSource, error) {
	if batchSize < 1 {
		return nil, errors.Errorf("batch size must be at least 1, got %d", batchSize)
	}
	if flushInterval <= 0 {
		return nil, errors.Errorf("flush interval must be positive, got %v", flushInterval)
	}

	return &KafkaSource{
		topic:         topic,
		brokers:       brokers,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		client:        client,
		log:           log.WithFields(log.Fields{"source": "kafka", "brokers": brokers, "topic": topic}),
	}, nil
}

// GetID returns the identifier for this source
func (ks *KafkaSource) GetID() string {
	return fmt.Sprintf("brokers:%s:topic:%s", ks.brokers, ks.topic)
}
