package audit

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/crowdlens/crowdlens/internal/config"
	"github.com/crowdlens/crowdlens/internal/domain/models"
	"github.com/crowdlens/crowdlens/internal/domain/service"
	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

// kafkaWriter is the subset of kafka.Writer the sink uses; tests substitute
// an in-memory implementation.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes audit records to a Kafka topic, one message per
// record keyed by username.
type KafkaSink struct {
	writer  kafkaWriter
	signKey string
	logger  logger.Logger
}

// NewKafkaSink creates a KafkaSink from config.
func NewKafkaSink(cfg config.KafkaConfig, signKey string, log logger.Logger) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}
	return &KafkaSink{
		writer:  writer,
		signKey: signKey,
		logger:  log.WithComponent("KafkaAuditSink"),
	}
}

// newKafkaSinkWithWriter is the test seam.
func newKafkaSinkWithWriter(writer kafkaWriter, signKey string, log logger.Logger) *KafkaSink {
	return &KafkaSink{writer: writer, signKey: signKey, logger: log.WithComponent("KafkaAuditSink")}
}

// Append implements service.AuditSink.
func (s *KafkaSink) Append(ctx context.Context, record *models.AuditRecord) error {
	if s.signKey != "" {
		signature, err := SignRecord(record, s.signKey)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to sign audit record")
		}
		record.Signature = signature
	}

	value, err := json.Marshal(record)
	if err != nil {
		s.logger.Error(ctx, "failed to marshal audit record", err)
		return errors.Wrap(err, errors.CodeInternal, "failed to marshal audit record")
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.Username),
		Value: value,
	})
	if err != nil {
		s.logger.Error(ctx, "failed to publish audit record", err,
			logger.String("username", record.Username))
		return errors.Wrap(err, errors.CodeTransient, "failed to publish audit record")
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

var _ service.AuditSink = (*KafkaSink)(nil)
