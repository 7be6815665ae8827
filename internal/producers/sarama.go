package producers

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/brewqueue/internal/models"
)

var errProducerClosed = errors.New("sarama producer is closed")

// SaramaProducer sends each message to the Kafka topic of the same name.
// Messages are keyed by topic, so every topic lands on one partition and
// consumers see queue snapshots in publish order.
type SaramaProducer struct {
	producer sarama.SyncProducer
}

func NewSaramaProducer(cfg *models.Config) (*SaramaProducer, error) {
	brokers := strings.Split(cfg.KafkaBrokerList, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}

	producer, err := sarama.NewSyncProducer(brokers, newSaramaConfig(cfg.KafkaTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	slog.Info("kafka producer connected", "brokers", brokers)
	return NewSaramaProducerFrom(producer), nil
}

func newSaramaConfig(timeout time.Duration) *sarama.Config {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := sarama.NewConfig()
	c.ClientID = "brewqueue"
	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Producer.Retry.Max = 5
	c.Producer.Retry.Backoff = 100 * time.Millisecond
	c.Producer.Return.Successes = true // SyncProducer needs it
	c.Producer.Partitioner = sarama.NewHashPartitioner
	c.Net.DialTimeout = timeout
	c.Net.ReadTimeout = timeout
	c.Net.WriteTimeout = timeout
	return c
}

// NewSaramaProducerFrom wraps an existing SyncProducer.
func NewSaramaProducerFrom(producer sarama.SyncProducer) *SaramaProducer {
	return &SaramaProducer{producer: producer}
}

func (s *SaramaProducer) WriteMessage(topic string, msg []byte) error {
	if s.producer == nil {
		return errProducerClosed
	}

	partition, offset, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(topic),
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}
	slog.Debug("kafka message sent", "topic", topic, "partition", partition, "offset", offset)
	return nil
}

func (s *SaramaProducer) Close() error {
	if s.producer == nil {
		return nil
	}
	err := s.producer.Close()
	s.producer = nil
	return err
}
