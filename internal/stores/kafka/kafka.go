package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Conf produces to Kafka. A nil *Conf or one without brokers drops messages,
// so the service runs without a broker in development.
type Conf struct {
	client *kgo.Client
}

func NewConf(brokers []string) (*Conf, error) {
	if len(brokers) == 0 {
		return &Conf{}, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Conf{client: client}, nil
}

func (c *Conf) Enabled() bool { return c != nil && c.client != nil }

func (c *Conf) ProduceMessage(ctx context.Context, topic string, key, value []byte) error {
	if !c.Enabled() {
		return nil
	}
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

func (c *Conf) Close() {
	if c.Enabled() {
		c.client.Close()
	}
}
