package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type TopicSpec struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	// MaxWait bounds how long EnsureTopics waits for partition leaders.
	MaxWait time.Duration
}

func (s TopicSpec) withDefaults() TopicSpec {
	if s.NumPartitions <= 0 {
		s.NumPartitions = 1
	}
	if s.ReplicationFactor <= 0 {
		s.ReplicationFactor = 1
	}
	if s.MaxWait <= 0 {
		s.MaxWait = 5 * time.Second
	}
	return s
}

// EnsureTopics creates the missing topics through the cluster controller and
// waits until every partition has a leader. Existing topics are left as is.
func EnsureTopics(ctx context.Context, brokers []string, log *zap.Logger, specs ...TopicSpec) error {
	if log == nil {
		log = zap.NewNop()
	}
	if len(specs) == 0 {
		return nil
	}
	conn, err := dialAny(ctx, brokers)
	if err != nil {
		log.Warn("kafka dial failed", zap.Strings("brokers", brokers), zap.Error(err))
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		log.Warn("kafka controller lookup failed", zap.Error(err))
		return err
	}
	cc, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		log.Warn("kafka dial controller failed", zap.Error(err))
		return err
	}
	defer cc.Close()

	cfgs := make([]kafka.TopicConfig, 0, len(specs))
	for i := range specs {
		specs[i] = specs[i].withDefaults()
		cfgs = append(cfgs, kafka.TopicConfig{
			Topic:             specs[i].Name,
			NumPartitions:     specs[i].NumPartitions,
			ReplicationFactor: specs[i].ReplicationFactor,
		})
	}
	if err := cc.CreateTopics(cfgs...); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("create topics: %w", err)
	}

	for _, s := range specs {
		if err := waitLeaders(ctx, conn, s); err != nil {
			log.Warn("topic not ready", zap.String("topic", s.Name), zap.Error(err))
			return err
		}
		log.Info("topic ready", zap.String("topic", s.Name), zap.Int("partitions", s.NumPartitions))
	}
	return nil
}

func dialAny(ctx context.Context, brokers []string) (*kafka.Conn, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	var errs []error
	for _, b := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err == nil {
			return conn, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func waitLeaders(ctx context.Context, conn *kafka.Conn, s TopicSpec) error {
	ctx, cancel := context.WithTimeout(ctx, s.MaxWait)
	defer cancel()

	backoff := 100 * time.Millisecond
	for {
		parts, err := conn.ReadPartitions(s.Name)
		if err == nil && len(parts) > 0 && allHaveLeader(parts) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("topic %s: no leaders after %s", s.Name, s.MaxWait)
		case <-time.After(backoff):
		}
		backoff = min(2*backoff, time.Second)
	}
}

func allHaveLeader(parts []kafka.Partition) bool {
	for _, p := range parts {
		if p.Leader.ID < 0 {
			return false
		}
	}
	return true
}
