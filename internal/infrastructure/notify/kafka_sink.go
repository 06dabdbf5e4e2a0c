package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DRSN-tech/ordering-backend/internal/cfg"
	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const protoStructContentType = "application/x-protobuf; messageType=google.protobuf.Struct"

// KafkaSink пишет события в один топик. Ключ сообщения: имя канала,
// поэтому события одного канала попадают в одну партицию и сохраняют порядок.
type KafkaSink struct {
	writer *kafka.Writer
	cfg    *cfg.KafkaCfg
}

func NewKafkaSink(cfg *cfg.KafkaCfg) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}

	return &KafkaSink{
		writer: writer,
		cfg:    cfg,
	}
}

func (s *KafkaSink) Send(ctx context.Context, ev *Event) error {
	msg, err := encodeMessage(ev)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// EnsureTopic создаёт топик, если его ещё нет.
func (s *KafkaSink) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(s.cfg.NetworkMode, s.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(s.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.CreateTopics(kafka.TopicConfig{
			Topic:             s.cfg.Topic,
			NumPartitions:     s.cfg.Partitions,
			ReplicationFactor: s.cfg.ReplicationFactor,
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", s.cfg.Topic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, s.cfg.Topic))
	}
}

func (s *KafkaSink) Close(context.Context) error {
	return s.writer.Close()
}

// encodeMessage кодирует конверт события как google.protobuf.Struct.
func encodeMessage(ev *Event) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return kafka.Message{}, err
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		return kafka.Message{}, err
	}

	value, err := proto.Marshal(st)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(ev.Channel),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(protoStructContentType)},
			{Key: "event-id", Value: []byte(ev.ID.String())},
		},
	}, nil
}
