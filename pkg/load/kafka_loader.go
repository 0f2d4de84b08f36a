package load

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/carlosvega/corpusetl/pkg/etlerr"
	"github.com/carlosvega/corpusetl/pkg/record"
)

// KafkaLoader publishes each surviving record as a JSON-encoded
// message via a sarama SyncProducer. It is a supplemental Loader
// variant beyond spec.md §6's CSV/SQL pair, exercising the teacher's
// heaviest third-party dependency (see SPEC_FULL.md §3).
type KafkaLoader struct {
	Producer    sarama.SyncProducer
	Topic       string
	ValuesPaths []ValuesPath // when empty, the whole record is encoded
	BufferSize  int
	Logger      *logrus.Logger

	guard  singleWriterGuard
	buffer []record.Record
	closed bool
}

// Load implements Loader.
func (k *KafkaLoader) Load(_ context.Context, jobID string, records []record.Record, lastCall bool) error {
	if err := k.guard.enter("load.kafka"); err != nil {
		return err
	}
	defer k.guard.exit()

	if k.BufferSize <= 0 {
		k.BufferSize = 200
	}

	for _, r := range records {
		row, ok := k.rowOf(r)
		if !ok {
			continue
		}
		k.buffer = append(k.buffer, row)
	}

	if len(k.buffer) >= k.BufferSize || lastCall {
		return k.flush(jobID)
	}
	return nil
}

func (k *KafkaLoader) rowOf(r record.Record) (record.Record, bool) {
	if len(k.ValuesPaths) == 0 {
		return r, true
	}
	out := record.New()
	for _, vp := range k.ValuesPaths {
		v, ok := record.DeepGet(r, vp.Path)
		if !ok {
			if vp.Required {
				return nil, false
			}
			continue
		}
		out = record.DeepSet(out, record.KeyPath{vp.Title}, v)
	}
	return out, true
}

func (k *KafkaLoader) flush(jobID string) error {
	if len(k.buffer) == 0 {
		return nil
	}

	msgs := make([]*sarama.ProducerMessage, 0, len(k.buffer))
	for _, r := range k.buffer {
		payload, err := json.Marshal(r)
		if err != nil {
			if k.Logger != nil {
				k.Logger.WithError(err).WithField("job_id", jobID).Warn("kafka_loader: skipping unencodable record")
			}
			continue
		}
		msgs = append(msgs, &sarama.ProducerMessage{Topic: k.Topic, Value: sarama.ByteEncoder(payload)})
	}

	if err := k.Producer.SendMessages(msgs); err != nil {
		if k.Logger != nil {
			k.Logger.WithError(err).WithField("job_id", jobID).Error("kafka_loader: batch send failed, surrendering")
		}
		k.buffer = k.buffer[:0]
		return etlerr.Wrap(etlerr.CodeSinkTransient, "load.kafka", "send_messages", err, false)
	}

	k.buffer = k.buffer[:0]
	return nil
}

// LoadWithAck implements Loader.
func (k *KafkaLoader) LoadWithAck(ctx context.Context, jobID string, records []record.Record, ackCounter *int64, lastCall bool) error {
	err := k.Load(ctx, jobID, records, lastCall)
	decrementAck(ackCounter, len(records))
	return err
}

// Close implements Loader.
func (k *KafkaLoader) Close(_ context.Context) error {
	if err := k.guard.enter("load.kafka"); err != nil {
		return err
	}
	defer k.guard.exit()

	if k.closed {
		return nil
	}
	k.closed = true

	if err := k.flush("close"); err != nil {
		return err
	}
	return k.Producer.Close()
}

// HasBufferedData implements Loader.
func (k *KafkaLoader) HasBufferedData() bool {
	return len(k.buffer) > 0
}
