package load

import (
	"context"
	"testing"

	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosvega/corpusetl/pkg/record"
)

func TestKafkaLoaderFlushesOnBufferSize(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndSucceed()

	l := &KafkaLoader{
		Producer:    producer,
		Topic:       "words",
		BufferSize:  2,
		ValuesPaths: []ValuesPath{{Title: "word", Path: record.KeyPath{"word"}, Required: true}},
	}

	r1 := record.DeepSet(record.New(), record.KeyPath{"word"}, "a")
	r2 := record.DeepSet(record.New(), record.KeyPath{"word"}, "b")

	require.NoError(t, l.Load(context.Background(), "job1", []record.Record{r1, r2}, false))
	assert.False(t, l.HasBufferedData())
}

func TestKafkaLoaderSurrendersOnSendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(assert.AnError)

	l := &KafkaLoader{
		Producer:    producer,
		Topic:       "words",
		BufferSize:  1,
		ValuesPaths: []ValuesPath{{Title: "word", Path: record.KeyPath{"word"}, Required: true}},
	}

	r := record.DeepSet(record.New(), record.KeyPath{"word"}, "a")
	err := l.Load(context.Background(), "job1", []record.Record{r}, false)

	assert.Error(t, err)
	assert.False(t, l.HasBufferedData())
}
