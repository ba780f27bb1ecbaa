package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func sampleRecord() domain.StationRecord {
	return domain.MergeReadings(nil, []domain.StationReading{
		{StationCode: "P19", Beach: "Olho de Porco", Date: domain.MustParseDate("2026-02-02"), Status: domain.StatusImproper},
	}, "https://example.org/laudo.pdf")[0]
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)

	msg, err := serializeToMessage(sampleRecord(), now)
	require.NoError(t, err)

	assert.Equal(t, []byte("P19"), msg.Key)
	assert.Contains(t, string(msg.Value), `"code":"P19"`)
	assert.Contains(t, string(msg.Value), `"latest":{"date":"2026-02-02","status":"IMPROPER"}`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "status", msg.Headers[0].Key)
	assert.Equal(t, []byte("IMPROPER"), msg.Headers[0].Value)
	assert.Equal(t, []byte("2026-02-02"), msg.Headers[1].Value)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestPublisher_Notify(t *testing.T) {
	fw := &fakeWriter{}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC))
	p := &Publisher{writer: fw, clock: clock, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, p.Notify(context.Background(), nil))
	assert.Empty(t, fw.msgs)

	require.NoError(t, p.Notify(context.Background(), []domain.StationRecord{sampleRecord(), {Code: "P20"}}))
	require.Len(t, fw.msgs, 2)
	assert.Equal(t, []byte("UNKNOWN"), fw.msgs[1].Headers[0].Value)

	fw.err = errors.New("broker down")
	err := p.Notify(context.Background(), []domain.StationRecord{sampleRecord()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestPublisher_DefaultsToDomainClock(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fw := &fakeWriter{}
	p := &Publisher{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, p.Notify(context.Background(), []domain.StationRecord{sampleRecord()}))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, []byte("2026-02-03T09:00:00Z"), fw.msgs[0].Headers[2].Value)
}
