// internal/store/store_test.go
package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jgwest/fridai/engine/agent"
	"github.com/jgwest/fridai/service/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSink records writes and can be told to fail.
type mockSink struct {
	mu      sync.Mutex
	records []Record
	closed  bool
	err     error
}

func (m *mockSink) Write(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func sampleRecord(won bool) Record {
	out := agent.Outcome{Seed: 1234, Life: 7, Phase: 1, Steps: 80, Searches: 60, Nodes: 5000, Elapsed: 1500 * time.Millisecond}
	if won {
		out.Result = agent.ResultWin
	}
	return NewRecord(uuid.New(), 2, out, time.Date(2024, 3, 8, 14, 5, 9, 0, time.UTC))
}

func TestRecordLine(t *testing.T) {
	lost := sampleRecord(false)
	assert.Equal(t, "1234,Fri Mar 8 14:05:09 PM,7,1", lost.Line())
	assert.Equal(t, "loss", lost.Result())

	won := sampleRecord(true)
	assert.True(t, won.Won)
	assert.Equal(t, agent.PhaseScoreWin, won.PhaseScore)
	assert.True(t, strings.HasSuffix(won.Line(), ",7,-2"))
	assert.Equal(t, "win", won.Result())
}

func TestDBSeedKeepsBits(t *testing.T) {
	assert.Equal(t, int64(-1), dbSeed(math.MaxUint64))
	assert.Equal(t, uint64(math.MaxUint64), uint64(dbSeed(math.MaxUint64)))
	assert.Equal(t, int64(42), dbSeed(42))
}

func TestMultiFansOut(t *testing.T) {
	a, b := &mockSink{}, &mockSink{}
	m := NewMulti(a, b)
	rec := sampleRecord(false)

	require.NoError(t, m.Write(context.Background(), rec))
	assert.Len(t, a.records, 1)
	assert.Len(t, b.records, 1)

	boom := errors.New("boom")
	a.err = boom
	err := m.Write(context.Background(), rec)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, b.records, 2, "a failing sink must not stop the others")

	require.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	f, err := OpenFile(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.Write(context.Background(), sampleRecord(false)))
		}()
	}
	wg.Wait()
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 8)
	for _, l := range lines {
		assert.Equal(t, sampleRecord(false).Line(), l)
	}
}

func TestAppendLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run-log.txt")
	require.NoError(t, AppendLine(path, "Random seed is: 5 iterations: 10"))
	require.NoError(t, AppendLine(path, "second"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Random seed is: 5 iterations: 10\nsecond\n", string(data))
}

func TestSQLiteSink(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer s.Close()

	run := uuid.New()
	for i := range 3 {
		rec := sampleRecord(i == 0)
		rec.RunID = run
		rec.Seed = math.MaxUint64 - uint64(i)
		require.NoError(t, s.Write(ctx, rec))
	}
	other := sampleRecord(true)
	require.NoError(t, s.Write(ctx, other))

	sum, err := s.Summary(ctx, run.String())
	require.NoError(t, err)
	assert.Equal(t, Summary{Games: 3, Wins: 1, Nodes: 15000}, sum)

	none, err := s.Summary(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, none)
}

func TestOpenFileOnly(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(context.Background(), config.StoreConfig{}, filepath.Join(dir, "r.csv"), logrus.NewEntry(logrus.New()))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	require.NoError(t, m.Close())
}

func TestOpenFailsOnBadResultPath(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{}, filepath.Join(t.TempDir(), "missing", "r.csv"), logrus.NewEntry(logrus.New()))
	assert.Error(t, err)
}

func TestRedisValues(t *testing.T) {
	rec := sampleRecord(true)
	v := redisValues(rec)
	assert.Equal(t, rec.RunID.String(), v["run"])
	assert.Equal(t, "win", v["result"])
	assert.Equal(t, -2, v["phaseScore"])
	assert.Equal(t, int64(1500), v["elapsedMs"])

	r := &Redis{stream: "fridai:results"}
	assert.Equal(t, "fridai:results:"+rec.RunID.String(), r.countersKey(rec))
}

func TestPostgresArgs(t *testing.T) {
	rec := sampleRecord(false)
	args := postgresArgs(rec)
	require.Len(t, args, 11)
	assert.Equal(t, rec.RunID, args[0])
	assert.Equal(t, int64(1234), args[2])
	assert.Equal(t, "loss", args[4])
}
