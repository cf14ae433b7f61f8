package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnowflake(t *testing.T) {
	_, err := NewSnowflake(-1)
	assert.Error(t, err)

	_, err = NewSnowflake(maxWorkerID + 1)
	assert.Error(t, err)

	s, err := NewSnowflake(7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), (s.Generate()>>workerIDShift)&maxWorkerID)
}

func TestGenerate_UniqueAcrossGoroutines(t *testing.T) {
	s, err := NewSnowflake(1)
	require.NoError(t, err)

	const workers, perWorker = 8, 2000
	ids := make(chan int64, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ids <- s.Generate()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]struct{}, workers*perWorker)
	for id := range ids {
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
}

func TestPrefixedNumbers(t *testing.T) {
	receipt := GenerateReceiptNo()
	assert.True(t, strings.HasPrefix(receipt, "RCPT"))
	assert.LessOrEqual(t, len(receipt), 40)

	evt := GenerateEventID()
	assert.True(t, strings.HasPrefix(evt, "EVT"))
	assert.NotEqual(t, GenerateEventID(), evt)
}
