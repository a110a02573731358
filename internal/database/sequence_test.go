package database_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"mtrbac/internal/database"
	"mtrbac/internal/database/dbtest"
	"mtrbac/internal/models"
	apperrors "mtrbac/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencer_NextConcurrent(t *testing.T) {
	env := dbtest.New(t)
	ctx := context.Background()

	const k = 40
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		values []int64
	)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := env.Sequencer.Next(ctx, "role")
			assert.NoError(t, err)
			mu.Lock()
			values = append(values, v)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, values, k)
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i, v := range values {
		assert.Equal(t, int64(i+1), v)
	}
}

func TestSequencer_ContinuesExistingCounter(t *testing.T) {
	env := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, env.Main.Create(&models.Counter{ID: "tenant", Value: 41}).Error)

	v, err := env.Sequencer.Next(ctx, "tenant")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	// 不同序列互不影响
	v, err = env.Sequencer.Next(ctx, "module")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestSequencer_NextID(t *testing.T) {
	env := dbtest.New(t)

	id, err := env.Sequencer.NextID(context.Background(), "activity")
	require.NoError(t, err)
	assert.Equal(t, "activity_001", id)
}

func TestFormatID(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "tenant_001"},
		{42, "tenant_042"},
		{999, "tenant_999"},
		{1000, "tenant_1000"},
		{123456, "tenant_123456"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, database.FormatID("tenant", tt.n))
		})
	}
}

func TestSequencer_StorageError(t *testing.T) {
	env := dbtest.New(t)
	require.NoError(t, env.Main.Migrator().DropTable(&models.Counter{}))

	_, err := env.Sequencer.Next(context.Background(), "role")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSequenceGenerationFailed)
}
