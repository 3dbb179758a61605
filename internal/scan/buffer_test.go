package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/darkkaiser/price-scanner/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func foundResult(productID contract.ProductID, price float64) contract.ExtractionResult {
	return contract.ExtractionResult{
		ProductID:  productID,
		ShopID:     "s1",
		ProductURL: "https://shop.example/" + string(productID),
		Price:      &price,
		Available:  true,
		Timestamp:  time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC),
	}
}

func TestResultBuffer_AddIgnoresNotFound(t *testing.T) {
	t.Parallel()

	b := NewResultBuffer(newFakeStore())

	b.Add(foundResult("p1", 80))
	// URL이 빈 결과는 저장 대상이 아니다.
	b.Add(contract.ExtractionResult{ProductID: "p2", ShopID: "s1"})

	assert.Equal(t, 1, b.Size())
}

func TestResultBuffer_FlushSingleBatchAndClear(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	b := NewResultBuffer(store)

	b.Add(foundResult("p1", 80))
	b.Add(foundResult("p2", 60))

	require.NoError(t, b.Flush(context.Background()))

	assert.Equal(t, 1, store.upsertCalls)
	assert.Len(t, store.storedResults(), 2)
	assert.Zero(t, b.Size())
}

func TestResultBuffer_FlushEmptySkipsWriter(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	b := NewResultBuffer(store)

	require.NoError(t, b.Flush(context.Background()))
	assert.Zero(t, store.upsertCalls)
}

func TestResultBuffer_FlushFailureKeepsResults(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.upsertErr = errors.New("server selection timeout")
	b := NewResultBuffer(store)

	b.Add(foundResult("p1", 80))
	require.Error(t, b.Flush(context.Background()))

	// 실패 시 내용이 유지되어 호출자가 재시도할 수 있다.
	assert.Equal(t, 1, b.Size())
}

func TestResultBuffer_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	b := NewResultBuffer(newFakeStore())
	b.Add(foundResult("p1", 80))

	snapshot := b.Snapshot()
	require.Len(t, snapshot, 1)

	snapshot[0].ProductID = "changed"
	assert.Equal(t, contract.ProductID("p1"), b.Snapshot()[0].ProductID)
}
