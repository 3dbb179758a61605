package scan

import (
	"context"
	"sync"

	"github.com/darkkaiser/price-scanner/internal/contract"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
)

// ResultBuffer 사이클 동안 만들어진 결과를 모아두는 추가 전용 버퍼입니다.
//
// Phase 2의 여러 상품 태스크가 동시에 Add를 호출하므로 뮤텍스로 보호하며,
// 저장소 접근은 사이클 종료 시 Flush의 배치 업서트 한 번뿐입니다.
type ResultBuffer struct {
	writer contract.ResultWriter

	mu      sync.Mutex
	results []contract.ExtractionResult
}

// NewResultBuffer 결과 버퍼를 생성합니다.
func NewResultBuffer(writer contract.ResultWriter) *ResultBuffer {
	return &ResultBuffer{writer: writer}
}

// Add 결과를 버퍼에 추가합니다. URL이 빈 "찾지 못함" 결과는 저장 대상이
// 아니므로 무시합니다.
func (b *ResultBuffer) Add(result contract.ExtractionResult) {
	if !result.Found() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.results = append(b.results, result)
}

// Size 버퍼에 쌓인 결과 수를 반환합니다.
func (b *ResultBuffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.results)
}

// Snapshot 현재 버퍼 내용의 읽기 전용 복사본을 반환합니다.
func (b *ResultBuffer) Snapshot() []contract.ExtractionResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := make([]contract.ExtractionResult, len(b.results))
	copy(snapshot, b.results)
	return snapshot
}

// Flush 버퍼의 결과 전체를 한 번의 배치 업서트로 저장합니다.
// 성공하면 버퍼가 비워지고, 실패하면 내용이 유지된 채 에러를 반환합니다.
func (b *ResultBuffer) Flush(ctx context.Context) error {
	snapshot := b.Snapshot()
	if len(snapshot) == 0 {
		return nil
	}

	if err := b.writer.UpsertHourlyResults(ctx, snapshot); err != nil {
		return err
	}

	applog.WithComponent("scan.buffer").Infof("스크래핑 결과 %d건을 저장하였습니다.", len(snapshot))
	b.Clear()
	return nil
}

// Clear 버퍼를 비웁니다.
func (b *ResultBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results = nil
}
