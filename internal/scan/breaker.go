// Package scan 스캔 사이클의 실행을 담당합니다.
//
// 사이클 드라이버(Driver)가 설정과 카탈로그를 적재하여 러너(Runner)에 넘기면,
// 러너가 정적 엔진 사이클과 렌더링 엔진 사이클을 차례로 실행합니다. 쇼핑몰별
// 연속 실패는 서킷 브레이커가 감시하고, 결과는 버퍼에 모였다가 사이클 종료 시
// 한 번의 배치로 저장됩니다.
package scan

import (
	"sync"

	"github.com/darkkaiser/price-scanner/internal/contract"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
)

// DefaultBreakerThreshold 쇼핑몰 차단이 발동하는 연속 실패 횟수 기본값입니다.
const DefaultBreakerThreshold = 3

// Breaker 쇼핑몰별 연속 실패를 감시하는 사이클 수명의 서킷 브레이커입니다.
//
// 연속 실패가 임계치에 도달하면 해당 쇼핑몰이 차단되어 남은 작업이 건너뛰어
// 집니다. 성공은 연속 실패 횟수만 초기화하며 한 번 발동된 차단은 사이클이
// 끝날 때까지 유지됩니다. 모든 메서드는 동시 호출에 안전합니다.
type Breaker struct {
	threshold int

	mu       sync.Mutex
	failures map[contract.ShopID]int
	tripped  map[contract.ShopID]bool
}

// NewBreaker 서킷 브레이커를 생성합니다. threshold가 0 이하이면 기본값을
// 사용합니다.
func NewBreaker(threshold int) *Breaker {
	if threshold <= 0 {
		threshold = DefaultBreakerThreshold
	}
	return &Breaker{
		threshold: threshold,
		failures:  make(map[contract.ShopID]int),
		tripped:   make(map[contract.ShopID]bool),
	}
}

// RecordFailure 실패 한 건을 기록합니다. 이 실패로 처음 임계치에 도달하면
// 쇼핑몰을 차단하고 true를 반환합니다.
func (b *Breaker) RecordFailure(shopID contract.ShopID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures[shopID]++
	if b.failures[shopID] >= b.threshold && !b.tripped[shopID] {
		b.tripped[shopID] = true
		applog.WithComponent("scan.breaker").Warnf("연속 실패 임계치에 도달하여 쇼핑몰을 차단합니다. (shop:%s, failures:%d)", shopID, b.failures[shopID])
		return true
	}
	return false
}

// RecordSuccess 성공을 기록하여 연속 실패 횟수를 초기화합니다.
// 이미 발동된 차단은 해제되지 않습니다.
func (b *Breaker) RecordSuccess(shopID contract.ShopID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[shopID] = 0
}

// Allow 쇼핑몰에 새 작업을 시작해도 되는지 확인합니다.
func (b *Breaker) Allow(shopID contract.ShopID) bool {
	return !b.IsTripped(shopID)
}

// IsTripped 쇼핑몰이 차단되었는지 확인합니다.
func (b *Breaker) IsTripped(shopID contract.ShopID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripped[shopID]
}
