// Package notify 알림 상태 관리와 다중 사용자 알림 분배를 담당합니다.
//
// 스캔 사이클 동안에는 외부 I/O 없이 메모리에서만 동작하며, 저장소 접근은
// 사이클 시작 시의 적재(LoadForCycle, PreloadForCycle)와 사이클 종료 시의
// 플러시(FlushChanges, FlushNotifications)로 한정됩니다.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/price-scanner/internal/contract"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
)

// StateService (사용자, 상품, 쇼핑몰) 조합별 알림 이력을 관리합니다.
//
// 상태 변경은 업서트 버퍼와 삭제 집합에 누적되었다가 FlushChanges에서 한 번의
// 배치로 반영됩니다. 모든 메서드는 동시 호출에 안전합니다.
type StateService struct {
	store contract.StateStore

	mu      sync.Mutex
	states  map[contract.StateKey]contract.NotificationState
	upserts map[contract.StateKey]contract.NotificationState
	deletes map[contract.StateKey]struct{}

	// now 테스트에서 시각을 고정하기 위한 주입 지점
	now func() time.Time
}

// NewStateService 알림 상태 서비스를 생성합니다.
func NewStateService(store contract.StateStore) *StateService {
	return &StateService{
		store:   store,
		states:  make(map[contract.StateKey]contract.NotificationState),
		upserts: make(map[contract.StateKey]contract.NotificationState),
		deletes: make(map[contract.StateKey]struct{}),
		now:     time.Now,
	}
}

// LoadForCycle 구독 중인 상품들의 알림 상태를 저장소에서 읽어 메모리를 채웁니다.
// 이전 사이클의 잔여 버퍼는 모두 비워집니다.
func (s *StateService) LoadForCycle(ctx context.Context, productIDs []contract.ProductID) error {
	states, err := s.store.ListNotificationStates(ctx, productIDs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states = make(map[contract.StateKey]contract.NotificationState, len(states))
	for _, state := range states {
		s.states[state.Key()] = state
	}
	s.upserts = make(map[contract.StateKey]contract.NotificationState)
	s.deletes = make(map[contract.StateKey]struct{})

	applog.WithComponent("notify.state").Debugf("알림 상태 %d건을 적재하였습니다.", len(states))
	return nil
}

// ShouldNotify 이 조합에 알림을 보내도 되는지 확인합니다.
// 상태가 없거나 아직 알림을 보낸 적이 없으면 true입니다.
func (s *StateService) ShouldNotify(key contract.StateKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[key]
	return !ok || state.LastNotifiedAt == nil
}

// MarkNotified 알림 발송을 기록합니다. 대기 중인 삭제는 취소되고 업서트가
// 예약됩니다.
func (s *StateService) MarkNotified(key contract.StateKey, result contract.ExtractionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifiedAt := s.now()
	state := contract.NotificationState{
		UserID:         key.UserID,
		ProductID:      key.ProductID,
		ShopID:         key.ShopID,
		LastNotifiedAt: &notifiedAt,
		LastPrice:      result.Price,
		WasAvailable:   result.Available,
	}

	s.states[key] = state
	s.upserts[key] = state
	delete(s.deletes, key)
}

// UpdateTrackedState 새 관측 결과를 반영합니다. 알림 기준 충족 여부와 무관하게
// 모든 분배 경로에서 호출됩니다.
//
// 알림을 보낸 적이 있는 상태에서 그 조건이 깨지면(품절 전환, 또는 마지막 알림
// 가격보다 오르면서 감시 기준 가격도 넘어서면) 상태를 리셋하여 조건이 다시
// 충족될 때 재알림을 허용합니다. 기준 가격 이내의 소폭 상승은 유효한 조건이
// 유지되는 것이므로 리셋하지 않고 억제를 이어갑니다.
func (s *StateService) UpdateTrackedState(key contract.StateKey, result contract.ExtractionResult, maxPrice float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[key]
	if !ok || state.LastNotifiedAt == nil {
		return
	}

	stockout := state.WasAvailable && !result.Available
	priceIncrease := state.LastPrice != nil && result.Price != nil &&
		*result.Price > *state.LastPrice && *result.Price > maxPrice
	if !stockout && !priceIncrease {
		return
	}

	delete(s.states, key)
	delete(s.upserts, key)
	s.deletes[key] = struct{}{}

	applog.WithComponent("notify.state").Debugf("알림 상태를 리셋합니다. (user:%s, product:%s, shop:%s, stockout:%t, priceIncrease:%t)",
		key.UserID, key.ProductID, key.ShopID, stockout, priceIncrease)
}

// FlushChanges 누적된 업서트와 삭제를 한 번의 배치로 반영합니다.
// 실패해도 버퍼는 비워지며 에러만 반환합니다.
func (s *StateService) FlushChanges(ctx context.Context) error {
	s.mu.Lock()
	upserts := make([]contract.NotificationState, 0, len(s.upserts))
	for _, state := range s.upserts {
		upserts = append(upserts, state)
	}
	deletes := make([]contract.StateKey, 0, len(s.deletes))
	for key := range s.deletes {
		deletes = append(deletes, key)
	}
	s.upserts = make(map[contract.StateKey]contract.NotificationState)
	s.deletes = make(map[contract.StateKey]struct{})
	s.mu.Unlock()

	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	applog.WithComponent("notify.state").Debugf("알림 상태 변경을 반영합니다. (upserts:%d, deletes:%d)", len(upserts), len(deletes))
	return s.store.ApplyStateChanges(ctx, upserts, deletes)
}

// PendingChanges 반영 대기 중인 변경 수를 반환합니다.
func (s *StateService) PendingChanges() (upserts, deletes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.upserts), len(s.deletes)
}
