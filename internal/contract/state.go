package contract

import "time"

// StateKey 알림 상태를 식별하는 (사용자, 상품, 쇼핑몰) 조합 키입니다.
type StateKey struct {
	UserID    UserID
	ProductID ProductID
	ShopID    ShopID
}

// NotificationState (사용자, 상품, 쇼핑몰) 조합별 알림 이력입니다.
//
// 저장소에 레코드가 없다는 것은 "아직 알림을 보낸 적이 없다"는 의미와 같습니다.
// LastNotifiedAt이 설정된 동안은 중복 알림이 억제되며, 품절 전환이나 마지막
// 알림 가격보다 높은 가격이 관측되면 레코드를 삭제하여 재알림을 허용합니다.
type NotificationState struct {
	UserID    UserID
	ProductID ProductID
	ShopID    ShopID

	LastNotifiedAt *time.Time
	LastPrice      *float64
	WasAvailable   bool
}

// Key 상태의 식별 키를 반환합니다.
func (s NotificationState) Key() StateKey {
	return StateKey{
		UserID:    s.UserID,
		ProductID: s.ProductID,
		ShopID:    s.ShopID,
	}
}
