package contract

import "time"

// NotificationStatus 알림 문서의 처리 상태입니다.
type NotificationStatus string

// NotificationStatusPending 스캔 코어가 생성한 직후의 상태입니다.
// 이후 상태 전이는 알림 문서를 소비하는 외부 전달 서비스가 담당합니다.
const NotificationStatusPending NotificationStatus = "pending"

// NotificationPayload 전달 서비스가 메시지를 구성하는 데 필요한 알림 내용입니다.
type NotificationPayload struct {
	ProductName string
	ShopName    string
	ShopID      ShopID
	ProductID   ProductID
	Price       float64
	MaxPrice    float64
	ProductURL  string
}

// Delivery 전달 서비스가 기록하는 개별 발송 시도입니다. 스캔 코어는 빈 목록으로
// 생성만 할 뿐 내용을 채우지 않습니다.
type Delivery struct {
	ChannelID string
	SentAt    time.Time
	Succeeded bool
	Detail    string
}

// Notification 가격 조건을 충족한 사용자에게 발행되는 채널 독립적 알림 문서입니다.
type Notification struct {
	UserID     UserID
	Status     NotificationStatus
	Payload    NotificationPayload
	Deliveries []Delivery
	CreatedAt  time.Time
}

// NewNotification 대기(pending) 상태의 알림 문서를 생성합니다.
func NewNotification(userID UserID, payload NotificationPayload, createdAt time.Time) Notification {
	return Notification{
		UserID:     userID,
		Status:     NotificationStatusPending,
		Payload:    payload,
		Deliveries: []Delivery{},
		CreatedAt:  createdAt,
	}
}
