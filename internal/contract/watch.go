package contract

// WatchEntry 사용자가 등록한 상품 가격 감시 항목입니다.
// MaxPrice는 0보다 커야 하며, 가격이 이 값 이하로 내려와야 알림 대상이 됩니다.
type WatchEntry struct {
	UserID    UserID
	ProductID ProductID
	MaxPrice  float64
	Active    bool
}

// NotificationTarget 사용자의 알림 수신 정보입니다.
//
// ChannelID는 전달 서비스가 해석하는 불투명한 식별자(예: 채팅방 ID)이며,
// HasChannel이 false인 사용자는 알림 대상에서 제외됩니다.
type NotificationTarget struct {
	UserID      UserID
	ChannelID   string
	DisplayName string
	HasChannel  bool
}
