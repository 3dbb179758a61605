package contract

import "context"

// CatalogReader 상품 카탈로그를 읽기 위한 인터페이스입니다.
// 스캔 사이클은 시작 시 각 메서드를 정확히 한 번씩 호출합니다.
type CatalogReader interface {
	// ListActiveProducts 비활성화되지 않은 상품 전체를 조회합니다.
	ListActiveProducts(ctx context.Context) ([]Product, error)

	// ListProductSets 등록된 상품 세트 전체를 조회합니다.
	ListProductSets(ctx context.Context) ([]ProductSet, error)

	// ListProductTypes 등록된 상품 유형 전체를 조회합니다.
	ListProductTypes(ctx context.Context) ([]ProductType, error)
}

// WatcherReader 사용자 감시 목록과 알림 수신 정보를 읽기 위한 인터페이스입니다.
type WatcherReader interface {
	// ListActiveWatches 주어진 상품들의 활성 감시 항목을 상품별로 묶어 조회합니다.
	ListActiveWatches(ctx context.Context, productIDs []ProductID) (map[ProductID][]WatchEntry, error)

	// ListNotificationTargets 주어진 사용자들의 알림 수신 정보를 조회합니다.
	// 수신 채널이 없는 사용자는 결과에 포함되지 않을 수 있습니다.
	ListNotificationTargets(ctx context.Context, userIDs []UserID) (map[UserID]NotificationTarget, error)
}

// StateStore 알림 상태를 읽고 반영하기 위한 인터페이스입니다.
type StateStore interface {
	// ListNotificationStates 주어진 상품들의 알림 상태 전체를 조회합니다.
	ListNotificationStates(ctx context.Context, productIDs []ProductID) ([]NotificationState, error)

	// ApplyStateChanges 사이클 동안 누적된 상태 변경을 한 번의 배치로 반영합니다.
	// upserts는 (사용자, 상품, 쇼핑몰) 키 기준으로 갱신하거나 삽입하고,
	// deletes는 해당 키의 레코드를 제거합니다.
	ApplyStateChanges(ctx context.Context, upserts []NotificationState, deletes []StateKey) error
}

// ResultWriter 스크래핑 결과를 기록하기 위한 인터페이스입니다.
type ResultWriter interface {
	// UpsertHourlyResults 결과들을 (상품, 쇼핑몰, 시간 버킷) 키 기준으로 저장합니다.
	// 같은 버킷에 이미 레코드가 있으면 최신 값으로 갱신합니다.
	UpsertHourlyResults(ctx context.Context, results []ExtractionResult) error
}

// NotificationWriter 알림 문서를 기록하기 위한 인터페이스입니다.
type NotificationWriter interface {
	// InsertNotifications 알림 문서들을 한 번의 배치로 삽입합니다.
	InsertNotifications(ctx context.Context, notifications []Notification) error
}

// Store 스캔 사이클이 필요로 하는 저장소 기능 전체를 통합한 인터페이스입니다.
type Store interface {
	CatalogReader
	WatcherReader
	StateStore
	ResultWriter
	NotificationWriter
}
