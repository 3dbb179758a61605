package notify

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/price-scanner/internal/contract"
	"github.com/darkkaiser/price-scanner/internal/shop"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
)

// queuedNotification 발송 조건을 충족하여 대기열에 쌓인 알림입니다.
type queuedNotification struct {
	userID   contract.UserID
	maxPrice float64
	product  contract.ResolvedProduct
	result   contract.ExtractionResult
	shopName string
}

// Dispatcher 스크래핑 결과를 사용자별 알림으로 분배합니다.
//
// 감시 목록과 수신 정보는 사이클 시작 시 PreloadForCycle로 한 번만 읽고,
// ProcessResult는 I/O 없이 메모리에서만 동작합니다. 대기열의 알림은
// FlushNotifications에서 한 번의 배치 삽입으로 기록됩니다.
type Dispatcher struct {
	watchers contract.WatcherReader
	writer   contract.NotificationWriter
	state    *StateService

	mu      sync.Mutex
	watches map[contract.ProductID][]contract.WatchEntry
	targets map[contract.UserID]contract.NotificationTarget
	queue   []queuedNotification

	// now 테스트에서 시각을 고정하기 위한 주입 지점
	now func() time.Time
}

// NewDispatcher 알림 분배기를 생성합니다.
func NewDispatcher(watchers contract.WatcherReader, writer contract.NotificationWriter, state *StateService) *Dispatcher {
	return &Dispatcher{
		watchers: watchers,
		writer:   writer,
		state:    state,
		watches:  make(map[contract.ProductID][]contract.WatchEntry),
		targets:  make(map[contract.UserID]contract.NotificationTarget),
		now:      time.Now,
	}
}

// PreloadForCycle 감시 목록과 알림 수신 정보를 적재합니다.
//
// 외부 읽기는 정확히 두 번(감시 목록, 수신 정보)이며, 구독자가 한 명이라도 있는
// 상품 ID 집합을 반환합니다. 호출자는 이 집합으로 스캔 범위를 줄일 수 있습니다.
func (d *Dispatcher) PreloadForCycle(ctx context.Context, productIDs []contract.ProductID) (map[contract.ProductID]struct{}, error) {
	watches, err := d.watchers.ListActiveWatches(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	userIDSet := make(map[contract.UserID]struct{})
	for _, entries := range watches {
		for _, entry := range entries {
			userIDSet[entry.UserID] = struct{}{}
		}
	}
	userIDs := make([]contract.UserID, 0, len(userIDSet))
	for userID := range userIDSet {
		userIDs = append(userIDs, userID)
	}

	targets, err := d.watchers.ListNotificationTargets(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	// 수신 채널이 없는 사용자는 분배 대상에서 제외한다.
	filtered := make(map[contract.UserID]contract.NotificationTarget, len(targets))
	for userID, target := range targets {
		if target.HasChannel {
			filtered[userID] = target
		}
	}

	subscribed := make(map[contract.ProductID]struct{}, len(watches))
	for productID, entries := range watches {
		if len(entries) > 0 {
			subscribed[productID] = struct{}{}
		}
	}

	d.mu.Lock()
	d.watches = watches
	d.targets = filtered
	d.queue = nil
	d.mu.Unlock()

	applog.WithComponent("notify.dispatcher").Debugf("감시 목록을 적재하였습니다. (products:%d, users:%d, targets:%d)",
		len(subscribed), len(userIDs), len(filtered))

	return subscribed, nil
}

// ProcessResult 결과 하나를 상품의 모든 감시자에게 분배합니다.
//
// 사이클 러너가 결과를 만들 때마다 동기적으로 호출하며 I/O가 없습니다.
// 알림 조건을 충족하지 못해도 추적 상태 갱신은 모든 감시자에 대해 수행됩니다.
func (d *Dispatcher) ProcessResult(product contract.ResolvedProduct, result contract.ExtractionResult, shopCfg *shop.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, watcher := range d.watches[product.ID] {
		key := contract.StateKey{
			UserID:    watcher.UserID,
			ProductID: product.ID,
			ShopID:    result.ShopID,
		}

		d.state.UpdateTrackedState(key, result, watcher.MaxPrice)

		if !result.Available || result.Price == nil {
			continue
		}
		if *result.Price > watcher.MaxPrice {
			continue
		}
		if _, ok := d.targets[watcher.UserID]; !ok {
			continue
		}
		if !d.state.ShouldNotify(key) {
			continue
		}

		d.queue = append(d.queue, queuedNotification{
			userID:   watcher.UserID,
			maxPrice: watcher.MaxPrice,
			product:  product,
			result:   result,
			shopName: shopCfg.Name,
		})
	}
}

// QueueSize 대기 중인 알림 수를 반환합니다.
func (d *Dispatcher) QueueSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// FlushNotifications 대기열의 알림을 한 번의 배치로 삽입합니다.
//
// 삽입에 성공하면 각 알림의 발송 상태를 기록하고, 실패하면 상태를 남기지 않아
// 다음 사이클에 같은 조건으로 재시도됩니다. 대기열은 어느 쪽이든 비워집니다.
func (d *Dispatcher) FlushNotifications(ctx context.Context) error {
	d.mu.Lock()
	queue := d.queue
	d.queue = nil
	d.mu.Unlock()

	if len(queue) == 0 {
		return nil
	}

	notifications := make([]contract.Notification, 0, len(queue))
	for _, item := range queue {
		notifications = append(notifications, contract.NewNotification(item.userID, contract.NotificationPayload{
			ProductName: item.product.Name,
			ShopName:    item.shopName,
			ShopID:      item.result.ShopID,
			ProductID:   item.product.ID,
			Price:       *item.result.Price,
			MaxPrice:    item.maxPrice,
			ProductURL:  item.result.ProductURL,
		}, d.now()))
	}

	if err := d.writer.InsertNotifications(ctx, notifications); err != nil {
		return err
	}

	for _, item := range queue {
		d.state.MarkNotified(contract.StateKey{
			UserID:    item.userID,
			ProductID: item.product.ID,
			ShopID:    item.result.ShopID,
		}, item.result)
	}

	applog.WithComponent("notify.dispatcher").Infof("알림 %d건을 발행하였습니다.", len(notifications))
	return nil
}
