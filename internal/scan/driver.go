package scan

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/darkkaiser/price-scanner/internal/catalog"
	"github.com/darkkaiser/price-scanner/internal/config"
	"github.com/darkkaiser/price-scanner/internal/contract"
	"github.com/darkkaiser/price-scanner/internal/notify"
	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	"github.com/darkkaiser/price-scanner/internal/shop"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
	log "github.com/sirupsen/logrus"
)

const componentCycle = "scan.cycle"

// Driver 스캔 사이클 한 번의 전체 순서를 관장합니다.
//
// 적재(쇼핑몰 → 카탈로그 → 감시 목록 → 알림 상태 → 세트/유형) → 해석/그룹화 →
// 정적 사이클 → 렌더링 사이클 → 플러시(결과 → 알림 → 상태) 순서이며, 적재
// 단계의 실패만 치명적입니다. 사이클 도중의 부분 실패는 로그로만 남습니다.
type Driver struct {
	cfg   *config.AppConfig
	store contract.Store

	// tuneRunner 테스트에서 러너의 생성 지점을 교체하기 위한 훅
	tuneRunner func(*Runner)
}

// NewDriver 사이클 드라이버를 생성합니다.
func NewDriver(cfg *config.AppConfig, store contract.Store) *Driver {
	return &Driver{cfg: cfg, store: store}
}

// Run 스캔 사이클 한 번을 실행합니다.
//
// 반환된 에러는 치명적 결함(설정/적재 실패 또는 플러시 실패)을 뜻하며 호출자는
// 비정상 종료 코드로 이어가야 합니다.
func (d *Driver) Run(ctx context.Context) error {
	logger := applog.WithComponent(componentCycle)
	cycleStart := time.Now()

	static, rendered, err := d.loadShops()
	if err != nil {
		return err
	}

	products, err := d.store.ListActiveProducts(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, "상품 카탈로그 조회에 실패했습니다")
	}
	if len(products) == 0 {
		return apperrors.New(apperrors.NotFound, "스캔할 상품이 없습니다. 상품 카탈로그가 비어있습니다")
	}

	productIDs := make([]contract.ProductID, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
	}

	state := notify.NewStateService(d.store)
	dispatcher := notify.NewDispatcher(d.store, d.store, state)

	subscribed, err := dispatcher.PreloadForCycle(ctx, productIDs)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, "감시 목록 적재에 실패했습니다")
	}
	if len(subscribed) == 0 {
		return apperrors.New(apperrors.NotFound, "활성 감시 항목이 없습니다. 스캔할 이유가 없습니다")
	}

	subscribedIDs := make([]contract.ProductID, 0, len(subscribed))
	for productID := range subscribed {
		subscribedIDs = append(subscribedIDs, productID)
	}
	sort.Slice(subscribedIDs, func(i, j int) bool { return subscribedIDs[i] < subscribedIDs[j] })

	if err := state.LoadForCycle(ctx, subscribedIDs); err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, "알림 상태 적재에 실패했습니다")
	}

	setMap, typeMap, err := d.loadCatalogMeta(ctx)
	if err != nil {
		return err
	}

	// 구독자가 한 명도 없는 상품은 스캔해도 쓸 곳이 없다.
	resolved := catalog.Resolve(products, typeMap, setMap)
	targets := make([]contract.ResolvedProduct, 0, len(resolved))
	for _, rp := range resolved {
		if _, ok := subscribed[rp.ID]; ok {
			targets = append(targets, rp)
		}
	}
	if len(targets) == 0 {
		return apperrors.New(apperrors.NotFound, "검색 설정을 확정한 구독 상품이 없습니다")
	}

	groups, ungrouped := catalog.GroupBySet(targets, setMap)

	logger.WithFields(log.Fields{
		"static_shops":   len(static),
		"rendered_shops": len(rendered),
		"products":       len(products),
		"resolved":       len(resolved),
		"targets":        len(targets),
		"groups":         len(groups),
		"ungrouped":      len(ungrouped),
	}).Info("사이클 준비가 완료되었습니다")

	breaker := NewBreaker(DefaultBreakerThreshold)
	buffer := NewResultBuffer(d.store)
	stats := NewStats()
	runner := NewRunner(d.cfg.Scan, breaker, buffer, dispatcher, stats)
	if d.tuneRunner != nil {
		d.tuneRunner(runner)
	}

	runner.RunStatic(ctx, static, groups, ungrouped)
	FreeMemory()
	runner.RunRendered(ctx, rendered, groups, ungrouped)

	stats.LogSummary()

	// 플러시는 실패하더라도 셋 모두 시도한다. 순서는 결과 → 알림 → 상태.
	var flushErrs []error
	if err := buffer.Flush(ctx); err != nil {
		logger.Errorf("스크래핑 결과 저장에 실패하였습니다. (error:%v)", err)
		flushErrs = append(flushErrs, apperrors.Wrap(err, apperrors.Unavailable, "스크래핑 결과 저장에 실패했습니다"))
	}
	if err := dispatcher.FlushNotifications(ctx); err != nil {
		logger.Errorf("알림 발행에 실패하였습니다. (error:%v)", err)
		flushErrs = append(flushErrs, apperrors.Wrap(err, apperrors.Unavailable, "알림 발행에 실패했습니다"))
	}
	if err := state.FlushChanges(ctx); err != nil {
		logger.Errorf("알림 상태 반영에 실패하였습니다. (error:%v)", err)
		flushErrs = append(flushErrs, apperrors.Wrap(err, apperrors.Unavailable, "알림 상태 반영에 실패했습니다"))
	}
	if len(flushErrs) > 0 {
		return errors.Join(flushErrs...)
	}

	logger.Infof("사이클이 완료되었습니다. (elapsed:%s)", time.Since(cycleStart).Round(time.Millisecond))
	return nil
}

// loadShops 쇼핑몰 설정을 읽어 활성 쇼핑몰을 엔진별로 나눕니다.
// 비활성화된 쇼핑몰은 로더가 이미 걸러냅니다.
func (d *Driver) loadShops() (static, rendered []*shop.Config, err error) {
	shops, err := shop.Load(d.cfg.ShopsDir)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.System, "쇼핑몰 설정 로드에 실패했습니다")
	}

	for _, cfg := range shops {
		for _, warning := range cfg.VerifyRecommendations() {
			applog.WithComponent(componentCycle).Warn(warning)
		}

		if cfg.Rendered() {
			rendered = append(rendered, cfg)
		} else {
			static = append(static, cfg)
		}
	}

	if len(static)+len(rendered) == 0 {
		return nil, nil, apperrors.New(apperrors.NotFound, "활성화된 쇼핑몰이 없습니다")
	}
	return static, rendered, nil
}

// loadCatalogMeta 상품 세트와 유형을 조회하여 ID 맵으로 변환합니다.
func (d *Driver) loadCatalogMeta(ctx context.Context) (map[contract.SetID]contract.ProductSet, map[contract.TypeID]contract.ProductType, error) {
	sets, err := d.store.ListProductSets(ctx)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.Unavailable, "상품 세트 조회에 실패했습니다")
	}
	types, err := d.store.ListProductTypes(ctx)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.Unavailable, "상품 유형 조회에 실패했습니다")
	}

	setMap := make(map[contract.SetID]contract.ProductSet, len(sets))
	for _, set := range sets {
		setMap[set.ID] = set
	}
	typeMap := make(map[contract.TypeID]contract.ProductType, len(types))
	for _, pt := range types {
		typeMap[pt.ID] = pt
	}
	return setMap, typeMap, nil
}
