package scan

import (
	"sort"
	"sync"
	"time"

	"github.com/darkkaiser/price-scanner/internal/contract"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
	"github.com/iancoleman/strcase"
	log "github.com/sirupsen/logrus"
)

// ShopStats 쇼핑몰 하나의 사이클 실행 통계입니다.
type ShopStats struct {
	// Searched 탐색을 시도한 상품 수
	Searched int

	// Found 상품 페이지를 찾아 결과를 만든 상품 수
	Found int

	// NotFound 찾지 못한 상품 수
	NotFound int

	// Synthesized 찾은 것 중 검색 페이지 정보만으로 합성한 결과 수
	Synthesized int

	// Failures 서킷 브레이커에 기록된 실패 수
	Failures int

	// Tripped 사이클 중 차단이 발동했는지 여부
	Tripped bool

	// Duration 쇼핑몰 처리에 걸린 시간
	Duration time.Duration
}

// Stats 사이클 전체의 쇼핑몰별 통계를 수집합니다.
// 여러 고루틴이 동시에 기록하므로 모든 메서드는 동시 호출에 안전합니다.
type Stats struct {
	mu    sync.Mutex
	shops map[contract.ShopID]*ShopStats
}

// NewStats 통계 수집기를 생성합니다.
func NewStats() *Stats {
	return &Stats{shops: make(map[contract.ShopID]*ShopStats)}
}

// shop 쇼핑몰의 통계 엔트리를 반환합니다. 호출자는 뮤텍스를 잡고 있어야 합니다.
func (s *Stats) shop(shopID contract.ShopID) *ShopStats {
	entry, ok := s.shops[shopID]
	if !ok {
		entry = &ShopStats{}
		s.shops[shopID] = entry
	}
	return entry
}

// Found 결과를 만든 상품 하나를 기록합니다.
func (s *Stats) Found(shopID contract.ShopID, synthesized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.shop(shopID)
	entry.Searched++
	entry.Found++
	if synthesized {
		entry.Synthesized++
	}
}

// NotFound 찾지 못한 상품 하나를 기록합니다.
func (s *Stats) NotFound(shopID contract.ShopID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.shop(shopID)
	entry.Searched++
	entry.NotFound++
}

// Failure 서킷 브레이커에 기록된 실패 하나를 기록합니다.
func (s *Stats) Failure(shopID contract.ShopID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shop(shopID).Failures++
}

// Tripped 쇼핑몰 차단 발동을 기록합니다.
func (s *Stats) Tripped(shopID contract.ShopID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shop(shopID).Tripped = true
}

// Duration 쇼핑몰 처리 시간을 기록합니다.
func (s *Stats) Duration(shopID contract.ShopID, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shop(shopID).Duration = d
}

// Shop 쇼핑몰 하나의 통계 복사본을 반환합니다.
func (s *Stats) Shop(shopID contract.ShopID) ShopStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.shops[shopID]; ok {
		return *entry
	}
	return ShopStats{}
}

// LogSummary 쇼핑몰별 통계와 사이클 합계를 로그로 남깁니다.
func (s *Stats) LogSummary() {
	s.mu.Lock()
	defer s.mu.Unlock()

	shopIDs := make([]contract.ShopID, 0, len(s.shops))
	for shopID := range s.shops {
		shopIDs = append(shopIDs, shopID)
	}
	sort.Slice(shopIDs, func(i, j int) bool { return shopIDs[i] < shopIDs[j] })

	var total ShopStats
	for _, shopID := range shopIDs {
		entry := s.shops[shopID]

		applog.WithComponentAndFields("scan.cycle", log.Fields{
			"shop":        strcase.ToSnake(string(shopID)),
			"searched":    entry.Searched,
			"found":       entry.Found,
			"not_found":   entry.NotFound,
			"synthesized": entry.Synthesized,
			"failures":    entry.Failures,
			"tripped":     entry.Tripped,
			"duration":    entry.Duration.Round(time.Millisecond).String(),
		}).Info("쇼핑몰 스캔 결과")

		total.Searched += entry.Searched
		total.Found += entry.Found
		total.NotFound += entry.NotFound
		total.Synthesized += entry.Synthesized
		total.Failures += entry.Failures
	}

	applog.WithComponentAndFields("scan.cycle", log.Fields{
		"shops":       len(shopIDs),
		"searched":    total.Searched,
		"found":       total.Found,
		"not_found":   total.NotFound,
		"synthesized": total.Synthesized,
		"failures":    total.Failures,
	}).Info("사이클 스캔이 완료되었습니다")
}
