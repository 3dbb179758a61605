// Package scraper 상품 하나를 쇼핑몰 하나에서 스크래핑하는 표준 흐름을 제공합니다.
//
// 흐름은 탐색(검색 결과에서 상품 페이지 찾기) → 추출(가격/재고 읽기)이며, 검색
// 결과 페이지에 가격/재고가 함께 있으면 상품 페이지 방문 없이 결과를 합성합니다.
// 상품을 찾지 못한 결과는 URL이 빈 ExtractionResult로 표현되고, 저장도 알림도
// 되지 않습니다.
package scraper

import (
	"context"
	"time"

	"github.com/darkkaiser/price-scanner/internal/contract"
	"github.com/darkkaiser/price-scanner/internal/scan/extract"
	"github.com/darkkaiser/price-scanner/internal/scan/search"
	"github.com/darkkaiser/price-scanner/internal/shop"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
	"github.com/darkkaiser/price-scanner/pkg/priceutil"
)

// Carry Phase 1 세트 검색이 Phase 2 상품 태스크로 넘기는 정보입니다.
//
// Page가 nil이 아니면 Phase 2는 HTTP 요청 없이 결과를 합성할 수 있습니다.
type Carry struct {
	Product contract.ResolvedProduct

	// URL 세트 검색에서 매칭된 상품 페이지의 절대 URL
	URL string

	// Page 검색 결과 페이지에서 함께 추출한 가격/재고 정보 (없으면 nil)
	Page *contract.SearchPageData
}

// Scraper 쇼핑몰 하나에 대한 스크래핑 흐름입니다.
//
// Extractor 하나를 소유하며 호출은 순차적이어야 합니다. Extractor의 생성과
// 해제는 호출자(사이클 러너)가 관리합니다.
type Scraper struct {
	cfg *shop.Config
	ex  extract.Extractor
	nav *search.Navigator

	// now 테스트에서 시각을 고정하기 위한 주입 지점
	now func() time.Time
}

// New 쇼핑몰 설정과 Extractor로 Scraper를 생성합니다.
func New(cfg *shop.Config, ex extract.Extractor) *Scraper {
	return &Scraper{
		cfg: cfg,
		ex:  ex,
		nav: search.NewNavigator(cfg, ex),
		now: time.Now,
	}
}

// Navigator 이 Scraper가 사용하는 탐색기를 반환합니다. 세트 검색(Phase 1)은
// 탐색기를 직접 사용합니다.
func (s *Scraper) Navigator() *search.Navigator {
	return s.nav
}

// FindAndScrape 상품을 검색하여 찾고 가격/재고를 추출합니다.
//
// 상품을 찾지 못하면 URL이 빈 결과와 nil 에러를 반환합니다. 에러는 네트워크나
// 추출기 결함을 뜻하며, 이때도 결과는 "찾지 못함"으로 채워져 반환됩니다.
func (s *Scraper) FindAndScrape(ctx context.Context, product contract.ResolvedProduct) (contract.ExtractionResult, error) {
	found, err := s.nav.FindProduct(ctx, product)
	if err != nil {
		return s.notFound(product), err
	}
	if found == nil {
		applog.WithComponent("scan.scraper").Debugf("검색 결과에서 상품을 찾지 못했습니다. (shop:%s, product:%s)", s.cfg.ID, product.ID)
		return s.notFound(product), nil
	}

	if s.synthesizable(found.Page) {
		return s.Synthesize(product, found.URL, found.Page), nil
	}

	// 직행이면 이미 상품 페이지에 있으므로 다시 이동하지 않는다.
	return s.extractProductPage(ctx, product, found.URL, found.DirectHit)
}

// ScrapeCarried Phase 1에서 매칭된 상품의 가격/재고를 추출합니다.
//
// 검색 페이지 정보가 충분하면 HTTP 요청 없이 합성하고, 아니면 상품 페이지를
// 엽니다.
func (s *Scraper) ScrapeCarried(ctx context.Context, carry Carry) (contract.ExtractionResult, error) {
	if s.synthesizable(carry.Page) {
		return s.Synthesize(carry.Product, carry.URL, carry.Page), nil
	}
	return s.extractProductPage(ctx, carry.Product, carry.URL, false)
}

// Synthesize 검색 결과 페이지에서 추출한 정보만으로 결과를 만듭니다.
func (s *Scraper) Synthesize(product contract.ResolvedProduct, url string, page *contract.SearchPageData) contract.ExtractionResult {
	return contract.ExtractionResult{
		ProductID:  product.ID,
		ShopID:     s.cfg.ID,
		ProductURL: url,
		Price:      page.Price,
		Available:  page.Available,
		Timestamp:  s.now(),
	}
}

// NotFound 상품을 찾지 못했음을 나타내는 결과를 만듭니다. 저장 대상이 아닙니다.
func (s *Scraper) NotFound(product contract.ResolvedProduct) contract.ExtractionResult {
	return s.notFound(product)
}

func (s *Scraper) notFound(product contract.ResolvedProduct) contract.ExtractionResult {
	return contract.ExtractionResult{
		ProductID: product.ID,
		ShopID:    s.cfg.ID,
		Timestamp: s.now(),
	}
}

// synthesizable 검색 페이지 정보만으로 결과를 합성할 수 있는지 확인합니다.
// 가격까지 알고 있어야 상품 페이지 방문을 생략합니다.
func (s *Scraper) synthesizable(page *contract.SearchPageData) bool {
	return page != nil && page.Price != nil
}

// extractProductPage 상품 페이지에서 가격과 재고를 추출합니다.
// alreadyThere가 true이면 현재 페이지가 이미 상품 페이지입니다.
func (s *Scraper) extractProductPage(ctx context.Context, product contract.ResolvedProduct, url string, alreadyThere bool) (contract.ExtractionResult, error) {
	if !alreadyThere {
		if err := s.ex.Goto(ctx, url); err != nil {
			return s.notFound(product), err
		}
	}

	result := contract.ExtractionResult{
		ProductID:  product.ID,
		ShopID:     s.cfg.ID,
		ProductURL: url,
		Timestamp:  s.now(),
	}

	priceText, found, err := s.ex.ExtractOne(ctx, s.cfg.Selectors.Product.Price)
	if err != nil {
		return s.notFound(product), err
	}
	if found {
		if price, ok := priceutil.Parse(priceText, s.cfg.Locale()); ok {
			result.Price = &price
		}
	}
	if result.Price == nil {
		applog.WithComponent("scan.scraper").Debugf("상품 페이지에서 가격을 추출하지 못했습니다. (shop:%s, product:%s, url:%s)", s.cfg.ID, product.ID, url)
	}

	available, err := s.checkAvailability(ctx)
	if err != nil {
		return s.notFound(product), err
	}
	result.Available = available

	return result, nil
}

// checkAvailability 재고 셀렉터 목록 중 하나라도 존재하면 재고가 있는 것으로
// 판정합니다.
func (s *Scraper) checkAvailability(ctx context.Context) (bool, error) {
	for _, sel := range s.cfg.Selectors.Product.Availability {
		exists, err := s.ex.Exists(ctx, sel)
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}
