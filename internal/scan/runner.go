package scan

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/darkkaiser/price-scanner/internal/config"
	"github.com/darkkaiser/price-scanner/internal/contract"
	"github.com/darkkaiser/price-scanner/internal/notify"
	"github.com/darkkaiser/price-scanner/internal/scan/extract"
	"github.com/darkkaiser/price-scanner/internal/scan/fetcher"
	"github.com/darkkaiser/price-scanner/internal/scan/scraper"
	"github.com/darkkaiser/price-scanner/internal/scan/search"
	"github.com/darkkaiser/price-scanner/internal/shop"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
	"golang.org/x/sync/errgroup"
)

const componentRunner = "scan.runner"

// ExtractorFactory 태스크마다 새 Extractor를 생성합니다.
//
// Phase 2의 상품 태스크는 각자 자기 Extractor를 만들어 쓰고 닫습니다. 같은
// 쇼핑몰의 팩토리들은 요청 간격 제한기를 공유해야 합니다.
type ExtractorFactory func() (extract.Extractor, error)

// Runner 정적 엔진 사이클과 렌더링 엔진 사이클을 실행합니다.
//
// 정적 사이클은 쇼핑몰 풀과 쇼핑몰 내부의 상품 풀 두 단계로 병렬화되고,
// 렌더링 사이클은 브라우저 하나를 공유하므로 쇼핑몰도 상품도 순차 처리됩니다.
type Runner struct {
	scanCfg    config.ScanConfig
	breaker    *Breaker
	buffer     *ResultBuffer
	dispatcher *notify.Dispatcher
	stats      *Stats

	// 테스트에서 교체 가능한 생성 지점
	staticFactory   func(cfg *shop.Config) ExtractorFactory
	newBrowser      func(ctx context.Context, shops []*shop.Config) (*extract.Browser, error)
	renderedFactory func(b *extract.Browser, cfg *shop.Config) (extract.Extractor, error)
}

// NewRunner 사이클 러너를 생성합니다.
func NewRunner(scanCfg config.ScanConfig, breaker *Breaker, buffer *ResultBuffer, dispatcher *notify.Dispatcher, stats *Stats) *Runner {
	r := &Runner{
		scanCfg:    scanCfg,
		breaker:    breaker,
		buffer:     buffer,
		dispatcher: dispatcher,
		stats:      stats,
	}
	r.staticFactory = r.defaultStaticFactory
	r.newBrowser = r.defaultBrowser
	r.renderedFactory = defaultRenderedExtractor
	return r
}

// defaultStaticFactory 쇼핑몰 하나의 정적 Extractor 팩토리를 만듭니다.
// 요청 간격 제한기는 팩토리가 만드는 모든 Extractor가 공유합니다.
func (r *Runner) defaultStaticFactory(cfg *shop.Config) ExtractorFactory {
	proxyURL := ""
	if cfg.UseProxy {
		proxyURL = r.scanCfg.ProxyURL
	}

	chainCfg := fetcher.ChainConfig{
		MaxRetries: r.scanCfg.MaxRetryAttempts,
		ProxyURL:   proxyURL,
		Limiter:    fetcher.NewShopLimiter(cfg.Delay()),
		BaseDelay:  cfg.Delay(),
	}

	return func() (extract.Extractor, error) {
		f, err := fetcher.NewChain(chainCfg)
		if err != nil {
			return nil, err
		}
		return extract.NewStatic(f), nil
	}
}

// defaultBrowser 렌더링 사이클이 공유할 헤드리스 브라우저를 실행합니다.
// 프록시를 사용하는 쇼핑몰이 하나라도 있으면 브라우저 전체에 프록시를 겁니다.
func (r *Runner) defaultBrowser(ctx context.Context, shops []*shop.Config) (*extract.Browser, error) {
	browserCfg := extract.BrowserConfig{}
	for _, cfg := range shops {
		if cfg.UseProxy {
			browserCfg.ProxyURL = r.scanCfg.ProxyURL
			break
		}
	}
	return extract.NewBrowser(ctx, browserCfg)
}

func defaultRenderedExtractor(b *extract.Browser, cfg *shop.Config) (extract.Extractor, error) {
	opts, err := extract.DecodeRenderedOptions(cfg.Engine)
	if err != nil {
		return nil, err
	}
	return extract.NewRendered(b, opts)
}

// FreeMemory 브라우저 실행에 앞서 런타임에 메모리 회수를 요청합니다.
// 정적 사이클이 파싱하며 쌓은 힙을 비워 브라우저와의 동거 부담을 줄입니다.
func FreeMemory() {
	runtime.GC()
	debug.FreeOSMemory()
}

// RunStatic 정적 엔진 쇼핑몰들의 사이클을 실행합니다.
// 쇼핑몰 단위의 실패는 로그로만 남고 다른 쇼핑몰에 전파되지 않습니다.
func (r *Runner) RunStatic(ctx context.Context, shops []*shop.Config, groups []contract.SetGroup, ungrouped []contract.ResolvedProduct) {
	if len(shops) == 0 {
		return
	}

	limit := r.scanCfg.ShopConcurrency
	if limit <= 0 {
		limit = config.DefaultShopConcurrency
	}

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, cfg := range shops {
		cfg := cfg
		g.Go(func() error {
			r.runStaticShop(ctx, cfg, groups, ungrouped)
			return nil
		})
	}
	_ = g.Wait()
}

// runStaticShop 쇼핑몰 하나의 정적 사이클을 실행합니다.
func (r *Runner) runStaticShop(ctx context.Context, cfg *shop.Config, groups []contract.SetGroup, ungrouped []contract.ResolvedProduct) {
	start := time.Now()
	defer func() { r.stats.Duration(cfg.ID, time.Since(start)) }()

	factory := r.staticFactory(cfg)
	carries, searches := r.runPhase1(ctx, cfg, factory, groups, ungrouped)
	r.runPhase2(ctx, cfg, factory, carries, searches)
}

// runPhase1 세트 그룹들을 순차 검색하여 Phase 2 작업 목록을 만듭니다.
//
// 그룹 하나의 검색 결과는 그룹의 모든 상품이 공유하므로 세트당 HTTP 요청은
// 한 번입니다. 반환값은 검색 페이지에서 매칭된 상품들(carries)과 상품별 개별
// 검색이 필요한 상품들(searches)입니다.
func (r *Runner) runPhase1(ctx context.Context, cfg *shop.Config, factory ExtractorFactory, groups []contract.SetGroup, ungrouped []contract.ResolvedProduct) ([]scraper.Carry, []contract.ResolvedProduct) {
	logger := applog.WithComponent(componentRunner)

	var searches []contract.ResolvedProduct
	if r.scanCfg.UngroupedSearch {
		searches = ungrouped
	}

	ex, err := factory()
	if err != nil {
		logger.Errorf("Extractor 생성에 실패하여 쇼핑몰 스캔을 건너뜁니다. (shop:%s, error:%v)", cfg.ID, err)
		for _, group := range groups {
			r.markNotFound(cfg.ID, group.Products)
		}
		r.markNotFound(cfg.ID, searches)
		return nil, nil
	}
	defer func() { _ = ex.Close(ctx) }()

	nav := search.NewNavigator(cfg, ex)

	var carries []scraper.Carry
	for gi, group := range groups {
		if r.breaker.IsTripped(cfg.ID) {
			for _, rest := range groups[gi:] {
				r.markNotFound(cfg.ID, rest.Products)
			}
			r.markNotFound(cfg.ID, searches)
			return carries, nil
		}

		candidates, err := nav.CollectSetCandidates(ctx, group.SearchPhrase)
		if err != nil {
			logger.Warnf("세트 검색에 실패하였습니다. (shop:%s, set:%s, error:%v)", cfg.ID, group.SetID, err)
			r.markNotFound(cfg.ID, group.Products)
			r.stats.Failure(cfg.ID)
			if r.breaker.RecordFailure(cfg.ID) {
				r.stats.Tripped(cfg.ID)
			}
			continue
		}
		r.breaker.RecordSuccess(cfg.ID)

		for _, product := range group.Products {
			best := search.MatchCandidates(product, candidates)
			if best == nil {
				r.stats.NotFound(cfg.ID)
				continue
			}
			carries = append(carries, scraper.Carry{Product: product, URL: best.URL, Page: best.Page})
		}
	}

	if r.breaker.IsTripped(cfg.ID) {
		r.markNotFound(cfg.ID, searches)
		return carries, nil
	}
	return carries, searches
}

// runPhase2 상품 태스크들을 상품 풀에서 병렬 실행합니다.
// 태스크마다 자기 Extractor를 만들어 쓰고 닫습니다.
func (r *Runner) runPhase2(ctx context.Context, cfg *shop.Config, factory ExtractorFactory, carries []scraper.Carry, searches []contract.ResolvedProduct) {
	if len(carries) == 0 && len(searches) == 0 {
		return
	}

	defaultConcurrency := r.scanCfg.ProductConcurrency
	if defaultConcurrency <= 0 {
		defaultConcurrency = config.DefaultProductConcurrency
	}

	g := new(errgroup.Group)
	g.SetLimit(cfg.EffectiveConcurrency(defaultConcurrency))

	for _, carry := range carries {
		carry := carry
		g.Go(func() error {
			r.runProductTask(ctx, cfg, factory, carry.Product, synthesizable(carry.Page),
				func(ctx context.Context, s *scraper.Scraper) (contract.ExtractionResult, error) {
					return s.ScrapeCarried(ctx, carry)
				})
			return nil
		})
	}
	for _, product := range searches {
		product := product
		g.Go(func() error {
			r.runProductTask(ctx, cfg, factory, product, false,
				func(ctx context.Context, s *scraper.Scraper) (contract.ExtractionResult, error) {
					return s.FindAndScrape(ctx, product)
				})
			return nil
		})
	}
	_ = g.Wait()
}

// runProductTask 상품 하나를 자기 Extractor로 스크래핑합니다.
// 태스크의 에러는 로그와 통계로만 남고 바깥으로 전파되지 않습니다.
func (r *Runner) runProductTask(ctx context.Context, cfg *shop.Config, factory ExtractorFactory, product contract.ResolvedProduct, synthesized bool, scrape func(context.Context, *scraper.Scraper) (contract.ExtractionResult, error)) {
	if !r.breaker.Allow(cfg.ID) || ctx.Err() != nil {
		r.stats.NotFound(cfg.ID)
		return
	}

	ex, err := factory()
	if err != nil {
		applog.WithComponent(componentRunner).Errorf("Extractor 생성에 실패하였습니다. (shop:%s, product:%s, error:%v)", cfg.ID, product.ID, err)
		r.stats.NotFound(cfg.ID)
		return
	}
	defer func() { _ = ex.Close(ctx) }()

	result, err := scrape(ctx, scraper.New(cfg, ex))
	r.handleOutcome(cfg, product, synthesized, result, err)
}

// RunRendered 렌더링 엔진 쇼핑몰들의 사이클을 실행합니다.
//
// 브라우저 하나를 모든 쇼핑몰이 공유하므로 쇼핑몰은 순차로, 쇼핑몰 안의 상품도
// 순차로 처리됩니다. 쇼핑몰마다 탭(Extractor) 하나를 만들어 재사용합니다.
func (r *Runner) RunRendered(ctx context.Context, shops []*shop.Config, groups []contract.SetGroup, ungrouped []contract.ResolvedProduct) {
	if len(shops) == 0 {
		return
	}

	browser, err := r.newBrowser(ctx, shops)
	if err != nil {
		applog.WithComponent(componentRunner).Errorf("헤드리스 브라우저 실행에 실패하여 렌더링 엔진 쇼핑몰을 모두 건너뜁니다. (error:%v)", err)
		for _, cfg := range shops {
			r.markShopNotFound(cfg, groups, ungrouped)
		}
		return
	}
	if browser != nil {
		defer browser.Close()
	}

	for _, cfg := range shops {
		if ctx.Err() != nil {
			return
		}
		r.runRenderedShop(ctx, browser, cfg, groups, ungrouped)
	}
}

// runRenderedShop 쇼핑몰 하나의 렌더링 사이클을 실행합니다.
func (r *Runner) runRenderedShop(ctx context.Context, browser *extract.Browser, cfg *shop.Config, groups []contract.SetGroup, ungrouped []contract.ResolvedProduct) {
	logger := applog.WithComponent(componentRunner)

	start := time.Now()
	defer func() { r.stats.Duration(cfg.ID, time.Since(start)) }()

	var searches []contract.ResolvedProduct
	if r.scanCfg.UngroupedSearch {
		searches = ungrouped
	}

	ex, err := r.renderedFactory(browser, cfg)
	if err != nil {
		logger.Errorf("렌더링 Extractor 생성에 실패하여 쇼핑몰 스캔을 건너뜁니다. (shop:%s, error:%v)", cfg.ID, err)
		r.markShopNotFound(cfg, groups, ungrouped)
		return
	}
	defer func() { _ = ex.Close(ctx) }()

	s := scraper.New(cfg, ex)
	nav := s.Navigator()

	for gi, group := range groups {
		if r.breaker.IsTripped(cfg.ID) {
			for _, rest := range groups[gi:] {
				r.markNotFound(cfg.ID, rest.Products)
			}
			r.markNotFound(cfg.ID, searches)
			return
		}

		candidates, err := nav.CollectSetCandidates(ctx, group.SearchPhrase)
		if err != nil {
			logger.Warnf("세트 검색에 실패하였습니다. (shop:%s, set:%s, error:%v)", cfg.ID, group.SetID, err)
			r.markNotFound(cfg.ID, group.Products)
			r.stats.Failure(cfg.ID)
			if r.breaker.RecordFailure(cfg.ID) {
				r.stats.Tripped(cfg.ID)
			}
			continue
		}
		r.breaker.RecordSuccess(cfg.ID)

		for _, product := range group.Products {
			best := search.MatchCandidates(product, candidates)
			if best == nil {
				r.stats.NotFound(cfg.ID)
				continue
			}

			carry := scraper.Carry{Product: product, URL: best.URL, Page: best.Page}
			if !r.breaker.Allow(cfg.ID) || ctx.Err() != nil {
				r.stats.NotFound(cfg.ID)
				continue
			}
			result, err := s.ScrapeCarried(ctx, carry)
			r.handleOutcome(cfg, product, synthesizable(carry.Page), result, err)
		}
	}

	for _, product := range searches {
		if !r.breaker.Allow(cfg.ID) || ctx.Err() != nil {
			r.stats.NotFound(cfg.ID)
			continue
		}
		result, err := s.FindAndScrape(ctx, product)
		r.handleOutcome(cfg, product, false, result, err)
	}
}

// handleOutcome 스크래핑 한 건의 결과를 브레이커/통계/버퍼/분배기에 반영합니다.
func (r *Runner) handleOutcome(cfg *shop.Config, product contract.ResolvedProduct, synthesized bool, result contract.ExtractionResult, err error) {
	if err != nil {
		applog.WithComponent(componentRunner).Warnf("상품 스크래핑에 실패하였습니다. (shop:%s, product:%s, error:%v)", cfg.ID, product.ID, err)
		r.stats.Failure(cfg.ID)
		if r.breaker.RecordFailure(cfg.ID) {
			r.stats.Tripped(cfg.ID)
		}
		r.stats.NotFound(cfg.ID)
		return
	}
	r.breaker.RecordSuccess(cfg.ID)

	if !result.Found() {
		r.stats.NotFound(cfg.ID)
		return
	}

	r.stats.Found(cfg.ID, synthesized)
	r.buffer.Add(result)
	r.dispatcher.ProcessResult(product, result, cfg)
}

// markNotFound 상품들을 이 쇼핑몰에서 찾지 못한 것으로 집계합니다.
// 찾지 못한 결과는 저장도 알림도 되지 않으므로 통계에만 남습니다.
func (r *Runner) markNotFound(shopID contract.ShopID, products []contract.ResolvedProduct) {
	for range products {
		r.stats.NotFound(shopID)
	}
}

// markShopNotFound 쇼핑몰의 스캔 대상 전체를 찾지 못한 것으로 집계합니다.
func (r *Runner) markShopNotFound(cfg *shop.Config, groups []contract.SetGroup, ungrouped []contract.ResolvedProduct) {
	for _, group := range groups {
		r.markNotFound(cfg.ID, group.Products)
	}
	if r.scanCfg.UngroupedSearch {
		r.markNotFound(cfg.ID, ungrouped)
	}
}

// synthesizable 검색 페이지 정보만으로 결과를 합성할 수 있는지 확인합니다.
func synthesizable(page *contract.SearchPageData) bool {
	return page != nil && page.Price != nil
}
