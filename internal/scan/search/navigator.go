package search

import (
	"context"

	"github.com/darkkaiser/price-scanner/internal/contract"
	"github.com/darkkaiser/price-scanner/internal/scan/extract"
	"github.com/darkkaiser/price-scanner/internal/shop"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
	"github.com/darkkaiser/price-scanner/pkg/priceutil"
)

const (
	// maxArticles 상품 단위 검색에서 살펴보는 검색 결과 기사 수
	maxArticles = 5

	// maxSetCandidates 세트 단위 검색에서 수집하는 후보 수
	maxSetCandidates = 20
)

// FindResult 탐색이 찾아낸 상품 페이지입니다.
type FindResult struct {
	// URL 상품 페이지의 절대 URL
	URL string

	// DirectHit 검색이 상품 페이지로 바로 리다이렉트되어 찾은 경우 true
	DirectHit bool

	// Page 검색 결과 페이지에서 함께 추출한 가격/재고 정보 (없으면 nil).
	// 값이 있으면 상품 페이지 방문 없이 결과를 합성할 수 있습니다.
	Page *contract.SearchPageData
}

// Navigator 쇼핑몰 하나의 검색 결과를 탐색합니다.
//
// Extractor 하나를 소유하며 호출은 순차적이어야 합니다. Extractor의 수명은
// 호출자가 관리합니다.
type Navigator struct {
	cfg *shop.Config
	ex  extract.Extractor
}

// NewNavigator 쇼핑몰 설정과 Extractor로 탐색기를 생성합니다.
func NewNavigator(cfg *shop.Config, ex extract.Extractor) *Navigator {
	return &Navigator{cfg: cfg, ex: ex}
}

// FindProduct 상품의 검색 문구들을 순서대로 시도하여 상품 페이지를 찾습니다.
//
// 문구마다 검색 URL을 로드한 뒤, 상품 페이지로 바로 리다이렉트되었으면 제목을
// 검증하여 직행(direct hit) 결과를 반환하고, 그렇지 않으면 검색 결과의 앞쪽
// 기사들을 매칭합니다. 직행 제목의 점수가 기준에 못 미치면 버리지 않고 기사
// 목록 매칭으로 넘어갑니다. 모든 문구를 소진하면 (nil, nil)입니다.
func (n *Navigator) FindProduct(ctx context.Context, product contract.ResolvedProduct) (*FindResult, error) {
	logger := applog.WithComponent("scan.search")

	for _, phrase := range product.Phrases {
		if err := n.ex.Goto(ctx, n.cfg.BuildSearchURL(phrase)); err != nil {
			return nil, err
		}

		if n.cfg.MatchesDirectHit(n.ex.CurrentURL()) {
			hit, err := n.validateDirectHit(ctx, phrase, product.Exclude)
			if err != nil {
				return nil, err
			}
			if hit != nil {
				return hit, nil
			}
			// 직행 검증에 실패해도 버리지 않고 기사 목록 매칭을 시도한다.
			logger.Debugf("상품 페이지 직행이 검증에 실패하였습니다. 기사 목록 매칭으로 넘어갑니다. (shop:%s, phrase:%s)", n.cfg.ID, phrase)
		}

		candidates, err := n.collectCandidates(ctx, maxArticles, func(title string) (int, bool) {
			return Score(title, phrase, product.Exclude)
		})
		if err != nil {
			return nil, err
		}

		if best := SelectBest(candidates); best != nil {
			return &FindResult{URL: best.URL, Page: best.Page}, nil
		}
	}

	return nil, nil
}

// validateDirectHit 리다이렉트로 도착한 상품 페이지의 제목을 검증합니다.
// 점수가 기준 미달이면 (nil, nil)을 반환합니다.
func (n *Navigator) validateDirectHit(ctx context.Context, phrase string, exclude []string) (*FindResult, error) {
	title, found, err := n.ex.ExtractOne(ctx, n.cfg.Selectors.Product.Title)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	score, ok := Score(title, phrase, exclude)
	if !ok || score < DirectHitScore {
		return nil, nil
	}

	return &FindResult{URL: n.ex.CurrentURL(), DirectHit: true}, nil
}

// CollectSetCandidates 세트 이름 한 번의 검색으로 후보 목록을 수집합니다.
//
// 상품별 필터링이나 점수 계산은 하지 않습니다. 수집된 목록은 MatchCandidates를
// 통해 세트의 모든 상품이 공유합니다.
func (n *Navigator) CollectSetCandidates(ctx context.Context, phrase string) ([]contract.Candidate, error) {
	if err := n.ex.Goto(ctx, n.cfg.BuildSearchURL(phrase)); err != nil {
		return nil, err
	}

	// 세트 검색이 상품 페이지로 직행하면 목록이 없으므로 후보도 없다.
	if n.cfg.MatchesDirectHit(n.ex.CurrentURL()) {
		return nil, nil
	}

	return n.collectCandidates(ctx, maxSetCandidates, nil)
}

// collectCandidates 현재 검색 결과 페이지의 기사들에서 후보를 수집합니다.
// score가 nil이 아니면 제목을 검증하여 통과한 기사만 후보가 됩니다.
func (n *Navigator) collectCandidates(ctx context.Context, limit int, score func(title string) (int, bool)) ([]contract.Candidate, error) {
	articles, err := n.ex.ExtractMany(ctx, n.cfg.Selectors.Search.Article)
	if err != nil {
		return nil, err
	}
	if len(articles) > limit {
		articles = articles[:limit]
	}

	logger := applog.WithComponent("scan.search")

	candidates := make([]contract.Candidate, 0, len(articles))
	for _, article := range articles {
		title, err := n.extractFromArticle(ctx, article, n.cfg.Selectors.Search.Title)
		if err != nil {
			return nil, err
		}
		if title == "" {
			continue
		}

		candidate := contract.Candidate{Title: title}

		if score != nil {
			s, ok := score(title)
			if !ok {
				continue
			}
			candidate.Score = s
		}

		href, err := n.extractFromArticle(ctx, article, n.cfg.Selectors.Search.ProductURL)
		if err != nil {
			return nil, err
		}
		if href == "" {
			logger.Debugf("검색 결과 기사에서 상품 URL을 찾지 못했습니다. (shop:%s, title:%s)", n.cfg.ID, title)
			continue
		}
		candidate.URL = n.cfg.AbsoluteURL(href)

		page, err := n.extractSearchPageData(ctx, article)
		if err != nil {
			return nil, err
		}
		candidate.Page = page

		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// extractFromArticle 기사 노드에서 셀렉터의 값을 추출합니다.
//
// 자손 노드 매칭을 먼저 시도하고, 자손에서 찾지 못하면 기사 노드 자신에
// 셀렉터를 적용합니다. 제목이 자손 텍스트가 아니라 기사 노드의 속성에 들어있는
// 쇼핑몰을 지원합니다.
func (n *Navigator) extractFromArticle(ctx context.Context, article extract.Element, sel shop.Selector) (string, error) {
	child, err := article.Find(ctx, sel)
	if err != nil {
		return "", err
	}
	if child != nil {
		value, found, err := extract.ExtractFrom(ctx, child, sel)
		if err != nil {
			return "", err
		}
		if found && value != "" {
			return value, nil
		}
	}

	value, _, err := extract.ExtractFrom(ctx, article, sel)
	if err != nil {
		return "", err
	}
	return value, nil
}

// extractSearchPageData 기사 노드에서 가격/재고 정보를 추출합니다.
//
// 검색 페이지에 가격 셀렉터와 재고 셀렉터가 모두 정의된 쇼핑몰만 합성 대상이며,
// 그 외에는 nil을 반환하여 재고 상태를 알 수 없음으로 둡니다.
func (n *Navigator) extractSearchPageData(ctx context.Context, article extract.Element) (*contract.SearchPageData, error) {
	priceSel := n.cfg.Selectors.Search.Price
	availSels := n.cfg.Selectors.Search.Availability
	if priceSel == nil || len(availSels) == 0 {
		return nil, nil
	}

	page := &contract.SearchPageData{}

	priceText, err := n.extractFromArticle(ctx, article, *priceSel)
	if err != nil {
		return nil, err
	}
	if priceText != "" {
		if price, ok := priceutil.Parse(priceText, n.cfg.Locale()); ok {
			page.Price = &price
		}
	}

	for _, sel := range availSels {
		matched, err := article.Matches(ctx, sel)
		if err != nil {
			return nil, err
		}
		if !matched {
			child, err := article.Find(ctx, sel)
			if err != nil {
				return nil, err
			}
			matched = child != nil
		}
		if matched {
			page.Available = true
			break
		}
	}

	return page, nil
}
