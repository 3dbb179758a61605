// Package shop 쇼핑몰별 스크래핑 설정을 정의하고 설정 디렉터리에서 로드합니다.
//
// 쇼핑몰 설정은 외부 CRUD가 아닌 파일로 관리됩니다. 쇼핑몰마다 JSON 파일 하나가
// 있으며, 검색 URL 템플릿, 셀렉터 묶음, 엔진 종류(static/rendered), 안티봇 관련
// 설정을 담습니다. 설정은 사이클 시작 시 한 번 로드되어 사이클 동안 불변입니다.
package shop

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/darkkaiser/price-scanner/internal/contract"
	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	"github.com/darkkaiser/price-scanner/pkg/priceutil"
)

// queryPlaceholder 검색 URL 템플릿에서 검색어로 치환되는 자리 표시자입니다.
// 템플릿에 자리 표시자가 없으면 URL 인코딩된 검색어를 템플릿 뒤에 이어 붙입니다.
const queryPlaceholder = "{query}"

// EngineKind 쇼핑몰 페이지를 가져오는 방식입니다.
type EngineKind string

const (
	// EngineStatic HTTP GET + HTML 파싱. 자바스크립트를 실행하지 않습니다.
	EngineStatic EngineKind = "static"

	// EngineRendered 헤드리스 브라우저 렌더링. 자바스크립트로 가격을 그리는
	// 쇼핑몰에 사용합니다.
	EngineRendered EngineKind = "rendered"
)

// Engine 페이지 엔진 종류와 엔진별 세부 옵션입니다.
// Options의 스키마는 엔진 종류마다 다르므로 맵으로 받아 엔진 구성 시 디코딩합니다.
type Engine struct {
	Kind    EngineKind     `json:"kind" validate:"required,oneof=static rendered"`
	Options map[string]any `json:"options,omitempty"`
}

// SearchSelectors 검색 결과 페이지에 적용하는 셀렉터 묶음입니다.
//
// Title, ProductURL, Price, Availability는 Article로 매칭된 개별 기사 노드를
// 기준으로 실행됩니다. Price와 Availability가 정의된 쇼핑몰은 검색 페이지의
// 가격/재고 정보만으로 상품 페이지 방문 없이 결과를 합성할 수 있습니다.
type SearchSelectors struct {
	Article      Selector   `json:"article"`
	Title        Selector   `json:"title"`
	ProductURL   Selector   `json:"product_url"`
	Price        *Selector  `json:"price,omitempty"`
	Availability []Selector `json:"availability,omitempty" validate:"omitempty,dive"`
}

// ProductSelectors 상품 상세 페이지에 적용하는 셀렉터 묶음입니다.
// Availability는 대체 셀렉터 목록이며, 하나라도 매칭되면 재고가 있는 것으로 봅니다.
type ProductSelectors struct {
	Title        Selector   `json:"title"`
	Price        Selector   `json:"price"`
	Availability []Selector `json:"availability" validate:"min=1,dive"`
}

// SelectorBundle 검색 페이지와 상품 페이지의 셀렉터 묶음입니다.
type SelectorBundle struct {
	Search  SearchSelectors  `json:"search"`
	Product ProductSelectors `json:"product"`
}

// Config 쇼핑몰 하나의 스크래핑 설정입니다. 사이클 동안 불변입니다.
type Config struct {
	ID   contract.ShopID `json:"id" validate:"required"`
	Name string          `json:"name" validate:"required"`

	// BaseURL 상대 경로 href를 절대 URL로 변환할 때 사용하는 기준 URL
	BaseURL string `json:"base_url" validate:"required"`

	// SearchURL 검색 URL 템플릿. {query} 자리 표시자를 포함하거나,
	// 포함하지 않으면 URL 인코딩된 검색어가 뒤에 이어 붙습니다.
	SearchURL string `json:"search_url" validate:"required"`

	// DirectHitURL 검색이 상품 페이지로 바로 리다이렉트되는 쇼핑몰에서,
	// 최종 URL이 상품 페이지인지 판별하는 정규식 (선택)
	DirectHitURL string `json:"direct_hit_url,omitempty"`

	// PriceLocale 가격 표기 로케일. 비어있으면 eu로 동작합니다.
	PriceLocale priceutil.Locale `json:"price_locale,omitempty" validate:"omitempty,oneof=eu us"`

	Engine    Engine         `json:"engine"`
	Selectors SelectorBundle `json:"selectors"`

	// DelayMS 요청 사이에 두는 기본 지연(밀리초). 실제 지연에는 ±30% 지터가
	// 더해집니다.
	DelayMS int `json:"delay_ms,omitempty" validate:"gte=0"`

	// MaxConcurrency 이 쇼핑몰의 상품 동시 처리 개수 상한. 0이면 전역 기본값을
	// 사용합니다.
	MaxConcurrency int `json:"max_concurrency,omitempty" validate:"gte=0"`

	// UseProxy 전역 프록시 설정이 있을 때 이 쇼핑몰의 요청을 프록시로 보낼지 여부
	UseProxy bool `json:"use_proxy,omitempty"`

	Disabled bool `json:"disabled,omitempty"`

	directHitRegexp *regexp.Regexp
}

// BuildSearchURL 검색어를 넣은 검색 URL을 만듭니다.
func (c *Config) BuildSearchURL(phrase string) string {
	escaped := url.QueryEscape(phrase)
	if strings.Contains(c.SearchURL, queryPlaceholder) {
		return strings.ReplaceAll(c.SearchURL, queryPlaceholder, escaped)
	}
	return c.SearchURL + escaped
}

// AbsoluteURL 검색 결과에서 추출한 href를 절대 URL로 변환합니다.
//
// 절대 URL은 그대로 두고, "//host/path"는 https를 붙이며, "/path"는 BaseURL에
// 이어 붙입니다. 그 외의 상대 경로는 BaseURL과 "/"로 연결합니다.
func (c *Config) AbsoluteURL(href string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return strings.TrimSuffix(c.BaseURL, "/") + href
	default:
		return strings.TrimSuffix(c.BaseURL, "/") + "/" + href
	}
}

// MatchesDirectHit 최종 URL이 상품 페이지 리다이렉트 패턴과 일치하는지 확인합니다.
// 패턴이 설정되지 않은 쇼핑몰에서는 항상 false입니다.
func (c *Config) MatchesDirectHit(finalURL string) bool {
	if c.directHitRegexp == nil {
		return false
	}
	return c.directHitRegexp.MatchString(finalURL)
}

// Locale 가격 파싱에 사용할 로케일을 반환합니다. 설정되지 않은 경우 eu입니다.
func (c *Config) Locale() priceutil.Locale {
	if c.PriceLocale == "" {
		return priceutil.LocaleEU
	}
	return c.PriceLocale
}

// Delay 요청 사이에 둘 기본 지연을 반환합니다.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// EffectiveConcurrency 상품 동시 처리 개수를 반환합니다.
// 쇼핑몰별 상한이 없으면 전역 기본값을 사용합니다.
func (c *Config) EffectiveConcurrency(defaultConcurrency int) int {
	if c.MaxConcurrency > 0 {
		return c.MaxConcurrency
	}
	return defaultConcurrency
}

// Rendered 헤드리스 브라우저 엔진을 사용하는 쇼핑몰인지 확인합니다.
func (c *Config) Rendered() bool {
	return c.Engine.Kind == EngineRendered
}

// VerifyRecommendations 운영 안정성을 위해 권장되는 설정 준수 여부를 진단합니다.
// 강제적인 에러를 발생시키지는 않으나, 잠재적 위험 요소에 대한 경고 메시지를 반환합니다.
func (c *Config) VerifyRecommendations() []string {
	var warnings []string

	// 지연이 너무 짧으면 쇼핑몰의 차단 정책에 걸릴 수 있음
	if !c.Rendered() && c.DelayMS < 500 {
		warnings = append(warnings, fmt.Sprintf("Shop['%s']의 요청 지연(delay_ms: %d)이 500ms보다 짧습니다. 쇼핑몰의 차단 정책에 걸릴 수 있습니다", c.ID, c.DelayMS))
	}

	// 렌더링 엔진을 쓰는 쇼핑몰은 대체로 안티봇이 강하므로 프록시 사용을 권장
	if c.Rendered() && !c.UseProxy {
		warnings = append(warnings, fmt.Sprintf("Shop['%s']은 렌더링 엔진을 사용하지만 프록시(use_proxy)가 꺼져 있습니다. 안티봇 차단 가능성이 높아집니다", c.ID))
	}

	return warnings
}

// validate 설정 값의 정합성을 검증하고 파생 필드를 준비합니다.
func (c *Config) validate() error {
	if err := checkStruct(validate, c, fmt.Sprintf("Shop['%s']", c.ID)); err != nil {
		return err
	}

	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("Shop['%s']의 기준 URL(base_url)은 http 또는 https로 시작해야 합니다: '%s'", c.ID, c.BaseURL))
	}
	if !strings.HasPrefix(c.SearchURL, "http://") && !strings.HasPrefix(c.SearchURL, "https://") {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("Shop['%s']의 검색 URL(search_url)은 http 또는 https로 시작해야 합니다: '%s'", c.ID, c.SearchURL))
	}

	if c.DirectHitURL != "" {
		compiled, err := regexp.Compile(c.DirectHitURL)
		if err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("Shop['%s']의 상품 페이지 판별 정규식(direct_hit_url)이 올바르지 않습니다: '%s'", c.ID, c.DirectHitURL))
		}
		c.directHitRegexp = compiled
	}

	return nil
}
