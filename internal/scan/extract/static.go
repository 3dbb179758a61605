package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	"github.com/darkkaiser/price-scanner/internal/scan/fetcher"
	"github.com/darkkaiser/price-scanner/internal/shop"
	"github.com/darkkaiser/price-scanner/pkg/strutil"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

// StaticExtractor HTTP GET과 HTML 파싱으로 동작하는 Extractor 구현입니다.
//
// 자바스크립트를 실행하지 않으므로 서버가 내려주는 HTML에 데이터가 있는
// 쇼핑몰에만 사용할 수 있습니다. 가볍기 때문에 Phase 2에서는 상품 태스크마다
// 하나씩 생성하여 사용합니다.
type StaticExtractor struct {
	f fetcher.Fetcher

	doc        *goquery.Document
	currentURL string
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Extractor = (*StaticExtractor)(nil)

// NewStatic 주어진 Fetcher로 페이지를 가져오는 StaticExtractor를 생성합니다.
func NewStatic(f fetcher.Fetcher) *StaticExtractor {
	return &StaticExtractor{f: f}
}

// Goto 페이지를 가져와 파싱합니다. 리다이렉트를 따라간 최종 URL이 기록됩니다.
func (s *StaticExtractor) Goto(ctx context.Context, url string) error {
	doc, finalURL, err := fetcher.FetchDocument(ctx, s.f, url)
	if err != nil {
		return err
	}

	s.doc = doc
	s.currentURL = finalURL
	return nil
}

// CurrentURL 현재 페이지의 최종 URL을 반환합니다.
func (s *StaticExtractor) CurrentURL() string {
	return s.currentURL
}

// ExtractOne 셀렉터와 일치하는 첫 번째 값을 추출합니다.
func (s *StaticExtractor) ExtractOne(_ context.Context, sel shop.Selector) (string, bool, error) {
	if s.doc == nil {
		return "", false, ErrNoPage
	}
	return extractOneStatic(s.rootNodes(), sel)
}

// ExtractMany 셀렉터와 일치하는 모든 요소를 문서 순서대로 반환합니다.
func (s *StaticExtractor) ExtractMany(_ context.Context, sel shop.Selector) ([]Element, error) {
	if s.doc == nil {
		return nil, ErrNoPage
	}

	nodes, err := findNodes(s.rootNodes(), sel)
	if err != nil {
		return nil, err
	}

	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &staticElement{node: n})
	}
	return elements, nil
}

// Exists 셀렉터와 일치하는 노드가 존재하는지 확인합니다.
func (s *StaticExtractor) Exists(_ context.Context, sel shop.Selector) (bool, error) {
	if s.doc == nil {
		return false, ErrNoPage
	}
	return existsStatic(s.rootNodes(), sel)
}

// Close 유휴 커넥션을 정리합니다.
func (s *StaticExtractor) Close(_ context.Context) error {
	s.doc = nil
	return s.f.Close()
}

func (s *StaticExtractor) rootNodes() []*html.Node {
	return s.doc.Selection.Nodes
}

// ------------------------------------------------------------------------------------------------
// 셀렉터 실행 (정적 DOM)
// ------------------------------------------------------------------------------------------------

// findNodes 셀렉터의 기본 값과 폴백 값들을 순서대로 시도하여 처음으로 노드를 찾은
// 값의 결과를 반환합니다. 반환 순서는 문서 순서입니다.
func findNodes(roots []*html.Node, sel shop.Selector) ([]*html.Node, error) {
	for _, value := range sel.Values() {
		nodes, err := findNodesByValue(roots, sel.Kind, value)
		if err != nil {
			return nil, err
		}
		if len(nodes) > 0 {
			return nodes, nil
		}
	}
	return nil, nil
}

// findNodesByValue 셀렉터 값 하나를 루트 노드들에 적용합니다.
func findNodesByValue(roots []*html.Node, kind shop.SelectorKind, value string) ([]*html.Node, error) {
	var nodes []*html.Node

	for _, root := range roots {
		switch kind {
		case shop.SelectorCSS, shop.SelectorJSONAttr:
			// json-attr의 value는 JSON을 담은 노드를 고르는 CSS 경로다.
			found := goquery.NewDocumentFromNode(root).Find(value)
			nodes = append(nodes, found.Nodes...)

		case shop.SelectorXPath:
			found, err := htmlquery.QueryAll(root, value)
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.InvalidInput, "XPath 셀렉터가 올바르지 않습니다: "+value)
			}
			nodes = append(nodes, found...)

		case shop.SelectorText:
			nodes = append(nodes, findByText(root, value)...)

		default:
			return nil, apperrors.New(apperrors.InvalidInput, "지원하지 않는 셀렉터 종류입니다: "+string(kind))
		}
	}

	return nodes, nil
}

// findByText 서브트리에서 대소문자 구분 없이 value를 포함하는 가장 안쪽 요소
// 노드들을 문서 순서대로 찾습니다. 자식 요소가 이미 포함하고 있으면 부모는
// 결과에 넣지 않아, "재고 있음" 배지처럼 텍스트를 직접 감싼 요소가 선택됩니다.
func findByText(root *html.Node, value string) []*html.Node {
	var matches []*html.Node

	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type != html.ElementNode && n != root {
			return false
		}

		childMatched := false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				childMatched = true
			}
		}
		if childMatched {
			return true
		}

		if n.Type == html.ElementNode && strutil.ContainsFold(htmlquery.InnerText(n), value) {
			matches = append(matches, n)
			return true
		}
		return false
	}
	walk(root)

	return matches
}

// extractOneStatic 셀렉터와 일치하는 첫 노드에서 값을 추출합니다.
// 폴백 값들은 "비어있지 않은 값을 처음으로 만든 것"이 채택됩니다.
func extractOneStatic(roots []*html.Node, sel shop.Selector) (string, bool, error) {
	for _, value := range sel.Values() {
		nodes, err := findNodesByValue(roots, sel.Kind, value)
		if err != nil {
			return "", false, err
		}

		for _, n := range nodes {
			extracted, ok := extractNodeValue(n, sel)
			if ok && extracted != "" {
				return extracted, true, nil
			}
		}
	}
	return "", false, nil
}

// extractNodeValue 노드 하나에서 셀렉터의 추출 모드에 맞는 값을 꺼냅니다.
func extractNodeValue(n *html.Node, sel shop.Selector) (string, bool) {
	if sel.Kind == shop.SelectorJSONAttr {
		attrVal := htmlquery.SelectAttr(n, sel.Attribute)
		if attrVal == "" {
			return "", false
		}
		result := gjson.Get(attrVal, sel.Path)
		if !result.Exists() {
			return "", false
		}
		if sel.Expected != "" && result.String() != sel.Expected {
			return "", false
		}
		return result.String(), true
	}

	if sel.Attribute != "" {
		v := htmlquery.SelectAttr(n, sel.Attribute)
		return v, v != ""
	}

	switch sel.Mode() {
	case shop.ExtractHref:
		v := htmlquery.SelectAttr(n, "href")
		return v, v != ""
	case shop.ExtractInnerHTML:
		return innerHTML(n), true
	case shop.ExtractOwnText:
		return strutil.NormalizeSpaces(ownText(n)), true
	default:
		return strutil.NormalizeSpaces(htmlquery.InnerText(n)), true
	}
}

// existsStatic 셀렉터 존재 여부를 판정합니다. json-attr은 aggregate 규칙을
// 적용하고, 그 외에는 노드가 하나라도 있으면 존재로 봅니다.
func existsStatic(roots []*html.Node, sel shop.Selector) (bool, error) {
	if sel.Kind != shop.SelectorJSONAttr {
		nodes, err := findNodes(roots, sel)
		if err != nil {
			return false, err
		}
		return len(nodes) > 0, nil
	}

	nodes, err := findNodes(roots, sel)
	if err != nil {
		return false, err
	}

	satisfied := 0
	for _, n := range nodes {
		if jsonAttrSatisfied(n, sel) {
			satisfied++
		}
	}
	return aggregateSatisfied(sel.Aggregation(), len(nodes), satisfied), nil
}

// jsonAttrSatisfied 노드의 속성 JSON이 경로/기대값 조건을 만족하는지 확인합니다.
func jsonAttrSatisfied(n *html.Node, sel shop.Selector) bool {
	return jsonPathMatches(htmlquery.SelectAttr(n, sel.Attribute), sel)
}

// innerHTML 노드 내부의 HTML 원문을 렌더링합니다.
func innerHTML(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&sb, c)
	}
	return sb.String()
}

// ownText 자손 요소를 제외한 노드 자신의 텍스트를 모읍니다.
func ownText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// ------------------------------------------------------------------------------------------------
// 정적 Element
// ------------------------------------------------------------------------------------------------

// staticElement 파싱된 DOM의 노드 하나를 감싸는 Element 구현입니다.
type staticElement struct {
	node *html.Node
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Element = (*staticElement)(nil)

func (e *staticElement) Text(_ context.Context) (string, error) {
	return strutil.NormalizeSpaces(htmlquery.InnerText(e.node)), nil
}

func (e *staticElement) Attr(_ context.Context, name string) (string, bool, error) {
	for _, attr := range e.node.Attr {
		if strings.EqualFold(attr.Key, name) {
			return attr.Val, true, nil
		}
	}
	return "", false, nil
}

func (e *staticElement) Find(_ context.Context, sel shop.Selector) (Element, error) {
	nodes, err := findNodes([]*html.Node{e.node}, sel)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return &staticElement{node: nodes[0]}, nil
}

func (e *staticElement) FindAll(_ context.Context, sel shop.Selector) ([]Element, error) {
	nodes, err := findNodes([]*html.Node{e.node}, sel)
	if err != nil {
		return nil, err
	}

	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &staticElement{node: n})
	}
	return elements, nil
}

func (e *staticElement) Matches(_ context.Context, sel shop.Selector) (bool, error) {
	switch sel.Kind {
	case shop.SelectorText:
		// text 셀렉터는 서브트리 텍스트 포함 여부로 판정한다.
		for _, value := range sel.Values() {
			if strutil.ContainsFold(htmlquery.InnerText(e.node), value) {
				return true, nil
			}
		}
		return false, nil

	case shop.SelectorJSONAttr:
		return jsonAttrSatisfied(e.node, sel), nil

	default:
		for _, value := range sel.Values() {
			if goquery.NewDocumentFromNode(e.node).Selection.Is(value) {
				return true, nil
			}
		}
		return false, nil
	}
}
