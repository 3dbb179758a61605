package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/price-scanner/internal/scan/fetcher"
	"github.com/darkkaiser/price-scanner/internal/shop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticFromHTML HTTP 요청 없이 HTML 문자열로부터 StaticExtractor를 만듭니다.
func staticFromHTML(t *testing.T, htmlText string) *StaticExtractor {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	require.NoError(t, err)

	return &StaticExtractor{doc: doc, currentURL: "http://shop.example/page"}
}

const searchPageHTML = `
<html><body>
  <div class="list">
    <article class="item" data-state='{"stock":{"status":"SOLD_OUT"}}'>
      <a href="/product/1" title="Surging Sparks Booster Box">Surging Sparks Booster Box</a>
      <span class="price">183,000원</span>
    </article>
    <article class="item" data-state='{"stock":{"status":"IN_STOCK"}}'>
      <a href="/product/2">Surging Sparks Elite Trainer Box</a>
      <span class="price">$59.99</span>
    </article>
  </div>
  <div class="badges">
    <p>배송 안내</p>
    <span class="badge">일시 품절</span>
  </div>
  <div id="desc">요약 <b>강조</b> 끝</div>
</body></html>`

func TestStaticExtractor_ExtractOne(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name      string
		sel       shop.Selector
		wantValue string
		wantFound bool
	}{
		{
			name:      "CSS 셀렉터",
			sel:       shop.Selector{Kind: shop.SelectorCSS, Value: "article.item .price"},
			wantValue: "183,000원",
			wantFound: true,
		},
		{
			name:      "XPath 셀렉터",
			sel:       shop.Selector{Kind: shop.SelectorXPath, Value: `//article[@class="item"]//a`},
			wantValue: "Surging Sparks Booster Box",
			wantFound: true,
		},
		{
			name:      "href 추출 모드",
			sel:       shop.Selector{Kind: shop.SelectorCSS, Value: "article.item a", Extract: shop.ExtractHref},
			wantValue: "/product/1",
			wantFound: true,
		},
		{
			name:      "속성 추출 (title)",
			sel:       shop.Selector{Kind: shop.SelectorCSS, Value: "article.item a", Attribute: "title"},
			wantValue: "Surging Sparks Booster Box",
			wantFound: true,
		},
		{
			name:      "own-text는 자손 요소 텍스트를 제외",
			sel:       shop.Selector{Kind: shop.SelectorCSS, Value: "#desc", Extract: shop.ExtractOwnText},
			wantValue: "요약 끝",
			wantFound: true,
		},
		{
			name:      "json-attr 경로 값 추출",
			sel:       shop.Selector{Kind: shop.SelectorJSONAttr, Value: "article.item", Attribute: "data-state", Path: "stock.status"},
			wantValue: "SOLD_OUT",
			wantFound: true,
		},
		{
			name:      "폴백 값 시도",
			sel:       shop.Selector{Kind: shop.SelectorCSS, Value: ".no-such-node", Fallbacks: []string{"article.item .price"}},
			wantValue: "183,000원",
			wantFound: true,
		},
		{
			name:      "미발견은 에러가 아님",
			sel:       shop.Selector{Kind: shop.SelectorCSS, Value: ".no-such-node"},
			wantFound: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := staticFromHTML(t, searchPageHTML)

			value, found, err := e.ExtractOne(ctx, tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

// TestStaticExtractor_ExtractOne_InnerHTML inner-html 모드는 내부 마크업 원문을
// 반환해야 합니다.
func TestStaticExtractor_ExtractOne_InnerHTML(t *testing.T) {
	t.Parallel()

	e := staticFromHTML(t, searchPageHTML)

	value, found, err := e.ExtractOne(context.Background(),
		shop.Selector{Kind: shop.SelectorCSS, Value: "#desc", Extract: shop.ExtractInnerHTML})
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, value, "<b>강조</b>")
}

// TestStaticExtractor_TextSelector text 셀렉터는 텍스트를 직접 감싼 가장 안쪽
// 요소를 찾아야 합니다.
func TestStaticExtractor_TextSelector(t *testing.T) {
	t.Parallel()

	e := staticFromHTML(t, searchPageHTML)

	elements, err := e.ExtractMany(context.Background(),
		shop.Selector{Kind: shop.SelectorText, Value: "품절"})
	require.NoError(t, err)
	require.Len(t, elements, 1)

	text, err := elements[0].Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "일시 품절", text)
}

// TestStaticExtractor_TextSelector_CaseInsensitive 대소문자를 구분하지 않습니다.
func TestStaticExtractor_TextSelector_CaseInsensitive(t *testing.T) {
	t.Parallel()

	e := staticFromHTML(t, `<html><body><span>Sold Out</span></body></html>`)

	found, err := e.Exists(context.Background(),
		shop.Selector{Kind: shop.SelectorText, Value: "sold out"})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestStaticExtractor_ExtractMany_DocumentOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := staticFromHTML(t, searchPageHTML)

	elements, err := e.ExtractMany(ctx, shop.Selector{Kind: shop.SelectorCSS, Value: "article.item"})
	require.NoError(t, err)
	require.Len(t, elements, 2)

	first, err := elements[0].Find(ctx, shop.Selector{Kind: shop.SelectorCSS, Value: "a"})
	require.NoError(t, err)
	require.NotNil(t, first)

	href, found, err := first.Attr(ctx, "href")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "/product/1", href)

	second, err := elements[1].Find(ctx, shop.Selector{Kind: shop.SelectorCSS, Value: "a"})
	require.NoError(t, err)
	require.NotNil(t, second)

	text, err := second.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Surging Sparks Elite Trainer Box", text)
}

func TestStaticExtractor_Exists_JSONAttrAggregate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	base := shop.Selector{
		Kind:      shop.SelectorJSONAttr,
		Value:     "article.item",
		Attribute: "data-state",
		Path:      "stock.status",
		Expected:  "SOLD_OUT",
	}

	tests := []struct {
		name      string
		aggregate shop.Aggregate
		want      bool
	}{
		{name: "any: 하나만 품절이어도 매칭", aggregate: shop.AggregateAny, want: true},
		{name: "all: 전부 품절은 아니므로 불일치", aggregate: shop.AggregateAll, want: false},
		{name: "none: 품절이 존재하므로 불일치", aggregate: shop.AggregateNone, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := staticFromHTML(t, searchPageHTML)

			sel := base
			sel.Aggregate = tt.aggregate

			got, err := e.Exists(ctx, sel)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestStaticExtractor_Exists_JSONAttrNoExpected expected가 비어있으면 경로 존재만으로
// 매칭입니다.
func TestStaticExtractor_Exists_JSONAttrNoExpected(t *testing.T) {
	t.Parallel()

	e := staticFromHTML(t, searchPageHTML)

	found, err := e.Exists(context.Background(), shop.Selector{
		Kind:      shop.SelectorJSONAttr,
		Value:     "article.item",
		Attribute: "data-state",
		Path:      "stock.status",
		Aggregate: shop.AggregateAll,
	})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestStaticExtractor_ElementMatches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e := staticFromHTML(t, searchPageHTML)

	elements, err := e.ExtractMany(ctx, shop.Selector{Kind: shop.SelectorCSS, Value: "article.item"})
	require.NoError(t, err)
	require.Len(t, elements, 2)

	soldOut := shop.Selector{
		Kind:      shop.SelectorJSONAttr,
		Value:     "article.item",
		Attribute: "data-state",
		Path:      "stock.status",
		Expected:  "SOLD_OUT",
	}

	got, err := elements[0].Matches(ctx, soldOut)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = elements[1].Matches(ctx, soldOut)
	require.NoError(t, err)
	assert.False(t, got)

	// css 셀렉터는 요소 자신에 대해 판정한다.
	got, err = elements[0].Matches(ctx, shop.Selector{Kind: shop.SelectorCSS, Value: "article.item"})
	require.NoError(t, err)
	assert.True(t, got)
}

// TestStaticExtractor_BeforeGoto Goto 전의 추출 호출은 ErrNoPage를 반환합니다.
func TestStaticExtractor_BeforeGoto(t *testing.T) {
	t.Parallel()

	f, err := fetcher.NewHTTPFetcher()
	require.NoError(t, err)

	e := NewStatic(f)
	defer e.Close(context.Background())

	_, _, err = e.ExtractOne(context.Background(), shop.Selector{Kind: shop.SelectorCSS, Value: "p"})
	assert.ErrorIs(t, err, ErrNoPage)
}

func TestStaticExtractor_Goto(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/product/42", http.StatusFound)
	})
	mux.HandleFunc("/product/42", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1 class="name">Surging Sparks</h1></body></html>`))
	})

	f, err := fetcher.NewHTTPFetcher()
	require.NoError(t, err)

	e := NewStatic(f)
	defer e.Close(context.Background())

	require.NoError(t, e.Goto(context.Background(), server.URL+"/search"))
	assert.Equal(t, server.URL+"/product/42", e.CurrentURL())

	value, found, err := e.ExtractOne(context.Background(),
		shop.Selector{Kind: shop.SelectorCSS, Value: "h1.name"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Surging Sparks", value)
}

// TestStaticExtractor_InvalidXPath 잘못된 XPath는 에러를 반환합니다.
func TestStaticExtractor_InvalidXPath(t *testing.T) {
	t.Parallel()

	e := staticFromHTML(t, searchPageHTML)

	_, _, err := e.ExtractOne(context.Background(),
		shop.Selector{Kind: shop.SelectorXPath, Value: "///["})
	require.Error(t, err)
}
