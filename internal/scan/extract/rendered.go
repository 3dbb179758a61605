package extract

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	"github.com/darkkaiser/price-scanner/internal/shop"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
	"github.com/darkkaiser/price-scanner/pkg/maputil"
	"github.com/darkkaiser/price-scanner/pkg/strutil"
	"github.com/tidwall/gjson"
)

const (
	// defaultNavTimeout 페이지 이동(네비게이션)의 기본 제한 시간
	defaultNavTimeout = 12 * time.Second

	// defaultActionTimeout 개별 DOM 조회/평가의 기본 제한 시간
	defaultActionTimeout = 800 * time.Millisecond

	// challengeWaitTimeout 자바스크립트 챌린지 페이지 해제를 기다리는 최대 시간
	challengeWaitTimeout = 15 * time.Second

	// networkIdleTimeout networkIdle 수명 주기 이벤트를 기다리는 최대 시간.
	// 롱폴링 등으로 네트워크가 조용해지지 않는 페이지는 이 시간이 지나면 그대로
	// 진행합니다.
	networkIdleTimeout = 3 * time.Second

	// settleMin/settleMax 네비게이션 직후 스크립트가 DOM을 채우도록 기다리는 시간 범위
	settleMin = 100 * time.Millisecond
	settleMax = 500 * time.Millisecond
)

// defaultChallengeTitles 안티봇 챌린지 페이지로 판정하는 문서 제목들입니다.
// 소문자로 비교합니다.
var defaultChallengeTitles = []string{
	"one moment, please",
	"just a moment...",
}

// defaultBlockedHosts 페이지 동작에 불필요한 트래커/채팅 위젯 호스트들입니다.
// 요청을 차단해 렌더링 시간을 줄입니다.
var defaultBlockedHosts = []string{
	"google-analytics.com",
	"googletagmanager.com",
	"doubleclick.net",
	"connect.facebook.net",
	"hotjar.com",
	"channel.io",
	"zdassets.com",
}

// blockedResourceTypes 항상 차단하는 리소스 종류입니다. 가격/재고 추출에는
// 이미지나 스타일이 필요하지 않습니다.
var blockedResourceTypes = map[network.ResourceType]bool{
	network.ResourceTypeImage:      true,
	network.ResourceTypeStylesheet: true,
	network.ResourceTypeFont:       true,
	network.ResourceTypeMedia:      true,
}

// RenderedOptions rendered 엔진 쇼핑몰의 engine.options 스키마입니다.
type RenderedOptions struct {
	// NavTimeout 페이지 이동 제한 시간
	NavTimeout time.Duration `json:"nav_timeout"`

	// ActionTimeout 개별 DOM 조회 제한 시간
	ActionTimeout time.Duration `json:"action_timeout"`

	// BlockedHosts 기본 차단 목록에 더해 차단할 호스트들
	BlockedHosts []string `json:"blocked_hosts"`

	// ChallengeTitles 기본 목록에 더해 챌린지 페이지로 판정할 문서 제목들
	ChallengeTitles []string `json:"challenge_titles"`
}

// DecodeRenderedOptions 쇼핑몰 설정의 엔진 옵션 맵을 RenderedOptions로 디코딩합니다.
// 정의되지 않은 키는 오타로 간주하여 에러를 반환합니다.
func DecodeRenderedOptions(engine shop.Engine) (*RenderedOptions, error) {
	opts := &RenderedOptions{
		NavTimeout:    defaultNavTimeout,
		ActionTimeout: defaultActionTimeout,
	}

	if engine.Options != nil {
		if err := maputil.DecodeTo(engine.Options, opts, maputil.WithErrorUnused(true)); err != nil {
			return nil, apperrors.Wrap(err, apperrors.InvalidInput, "rendered 엔진 옵션이 올바르지 않습니다")
		}
	}

	if opts.NavTimeout <= 0 {
		opts.NavTimeout = defaultNavTimeout
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = defaultActionTimeout
	}
	return opts, nil
}

// ------------------------------------------------------------------------------------------------
// Browser
// ------------------------------------------------------------------------------------------------

// BrowserConfig 헤드리스 브라우저 실행 설정입니다.
type BrowserConfig struct {
	// ProxyURL 브라우저 트래픽을 전달할 프록시 주소 (빈 문자열이면 직접 연결)
	ProxyURL string

	// UserAgent 브라우저 User-Agent (빈 문자열이면 크롬 기본값)
	UserAgent string
}

// Browser 사이클 동안 공유되는 헤드리스 브라우저 인스턴스입니다.
//
// 브라우저 프로세스 기동 비용이 크므로 rendered 사이클마다 하나만 띄우고,
// 스크래퍼는 탭(RenderedExtractor)을 하나씩 받아 사용합니다.
type Browser struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// NewBrowser 헤드리스 브라우저를 기동합니다. ctx가 취소되면 브라우저와 모든 탭이
// 함께 종료됩니다.
func NewBrowser(ctx context.Context, cfg BrowserConfig) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-zygote", true),
	)
	if cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// 첫 Run이 브라우저 프로세스를 실제로 기동한다.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, apperrors.Wrap(err, apperrors.ExecutionFailed, "헤드리스 브라우저를 시작하지 못했습니다")
	}

	applog.WithComponent("scan.extract").Debug("헤드리스 브라우저가 시작되었습니다.")

	return &Browser{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

// Close 브라우저 프로세스를 종료합니다. 모든 탭이 함께 닫힙니다.
func (b *Browser) Close() {
	b.browserCancel()
	b.allocCancel()
}

// ------------------------------------------------------------------------------------------------
// RenderedExtractor
// ------------------------------------------------------------------------------------------------

// RenderedExtractor 공유 브라우저의 탭 하나로 동작하는 Extractor 구현입니다.
//
// 셀렉터 실행은 탭 안에서 자바스크립트로 수행합니다. ExtractMany는 매칭된
// 요소들에 호출마다 고유한 데이터 속성을 querySelectorAll 순서로 부여하여
// 문서 순서를 보장하고, 이후의 요소 접근은 그 속성으로 다시 바인딩합니다.
type RenderedExtractor struct {
	tabCtx    context.Context
	tabCancel context.CancelFunc

	opts            RenderedOptions
	blockedHosts    []string
	challengeTitles []string

	// networkIdleC networkIdle 수명 주기 이벤트의 수신 신호. 버퍼 1로 가장 최근
	// 신호 하나만 유지합니다.
	networkIdleC chan struct{}

	currentURL string
	tagSeq     int
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Extractor = (*RenderedExtractor)(nil)

// NewRendered 공유 브라우저에 탭을 하나 열어 RenderedExtractor를 생성합니다.
func NewRendered(b *Browser, opts *RenderedOptions) (*RenderedExtractor, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)

	r := &RenderedExtractor{
		tabCtx:          tabCtx,
		tabCancel:       tabCancel,
		opts:            *opts,
		blockedHosts:    append(append([]string{}, defaultBlockedHosts...), opts.BlockedHosts...),
		challengeTitles: append(append([]string{}, defaultChallengeTitles...), opts.ChallengeTitles...),
		networkIdleC:    make(chan struct{}, 1),
	}

	r.installRequestBlocking()
	r.installNetworkIdleSignal()

	// fetch 도메인 활성화가 탭을 실제로 연다.
	if err := chromedp.Run(tabCtx,
		fetch.Enable(),
		page.Enable(),
		page.SetLifecycleEventsEnabled(true),
	); err != nil {
		tabCancel()
		return nil, apperrors.Wrap(err, apperrors.ExecutionFailed, "브라우저 탭을 열지 못했습니다")
	}

	return r, nil
}

// installRequestBlocking fetch 도메인 인터셉션으로 불필요한 리소스 요청을 차단합니다.
func (r *RenderedExtractor) installRequestBlocking() {
	chromedp.ListenTarget(r.tabCtx, func(ev any) {
		e, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}

		// 이벤트 핸들러 안에서 CDP 명령을 실행하면 교착되므로 고루틴에서 처리한다.
		go func() {
			c := chromedp.FromContext(r.tabCtx)
			execCtx := cdp.WithExecutor(r.tabCtx, c.Target)

			if r.shouldBlock(e) {
				_ = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
				return
			}
			_ = fetch.ContinueRequest(e.RequestID).Do(execCtx)
		}()
	})
}

// installNetworkIdleSignal networkIdle 수명 주기 이벤트를 신호 채널로 전달합니다.
func (r *RenderedExtractor) installNetworkIdleSignal() {
	chromedp.ListenTarget(r.tabCtx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || e.Name != "networkIdle" {
			return
		}
		select {
		case r.networkIdleC <- struct{}{}:
		default:
		}
	})
}

// drainNetworkIdleSignal 이전 페이지가 남긴 networkIdle 신호를 비웁니다.
func (r *RenderedExtractor) drainNetworkIdleSignal() {
	select {
	case <-r.networkIdleC:
	default:
	}
}

// awaitNetworkIdle idleC로 networkIdle 신호가 올 때까지 기다립니다.
// 제한 시간까지 신호가 없으면 네트워크가 조용해지지 않는 페이지로 보고 그대로
// 진행합니다. 컨텍스트 취소만 에러입니다.
func awaitNetworkIdle(ctx context.Context, idleC <-chan struct{}, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-idleC:
		return nil
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shouldBlock 요청을 차단할지 판정합니다.
func (r *RenderedExtractor) shouldBlock(e *fetch.EventRequestPaused) bool {
	if blockedResourceTypes[e.ResourceType] {
		return true
	}

	parsed, err := url.Parse(e.Request.URL)
	if err != nil {
		return false
	}
	host := parsed.Hostname()

	for _, blocked := range r.blockedHosts {
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}

// Goto 페이지로 이동하고 스크립트 실행이 안정될 때까지 기다립니다.
func (r *RenderedExtractor) Goto(ctx context.Context, pageURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.drainNetworkIdleSignal()

	navCtx, cancel := context.WithTimeout(r.tabCtx, r.opts.NavTimeout)
	defer cancel()

	if err := chromedp.Run(navCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return apperrors.Wrap(err, apperrors.ExecutionFailed, "페이지 이동에 실패했습니다: "+pageURL)
	}

	// 로드 이벤트 이후에 이어지는 XHR까지 끝나야 가격/재고 영역이 채워진다.
	if err := awaitNetworkIdle(ctx, r.networkIdleC, networkIdleTimeout); err != nil {
		return err
	}

	// 스크립트가 가격/재고 영역을 그릴 시간을 준다.
	settle(ctx)

	if err := r.waitChallengeCleared(ctx); err != nil {
		return err
	}

	var loc string
	if err := r.runAction(chromedp.Location(&loc)); err != nil {
		return apperrors.Wrap(err, apperrors.ExecutionFailed, "현재 페이지 URL을 확인하지 못했습니다")
	}
	r.currentURL = loc

	return nil
}

// waitChallengeCleared 문서 제목이 안티봇 챌린지이면 해제(재로드)될 때까지 기다립니다.
func (r *RenderedExtractor) waitChallengeCleared(ctx context.Context) error {
	title, err := r.documentTitle()
	if err != nil || !r.isChallengeTitle(title) {
		return nil
	}

	applog.WithComponent("scan.extract").Debugf("안티봇 챌린지 페이지가 감지되었습니다. 해제를 기다립니다. (title:%s)", title)

	r.drainNetworkIdleSignal()

	deadline := time.Now().Add(challengeWaitTimeout)
	for time.Now().Before(deadline) {
		if err := sleepCtx(ctx, 500*time.Millisecond); err != nil {
			return err
		}

		title, err = r.documentTitle()
		if err != nil {
			continue
		}
		if !r.isChallengeTitle(title) {
			// 해제 직후의 재로드가 끝날 때까지 남은 예산 안에서 기다린다.
			if err := awaitNetworkIdle(ctx, r.networkIdleC, time.Until(deadline)); err != nil {
				return err
			}
			settle(ctx)
			return nil
		}
	}

	return apperrors.New(apperrors.ExecutionFailed, "안티봇 챌린지 페이지가 해제되지 않았습니다")
}

func (r *RenderedExtractor) documentTitle() (string, error) {
	var title string
	if err := r.runAction(chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

func (r *RenderedExtractor) isChallengeTitle(title string) bool {
	normalized := strings.ToLower(strings.TrimSpace(title))
	for _, challenge := range r.challengeTitles {
		if normalized == strings.ToLower(challenge) {
			return true
		}
	}
	return false
}

// CurrentURL 마지막 Goto가 끝난 시점의 페이지 URL을 반환합니다.
func (r *RenderedExtractor) CurrentURL() string {
	return r.currentURL
}

// ExtractOne 셀렉터와 일치하는 첫 번째 값을 추출합니다.
func (r *RenderedExtractor) ExtractOne(ctx context.Context, sel shop.Selector) (string, bool, error) {
	if r.currentURL == "" {
		return "", false, ErrNoPage
	}

	for _, value := range sel.Values() {
		attr := r.nextTagAttr()

		count, err := r.tagMatches(rootDocument, sel.Kind, value, attr)
		if err != nil {
			return "", false, err
		}

		for i := 0; i < count; i++ {
			el := &renderedElement{ex: r, bindSel: bindSelector(attr, i)}

			extracted, ok, err := r.extractElementValue(ctx, el, sel)
			if err != nil {
				r.removeTag(attr)
				return "", false, err
			}
			if ok && extracted != "" {
				r.removeTag(attr)
				return extracted, true, nil
			}
		}
		r.removeTag(attr)
	}
	return "", false, nil
}

// extractElementValue 바인딩된 요소에서 셀렉터의 추출 모드에 맞는 값을 꺼냅니다.
func (r *RenderedExtractor) extractElementValue(ctx context.Context, el *renderedElement, sel shop.Selector) (string, bool, error) {
	if sel.Kind == shop.SelectorJSONAttr {
		attrVal, found, err := el.Attr(ctx, sel.Attribute)
		if err != nil || !found {
			return "", false, err
		}
		if !jsonPathMatches(attrVal, sel) {
			return "", false, nil
		}
		return gjson.Get(attrVal, sel.Path).String(), true, nil
	}

	if sel.Attribute != "" {
		return el.Attr(ctx, sel.Attribute)
	}

	switch sel.Mode() {
	case shop.ExtractHref:
		return el.Attr(ctx, "href")
	case shop.ExtractInnerHTML:
		var inner string
		err := r.evalOnElement(el.bindSel, "el.innerHTML", &inner)
		return inner, err == nil, err
	case shop.ExtractOwnText:
		var own string
		err := r.evalOnElement(el.bindSel,
			`Array.from(el.childNodes).filter(n => n.nodeType === 3).map(n => n.textContent).join('')`, &own)
		return strutil.NormalizeSpaces(own), err == nil, err
	default:
		text, err := el.Text(ctx)
		if err != nil {
			return "", false, err
		}
		return text, text != "", nil
	}
}

// ExtractMany 셀렉터와 일치하는 모든 요소를 문서 순서대로 반환합니다.
func (r *RenderedExtractor) ExtractMany(_ context.Context, sel shop.Selector) ([]Element, error) {
	if r.currentURL == "" {
		return nil, ErrNoPage
	}
	return r.extractManyFrom(rootDocument, sel)
}

// extractManyFrom 루트(문서 또는 바인딩된 요소) 아래에서 셀렉터를 실행합니다.
func (r *RenderedExtractor) extractManyFrom(rootExpr string, sel shop.Selector) ([]Element, error) {
	for _, value := range sel.Values() {
		attr := r.nextTagAttr()

		count, err := r.tagMatches(rootExpr, sel.Kind, value, attr)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}

		elements := make([]Element, 0, count)
		for i := 0; i < count; i++ {
			elements = append(elements, &renderedElement{ex: r, bindSel: bindSelector(attr, i)})
		}
		return elements, nil
	}
	return nil, nil
}

// Exists 셀렉터와 일치하는 노드가 존재하는지 확인합니다.
func (r *RenderedExtractor) Exists(ctx context.Context, sel shop.Selector) (bool, error) {
	if r.currentURL == "" {
		return false, ErrNoPage
	}

	elements, err := r.extractManyFrom(rootDocument, sel)
	if err != nil {
		return false, err
	}

	if sel.Kind != shop.SelectorJSONAttr {
		return len(elements) > 0, nil
	}

	satisfied := 0
	for _, el := range elements {
		attrVal, found, err := el.Attr(ctx, sel.Attribute)
		if err != nil {
			return false, err
		}
		if found && jsonPathMatches(attrVal, sel) {
			satisfied++
		}
	}
	return aggregateSatisfied(sel.Aggregation(), len(elements), satisfied), nil
}

// Close 탭을 닫습니다. 공유 브라우저는 닫지 않습니다.
func (r *RenderedExtractor) Close(_ context.Context) error {
	r.tabCancel()
	return nil
}

// ------------------------------------------------------------------------------------------------
// 탭 안의 셀렉터 실행
// ------------------------------------------------------------------------------------------------

// rootDocument 문서 전체를 루트로 하는 자바스크립트 표현식입니다.
const rootDocument = "document"

// tagMatchesJS 루트 아래에서 셀렉터와 일치하는 요소들을 찾아 데이터 속성으로
// 순번을 붙이는 스크립트입니다. 매칭 개수를 반환하며, 셀렉터 문법 오류는 -1입니다.
//
// 순번은 css는 querySelectorAll 순서, xpath는 ORDERED_NODE_SNAPSHOT 순서,
// text는 트리 순회 순서로 부여되므로 문서 순서가 보장됩니다.
const tagMatchesJS = `(() => {
	const root = %s;
	if (!root) return -2;
	const kind = %s, value = %s, attr = %s;
	const scope = root === document ? document : root;
	let els = [];
	try {
		if (kind === 'css' || kind === 'json-attr') {
			els = Array.from(scope.querySelectorAll(value));
		} else if (kind === 'xpath') {
			const res = document.evaluate(value, scope, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
			for (let i = 0; i < res.snapshotLength; i++) {
				const n = res.snapshotItem(i);
				if (n.nodeType === 1) els.push(n);
			}
		} else {
			const needle = value.toLowerCase();
			const walk = (n) => {
				let childMatched = false;
				for (const c of n.children) {
					if (walk(c)) childMatched = true;
				}
				if (childMatched) return true;
				if ((n.textContent || '').toLowerCase().includes(needle)) {
					els.push(n);
					return true;
				}
				return false;
			};
			walk(root === document ? document.documentElement : root);
		}
	} catch (e) {
		return -1;
	}
	els.forEach((el, i) => el.setAttribute(attr, String(i)));
	return els.length;
})()`

// tagMatches 셀렉터 값 하나를 실행하여 매칭 요소들에 순번 속성을 붙입니다.
func (r *RenderedExtractor) tagMatches(rootExpr string, kind shop.SelectorKind, value, attr string) (int, error) {
	script := fmt.Sprintf(tagMatchesJS,
		rootExpr, strconv.Quote(string(kind)), strconv.Quote(value), strconv.Quote(attr))

	var count int
	if err := r.runAction(chromedp.Evaluate(script, &count)); err != nil {
		return 0, apperrors.Wrap(err, apperrors.ExecutionFailed, "셀렉터 실행에 실패했습니다")
	}

	switch count {
	case -1:
		return 0, apperrors.New(apperrors.InvalidInput, "셀렉터가 올바르지 않습니다: "+value)
	case -2:
		return 0, apperrors.New(apperrors.ExecutionFailed, "요소 바인딩이 더 이상 유효하지 않습니다")
	}
	return count, nil
}

// removeTag 순번 속성을 문서에서 제거합니다.
func (r *RenderedExtractor) removeTag(attr string) {
	script := fmt.Sprintf(
		`document.querySelectorAll('[%s]').forEach(el => el.removeAttribute(%s)); true`,
		attr, strconv.Quote(attr))

	var done bool
	_ = r.runAction(chromedp.Evaluate(script, &done))
}

// nextTagAttr 호출마다 고유한 순번 속성 이름을 만듭니다.
func (r *RenderedExtractor) nextTagAttr() string {
	r.tagSeq++
	return fmt.Sprintf("data-pscan-%d", r.tagSeq)
}

// bindSelector 순번 속성으로 요소를 다시 찾는 CSS 셀렉터를 만듭니다.
func bindSelector(attr string, index int) string {
	return fmt.Sprintf(`[%s="%d"]`, attr, index)
}

// runAction 개별 액션 제한 시간을 적용하여 탭에서 액션을 실행합니다.
func (r *RenderedExtractor) runAction(actions ...chromedp.Action) error {
	actionCtx, cancel := context.WithTimeout(r.tabCtx, r.opts.ActionTimeout)
	defer cancel()
	return chromedp.Run(actionCtx, actions...)
}

// evalOnElement 바인딩된 요소를 el로 받는 표현식을 평가합니다.
func (r *RenderedExtractor) evalOnElement(bindSel, expr string, out any) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return null;
		return %s;
	})()`, strconv.Quote(bindSel), expr)

	if err := r.runAction(chromedp.Evaluate(script, out)); err != nil {
		return apperrors.Wrap(err, apperrors.ExecutionFailed, "요소 값을 읽지 못했습니다")
	}
	return nil
}

// settle 스크립트가 DOM을 채우도록 잠시 기다립니다.
func settle(ctx context.Context) {
	d := settleMin + time.Duration(rand.Int64N(int64(settleMax-settleMin)))
	_ = sleepCtx(ctx, d)
}

// sleepCtx 컨텍스트 취소에 반응하는 sleep입니다.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ------------------------------------------------------------------------------------------------
// 렌더링된 Element
// ------------------------------------------------------------------------------------------------

// renderedElement 순번 속성으로 바인딩된 탭 안의 요소입니다.
// 바인딩은 페이지를 벗어나면(다음 Goto) 무효가 됩니다.
type renderedElement struct {
	ex      *RenderedExtractor
	bindSel string
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Element = (*renderedElement)(nil)

func (e *renderedElement) Text(_ context.Context) (string, error) {
	var text string
	if err := e.ex.evalOnElement(e.bindSel, "el.textContent || ''", &text); err != nil {
		return "", err
	}
	return strutil.NormalizeSpaces(text), nil
}

func (e *renderedElement) Attr(_ context.Context, name string) (string, bool, error) {
	// 속성이 없는 경우와 빈 값을 구분하기 위해 null을 포인터로 받는다.
	var value *string
	expr := fmt.Sprintf("el.hasAttribute(%s) ? el.getAttribute(%s) : null",
		strconv.Quote(name), strconv.Quote(name))

	if err := e.ex.evalOnElement(e.bindSel, expr, &value); err != nil {
		return "", false, err
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (e *renderedElement) Find(ctx context.Context, sel shop.Selector) (Element, error) {
	elements, err := e.FindAll(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}
	return elements[0], nil
}

func (e *renderedElement) FindAll(_ context.Context, sel shop.Selector) ([]Element, error) {
	rootExpr := fmt.Sprintf("document.querySelector(%s)", strconv.Quote(e.bindSel))
	return e.ex.extractManyFrom(rootExpr, sel)
}

func (e *renderedElement) Matches(ctx context.Context, sel shop.Selector) (bool, error) {
	switch sel.Kind {
	case shop.SelectorText:
		text, err := e.Text(ctx)
		if err != nil {
			return false, err
		}
		for _, value := range sel.Values() {
			if strutil.ContainsFold(text, value) {
				return true, nil
			}
		}
		return false, nil

	case shop.SelectorJSONAttr:
		attrVal, found, err := e.Attr(ctx, sel.Attribute)
		if err != nil || !found {
			return false, err
		}
		return jsonPathMatches(attrVal, sel), nil

	case shop.SelectorXPath:
		// 문서 기준 xpath 결과에 요소 자신이 포함되는지로 판정한다.
		for _, value := range sel.Values() {
			expr := fmt.Sprintf(`(() => {
				const res = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
				for (let i = 0; i < res.snapshotLength; i++) {
					if (res.snapshotItem(i) === el) return true;
				}
				return false;
			})()`, strconv.Quote(value))

			var matched bool
			if err := e.ex.evalOnElement(e.bindSel, expr, &matched); err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil

	default:
		for _, value := range sel.Values() {
			expr := fmt.Sprintf("el.matches(%s)", strconv.Quote(value))

			var matched bool
			if err := e.ex.evalOnElement(e.bindSel, expr, &matched); err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil
	}
}
