package fetcher

import (
	"math/rand/v2"
	"net/http"
)

// defaultUserAgents 웹 스크래핑 시 차단을 회피하기 위해 사용되는 일반적인 User-Agent 목록입니다.
var defaultUserAgents = []string{
	// Chrome 120 - Windows 10/11 (64비트)
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Chrome 120 - macOS Catalina (10.15.7)
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Chrome 120 - Linux (64비트)
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Firefox 121 - Windows 10/11 (64비트)
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	// Firefox 121 - macOS Catalina (10.15)
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
	// Safari 17.2 - macOS Catalina (10.15.7)
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
}

// standardHeaders 실제 브라우저 요청과 유사하게 보이도록 추가하는 기본 헤더입니다.
var standardHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Accept-Encoding": "gzip, deflate, br",
}

// UserAgentFetcher HTTP 요청에 User-Agent와 표준 브라우저 헤더를 주입하는 미들웨어입니다.
//
// 요청에 User-Agent가 없을 경우에만 목록에서 랜덤으로 선택하여 주입하며,
// 이미 설정된 요청은 수정하지 않고 그대로 전달합니다.
type UserAgentFetcher struct {
	delegate Fetcher

	// userAgents 랜덤으로 선택할 User-Agent 문자열 목록 (비어있으면 기본 목록 사용)
	userAgents []string
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*UserAgentFetcher)(nil)

// NewUserAgentFetcher 새로운 UserAgentFetcher 인스턴스를 생성합니다.
func NewUserAgentFetcher(delegate Fetcher, userAgents []string) *UserAgentFetcher {
	return &UserAgentFetcher{
		delegate:   delegate,
		userAgents: userAgents,
	}
}

// Do HTTP 요청을 수행하며, 필요한 경우 User-Agent와 표준 헤더를 주입합니다.
//
// 원본 요청 객체를 보호하기 위해 req.Clone()으로 복제본을 만들어 수정합니다.
// 재시도 시에도 동일한 User-Agent를 유지하려면 이 미들웨어를 RetryFetcher보다
// 안쪽에 배치하면 안 되고, 반대로 매 시도마다 다른 User-Agent를 쓰려면 안쪽에
// 배치해야 합니다. 기본 체인은 안쪽 배치(시도마다 랜덤)를 사용합니다.
func (f *UserAgentFetcher) Do(req *http.Request) (*http.Response, error) {
	clonedReq := req.Clone(req.Context())

	if clonedReq.Header.Get("User-Agent") == "" {
		uas := f.userAgents
		if len(uas) == 0 {
			uas = defaultUserAgents
		}
		clonedReq.Header.Set("User-Agent", uas[rand.IntN(len(uas))])
	}

	for key, value := range standardHeaders {
		if clonedReq.Header.Get(key) == "" {
			clonedReq.Header.Set(key, value)
		}
	}

	return f.delegate.Do(clonedReq)
}

func (f *UserAgentFetcher) Close() error {
	return f.delegate.Close()
}
