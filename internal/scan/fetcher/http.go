package fetcher

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
)

const (
	// defaultTimeout 정적 엔진의 페이지 요청 타임아웃 기본값입니다.
	defaultTimeout = 15 * time.Second

	// maxRedirects 허용하는 최대 리다이렉트 횟수입니다.
	maxRedirects = 5
)

// HTTPFetcher 체인의 맨 안쪽에서 실제 네트워크 요청을 수행하는 구현체입니다.
type HTTPFetcher struct {
	client *http.Client
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPOption HTTPFetcher 생성 시 적용하는 옵션 함수입니다.
type HTTPOption func(*httpOptions)

type httpOptions struct {
	timeout  time.Duration
	proxyURL string
}

// WithTimeout 요청 타임아웃을 변경합니다.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(o *httpOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithProxy 요청을 전달할 프록시 주소를 설정합니다. 빈 문자열이면 프록시를
// 사용하지 않습니다.
func WithProxy(proxyURL string) HTTPOption {
	return func(o *httpOptions) {
		o.proxyURL = proxyURL
	}
}

// NewHTTPFetcher 리다이렉트 상한과 타임아웃이 설정된 HTTPFetcher를 생성합니다.
func NewHTTPFetcher(opts ...HTTPOption) (*HTTPFetcher, error) {
	options := httpOptions{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if options.proxyURL != "" {
		proxy, err := url.Parse(options.proxyURL)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("프록시 주소가 올바르지 않습니다: '%s'", options.proxyURL))
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   options.timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("리다이렉트 횟수가 상한(%d)을 초과했습니다", maxRedirects)
				}
				return nil
			},
		},
	}, nil
}

// Do HTTP 요청을 실행합니다.
func (f *HTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	return f.client.Do(req)
}

// Close 유휴 커넥션을 정리합니다.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
