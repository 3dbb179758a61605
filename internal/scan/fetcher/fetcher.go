// Package fetcher 쇼핑몰 페이지 요청에 사용하는 HTTP 클라이언트 미들웨어 체인을 제공합니다.
//
// Fetcher 인터페이스를 중심으로 User-Agent 주입, 요청 간격 제어(페이싱),
// 재시도와 같은 횡단 관심사를 데코레이터로 쌓아 올립니다. 일반적인 체인 구성은
// 다음과 같습니다. (바깥쪽이 먼저 실행됨)
//
//	PacedFetcher -> RetryFetcher -> UserAgentFetcher -> HTTPFetcher
//
// 페이싱이 재시도 바깥에 있으므로 재시도 요청도 쇼핑몰별 요청 간격을 준수합니다.
package fetcher

import (
	"context"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	"golang.org/x/net/html/charset"
)

// Fetcher HTTP 요청을 수행하는 인터페이스
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)

	// Close 유휴 커넥션 등 Fetcher가 보유한 자원을 해제합니다.
	Close() error
}

// Get 지정된 URL로 HTTP GET 요청을 전송합니다.
// Fetcher 인터페이스의 구현체가 공통으로 사용할 수 있는 헬퍼 함수입니다.
func Get(ctx context.Context, f Fetcher, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "HTTP 요청 생성에 실패했습니다: "+url)
	}
	return f.Do(req)
}

// FetchDocument 지정된 URL의 HTML 문서를 가져와 goquery.Document로 파싱합니다.
//
// 응답 헤더의 Content-Type을 분석하여 비 UTF-8 인코딩 페이지도 UTF-8로 변환하며,
// 리다이렉트를 따라간 뒤의 최종 URL을 함께 반환합니다. 검색이 상품 페이지로 바로
// 리다이렉트되는 쇼핑몰(direct hit)을 판별하려면 최종 URL이 필요합니다.
func FetchDocument(ctx context.Context, f Fetcher, url string) (*goquery.Document, string, error) {
	resp, err := Get(ctx, f, url)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.Unavailable, "HTML 페이지 요청 중 네트워크 또는 클라이언트 에러가 발생했습니다: "+url)
	}
	defer resp.Body.Close() // 응답을 받은 즉시 defer 설정하여 메모리 누수 방지

	if err := CheckResponseStatus(resp); err != nil {
		return nil, "", err
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	// Content-Type 헤더를 기반으로 인코딩을 UTF-8로 변환
	utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ExecutionFailed, "페이지의 인코딩 변환이 실패하였습니다: "+finalURL)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ParsingFailed, "불러온 페이지의 데이터 파싱이 실패하였습니다: "+finalURL)
	}

	return doc, finalURL, nil
}
