package fetcher

import (
	"net/http"
)

// StatusCheckFetcher 2xx가 아닌 응답을 에러로 변환하는 미들웨어입니다.
//
// RetryFetcher보다 안쪽에 배치해야 429/5xx 같은 응답이 에러로 승격되어 재시도
// 대상이 됩니다. 에러로 변환할 때는 커넥션 누수를 막기 위해 응답 본문을 비우고
// 닫은 뒤 nil Response를 반환합니다.
type StatusCheckFetcher struct {
	delegate Fetcher
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*StatusCheckFetcher)(nil)

// NewStatusCheckFetcher 새로운 StatusCheckFetcher 인스턴스를 생성합니다.
func NewStatusCheckFetcher(delegate Fetcher) *StatusCheckFetcher {
	return &StatusCheckFetcher{delegate: delegate}
}

// Do HTTP 요청을 수행하고 응답 상태 코드를 검사합니다.
func (f *StatusCheckFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		return resp, err
	}

	if statusErr := CheckResponseStatus(resp); statusErr != nil {
		return nil, statusErr
	}

	return resp, nil
}

func (f *StatusCheckFetcher) Close() error {
	return f.delegate.Close()
}
