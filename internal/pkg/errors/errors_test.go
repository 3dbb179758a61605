package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStd = errors.New("standard error")

func TestNew(t *testing.T) {
	t.Parallel()

	err := New(NotFound, "상품을 찾을 수 없습니다")
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, NotFound, appErr.Type())
	assert.Equal(t, "상품을 찾을 수 없습니다", appErr.Message())
	assert.NotEmpty(t, appErr.Stack(), "New는 스택 정보를 수집해야 한다")
	assert.Equal(t, "[NotFound] 상품을 찾을 수 없습니다", err.Error())
}

func TestNewf(t *testing.T) {
	t.Parallel()

	err := Newf(InvalidInput, "잘못된 값: %d", 42)
	assert.Equal(t, "[InvalidInput] 잘못된 값: 42", err.Error())
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("표준 에러 래핑", func(t *testing.T) {
		t.Parallel()

		err := Wrap(errStd, System, "저장소 접근 실패")
		require.Error(t, err)
		assert.Equal(t, "[System] 저장소 접근 실패: standard error", err.Error())
		assert.ErrorIs(t, err, errStd)
	})

	t.Run("nil 에러 래핑은 nil 반환", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, Wrap(nil, System, "무시됨"))
		assert.NoError(t, Wrapf(nil, System, "무시됨 %d", 1))
	})

	t.Run("중첩 래핑 시 메시지 체인 유지", func(t *testing.T) {
		t.Parallel()

		inner := New(Timeout, "요청 시간 초과")
		outer := Wrap(inner, ExecutionFailed, "검색 실패")
		assert.Equal(t, "[ExecutionFailed] 검색 실패: [Timeout] 요청 시간 초과", outer.Error())
	})
}

func TestIs(t *testing.T) {
	t.Parallel()

	inner := New(Timeout, "요청 시간 초과")
	outer := Wrap(inner, ExecutionFailed, "검색 실패")

	assert.True(t, Is(outer, Timeout), "체인 안쪽 타입을 찾아야 한다")
	assert.True(t, Is(outer, ExecutionFailed))
	assert.False(t, Is(outer, NotFound))
	assert.False(t, Is(nil, Timeout))

	// AppError가 아닌 표준 에러 체인
	assert.False(t, Is(errStd, Timeout))
}

func TestAs(t *testing.T) {
	t.Parallel()

	err := Wrap(errStd, System, "래핑")

	var appErr *AppError
	require.True(t, As(err, &appErr))
	assert.Equal(t, System, appErr.Type())
}

func TestRootCause(t *testing.T) {
	t.Parallel()

	t.Run("깊은 체인의 최하단 원인 반환", func(t *testing.T) {
		t.Parallel()

		err := error(errStd)
		for i := 0; i < 5; i++ {
			err = Wrap(err, Internal, "wrap")
		}
		assert.Equal(t, errStd, RootCause(err))
	})

	t.Run("nil은 nil 반환", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, RootCause(nil))
	})

	t.Run("래핑되지 않은 에러는 자기 자신 반환", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, errStd, RootCause(errStd))
	})
}

func TestUnderlyingType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"AppError 체인은 가장 안쪽 타입", Wrap(New(NotFound, "없음"), Internal, "조회 실패"), NotFound},
		{"외부 에러를 감싼 경우 래핑 타입", Wrap(errStd, Timeout, "시간 초과"), Timeout},
		{"AppError가 없으면 Unknown", errStd, Unknown},
		{"nil은 Unknown", nil, Unknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, UnderlyingType(tc.err))
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	t.Run("%+v는 스택과 원인을 출력", func(t *testing.T) {
		t.Parallel()

		err := Wrap(errStd, System, "저장소 접근 실패")
		formatted := fmt.Sprintf("%+v", err)

		assert.Contains(t, formatted, "[System] 저장소 접근 실패")
		assert.Contains(t, formatted, "Stack trace:")
		assert.Contains(t, formatted, "Caused by:")
		assert.Contains(t, formatted, "standard error")
	})

	t.Run("AppError 체인 중간 단계는 스택 생략", func(t *testing.T) {
		t.Parallel()

		inner := New(NotFound, "없음")
		outer := Wrap(inner, Internal, "조회 실패")
		formatted := fmt.Sprintf("%+v", outer)

		// 스택은 Root(inner)에서 한 번만 출력되어야 한다.
		assert.Equal(t, 1, strings.Count(formatted, "Stack trace:"))
	})

	t.Run("%s와 %q", func(t *testing.T) {
		t.Parallel()

		err := New(Timeout, "시간 초과")
		assert.Equal(t, "[Timeout] 시간 초과", fmt.Sprintf("%s", err))
		assert.Equal(t, `"[Timeout] 시간 초과"`, fmt.Sprintf("%q", err))
	})
}

func TestErrorTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Unknown", Unknown.String())
	assert.Equal(t, "ParsingFailed", ParsingFailed.String())
	assert.Equal(t, "Unavailable", Unavailable.String())
	assert.Equal(t, "Unknown", ErrorType(999).String())
}

func BenchmarkNew(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = New(Internal, "error message")
	}
}

func BenchmarkIs(b *testing.B) {
	err := New(NotFound, "not found")
	for i := 0; i < 10; i++ {
		err = Wrap(err, Internal, "wrap")
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Is(err, NotFound)
	}
}
