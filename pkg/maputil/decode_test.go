package maputil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type renderedOptions struct {
	NavigationTimeout time.Duration `json:"navigation_timeout"`
	SettleDelay       time.Duration `json:"settle_delay"`
	BlockedResources  []string      `json:"blocked_resources"`
	WaitForChallenge  bool          `json:"wait_for_challenge"`
	MaxArticles       int           `json:"max_articles"`
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("엔진 옵션 맵 디코딩", func(t *testing.T) {
		t.Parallel()

		input := map[string]any{
			"navigation_timeout": "12s",
			"settle_delay":       "300ms",
			"blocked_resources":  "image, font, media",
			"wait_for_challenge": true,
			"max_articles":       "5",
		}

		opts, err := Decode[renderedOptions](input)
		require.NoError(t, err)

		assert.Equal(t, 12*time.Second, opts.NavigationTimeout)
		assert.Equal(t, 300*time.Millisecond, opts.SettleDelay)
		assert.Equal(t, []string{"image", "font", "media"}, opts.BlockedResources)
		assert.True(t, opts.WaitForChallenge)
		assert.Equal(t, 5, opts.MaxArticles)
	})

	t.Run("슬라이스 입력 그대로 유지", func(t *testing.T) {
		t.Parallel()

		input := map[string]any{
			"blocked_resources": []string{"image", "stylesheet"},
		}

		opts, err := Decode[renderedOptions](input)
		require.NoError(t, err)

		assert.Equal(t, []string{"image", "stylesheet"}, opts.BlockedResources)
	})

	t.Run("정의되지 않은 필드는 기본적으로 무시", func(t *testing.T) {
		t.Parallel()

		input := map[string]any{
			"settle_delay": "100ms",
			"unknown_key":  "value",
		}

		opts, err := Decode[renderedOptions](input)
		require.NoError(t, err)
		assert.Equal(t, 100*time.Millisecond, opts.SettleDelay)
	})

	t.Run("WithErrorUnused 옵션으로 오타 검출", func(t *testing.T) {
		t.Parallel()

		input := map[string]any{
			"settle_dellay": "100ms",
		}

		_, err := Decode[renderedOptions](input, WithErrorUnused(true))
		assert.Error(t, err)
	})

	t.Run("nil 입력", func(t *testing.T) {
		t.Parallel()

		opts, err := Decode[renderedOptions](nil)
		require.NoError(t, err)
		assert.Zero(t, opts.NavigationTimeout)
	})
}

func TestDecodeTo(t *testing.T) {
	t.Parallel()

	t.Run("기본값 병합", func(t *testing.T) {
		t.Parallel()

		output := renderedOptions{
			NavigationTimeout: 12 * time.Second,
			SettleDelay:       100 * time.Millisecond,
		}

		err := DecodeTo(map[string]any{"settle_delay": "500ms"}, &output)
		require.NoError(t, err)

		// 입력에 없는 필드는 기존 값 유지
		assert.Equal(t, 12*time.Second, output.NavigationTimeout)
		assert.Equal(t, 500*time.Millisecond, output.SettleDelay)
	})

	t.Run("WithZeroFields 옵션으로 교체", func(t *testing.T) {
		t.Parallel()

		output := renderedOptions{
			NavigationTimeout: 12 * time.Second,
		}

		err := DecodeTo(map[string]any{"settle_delay": "500ms"}, &output, WithZeroFields(true))
		require.NoError(t, err)

		assert.Zero(t, output.NavigationTimeout)
		assert.Equal(t, 500*time.Millisecond, output.SettleDelay)
	})

	t.Run("nil output 포인터", func(t *testing.T) {
		t.Parallel()

		err := DecodeTo[renderedOptions](map[string]any{}, nil)
		assert.Error(t, err)
	})
}

func TestDecodeWithTagName(t *testing.T) {
	t.Parallel()

	type target struct {
		Value string `custom:"my_value"`
	}

	out, err := Decode[target](map[string]any{"my_value": "abc"}, WithTagName("custom"))
	require.NoError(t, err)
	assert.Equal(t, "abc", out.Value)
}

func TestDecodeWithTrimSpace(t *testing.T) {
	t.Parallel()

	type target struct {
		Items []string `json:"items"`
	}

	out, err := Decode[target](map[string]any{"items": "a, b"}, WithTrimSpace(false))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", " b"}, out.Items)
}
