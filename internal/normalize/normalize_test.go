package normalize

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/poetry-loader/internal/domain"
)

func TestIdentity(t *testing.T) {
	t.Parallel()

	got, err := Identity.Normalize("床前明月光")
	require.NoError(t, err)
	assert.Equal(t, "床前明月光", got)
}

func TestIdentity_InvalidUTF8(t *testing.T) {
	t.Parallel()

	_, err := Identity.Normalize("ok\xffbad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedText))
}

func TestUnicode_Forms(t *testing.T) {
	t.Parallel()

	// "e" + combining acute accent vs precomposed e-acute.
	decomposed := "e\u0301"
	composed := "\u00e9"

	tests := []struct {
		form string
		in   string
		want string
	}{
		{"nfc", decomposed, composed},
		{"NFD", composed, decomposed},
		{"nfkc", "\uff21", "A"}, // fullwidth A
		{"nfkd", "\ufb01", "fi"},
	}

	for _, tt := range tests {
		t.Run(tt.form, func(t *testing.T) {
			u, err := NewUnicode(tt.form)
			require.NoError(t, err)

			got, err := u.Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewUnicode_UnknownForm(t *testing.T) {
	t.Parallel()

	_, err := NewUnicode("nfx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nfx")
}

func TestChain_AppliesInOrder(t *testing.T) {
	t.Parallel()

	var calls []string
	upper := Func(func(s string) (string, error) {
		calls = append(calls, "upper")
		return strings.ToUpper(s), nil
	})
	suffix := Func(func(s string) (string, error) {
		calls = append(calls, "suffix")
		return s + "!", nil
	})

	got, err := Chain{upper, suffix}.Normalize("abc")
	require.NoError(t, err)
	assert.Equal(t, "ABC!", got)
	assert.Equal(t, []string{"upper", "suffix"}, calls)
}

func TestChain_StopsOnError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	called := false
	chain := Chain{
		Func(func(string) (string, error) { return "", boom }),
		Func(func(s string) (string, error) { called = true; return s, nil }),
	}

	_, err := chain.Normalize("x")
	require.ErrorIs(t, err, boom)
	assert.False(t, called, "second normalizer must not run after an error")
}

func TestOpenCC_TraditionalToSimplified(t *testing.T) {
	t.Parallel()

	cc, err := NewOpenCC("t2s")
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"靜夜思", "静夜思"},
		{"舉頭望明月", "举头望明月"},
		{"李白", "李白"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := cc.Normalize(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestNew_Modes(t *testing.T) {
	t.Parallel()

	n, err := New(Options{Mode: "none"})
	require.NoError(t, err)
	got, err := n.Normalize("靜")
	require.NoError(t, err)
	assert.Equal(t, "靜", got, "mode none must not fold script variants")

	n, err = New(Options{Mode: "none", UnicodeForm: "nfkc"})
	require.NoError(t, err)
	got, err = n.Normalize("\uff21")
	require.NoError(t, err)
	assert.Equal(t, "A", got)

	_, err = New(Options{Mode: "s2x"})
	require.Error(t, err)
}
