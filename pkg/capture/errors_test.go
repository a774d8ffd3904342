package capture

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	for _, tc := range []struct {
		err  error
		kind Kind
	}{
		{nil, KindNone},
		{base, KindNone},
		{ErrStorage{Err: base}, KindStorage},
		{&ErrCapture{Err: base}, KindCapture},
		{fmt.Errorf("session: %w", ErrInvalidArgument{Err: base}), KindInvalidArgument},
		{ErrCapture{Err: ErrStorage{Err: base}}, KindCapture},
	} {
		t.Run(fmt.Sprintf("%v", tc.err), func(t *testing.T) {
			require.Equal(t, tc.kind, KindOf(tc.err))
		})
	}
	require.ErrorIs(t, ErrStorage{Err: base}, base)
}

func TestOptionsText(t *testing.T) {
	for _, p := range []HeaderPolicy{HeaderPolicyPredeclared, HeaderPolicyRewriteOnAbort} {
		var parsed HeaderPolicy
		require.NoError(t, parsed.Set(p.String()))
		require.Equal(t, p, parsed)
	}
	for _, b := range []Buffering{BufferingSingle, BufferingDouble} {
		var parsed Buffering
		require.NoError(t, parsed.Set(b.String()))
		require.Equal(t, b, parsed)
	}

	var p HeaderPolicy
	require.Error(t, p.Set("never"))
	var b Buffering
	require.Error(t, b.Set("triple"))
}
