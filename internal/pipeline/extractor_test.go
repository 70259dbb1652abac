package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		kind    Kind
		want    string
		wantErr bool
	}{
		{
			name: "prose wrapped object",
			text: `Here is the result: {"match_score": 92} hope it helps`,
			kind: KindObject,
			want: `{"match_score": 92}`,
		},
		{
			name: "outermost span preferred over inner objects",
			text: `结果 {"outer": {"inner": 1}, "b": [1, 2]} 结束`,
			kind: KindObject,
			want: `{"outer": {"inner": 1}, "b": [1, 2]}`,
		},
		{
			name: "fenced block when outermost span is invalid",
			text: "```json\n{\"a\": 1}\n```\nnote: wrap values in {braces}",
			kind: KindObject,
			want: `{"a": 1}`,
		},
		{
			name: "balanced span when prose has stray braces",
			text: `first {"a": {"b": 1}} then a stray } and {oops`,
			kind: KindObject,
			want: `{"a": {"b": 1}}`,
		},
		{
			name: "first valid balanced span among several",
			text: `x {not json} y {"ok": true} z {"later": 1} }`,
			kind: KindObject,
			want: `{"ok": true}`,
		},
		{
			name: "array kind",
			text: "问题如下：\n[\"q1\", \"q2\"]\n以上",
			kind: KindArray,
			want: `["q1", "q2"]`,
		},
		{
			name: "array nested in object",
			text: `{"questions": ["a", "b"]}`,
			kind: KindArray,
			want: `["a", "b"]`,
		},
		{name: "plain prose", text: "I cannot help with that.", kind: KindObject, wantErr: true},
		{name: "empty", text: "", kind: KindObject, wantErr: true},
		{name: "array expected but object given", text: `{"a": 1}`, kind: KindArray, wantErr: true},
		{name: "unterminated", text: `{"a": 1`, kind: KindObject, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.text, tt.kind)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrExtractionFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractReportsWinningStrategy(t *testing.T) {
	_, name, err := extractWith("```json\n{\"a\": 1}\n``` }", KindObject)
	require.NoError(t, err)
	assert.Equal(t, "fenced_block", name)

	_, name, err = extractWith(`{"a": 1}`, KindObject)
	require.NoError(t, err)
	assert.Equal(t, "outermost_span", name)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "object", KindObject.String())
	assert.Equal(t, "array", KindArray.String())
}
