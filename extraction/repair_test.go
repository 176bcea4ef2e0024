package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid input unchanged",
			input: `{"growth": {"drawdown": 0.1}}`,
			want:  `{"growth": {"drawdown": 0.1}}`,
		},
		{
			name:  "trailing commas",
			input: `[{"growth": {"drawdown": 0.1,}, "list": [1, 2,],}]`,
			want:  `[{"growth": {"drawdown": 0.1}, "list": [1, 2]}]`,
		},
		{
			name:  "byte order mark and whitespace",
			input: "\ufeff  {\"a\": 1}\n",
			want:  `{"a": 1}`,
		},
		{
			name:  "truncated array keeps first object",
			input: `[{"growth": {"drawdown": 0.2}}, {"growth": {"draw`,
			want:  `{"growth": {"drawdown": 0.2}}`,
		},
		{
			name:  "leading prose",
			input: `export follows: {"note": "has } brace", "v": 3} trailing`,
			want:  `{"note": "has } brace", "v": 3}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RepairJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, gjson.Valid(got))
		})
	}
}

func TestRepairJSON_Unrepairable(t *testing.T) {
	for _, input := range []string{"", "not json at all", `{"open": [1, 2`} {
		_, err := RepairJSON(input)
		assert.ErrorIs(t, err, ErrUnrepairableJSON, input)
	}
}
