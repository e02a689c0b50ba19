package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfitFactorMarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		pf       ProfitFactor
		expected string
	}{
		{
			name:     "finite carries value",
			pf:       FiniteProfitFactor(4.2857),
			expected: `{"state":"finite","value":4.2857}`,
		},
		{
			name:     "finite zero keeps explicit value",
			pf:       FiniteProfitFactor(0),
			expected: `{"state":"finite","value":0}`,
		},
		{
			name:     "infinite has no value field",
			pf:       InfiniteProfitFactor(),
			expected: `{"state":"infinite"}`,
		},
		{
			name:     "undefined has no value field",
			pf:       UndefinedProfitFactor(),
			expected: `{"state":"undefined"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.pf)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestProfitFactorRoundTrip(t *testing.T) {
	original := FiniteProfitFactor(1.5)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded ProfitFactor
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
	assert.True(t, decoded.IsFinite())
}

func TestMetricsSummaryEmptySerializesNulls(t *testing.T) {
	summary := MetricsSummary{
		TotalTrades:  0,
		TotalPnl:     0,
		ProfitFactor: UndefinedProfitFactor(),
	}

	data, err := json.Marshal(summary)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Nil(t, decoded["avg_pnl"])
	assert.Nil(t, decoded["median_pnl"])
	assert.Nil(t, decoded["win_rate"])
	assert.False(t, summary.HasData())
}
