package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveColumn(t *testing.T) {
	tests := []struct {
		name      string
		headers   []string
		canonical string
		wantIndex int
		wantFound bool
	}{
		{
			name:      "exact match",
			headers:   []string{"ticker", "date", "close"},
			canonical: ColTicker,
			wantIndex: 0,
			wantFound: true,
		},
		{
			name:      "case insensitive",
			headers:   []string{"TICKER", "Date", "Close"},
			canonical: ColClose,
			wantIndex: 2,
			wantFound: true,
		},
		{
			name:      "localized header",
			headers:   []string{"mã", "ngày", "đóng cửa", "khối lượng"},
			canonical: ColVolume,
			wantIndex: 3,
			wantFound: true,
		},
		{
			name:      "substring containment",
			headers:   []string{"stock_ticker", "trade date", "close_price"},
			canonical: ColClose,
			wantIndex: 2,
			wantFound: true,
		},
		{
			name:      "exact beats substring",
			headers:   []string{"close_adjusted", "close"},
			canonical: ColClose,
			wantIndex: 1,
			wantFound: true,
		},
		{
			name:      "missing column",
			headers:   []string{"foo", "bar"},
			canonical: ColVolume,
			wantIndex: -1,
			wantFound: false,
		},
		{
			name:      "whitespace trimmed",
			headers:   []string{"  Ticker ", "date"},
			canonical: ColTicker,
			wantIndex: 0,
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ResolveColumn(tt.headers, tt.canonical)
			assert.Equal(t, tt.wantIndex, res.Index)
			assert.Equal(t, tt.wantFound, res.Found())
			if tt.wantFound {
				assert.Equal(t, tt.headers[tt.wantIndex], res.Header)
			}
		})
	}
}

func TestResolveColumnRecordsTriedAliases(t *testing.T) {
	res := ResolveColumn([]string{"foo"}, ColTicker)
	assert.False(t, res.Found())
	assert.Contains(t, res.Tried, "ticker")
	assert.Contains(t, res.Tried, "symbol")
}

func TestResolveSchema(t *testing.T) {
	t.Run("resolves required and optional columns", func(t *testing.T) {
		headers := []string{"Mã", "Ngày", "Đóng cửa", "Khối lượng", "Sàn"}
		schema, err := ResolveSchema(headers, priceRequired)
		require.NoError(t, err)

		assert.Equal(t, 0, schema[ColTicker])
		assert.Equal(t, 1, schema[ColDate])
		assert.Equal(t, 2, schema[ColClose])
		assert.Equal(t, 3, schema[ColVolume])
		assert.Equal(t, 4, schema[ColExchange])
		_, hasOpen := schema[ColOpen]
		assert.False(t, hasOpen, "absent optional column should not appear in schema")
	})

	t.Run("lists every missing required column", func(t *testing.T) {
		_, err := ResolveSchema([]string{"ticker", "open"}, priceRequired)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "date")
		assert.Contains(t, err.Error(), "close")
		assert.Contains(t, err.Error(), "volume")
	})
}

func TestFindColumn(t *testing.T) {
	headers := []string{"Symbol", "ROE (%)", "Debt/Equity"}

	idx, ok := FindColumn(headers, []string{"roe"})
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, ok = FindColumn(headers, []string{"debt/equity", "d/e"})
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = FindColumn(headers, []string{"dividend yield"})
	assert.False(t, ok)
}
