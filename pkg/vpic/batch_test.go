package vpic

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBatch(t *testing.T) {
	got := EncodeBatch([]VINYear{
		{VIN: "2C4RDGCG4DR524227", Year: 2013},
		{VIN: "1C4AJWAG2DL692427"},
		{VIN: "5UXWX7C5*BA", Year: 2011},
	})
	assert.Equal(t, "2C4RDGCG4DR524227,2013;1C4AJWAG2DL692427;5UXWX7C5*BA,2011", got)
	assert.Equal(t, "", EncodeBatch(nil))
}

func TestEncodeBatchTokensSplitBack(t *testing.T) {
	var pairs []VINYear
	for i := 0; i < 37; i++ {
		p := VINYear{VIN: fmt.Sprintf("1FTFW1ET%09d", i)}
		if i%3 != 0 {
			p.Year = 1990 + i
		}
		pairs = append(pairs, p)
	}

	tokens := strings.Split(EncodeBatch(pairs), ";")
	require.Len(t, tokens, len(pairs))
	for i, tok := range tokens {
		parts := strings.Split(tok, ",")
		assert.Equal(t, pairs[i].VIN, parts[0])
		if pairs[i].Year == 0 {
			assert.Len(t, parts, 1, "token %q", tok)
			continue
		}
		require.Len(t, parts, 2, "token %q", tok)
		assert.Equal(t, strconv.Itoa(pairs[i].Year), parts[1])
	}
}

func TestParseVINYear(t *testing.T) {
	tests := []struct {
		in      string
		want    VINYear
		wantErr bool
	}{
		{"1C4AJWAG2DL692427", VINYear{VIN: "1C4AJWAG2DL692427"}, false},
		{" 2C4RDGCG4DR524227 , 2013 ", VINYear{VIN: "2C4RDGCG4DR524227", Year: 2013}, false},
		{"2C4RDGCG4DR524227,", VINYear{VIN: "2C4RDGCG4DR524227"}, false},
		{"2C4RDGCG4DR524227,20x3", VINYear{}, true},
		{",2013", VINYear{}, true},
		{"", VINYear{}, true},
	}
	for _, tt := range tests {
		got, err := ParseVINYear(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
