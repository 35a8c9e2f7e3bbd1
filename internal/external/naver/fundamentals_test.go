package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokyun/folio/pkg/config"
	"github.com/dokyun/folio/pkg/httputil"
	"github.com/dokyun/folio/pkg/logger"
)

func newTestClient(serverURL string) *Client {
	httpClient := httputil.New(&config.Config{}, logger.Discard()).DisableRetry()
	return NewClient(serverURL, httpClient, logger.Discard())
}

func TestGetFundamentals_ParsesIndicators(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/item/main.naver", r.URL.Path)
		assert.Equal(t, "005930", r.URL.Query().Get("code"))
		w.Write([]byte(`<html><body>
			<em id="_per">12.54</em>
			<em id="_pbr">1.32</em>
			<em id="_dvr">2.51</em>
		</body></html>`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	enrichment, err := c.GetFundamentals(context.Background(), "005930")
	require.NoError(t, err)

	require.NotNil(t, enrichment.PER)
	assert.Equal(t, 12.54, *enrichment.PER)
	require.NotNil(t, enrichment.PBR)
	assert.Equal(t, 1.32, *enrichment.PBR)
	require.NotNil(t, enrichment.DividendYield)
	assert.InDelta(t, 0.0251, *enrichment.DividendYield, 1e-9, "퍼센트가 소수로 변환됨")
}

func TestGetFundamentals_MissingFieldsStayNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<em id="_per">N/A</em>
		</body></html>`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	enrichment, err := c.GetFundamentals(context.Background(), "123456")
	require.NoError(t, err)

	assert.Nil(t, enrichment.PER)
	assert.Nil(t, enrichment.PBR)
	assert.Nil(t, enrichment.DividendYield)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"1,234.56", 1234.56, true},
		{" 12.5 ", 12.5, true},
		{"-0.42", -0.42, true},
		{"N/A", 0, false},
		{"-", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumber(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		if ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}
