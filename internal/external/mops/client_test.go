package mops

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/httputil"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

const revenuePage = `<html><body>
<table>
  <tr><th align="left">產業別：水泥工業</th></tr>
  <tr><td>
    <table>
      <tr><th>公司代號</th><th>公司名稱</th><th>當月營收</th><th>上月營收</th></tr>
      <tr><td>1101</td><td>台泥</td><td>10,520,123</td><td>9,876,543</td></tr>
      <tr><td>1102</td><td>亞泥</td><td>7,001,234</td><td>6,900,000</td></tr>
      <tr><td>合計</td><td></td><td>17,521,357</td><td></td></tr>
    </table>
  </td></tr>
</table>
<table>
  <tr><th align="left">產業別：半導體業</th></tr>
  <tr><td>
    <table>
      <tr><td>2330</td><td>台積電</td><td>215,785,127</td><td>236,021,112</td></tr>
      <tr><td>2303</td><td>聯電</td><td>-</td><td>1</td></tr>
    </table>
  </td></tr>
</table>
</body></html>`

func TestParseRevenuePage(t *testing.T) {
	month := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	reports, err := ParseRevenuePage([]byte(revenuePage), contracts.MarketTWSE, month)
	require.NoError(t, err)

	require.Len(t, reports, 3)

	assert.Equal(t, "1101", reports[0].Stock.Code)
	assert.Equal(t, "台泥", reports[0].Stock.Name)
	assert.Equal(t, "水泥工業", reports[0].Stock.Industry)
	assert.Equal(t, int64(10520123), reports[0].Revenue.Revenue)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), reports[0].Revenue.Month)

	assert.Equal(t, "2330", reports[2].Stock.Code)
	assert.Equal(t, "半導體業", reports[2].Stock.Industry)
	assert.True(t, reports[2].Stock.Active)
}

func TestFetchMonthlyRevenue_DecodesBig5(t *testing.T) {
	encoded, err := traditionalchinese.Big5.NewEncoder().Bytes([]byte(revenuePage))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nas/t21/otc/t21sc03_113_1_0.html", r.URL.Path)
		w.Header().Set("Content-Type", "text/html; charset=big5")
		_, _ = w.Write(encoded)
	}))
	defer srv.Close()

	client := NewClient(httputil.New(logger.Nop()).DisableRetry(), srv.URL, logger.Nop())
	reports, err := client.FetchMonthlyRevenue(context.Background(), SegmentOTC, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, reports, 3)
	assert.Equal(t, "亞泥", reports[1].Stock.Name)
	assert.Equal(t, contracts.MarketTPEx, reports[1].Stock.Market)
}

func TestMarketOf(t *testing.T) {
	assert.Equal(t, contracts.MarketTWSE, MarketOf(SegmentListed))
	assert.Equal(t, contracts.MarketTPEx, MarketOf(SegmentOTC))
}
