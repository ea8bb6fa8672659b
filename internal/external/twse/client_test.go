package twse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/httputil"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

const stockDayJSON = `{
  "stat": "OK",
  "date": "20240101",
  "fields": ["日期","成交股數","成交金額","開盤價","最高價","最低價","收盤價","漲跌價差","成交筆數"],
  "data": [
    ["113/01/02","26,059,058","15,436,487,020","590.00","593.00","589.00","593.00","+0.00","23,435"],
    ["113/01/03","37,106,886","21,535,715,301","584.00","585.00","576.00","578.00","-15.00","49,242"],
    ["113/01/04","--","0","--","--","--","--"," 0.00","0"]
  ]
}`

const tpexJSON = `{
  "stkNo": "6488",
  "reportDate": "113/01",
  "aaData": [
    ["113/01/02","1,234","567,890","458.50","462.00","455.00","460.00","1.50","2,345"]
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(httputil.New(logger.Nop()).DisableRetry(), srv.URL, srv.URL, logger.Nop())
}

func TestFetchMonth_TWSE(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exchangeReport/STOCK_DAY", r.URL.Path)
		assert.Equal(t, "20240101", r.URL.Query().Get("date"))
		assert.Equal(t, "2330", r.URL.Query().Get("stockNo"))
		_, _ = w.Write([]byte(stockDayJSON))
	})

	stock := contracts.Stock{Code: "2330", Market: contracts.MarketTWSE}
	prices, err := client.FetchMonth(context.Background(), stock, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, prices, 2, "no-trade session is skipped")
	assert.Equal(t, contracts.DailyPrice{
		Code:   "2330",
		Date:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open:   590,
		High:   593,
		Low:    589,
		Close:  593,
		Volume: 26059058,
		Value:  15436487020,
	}, prices[0])
	assert.Equal(t, 578.0, prices[1].Close)
}

func TestFetchMonth_TWSENoData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stat":"很抱歉，沒有符合條件的資料!"}`))
	})

	prices, err := client.FetchMonth(context.Background(), contracts.Stock{Code: "9999"}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestFetchMonth_TPEx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/web/stock/aftertrading/daily_trading_info/st43_result.php", r.URL.Path)
		assert.Equal(t, "113/01", r.URL.Query().Get("d"))
		assert.Equal(t, "6488", r.URL.Query().Get("stkno"))
		_, _ = w.Write([]byte(tpexJSON))
	})

	stock := contracts.Stock{Code: "6488", Market: contracts.MarketTPEx}
	prices, err := client.FetchMonth(context.Background(), stock, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, prices, 1)
	assert.Equal(t, int64(1234000), prices[0].Volume)
	assert.Equal(t, int64(567890000), prices[0].Value)
	assert.Equal(t, 460.0, prices[0].Close)
}

func TestFetchMonth_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.FetchMonth(context.Background(), contracts.Stock{Code: "2330"}, time.Now())
	assert.Error(t, err)
}

func TestParseROCDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"113/01/02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"99/12/31", time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"113/02/05*", time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), false},
		{"2024-01-02", time.Time{}, true},
		{"113/13/01", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseROCDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
