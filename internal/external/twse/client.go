package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/httputil"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

// Client fetches daily prices from TWSE (上市) and TPEx (上櫃)
// ⭐ SSOT: 交易所日成交資料呼叫只在這裡
type Client struct {
	httpClient  *httputil.Client
	logger      *logger.Logger
	baseURL     string
	tpexBaseURL string
}

// NewClient creates a new exchange client
func NewClient(httpClient *httputil.Client, baseURL, tpexBaseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient:  httpClient,
		logger:      log,
		baseURL:     strings.TrimRight(baseURL, "/"),
		tpexBaseURL: strings.TrimRight(tpexBaseURL, "/"),
	}
}

// FetchMonth returns one stock's sessions of the month containing month.
// The exchange is chosen from stock.Market.
func (c *Client) FetchMonth(ctx context.Context, stock contracts.Stock, month time.Time) ([]contracts.DailyPrice, error) {
	var (
		prices []contracts.DailyPrice
		err    error
	)
	switch stock.Market {
	case contracts.MarketTPEx:
		prices, err = c.fetchTPEx(ctx, stock.Code, month)
	default:
		prices, err = c.fetchTWSE(ctx, stock.Code, month)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", stock.Code, month.Format("2006-01"), err)
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stock.Code,
		"market":     stock.Market,
		"month":      month.Format("2006-01"),
		"count":      len(prices),
	}).Debug("Fetched prices")

	return prices, nil
}

// stockDayResponse is the STOCK_DAY payload
type stockDayResponse struct {
	Stat   string     `json:"stat"`
	Fields []string   `json:"fields"`
	Data   [][]string `json:"data"`
}

// fetchTWSE calls exchangeReport/STOCK_DAY.
// Columns: 日期, 成交股數, 成交金額, 開盤價, 最高價, 最低價, 收盤價, 漲跌價差, 成交筆數
func (c *Client) fetchTWSE(ctx context.Context, code string, month time.Time) ([]contracts.DailyPrice, error) {
	params := url.Values{}
	params.Set("response", "json")
	params.Set("date", time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC).Format("20060102"))
	params.Set("stockNo", code)

	body, err := c.httpClient.GetBytes(ctx, c.baseURL+"/exchangeReport/STOCK_DAY?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp stockDayResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode STOCK_DAY: %w", err)
	}
	// "很抱歉，沒有符合條件的資料!" is reported through stat
	if resp.Stat != "OK" {
		return []contracts.DailyPrice{}, nil
	}

	return parseRows(code, resp.Data, 1), nil
}

// tpexResponse is the st43_result payload
type tpexResponse struct {
	StkNo  string     `json:"stkNo"`
	AaData [][]string `json:"aaData"`
}

// fetchTPEx calls the 個股日成交資訊 endpoint. Volume and value are in
// thousands. Columns: 日期, 成交仟股, 成交仟元, 開盤, 最高, 最低, 收盤, 漲跌, 筆數
func (c *Client) fetchTPEx(ctx context.Context, code string, month time.Time) ([]contracts.DailyPrice, error) {
	params := url.Values{}
	params.Set("l", "zh-tw")
	params.Set("d", fmt.Sprintf("%d/%02d", month.Year()-rocOffset, int(month.Month())))
	params.Set("stkno", code)

	body, err := c.httpClient.GetBytes(ctx, c.tpexBaseURL+"/web/stock/aftertrading/daily_trading_info/st43_result.php?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp tpexResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode st43_result: %w", err)
	}

	return parseRows(code, resp.AaData, 1000), nil
}

// parseRows converts exchange rows into prices. Rows without a trade
// ("--" prices) or with unparsable cells are skipped.
func parseRows(code string, rows [][]string, unit int64) []contracts.DailyPrice {
	prices := make([]contracts.DailyPrice, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}

		date, err := ParseROCDate(row[0])
		if err != nil {
			continue
		}

		volume, err1 := parseInt(row[1])
		value, err2 := parseInt(row[2])
		open, err3 := parseFloat(row[3])
		high, err4 := parseFloat(row[4])
		low, err5 := parseFloat(row[5])
		closePrice, err6 := parseFloat(row[6])
		if firstErr(err1, err2, err3, err4, err5, err6) != nil {
			continue
		}

		prices = append(prices, contracts.DailyPrice{
			Code:   code,
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume * unit,
			Value:  value * unit,
		})
	}
	return prices
}

// rocOffset converts Minguo years: 民國 113 = 2024
const rocOffset = 1911

// ParseROCDate parses "113/01/02" (an optional trailing "*" marks
// adjusted sessions) into a UTC date
func ParseROCDate(s string) (time.Time, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "*")
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid ROC date %q", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid ROC date %q: %w", s, err)
		}
		nums[i] = n
	}

	if nums[1] < 1 || nums[1] > 12 || nums[2] < 1 || nums[2] > 31 {
		return time.Time{}, fmt.Errorf("invalid ROC date %q", s)
	}
	return time.Date(nums[0]+rocOffset, time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.UTC), nil
}

// parseFloat parses "1,234.50"; "--" and "X0.00" style markers fail
func parseFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "--" || s == "---" {
		return 0, fmt.Errorf("no value")
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int64, error) {
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
