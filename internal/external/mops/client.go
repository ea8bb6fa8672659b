package mops

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/httputil"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

// MOPS market segments
const (
	SegmentListed = "sii" // 上市
	SegmentOTC    = "otc" // 上櫃
)

// Client fetches monthly revenue reports from the Market Observation Post System
// ⭐ SSOT: 公開資訊觀測站呼叫只在這裡
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new MOPS client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// RevenueReport is one company row of the monthly summary
type RevenueReport struct {
	Stock   contracts.Stock
	Revenue contracts.MonthlyRevenue
}

// FetchMonthlyRevenue returns every company's revenue for one segment and month
func (c *Client) FetchMonthlyRevenue(ctx context.Context, segment string, month time.Time) ([]RevenueReport, error) {
	target := fmt.Sprintf("%s/nas/t21/%s/t21sc03_%d_%d_0.html",
		c.baseURL, segment, month.Year()-1911, int(month.Month()))

	body, err := c.httpClient.GetBytes(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("fetch revenue %s %s: %w", segment, month.Format("2006-01"), err)
	}

	utf8Body, err := decodeBig5(body)
	if err != nil {
		return nil, fmt.Errorf("decode revenue page: %w", err)
	}

	reports, err := ParseRevenuePage(utf8Body, MarketOf(segment), month)
	if err != nil {
		return nil, fmt.Errorf("parse revenue %s %s: %w", segment, month.Format("2006-01"), err)
	}

	c.logger.WithFields(map[string]interface{}{
		"segment": segment,
		"month":   month.Format("2006-01"),
		"count":   len(reports),
	}).Debug("Fetched monthly revenue")

	return reports, nil
}

// MarketOf maps a MOPS segment onto the stock market identifier
func MarketOf(segment string) string {
	if segment == SegmentOTC {
		return contracts.MarketTPEx
	}
	return contracts.MarketTWSE
}

// decodeBig5 converts the Big5 page body into UTF-8
func decodeBig5(body []byte) ([]byte, error) {
	out, _, err := transform.Bytes(traditionalchinese.Big5.NewDecoder(), body)
	return out, err
}

var (
	codePattern     = regexp.MustCompile(`^\d{4,6}[A-Z]?$`)
	industryPattern = regexp.MustCompile(`產業別[:：]\s*(\S+)`)
)

// ParseRevenuePage extracts (code, name, industry, revenue) rows from a
// decoded t21sc03 page. Rows appear under one table per industry; the
// first three cells are 公司代號, 公司名稱, 當月營收 (thousand NTD).
func ParseRevenuePage(html []byte, market string, month time.Time) ([]RevenueReport, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	industry := ""
	var reports []RevenueReport

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if th := row.ChildrenFiltered("th"); th.Length() > 0 {
			if m := industryPattern.FindStringSubmatch(th.Text()); m != nil {
				industry = m[1]
			}
			return
		}

		cells := row.ChildrenFiltered("td")
		if cells.Length() < 3 {
			return
		}

		code := strings.TrimSpace(cells.Eq(0).Text())
		if !codePattern.MatchString(code) {
			return
		}

		revenue, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(cells.Eq(2).Text()), ",", ""), 10, 64)
		if err != nil {
			return
		}

		reports = append(reports, RevenueReport{
			Stock: contracts.Stock{
				Code:     code,
				Name:     strings.TrimSpace(cells.Eq(1).Text()),
				Market:   market,
				Industry: industry,
				Active:   true,
			},
			Revenue: contracts.MonthlyRevenue{
				Code:    code,
				Month:   monthStart,
				Revenue: revenue,
			},
		})
	})

	return reports, nil
}
