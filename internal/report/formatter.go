package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/strategyconfig"
)

const timeLayout = "2006-01-02 15:04:05"

// Formatter renders screening results as Telegram Markdown (S4)
// ⭐ SSOT: 報告文字只在這裡產生
type Formatter struct {
	params strategyconfig.ReportParams
	meta   strategyconfig.Meta
	loc    *time.Location
	now    func() time.Time
}

// NewFormatter creates a formatter; times are shown in loc
func NewFormatter(cfg strategyconfig.Config, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.FixedZone("CST", 8*60*60)
	}
	return &Formatter{
		params: cfg.Report,
		meta:   cfg.Meta,
		loc:    loc,
		now:    time.Now,
	}
}

// RunMeta describes the run a notice refers to
type RunMeta struct {
	RunID  string
	Mode   string // manual, scheduler, github
	RunURL string
	Stage  string
}

// Format returns the report messages: the screening result first, then
// advice and risk notes. The notifier splits oversized messages.
func (f *Formatter) Format(result *contracts.ScreeningResult) []string {
	candidates := []contracts.Candidate{}
	if result != nil {
		candidates = result.Top(f.params.MaxCandidates)
	}
	total := 0
	if result != nil {
		total = len(result.Candidates)
	}

	var b strings.Builder
	f.writeHeader(&b)

	if total == 0 {
		writeEmpty(&b)
	} else {
		fmt.Fprintf(&b, "📊 *今日篩選結果*\n🎯 共 %d 檔完整通過 8 條件", total)
		if total > len(candidates) {
			fmt.Fprintf(&b, "，列出前 %d 檔", len(candidates))
		}
		b.WriteString("\n\n")
		for i, c := range candidates {
			writeCandidate(&b, i+1, c)
		}
	}

	var tail strings.Builder
	if total > 0 {
		writeAdvice(&tail, candidates)
	}
	writeRisk(&tail)
	f.writeFooter(&tail, result, total)

	return []string{strings.TrimSpace(b.String()), strings.TrimSpace(tail.String())}
}

func (f *Formatter) writeHeader(b *strings.Builder) {
	fmt.Fprintf(b, "🚀 *二次創新高策略報告*\n📅 %s\n🤖 自動執行版本 v%s\n\n", f.now().In(f.loc).Format(timeLayout), f.meta.Version)
	b.WriteString("*完整 8 條件篩選：*\n")
	for i, label := range contracts.ConditionLabels {
		fmt.Fprintf(b, "✅ %d. %s\n", i+1, label)
	}
	b.WriteString(strings.Repeat("=", 30) + "\n\n")
}

func writeEmpty(b *strings.Builder) {
	b.WriteString("🔍 *今日篩選結果*\n暫無完整符合 8 條件的股票\n\n")
	b.WriteString("💡 *市況觀察*\n")
	b.WriteString("- 條件嚴格，通過率通常只有 1~3%\n")
	b.WriteString("- 市場可能仍在整理或偏弱\n")
	b.WriteString("- 保持耐心，等待突破訊號\n")
}

func writeCandidate(b *strings.Builder, rank int, c contracts.Candidate) {
	name := c.Name
	if name == "" {
		name = c.Symbol
	}
	fmt.Fprintf(b, "*%d. %s (%s)*\n", rank, name, c.Symbol)

	fmt.Fprintf(b, "   💰 收盤: %.2f", c.Close)
	if c.ChangePct > 0.01 || c.ChangePct < -0.01 {
		arrow := "📈"
		if c.ChangePct < 0 {
			arrow = "📉"
		}
		fmt.Fprintf(b, " %s %+.2f%%", arrow, c.ChangePct)
	}
	b.WriteString("\n")

	fmt.Fprintf(b, "   🎯 突破前高 %.2f，幅度 %.2f%%\n", c.Resistance, c.BreakoutRatio)
	fmt.Fprintf(b, "   📈 120 日漲幅 %.1f%% | 60 日漲幅 %.1f%%\n", c.LongTermGain, c.MediumTermGain)
	fmt.Fprintf(b, "   📊 均線: 5 日 %.1f | 10 日 %.1f | 20 日 %.1f\n", c.MA5, c.MA10, c.MA20)
	fmt.Fprintf(b, "   📉 RSI %.0f | 波動率 %.2f%%\n", c.RSI, c.Volatility)

	fmt.Fprintf(b, "   🔊 成交量: %s 股%s\n", groupDigits(int64(c.Volume)), volumeLabel(c.VolumeRatio))
	fmt.Fprintf(b, "   🏭 營收成長: %s\n", RevenueText(c))
	fmt.Fprintf(b, "   ⭐ 信號強度 %.0f%% | 技術評分 %d/100%s\n\n", c.SignalStrength*100, c.TechnicalScore, scoreLabel(c.TechnicalScore))
}

// RevenueText renders the revenue growth indicator
func RevenueText(c contracts.Candidate) string {
	if !c.RevenueGrowthAvailable {
		return "無資料"
	}
	trend := "加速"
	if c.RevenueGrowth <= 0 {
		trend = "放緩"
	}
	return fmt.Sprintf("%+.1f%% (%s)", c.RevenueGrowth, trend)
}

func volumeLabel(ratio float64) string {
	switch {
	case ratio > 3.0:
		return fmt.Sprintf(" (爆量 %.1f 倍) 🔥🔥", ratio)
	case ratio > 2.0:
		return fmt.Sprintf(" (大量 %.1f 倍) 🔥", ratio)
	case ratio > 1.5:
		return fmt.Sprintf(" (放量 %.1f 倍)", ratio)
	case ratio > 1.2:
		return fmt.Sprintf(" (溫和放量 %.1f 倍)", ratio)
	default:
		return ""
	}
}

func scoreLabel(score int) string {
	switch {
	case score >= 80:
		return " 強勢 💪"
	case score >= 70:
		return " 偏強 👍"
	default:
		return ""
	}
}

func writeAdvice(b *strings.Builder, candidates []contracts.Candidate) {
	heavy := 0
	for _, c := range candidates {
		if c.VolumeRatio > 2.0 {
			heavy++
		}
	}

	b.WriteString("*操作建議：*\n")
	if heavy > 0 {
		fmt.Fprintf(b, "• 優先留意 %d 檔大量突破的標的\n", heavy)
	}
	b.WriteString("• 以技術評分 70 分以上、站上 20/60 日線者為先\n")
	b.WriteString("• 開盤觀察是否續強，回測 20 日線再分批布局\n")
	b.WriteString("• 停損：跌破 20 日線或 -8%，單檔不超過資金 15%\n\n")
}

func writeRisk(b *strings.Builder) {
	b.WriteString("⚠️ *風險提醒*\n")
	b.WriteString("- 本報告僅供參考，不構成投資建議\n")
	b.WriteString("- 投資有賺有賠，務必嚴守停損\n")
	b.WriteString("- 留意大盤系統性風險與國際情勢\n\n")
}

func (f *Formatter) writeFooter(b *strings.Builder, result *contracts.ScreeningResult, total int) {
	b.WriteString("📊 *策略統計*\n")
	fmt.Fprintf(b, "- 執行時間: %s\n", f.now().In(f.loc).Format(timeLayout))
	if result != nil {
		fmt.Fprintf(b, "- 資料日期: %s\n", result.Date.Format("2006-01-02"))
		fmt.Fprintf(b, "- 評估檔數: %d 檔\n", result.Evaluated)
	}
	fmt.Fprintf(b, "- 候選檔數: %d 檔\n", total)
	if f.meta.DecisionTimeLocal != "" {
		fmt.Fprintf(b, "\n🔔 下次推播：下個交易日 %s\n", f.meta.DecisionTimeLocal)
	}
}

// FailureNotice is sent when a run aborts
func (f *Formatter) FailureNotice(err error, meta RunMeta) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if r := []rune(msg); len(r) > 500 {
		msg = string(r[:500]) + "..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "❌ *策略執行失敗*\n⏰ %s\n", f.now().In(f.loc).Format(timeLayout))
	fmt.Fprintf(&b, "🔧 執行模式: %s\n", modeLabel(meta.Mode))
	if meta.Stage != "" {
		stage := meta.Stage
		if contracts.IsValidStage(stage) {
			stage = contracts.Stage(stage).Description()
		}
		fmt.Fprintf(&b, "📍 階段: %s\n", stage)
	}
	if meta.RunID != "" {
		fmt.Fprintf(&b, "🆔 Run: `%s`\n", meta.RunID)
	}
	fmt.Fprintf(&b, "\n❗ *錯誤訊息*\n```\n%s\n```\n", msg)
	if meta.RunURL != "" {
		fmt.Fprintf(&b, "\n🔗 執行紀錄: `%s`\n", meta.RunURL)
	}
	b.WriteString("\n請檢查資料來源、網路連線與執行日誌")
	return b.String()
}

// StartupNotice is sent before a scheduled run starts
func (f *Formatter) StartupNotice(mode string) string {
	return fmt.Sprintf("🤖 *策略機器人啟動*\n⏰ %s\n🔧 執行模式: %s\n\n🔍 正在執行完整 8 條件分析...",
		f.now().In(f.loc).Format(timeLayout), modeLabel(mode))
}

func modeLabel(mode string) string {
	switch mode {
	case "scheduler":
		return "自動排程"
	case "github":
		return "GitHub Actions"
	case "", "manual":
		return "手動執行"
	default:
		return mode
	}
}

// groupDigits renders 1234567 as 1,234,567
func groupDigits(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}
