// Package voice extracts structured ledger records from voice transcripts.
package voice

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yhlin/ledgersense/internal/model"
	"github.com/yhlin/ledgersense/internal/rules"
)

// Confidence contributions per extracted field.
const (
	baseConfidence     = 0.5
	amountContribution = 0.3
	categoryContrib    = 0.2
)

// amountPatterns are tried in order; the first match wins. Suffix currency
// words are the strongest signal, then spend-verb prefixes, then an explicit
// currency symbol.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:元|塊錢|塊|dollars?|bucks?)`),
	regexp.MustCompile(`(?i)(?:花了|花費|支出|付了|spent|paid)\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)(?:NT\$|\$)\s*(\d+(?:\.\d+)?)`),
}

var (
	incomeKeywords  = []string{"收入", "薪水", "薪資", "發薪", "領到", "賺了", "獎金", "紅包", "退款", "income", "salary", "bonus", "refund"}
	expenseKeywords = []string{"花了", "花費", "支出", "付了", "買了", "繳了", "花", "買", "付", "spent", "paid", "bought"}

	splitEqualPhrases  = []string{"平均分攤", "大家分", "一起分"}
	splitCustomPhrases = []string{"自訂分攤", "按比例"}

	// stopWords are stripped from the remainder during description cleanup.
	stopWords = []string{"花了", "花費", "支出", "付了", "買了", "繳了", "今天", "昨天", "前天", "我", "了", "的", "元", "塊錢", "塊", "spent", "paid", "dollars", "dollar"}
)

// Parser turns a transcript into a best-effort VoiceParseResult. Every
// extraction step is optional and degrades to a nil/empty field; malformed
// input never panics.
type Parser struct {
	now  func() time.Time
	dict *rules.Dictionary
}

// NewParser creates a parser that infers categories from the given dictionary.
func NewParser(dict *rules.Dictionary) *Parser {
	return &Parser{dict: dict, now: time.Now}
}

// Parse extracts amount, direction, category, split type, date, and a cleaned
// description from one transcript. The context decides whether split-type
// extraction applies.
func (p *Parser) Parse(text string, context model.VoiceContext) model.VoiceParseResult {
	result := model.VoiceParseResult{
		Type:            model.DirectionExpense,
		FieldConfidence: make(map[string]float64),
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		result.ErrorMessage = "語音內容為空，無法解析"
		return result
	}

	remainder := trimmed

	amount, matched := extractAmount(trimmed)
	if amount != nil {
		result.Amount = amount
		result.FieldConfidence["amount"] = 0.9
		remainder = strings.Replace(remainder, matched, " ", 1)
	}

	result.Type, result.FieldConfidence["type"] = classifyDirection(trimmed)

	if entry, ok := p.dict.InferCategory(trimmed); ok {
		result.Category = entry.Name
		result.FieldConfidence["category"] = 0.7
	}

	if context == model.ContextFamily {
		result.SplitType, result.FieldConfidence["splitType"] = extractSplitType(trimmed)
	}

	if date, phrase, ok := p.extractDate(trimmed); ok {
		result.Date = &date
		result.FieldConfidence["date"] = 0.9
		remainder = strings.Replace(remainder, phrase, " ", 1)
	}

	result.Remainder = cleanRemainder(remainder)
	result.Description = result.Remainder
	if result.Description == "" {
		if result.Category != "" {
			result.Description = result.Category
		} else {
			result.Description = "語音記帳"
		}
	}

	confidence := baseConfidence
	if result.Amount != nil {
		confidence += amountContribution
	}
	if result.Category != "" {
		confidence += categoryContrib
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	result.Confidence = confidence

	if result.Amount == nil && result.Category == "" {
		result.ErrorMessage = "無法從語音內容中辨識金額或分類"
		return result
	}

	result.IsSuccess = true
	return result
}

// extractAmount tries each amount pattern in order and returns the parsed
// amount plus the full matched substring for later cleanup.
func extractAmount(text string) (*float64, string) {
	for _, pattern := range amountPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil || value <= 0 {
			continue
		}
		return &value, match[0]
	}
	return nil, ""
}

// classifyDirection scans for income and expense keywords. Income keywords
// take precedence when both appear; neither defaults to expense.
func classifyDirection(text string) (model.TransactionDirection, float64) {
	folded := rules.Fold(text)
	for _, kw := range incomeKeywords {
		if strings.Contains(folded, rules.Fold(kw)) {
			return model.DirectionIncome, 0.8
		}
	}
	for _, kw := range expenseKeywords {
		if strings.Contains(folded, rules.Fold(kw)) {
			return model.DirectionExpense, 0.8
		}
	}
	return model.DirectionExpense, 0.5
}

// extractSplitType recognizes family split phrases; the payer covering the
// whole expense is the default.
func extractSplitType(text string) (string, float64) {
	for _, phrase := range splitEqualPhrases {
		if strings.Contains(text, phrase) {
			return model.SplitEqual, 0.8
		}
	}
	for _, phrase := range splitCustomPhrases {
		if strings.Contains(text, phrase) {
			return model.SplitProportions, 0.8
		}
	}
	return model.SplitPayerOnly, 0.5
}

// extractDate resolves relative day phrases against the parser clock.
func (p *Parser) extractDate(text string) (time.Time, string, bool) {
	today := p.now().Truncate(24 * time.Hour)
	switch {
	case strings.Contains(text, "前天"):
		return today.AddDate(0, 0, -2), "前天", true
	case strings.Contains(text, "昨天"):
		return today.AddDate(0, 0, -1), "昨天", true
	case strings.Contains(text, "今天"):
		return today, "今天", true
	}
	return time.Time{}, "", false
}

// cleanRemainder strips stop words and collapses whitespace.
func cleanRemainder(text string) string {
	for _, word := range stopWords {
		text = strings.ReplaceAll(text, word, " ")
	}
	return strings.Join(strings.Fields(text), " ")
}
