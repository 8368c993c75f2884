package rules

import "strings"

// CategoryEntry is one category in the keyword dictionary: its display icon,
// the keywords that indicate it, and the typical amount range of records in
// that category (zero bounds mean no typical range).
type CategoryEntry struct {
	Name       string   `json:"name"`
	Icon       string   `json:"icon"`
	Keywords   []string `json:"keywords"`
	TypicalMin float64  `json:"typical_min"`
	TypicalMax float64  `json:"typical_max"`
}

// KeywordHit records how strongly a category's keyword set matched a text.
type KeywordHit struct {
	Entry   CategoryEntry
	Matched []string
}

// Dictionary is an immutable category→keyword table constructed once at
// startup and shared by the ranker and the voice parser. Entry order matters:
// first-match category inference walks it in order.
type Dictionary struct {
	index   map[string]int
	entries []CategoryEntry
	folded  [][]string
}

// NewDictionary builds a dictionary from the given entries, folding every
// keyword once so matching never re-normalizes.
func NewDictionary(entries []CategoryEntry) *Dictionary {
	d := &Dictionary{
		entries: entries,
		folded:  make([][]string, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, entry := range entries {
		d.index[entry.Name] = i
		folded := make([]string, len(entry.Keywords))
		for j, kw := range entry.Keywords {
			folded[j] = Fold(kw)
		}
		d.folded[i] = folded
	}
	return d
}

// Entries returns the dictionary's categories in order.
func (d *Dictionary) Entries() []CategoryEntry {
	return d.entries
}

// Lookup returns the entry for a category name.
func (d *Dictionary) Lookup(category string) (CategoryEntry, bool) {
	i, ok := d.index[category]
	if !ok {
		return CategoryEntry{}, false
	}
	return d.entries[i], true
}

// Icon returns the icon class for a category, or empty if unknown.
func (d *Dictionary) Icon(category string) string {
	entry, ok := d.Lookup(category)
	if !ok {
		return ""
	}
	return entry.Icon
}

// ScanKeywords returns, for every category, the keywords found as substrings
// of the text. Matching is case- and diacritic-insensitive.
func (d *Dictionary) ScanKeywords(text string) []KeywordHit {
	folded := Fold(text)
	if strings.TrimSpace(folded) == "" {
		return nil
	}

	var hits []KeywordHit
	for i, entry := range d.entries {
		var matched []string
		for j, kw := range d.folded[i] {
			if kw != "" && strings.Contains(folded, kw) {
				matched = append(matched, entry.Keywords[j])
			}
		}
		if len(matched) > 0 {
			hits = append(hits, KeywordHit{Entry: entry, Matched: matched})
		}
	}
	return hits
}

// InferCategory returns the first category in dictionary order whose keyword
// set intersects the text.
func (d *Dictionary) InferCategory(text string) (CategoryEntry, bool) {
	folded := Fold(text)
	for i, entry := range d.entries {
		for _, kw := range d.folded[i] {
			if kw != "" && strings.Contains(folded, kw) {
				return entry, true
			}
		}
	}
	return CategoryEntry{}, false
}

// TypicalFor returns the categories whose typical amount range contains the
// given amount.
func (d *Dictionary) TypicalFor(amount float64) []CategoryEntry {
	if amount <= 0 {
		return nil
	}
	var out []CategoryEntry
	for _, entry := range d.entries {
		if entry.TypicalMax <= 0 {
			continue
		}
		if amount >= entry.TypicalMin && amount <= entry.TypicalMax {
			out = append(out, entry)
		}
	}
	return out
}

// DefaultDictionary returns the default zh-TW category dictionary.
func DefaultDictionary() *Dictionary {
	return NewDictionary([]CategoryEntry{
		{
			Name:       "餐飲",
			Icon:       "fa-utensils",
			Keywords:   []string{"早餐", "午餐", "晚餐", "宵夜", "咖啡", "飲料", "便當", "餐廳", "麥當勞", "星巴克", "手搖", "火鍋", "lunch", "dinner", "coffee", "cafe"},
			TypicalMin: 30,
			TypicalMax: 1500,
		},
		{
			Name:       "交通",
			Icon:       "fa-bus",
			Keywords:   []string{"捷運", "公車", "高鐵", "台鐵", "計程車", "加油", "停車", "uber", "油錢", "火車", "taxi", "mrt"},
			TypicalMin: 15,
			TypicalMax: 2000,
		},
		{
			Name:       "購物",
			Icon:       "fa-shopping-bag",
			Keywords:   []string{"衣服", "鞋子", "網購", "蝦皮", "momo", "淘寶", "百貨", "全聯", "家樂福", "costco", "買"},
			TypicalMin: 100,
			TypicalMax: 10000,
		},
		{
			Name:       "娛樂",
			Icon:       "fa-gamepad",
			Keywords:   []string{"電影", "遊戲", "唱歌", "ktv", "netflix", "spotify", "演唱會", "門票"},
			TypicalMin: 100,
			TypicalMax: 3000,
		},
		{
			Name:       "居家",
			Icon:       "fa-home",
			Keywords:   []string{"房租", "水費", "電費", "瓦斯", "網路費", "電話費", "管理費", "日用品"},
			TypicalMin: 200,
			TypicalMax: 30000,
		},
		{
			Name:       "醫療",
			Icon:       "fa-briefcase-medical",
			Keywords:   []string{"掛號", "看病", "藥", "診所", "醫院", "牙醫", "健檢"},
			TypicalMin: 50,
			TypicalMax: 5000,
		},
		{
			Name:       "教育",
			Icon:       "fa-book",
			Keywords:   []string{"學費", "補習", "書", "課程", "文具", "講座"},
			TypicalMin: 100,
			TypicalMax: 50000,
		},
		{
			Name:     "薪資",
			Icon:     "fa-money-bill-wave",
			Keywords: []string{"薪水", "薪資", "發薪", "月薪", "salary", "payroll"},
		},
		{
			Name:     "投資",
			Icon:     "fa-chart-line",
			Keywords: []string{"股票", "基金", "股利", "配息", "etf", "定存"},
		},
		{
			Name:     "其他",
			Icon:     "fa-ellipsis-h",
			Keywords: []string{},
		},
	})
}
