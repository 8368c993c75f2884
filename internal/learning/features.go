package learning

import (
	"unicode"

	"github.com/yhlin/ledgersense/internal/rules"
)

// Amount buckets for the training feature snapshot.
const (
	bucketNone   = "none"
	bucketSmall  = "<100"
	bucketMedium = "100-500"
	bucketLarge  = "500-2000"
	bucketHuge   = ">2000"
)

// amountBucket maps an amount to its coarse feature bucket.
func amountBucket(amount float64) string {
	switch {
	case amount <= 0:
		return bucketNone
	case amount < 100:
		return bucketSmall
	case amount < 500:
		return bucketMedium
	case amount < 2000:
		return bucketLarge
	default:
		return bucketHuge
	}
}

// tokenize extracts candidate keywords from a description: latin words of at
// least three characters plus CJK bigrams. CJK text has no word boundaries,
// so bigrams stand in for segmentation.
func tokenize(text string) []string {
	folded := rules.Fold(text)

	seen := make(map[string]bool)
	var tokens []string
	add := func(tok string) {
		if !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}

	var latin []rune
	var cjk []rune
	flushLatin := func() {
		if len(latin) >= 3 {
			add(string(latin))
		}
		latin = latin[:0]
	}
	flushCJK := func() {
		for i := 0; i+1 < len(cjk); i++ {
			add(string(cjk[i : i+2]))
		}
		cjk = cjk[:0]
	}

	for _, r := range folded {
		switch {
		case unicode.Is(unicode.Han, r):
			flushLatin()
			cjk = append(cjk, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushCJK()
			latin = append(latin, r)
		default:
			flushLatin()
			flushCJK()
		}
	}
	flushLatin()
	flushCJK()

	return tokens
}
