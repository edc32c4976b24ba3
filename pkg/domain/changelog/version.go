package changelog

import (
	"cmp"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions compares two tags as versions and returns -1, 0 or +1.
// Tags that both parse as semantic versions are compared by semver precedence.
// Anything else falls back to a numeric-aware comparison of the tags' dotted
// components, where pre-release words (dev, alpha, beta, rc) sort before a
// plain number and "pl"/"p" sorts after it.
func CompareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return compareTokens(versionTokens(a), versionTokens(b))
}

type versionToken struct {
	rank   int
	digits string // set when rank == rankNumber
	word   string
}

const (
	rankUnknown = iota
	rankDev
	rankAlpha
	rankBeta
	rankRC
	rankNumber
	rankPatch
)

var wordRanks = map[string]int{
	"dev":   rankDev,
	"alpha": rankAlpha,
	"a":     rankAlpha,
	"beta":  rankBeta,
	"b":     rankBeta,
	"rc":    rankRC,
	"pl":    rankPatch,
	"p":     rankPatch,
}

func versionTokens(tag string) []versionToken {
	s := strings.ToLower(tag)
	if len(s) > 1 && s[0] == 'v' && unicode.IsDigit(rune(s[1])) {
		s = s[1:]
	}

	var tokens []versionToken
	var cur strings.Builder
	curDigit := false

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		text := cur.String()
		cur.Reset()
		if curDigit {
			text = strings.TrimLeft(text, "0")
			tokens = append(tokens, versionToken{rank: rankNumber, digits: text})
			return
		}
		tokens = append(tokens, versionToken{rank: wordRanks[text], word: text})
	}

	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			if !curDigit {
				flush()
			}
			curDigit = true
			cur.WriteRune(r)
		case unicode.IsLetter(r):
			if curDigit {
				flush()
			}
			curDigit = false
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// absentToken stands in for a missing component: below any number, above any
// pre-release word
var absentToken = versionToken{rank: rankNumber, digits: "-"}

func compareTokens(a, b []versionToken) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		ta, tb := absentToken, absentToken
		if i < len(a) {
			ta = a[i]
		}
		if i < len(b) {
			tb = b[i]
		}
		if c := compareToken(ta, tb); c != 0 {
			return c
		}
	}
	return 0
}

func compareToken(a, b versionToken) int {
	if a.rank != b.rank {
		return cmp.Compare(a.rank, b.rank)
	}

	switch a.rank {
	case rankNumber:
		return compareDigits(a.digits, b.digits)
	case rankUnknown:
		return strings.Compare(a.word, b.word)
	}
	return 0
}

// compareDigits compares decimal strings without leading zeros. "-" is the
// absent marker and sorts first.
func compareDigits(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "-":
		return -1
	case b == "-":
		return 1
	case len(a) != len(b):
		return cmp.Compare(len(a), len(b))
	}
	return strings.Compare(a, b)
}
