// Package quantity parses free-text ingredient amounts such as "1/2개",
// "2큰술" or "조금" into a magnitude and a coarse unit class.
package quantity

import (
	"regexp"
	"strconv"
	"strings"
)

// UnitClass is a coarse bucket for a unit token.
type UnitClass int

const (
	Unknown UnitClass = iota
	Count
	WeightVolume
	Abstract
)

// String returns a human-readable unit class.
func (c UnitClass) String() string {
	switch c {
	case Count:
		return "count"
	case WeightVolume:
		return "weight_volume"
	case Abstract:
		return "abstract"
	default:
		return "unknown"
	}
}

// Longer tokens come first so that alternation never stops at a prefix.
var (
	countUnits        = []string{"봉지", "송이", "공기", "개", "알", "장"}
	weightVolumeUnits = []string{"작은술", "숟가락", "큰술", "스푼", "kg", "ml", "컵", "g", "l", "t"}
	abstractUnits     = []string{"적당량", "약간", "조금", "줌"}
)

// Native Korean number words that stand in for a digit before a unit.
var (
	nativeWords   = []string{"한", "두", "세", "네", "반"}
	nativeNumbers = map[string]float64{"한": 1, "두": 2, "세": 3, "네": 4, "반": 0.5}
)

var unitClasses = func() map[string]UnitClass {
	m := make(map[string]UnitClass)
	for _, u := range countUnits {
		m[u] = Count
	}
	for _, u := range weightVolumeUnits {
		m[u] = WeightVolume
	}
	for _, u := range abstractUnits {
		m[u] = Abstract
	}
	return m
}()

// Classify maps a unit token to its class. Lookup is case-insensitive;
// unrecognised tokens are Unknown.
func Classify(token string) UnitClass {
	if c, ok := unitClasses[strings.ToLower(strings.TrimSpace(token))]; ok {
		return c
	}
	return Unknown
}

const number = `\d+(?:\.\d+)?`

var expr = func() *regexp.Regexp {
	quote := func(groups ...[]string) string {
		var out []string
		for _, g := range groups {
			for _, u := range g {
				out = append(out, regexp.QuoteMeta(u))
			}
		}
		return strings.Join(out, "|")
	}
	unit := quote(abstractUnits, countUnits, weightVolumeUnits)
	amount := `(` + number + `(?:\s*[/~-]\s*` + number + `)?)\s*(` + unit + `|\pL+)?`
	native := `(` + quote(nativeWords) + `)\s*(` + unit + `)`

	// Alternatives, in order of preference:
	//   "2큰술"          amount and unit
	//   "조금"           a bare unit
	//   "한줌"           a native number word and unit
	//   "당근 1/2개"     name then amount, an abstract word ("소금 약간")
	//                    or a native number word ("시금치 한줌")
	// The name is matched lazily so that "고추장 1큰술" keeps "고추장" whole,
	// and names ending in a count word ("간장") are never split. A native
	// number word only splits off after a space, so "두반장" stays whole.
	return regexp.MustCompile(`(?i)^\s*(?:` +
		amount +
		`|(` + unit + `)` +
		`|` + native +
		`|(\pL[\pL\s]*?)(?:\s*(?:` + amount + `|(` + quote(abstractUnits) + `))|\s+` + native + `)?` +
		`)\s*$`)
}()

// Quantity is the normalised reading of a quantity expression.
type Quantity struct {
	// Name is the leading ingredient-name run, if the text carried one.
	Name         string
	Magnitude    float64
	HasMagnitude bool
	UnitToken    string
	Class        UnitClass
}

// Parse reads text such as "당근 1/2개", "2큰술", "1~2개" or "조금".
//
// Fractions resolve to a/b and ranges (a~b, a-b) to their midpoint. Exactly
// one of HasMagnitude and Class == Abstract holds on success: an abstract
// word or a name with no amount yields no magnitude, and an unrecognised
// unit after a number counts as Count. ok is false when the text cannot be
// read at all.
func Parse(text string) (q Quantity, ok bool) {
	m := expr.FindStringSubmatch(text)
	if m == nil {
		return Quantity{}, false
	}

	num, unit, word := m[1], m[2], ""
	switch {
	case m[3] != "":
		q.UnitToken = m[3]
		q.Class = Classify(m[3])
		if q.Class != Abstract {
			// "개" on its own reads as one of them.
			q.Magnitude, q.HasMagnitude = 1, true
		}
		return q, true
	case m[4] != "":
		word, unit = m[4], m[5]
	case m[6] != "":
		q.Name = strings.TrimSpace(m[6])
		num, unit = m[7], m[8]
		if m[9] != "" {
			q.UnitToken = m[9]
		}
		if m[10] != "" {
			word, unit = m[10], m[11]
		}
	}

	var v float64
	switch {
	case word != "":
		v = nativeNumbers[word]
	case num != "":
		if v, ok = resolve(num); !ok {
			return Quantity{}, false
		}
	default:
		if q.Name == "" && q.UnitToken == "" {
			return Quantity{}, false
		}
		q.Class = Abstract
		return q, true
	}

	q.Magnitude, q.HasMagnitude = v, true
	q.UnitToken = unit
	q.Class = Classify(unit)
	if q.Class == Unknown || q.Class == Abstract {
		// "2쪽" or "한줌": a number of some countable thing.
		q.Class = Count
	}
	return q, true
}

// resolve turns "1", "0.5", "1/2", "1~2" or "1-2" into a number.
func resolve(s string) (float64, bool) {
	s = strings.Join(strings.Fields(s), "")
	for _, sep := range []string{"/", "~", "-"} {
		a, b, found := strings.Cut(s, sep)
		if !found {
			continue
		}
		x, err1 := strconv.ParseFloat(a, 64)
		y, err2 := strconv.ParseFloat(b, 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		if sep == "/" {
			if y == 0 {
				return 0, false
			}
			return x / y, true
		}
		return (x + y) / 2, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
