// Package merchant turns raw statement descriptions into short, human-readable
// merchant names.
package merchant

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dvloznov/spendscan/internal/rules"
)

const (
	maxNameLen = 30
	minNameLen = 3
	unknown    = "Unknown"
)

var (
	tollFreeRe  = regexp.MustCompile(`\b1[-.\s]?8(?:00|33|44|55|66|77|88)[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	phoneRe     = regexp.MustCompile(`\(?\b\d{3}\)?[-.\s]?\d{3}[-.\s]\d{4}\b`)
	cardRe      = regexp.MustCompile(`(?i)\bCARD\s*(?:ENDING\s*(?:IN\s*)?)?[X*#]*\d{4}\b`)
	maskedRe    = regexp.MustCompile(`(?i)[X*]{4,}\d{4}\b`)
	dateRe      = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
	digitRunRe  = regexp.MustCompile(`\b[A-Za-z]?\d{6,}[A-Za-z0-9]*\b`)
	urlRe       = regexp.MustCompile(`(?i)\bhttps?://\S+`)
	wwwRe       = regexp.MustCompile(`(?i)\bwww\.`)
	domainRe    = regexp.MustCompile(`(?i)\.(?:com|net|org|io|co|tv|us|app)\b(?:/\S*)?`)
	zipRe       = regexp.MustCompile(`\s+\d{5}(?:-\d{4})?$`)
	storeNumRe  = regexp.MustCompile(`\s+#?\d{3,5}$`)
	stateRe     = regexp.MustCompile(`\s+([A-Za-z]{2})$`)
	punctRe     = regexp.MustCompile(`[^\p{L}\p{N}&'+\-.\s]`)
	spaceRe     = regexp.MustCompile(`\s+`)
	usStateCode = map[string]struct{}{}
)

func init() {
	for _, code := range strings.Fields(`AL AK AZ AR CA CO CT DE DC FL GA HI ID IL IN IA KS KY LA ME MD MA MI MN
		MS MO MT NE NV NH NJ NM NY NC ND OH OK OR PA RI SC SD TN TX UT VT VA WA WV WI WY`) {
		usStateCode[code] = struct{}{}
	}
}

// Normalizer cleans merchant descriptions. It is safe for concurrent use.
type Normalizer struct {
	prefixes      []*regexp.Regexp
	adminRe       *regexp.Regexp
	cities        []string
	stopWords     map[string]struct{}
	abbreviations []rules.Abbreviation
}

// New compiles a Normalizer from a rule set.
func New(set *rules.Set) (*Normalizer, error) {
	n := &Normalizer{stopWords: make(map[string]struct{}, len(set.StopWords))}

	for _, p := range set.Prefixes {
		expr := `(?i)^\s*(?:` + p + `)`
		if r, _ := utf8.DecodeLastRuneInString(p); unicode.IsLetter(r) {
			expr += `\b`
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("New: compiling prefix %q: %w", p, err)
		}
		n.prefixes = append(n.prefixes, re)
	}

	if len(set.AdminWords) > 0 {
		words := make([]string, len(set.AdminWords))
		for i, w := range set.AdminWords {
			words[i] = regexp.QuoteMeta(w)
		}
		re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b\.?`)
		if err != nil {
			return nil, fmt.Errorf("New: compiling admin words: %w", err)
		}
		n.adminRe = re
	}

	for _, c := range set.Cities {
		n.cities = append(n.cities, strings.ToUpper(strings.TrimSpace(c)))
	}
	for _, w := range set.StopWords {
		n.stopWords[strings.ToLower(w)] = struct{}{}
	}
	for _, ab := range set.Abbreviations {
		n.abbreviations = append(n.abbreviations, rules.Abbreviation{
			Prefix: strings.ToUpper(ab.Prefix),
			Name:   ab.Name,
		})
	}
	return n, nil
}

// Default returns a Normalizer built from the built-in rule tables.
func Default() *Normalizer {
	n, err := New(rules.Default())
	if err != nil {
		panic(err)
	}
	return n
}

// Clean maps a raw description to a display merchant name. It never returns
// an empty string.
func (n *Normalizer) Clean(description string) string {
	text := n.stripPrefixes(description)
	text = n.stripReferences(text)
	text = n.stripAdministrative(text)

	name, canonical := n.expandAbbreviation(text)
	if !canonical {
		name = n.titleCase(name)
	}
	name = dedupeWords(name)
	name = truncate(name, maxNameLen)

	if utf8.RuneCountInString(name) < minNameLen {
		return fallback(description)
	}
	return name
}

func (n *Normalizer) stripPrefixes(s string) string {
	for changed := true; changed; {
		changed = false
		for _, re := range n.prefixes {
			if loc := re.FindStringIndex(s); loc != nil && loc[1] > 0 {
				s = strings.TrimSpace(s[loc[1]:])
				changed = true
			}
		}
	}
	return s
}

func (n *Normalizer) stripReferences(s string) string {
	s = urlRe.ReplaceAllString(s, " ")
	s = wwwRe.ReplaceAllString(s, "")
	s = domainRe.ReplaceAllString(s, " ")
	s = tollFreeRe.ReplaceAllString(s, " ")
	s = phoneRe.ReplaceAllString(s, " ")
	s = cardRe.ReplaceAllString(s, " ")
	s = maskedRe.ReplaceAllString(s, " ")
	s = dateRe.ReplaceAllString(s, " ")
	s = digitRunRe.ReplaceAllString(s, " ")
	s = collapse(s)

	// Trailing location tokens come in any order ("AUSTIN TX 78701").
	for {
		next := n.stripTrailingLocation(s)
		if next == s {
			return s
		}
		s = next
	}
}

func (n *Normalizer) stripTrailingLocation(s string) string {
	if loc := zipRe.FindStringIndex(s); loc != nil && loc[0] > 0 {
		return strings.TrimSpace(s[:loc[0]])
	}
	if loc := storeNumRe.FindStringIndex(s); loc != nil && loc[0] > 0 {
		return strings.TrimSpace(s[:loc[0]])
	}
	if m := stateRe.FindStringSubmatchIndex(s); m != nil && m[0] > 0 {
		if _, ok := usStateCode[strings.ToUpper(s[m[2]:m[3]])]; ok {
			return strings.TrimSpace(s[:m[0]])
		}
	}
	upper := strings.ToUpper(s)
	if len(upper) != len(s) {
		return s
	}
	for _, city := range n.cities {
		if city != "" && strings.HasSuffix(upper, " "+city) {
			return strings.TrimSpace(s[:len(s)-len(city)])
		}
	}
	return s
}

func (n *Normalizer) stripAdministrative(s string) string {
	// Everything after a '*' or '#' is a processor reference.
	if i := strings.IndexAny(s, "*#"); i >= 0 {
		head := strings.TrimSpace(s[:i])
		if len(head) >= 2 {
			s = head
		} else {
			s = s[:i] + " " + s[i+1:]
		}
	}
	if n.adminRe != nil {
		s = n.adminRe.ReplaceAllString(s, " ")
	}
	s = punctRe.ReplaceAllString(s, " ")

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "-.'")
		if f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

func (n *Normalizer) expandAbbreviation(s string) (string, bool) {
	upper := strings.ToUpper(s)
	for _, ab := range n.abbreviations {
		if !strings.HasPrefix(upper, ab.Prefix) {
			continue
		}
		rest := upper[len(ab.Prefix):]
		if r, _ := utf8.DecodeRuneInString(rest); rest == "" || !unicode.IsLetter(r) {
			return ab.Name, true
		}
	}
	return s, false
}

func (n *Normalizer) titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		if _, stop := n.stopWords[lower]; stop && i > 0 {
			words[i] = lower
			continue
		}
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		r, size := utf8.DecodeRuneInString(lower)
		words[i] = string(unicode.ToUpper(r)) + lower[size:]
	}
	return strings.Join(words, " ")
}

func dedupeWords(s string) string {
	words := strings.Fields(s)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(out) > 0 && strings.EqualFold(out[len(out)-1], w) {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

func fallback(description string) string {
	runes := []rune(strings.TrimSpace(description))
	if len(runes) > maxNameLen {
		runes = runes[:maxNameLen]
	}
	if out := strings.TrimSpace(string(runes)); out != "" {
		return out
	}
	return unknown
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
