package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTitle is the placeholder used when no better title can be derived.
const DefaultTitle = "New chat"

const (
	defaultTitleMaxLen = 60
	keywordTitleWords  = 6
)

// titler turns model suggestions or raw prompts into stored chat titles.
type titler struct {
	maxLen int
	locale language.Tag
}

// choose picks the first usable candidate: the model suggestion, then a
// keyword title from the prompt, then DefaultTitle. The result is clipped.
func (t titler) choose(suggested, prompt string) string {
	title := normalizeTitle(suggested)
	if title == "" {
		title = t.fromPrompt(prompt)
	}
	if title == "" {
		title = DefaultTitle
	}
	return t.clip(title)
}

// fromPrompt derives a concise title from the prompt by dropping stop
// words and title-casing the rest.
func (t titler) fromPrompt(prompt string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(strings.TrimSpace(prompt)), -1)
	if len(toks) == 0 {
		return ""
	}

	loc := t.locale
	if loc == language.Und {
		loc = language.English
	}
	caser := cases.Title(loc)

	out := make([]string, 0, keywordTitleWords)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, caser.String(w))
		if len(out) >= keywordTitleWords {
			break
		}
	}
	return strings.Join(out, " ")
}

func (t titler) clip(title string) string {
	max := t.maxLen
	if max <= 0 {
		max = defaultTitleMaxLen
	}
	if utf8.RuneCountInString(title) > max {
		return strings.TrimSpace(string([]rune(title)[:max]))
	}
	return title
}

// normalizeTitle trims whitespace and collapses runs of whitespace to one space.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

var (
	whitespaceRE = regexp.MustCompile(`\s+`)

	// Unicode letters with optional trailing digits (e.g., "psalm23").
	titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)
)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
	"i": {}, "me": {}, "my": {}, "what": {}, "how": {}, "do": {}, "does": {}, "can": {},
}
