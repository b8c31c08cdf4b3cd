package preprocessing

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

// Dictionary knows the headwords of a language and their inflections.
type Dictionary interface {
	// Bases lists the headwords whose inflections include form.
	Bases(form string) []string
	// Headword reports whether word is a headword usable as pos.
	Headword(word string, pos POS) bool
	// IsHeadword reports whether word is a headword of any class.
	IsHeadword(word string) bool
}

type posSet uint8

const (
	nounClass posSet = 1 << iota
	verbClass
	adjectiveClass
)

func classOf(pos POS) posSet {
	switch pos {
	case Verb:
		return verbClass
	case Adjective, Adverb:
		return adjectiveClass
	default:
		return nounClass
	}
}

// Lexicon is a Dictionary read from a golem language pack: one line per
// headword, tab separated, headword first and its inflections after.
// Parts of speech are inferred from the inflections a headword takes.
type Lexicon struct {
	bases   map[string][]string
	forms   map[string][]string
	classes map[string]posSet
}

// LoadLexicon reads the resource of a golem language pack.
func LoadLexicon(pack golem.LanguagePack) (*Lexicon, error) {
	resource, err := pack.GetResource()
	if err != nil {
		return nil, fmt.Errorf("read %s lemma pack: %w", pack.GetLocale(), err)
	}
	return ParseLexicon(bytes.NewReader(resource))
}

func ParseLexicon(r io.Reader) (*Lexicon, error) {
	lex := &Lexicon{
		bases: make(map[string][]string),
		forms: make(map[string][]string),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words := strings.Split(line, "\t")
		base := words[0]
		if _, ok := lex.forms[base]; !ok {
			lex.forms[base] = nil
		}
		for _, form := range words[1:] {
			if form == "" || form == base {
				continue
			}
			lex.forms[base] = append(lex.forms[base], form)
			if !contains(lex.bases[form], base) {
				lex.bases[form] = append(lex.bases[form], base)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse lemma pack: %w", err)
	}

	lex.classes = make(map[string]posSet, len(lex.forms))
	for base, forms := range lex.forms {
		lex.classes[base] = inferClasses(forms)
	}
	return lex, nil
}

// inferClasses treats -ing/-ed inflections as verb evidence and -er/-est as
// adjective evidence. Headwords with neither are nouns.
func inferClasses(forms []string) posSet {
	var set posSet
	for _, f := range forms {
		if strings.HasSuffix(f, "ing") || strings.HasSuffix(f, "ed") {
			set |= verbClass
		}
		if strings.HasSuffix(f, "er") || strings.HasSuffix(f, "est") {
			set |= adjectiveClass
		}
	}
	if set == 0 {
		set = nounClass
	}
	return set
}

func (l *Lexicon) Bases(form string) []string {
	return l.bases[form]
}

func (l *Lexicon) Headword(word string, pos POS) bool {
	set, ok := l.classes[word]
	return ok && set&classOf(pos) != 0
}

func (l *Lexicon) IsHeadword(word string) bool {
	_, ok := l.classes[word]
	return ok
}

type detachment struct {
	suffix      string
	replacement string
}

// Detachment rules per part of speech, as used by WordNet's morphy.
var detachmentRules = map[POS][]detachment{
	Noun: {
		{"s", ""}, {"ses", "s"}, {"ves", "f"}, {"xes", "x"}, {"zes", "z"},
		{"ches", "ch"}, {"shes", "sh"}, {"men", "man"}, {"ies", "y"},
	},
	Verb: {
		{"s", ""}, {"ies", "y"}, {"es", "e"}, {"es", ""},
		{"ed", "e"}, {"ed", ""}, {"ing", "e"}, {"ing", ""},
	},
	Adjective: {
		{"er", ""}, {"est", ""}, {"er", "e"}, {"est", "e"},
	},
	Adverb: {},
}

// RuleLemmatizer resolves a token the way WordNet's morphy does: irregular
// forms first, then the token itself when it is a headword, then the
// detachment rules for the requested part of speech. Candidates must be
// headwords of a matching class.
type RuleLemmatizer struct {
	dict Dictionary
}

func NewRuleLemmatizer(dict Dictionary) *RuleLemmatizer {
	return &RuleLemmatizer{dict: dict}
}

// NewEnglishLemmatizer loads the embedded golem English pack.
func NewEnglishLemmatizer() (*RuleLemmatizer, error) {
	lex, err := LoadLexicon(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemma dictionary: %w", err)
	}
	return NewRuleLemmatizer(lex), nil
}

func (l *RuleLemmatizer) Lemmatize(token string, pos POS) string {
	if token == "" {
		return token
	}

	own := candidates(token, pos)
	bases := l.dict.Bases(token)
	if len(bases) == 0 {
		if l.dict.IsHeadword(token) {
			return token
		}
		var found []string
		for _, cand := range own {
			if l.dict.Headword(cand, pos) {
				found = append(found, cand)
			}
		}
		return shortestOr(found, token)
	}

	regular := make(map[string]bool)
	for _, p := range []POS{Noun, Verb, Adjective} {
		for _, cand := range candidates(token, p) {
			regular[cand] = true
		}
	}

	var matching, irregular, derived []string
	for _, base := range bases {
		if !l.dict.Headword(base, pos) {
			continue
		}
		matching = append(matching, base)
		if !regular[base] {
			irregular = append(irregular, base)
		}
		if contains(own, base) {
			derived = append(derived, base)
		}
	}

	switch {
	case len(irregular) > 0:
		return shortestOr(irregular, token)
	case l.dict.Headword(token, pos):
		return token
	case len(derived) > 0:
		return shortestOr(derived, token)
	case len(matching) > 0:
		return shortestOr(matching, token)
	case l.dict.IsHeadword(token):
		return token
	}

	// No base matches pos; the tag is likely wrong, so fall back to any base.
	var anyIrregular []string
	for _, base := range bases {
		if !regular[base] {
			anyIrregular = append(anyIrregular, base)
		}
	}
	if len(anyIrregular) > 0 {
		return shortestOr(anyIrregular, token)
	}
	return shortestOr(bases, token)
}

func candidates(token string, pos POS) []string {
	var out []string
	for _, rule := range detachmentRules[pos] {
		if !strings.HasSuffix(token, rule.suffix) {
			continue
		}
		stem := strings.TrimSuffix(token, rule.suffix)
		if stem == "" {
			continue
		}
		out = append(out, stem+rule.replacement)
	}
	return out
}

// shortestOr returns the shortest word, alphabetical on ties, or fallback
// when words is empty.
func shortestOr(words []string, fallback string) string {
	if len(words) == 0 {
		return fallback
	}
	sorted := append([]string(nil), words...)
	sort.Strings(sorted)
	best := sorted[0]
	for _, w := range sorted[1:] {
		if len(w) < len(best) {
			best = w
		}
	}
	return best
}

func contains(words []string, word string) bool {
	for _, w := range words {
		if w == word {
			return true
		}
	}
	return false
}
