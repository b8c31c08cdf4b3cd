package preprocessing

import (
	"regexp"
	"strings"
)

// Tagger assigns a Penn Treebank part-of-speech tag to every token.
type Tagger interface {
	Tag(tokens []string) []TaggedToken
}

// Lemmatizer reduces a token to its base form for the given part of speech.
type Lemmatizer interface {
	Lemmatize(token string, pos POS) string
}

// TokenFilter removes unwanted tokens (stopwords, numbers) from whitespace separated text.
type TokenFilter interface {
	Filter(text string) string
}

// Folder transliterates text to plain ASCII.
type Folder interface {
	Fold(text string) string
}

type TaggedToken struct {
	Text string
	Tag  string
}

var (
	mentionPattern  = regexp.MustCompile(`@\S+`)
	shortURLPattern = regexp.MustCompile(`https?://\S+|www\.\S+|\bt\.co/\S+|\bbit\.ly/\S+`)
	nonLetterRunes  = regexp.MustCompile(`[^a-z']`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

const retweetMarker = "rt "

type Options struct {
	// DropShortTokens removes single letter tokens in the length filter step.
	// Disabled by default so output matches the vectorizers fitted on the
	// historical pipeline, where the filter never matched.
	DropShortTokens bool
}

// Normalizer turns a raw tweet into the token string the fitted vectorizers
// expect. It holds only read-only collaborators and is safe for concurrent use.
type Normalizer struct {
	tagger     Tagger
	lemmatizer Lemmatizer
	filter     TokenFilter
	folder     Folder
	opts       Options
}

func NewNormalizer(tagger Tagger, lemmatizer Lemmatizer, filter TokenFilter, folder Folder, opts Options) *Normalizer {
	return &Normalizer{
		tagger:     tagger,
		lemmatizer: lemmatizer,
		filter:     filter,
		folder:     folder,
		opts:       opts,
	}
}

// Normalize never fails; text without letters yields an empty string.
func (n *Normalizer) Normalize(raw string) string {
	text := strings.ToLower(raw)
	text = mentionPattern.ReplaceAllString(text, "")
	text = stripLinksAndRetweet(text)
	text = strings.ToLower(n.folder.Fold(text))
	text = nonLetterRunes.ReplaceAllString(text, " ")
	text = n.filterShortTokens(text + " ")
	text = strings.ReplaceAll(text, "'", "")
	text = strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
	text = n.filter.Filter(text)

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return ""
	}

	tagged := n.tagger.Tag(tokens)
	out := make([]string, 0, len(tagged))
	for _, tok := range tagged {
		out = append(out, n.lemmatize(tok))
	}
	return strings.Join(out, " ")
}

// Tokens is Normalize split on whitespace.
func (n *Normalizer) Tokens(raw string) []string {
	return strings.Fields(n.Normalize(raw))
}

func (n *Normalizer) lemmatize(tok TaggedToken) string {
	if strings.HasPrefix(tok.Text, "@") {
		return tok.Text
	}
	pos, ok := POSFromPennTag(tok.Tag)
	if !ok {
		return tok.Text
	}
	return n.lemmatizer.Lemmatize(tok.Text, pos)
}

func (n *Normalizer) filterShortTokens(text string) string {
	if !n.opts.DropShortTokens {
		return text
	}
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ") + " "
}

func stripLinksAndRetweet(text string) string {
	text = strings.TrimSpace(shortURLPattern.ReplaceAllString(text, ""))
	text = strings.TrimPrefix(text, retweetMarker)
	return strings.TrimSpace(text)
}
