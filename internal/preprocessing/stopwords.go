package preprocessing

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// englishStopwords is the standard NLTK English list.
var englishStopwords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "you're",
	"you've", "you'll", "you'd", "your", "yours", "yourself", "yourselves", "he",
	"him", "his", "himself", "she", "she's", "her", "hers", "herself", "it", "it's",
	"its", "itself", "they", "them", "their", "theirs", "themselves", "what",
	"which", "who", "whom", "this", "that", "that'll", "these", "those", "am", "is",
	"are", "was", "were", "be", "been", "being", "have", "has", "had", "having",
	"do", "does", "did", "doing", "a", "an", "the", "and", "but", "if", "or",
	"because", "as", "until", "while", "of", "at", "by", "for", "with", "about",
	"against", "between", "into", "through", "during", "before", "after", "above",
	"below", "to", "from", "up", "down", "in", "out", "on", "off", "over", "under",
	"again", "further", "then", "once", "here", "there", "when", "where", "why",
	"how", "all", "any", "both", "each", "few", "more", "most", "other", "some",
	"such", "no", "nor", "not", "only", "own", "same", "so", "than", "too", "very",
	"s", "t", "can", "will", "just", "don", "don't", "should", "should've", "now",
	"d", "ll", "m", "o", "re", "ve", "y", "ain", "aren", "aren't", "couldn",
	"couldn't", "didn", "didn't", "doesn", "doesn't", "hadn", "hadn't", "hasn",
	"hasn't", "haven", "haven't", "isn", "isn't", "ma", "mightn", "mightn't",
	"mustn", "mustn't", "needn", "needn't", "shan", "shan't", "shouldn",
	"shouldn't", "wasn", "wasn't", "weren", "weren't", "won", "won't", "wouldn",
	"wouldn't",
}

// StopwordFilter drops stopwords and purely numeric tokens.
type StopwordFilter struct {
	words map[string]struct{}
}

func NewStopwordFilter(words []string) *StopwordFilter {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return &StopwordFilter{words: set}
}

func NewEnglishStopwordFilter() *StopwordFilter {
	return NewStopwordFilter(englishStopwords)
}

// LoadStopwordFilter reads one word per line; blank lines and lines starting
// with '#' are ignored.
func LoadStopwordFilter(path string) (*StopwordFilter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stopword list: %w", err)
	}
	defer f.Close()

	words, err := readWordList(f)
	if err != nil {
		return nil, fmt.Errorf("read stopword list %s: %w", path, err)
	}
	return NewStopwordFilter(words), nil
}

func readWordList(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}

func (f *StopwordFilter) Contains(word string) bool {
	_, ok := f.words[word]
	return ok
}

func (f *StopwordFilter) Len() int {
	return len(f.words)
}

func (f *StopwordFilter) Filter(text string) string {
	fields := strings.Fields(text)
	kept := make([]string, 0, len(fields))
	for _, tok := range fields {
		if f.Contains(tok) || isNumeric(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func isNumeric(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return tok != ""
}
