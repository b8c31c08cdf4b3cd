package preprocessing

import "strings"

// POS is a WordNet part-of-speech class.
type POS byte

const (
	Noun      POS = 'n'
	Verb      POS = 'v'
	Adjective POS = 'a'
	Adverb    POS = 'r'
)

func (p POS) String() string {
	return string(p)
}

// POSFromPennTag maps a Penn Treebank tag onto the WordNet class used for
// lemmatization. Tags outside the four open classes report false.
func POSFromPennTag(tag string) (POS, bool) {
	switch {
	case strings.HasPrefix(tag, "NN"):
		return Noun, true
	case strings.HasPrefix(tag, "VB"):
		return Verb, true
	case strings.HasPrefix(tag, "JJ"):
		return Adjective, true
	case strings.HasPrefix(tag, "RB"):
		return Adverb, true
	default:
		return 0, false
	}
}
