package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SentimentLabel is the stance of a tweet toward man-made climate change.
type SentimentLabel int

const (
	LabelAnti    SentimentLabel = -1
	LabelNeutral SentimentLabel = 0
	LabelPro     SentimentLabel = 1
	LabelNews    SentimentLabel = 2
)

type labelInfo struct {
	name        string
	description string
}

var labelTable = map[SentimentLabel]labelInfo{
	LabelAnti:    {"Anti", "the tweet does not believe in man-made climate change"},
	LabelNeutral: {"Neutral", "the tweet neither supports nor refutes the belief of man-made climate change"},
	LabelPro:     {"Pro", "the tweet supports the belief of man-made climate change"},
	LabelNews:    {"News", "the tweet links to factual news about climate change"},
}

// AllLabels lists the labels in code order.
func AllLabels() []SentimentLabel {
	return []SentimentLabel{LabelAnti, LabelNeutral, LabelPro, LabelNews}
}

func (l SentimentLabel) Valid() bool {
	_, ok := labelTable[l]
	return ok
}

func (l SentimentLabel) Name() string {
	if info, ok := labelTable[l]; ok {
		return info.name
	}
	return "Unknown"
}

func (l SentimentLabel) Description() string {
	if info, ok := labelTable[l]; ok {
		return info.description
	}
	return ""
}

func (l SentimentLabel) String() string {
	return fmt.Sprintf("%s(%d)", l.Name(), int(l))
}

// LabelFromCode converts a classifier output code.
func LabelFromCode(code int) (SentimentLabel, error) {
	l := SentimentLabel(code)
	if !l.Valid() {
		return 0, fmt.Errorf("unknown sentiment code %d", code)
	}
	return l, nil
}

// ParseLabel accepts a numeric code ("-1", "2") or a label name in any case
// ("pro", "NEWS"). Model outputs such as "LABEL_1" are read by their code.
func ParseLabel(s string) (SentimentLabel, error) {
	s = strings.TrimSpace(s)
	if code, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(s), "LABEL_")); err == nil {
		return LabelFromCode(code)
	}
	for _, l := range AllLabels() {
		if strings.EqualFold(s, l.Name()) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown sentiment label %q", s)
}

func (l SentimentLabel) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(l))
}

func (l *SentimentLabel) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		parsed, err := LabelFromCode(code)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("sentiment label must be a code or name: %w", err)
	}
	parsed, err := ParseLabel(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
