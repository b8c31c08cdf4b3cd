package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

var requiredColumns = []string{"sentiment", "message", "tweetid"}

// Dataset is the labelled training data, held in file order.
type Dataset struct {
	records []models.TweetRecord
	skipped int
}

type LabelCount struct {
	Label models.SentimentLabel
	Count int
}

type WordCount struct {
	Word  string
	Count int
}

// Bucket counts messages whose length in characters lies in [Min, Max].
type Bucket struct {
	Min   int
	Max   int
	Count int
}

func New(records []models.TweetRecord) *Dataset {
	return &Dataset{records: records}
}

func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	slog.Info("[Dataset] Loaded training data",
		slog.String("path", path),
		slog.Int("rows", d.Len()),
		slog.Int("skipped", d.skipped))
	return d, nil
}

// Read parses CSV with a sentiment,message,tweetid header in any column
// order. Rows whose sentiment is not a known code are skipped and counted.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	idx := make([]int, len(requiredColumns))
	for i, name := range requiredColumns {
		col, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		idx[i] = col
	}

	d := &Dataset{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		record, ok := parseRow(row, idx)
		if !ok {
			d.skipped++
			continue
		}
		d.records = append(d.records, record)
	}
	return d, nil
}

func parseRow(row []string, idx []int) (models.TweetRecord, bool) {
	for _, i := range idx {
		if i >= len(row) {
			return models.TweetRecord{}, false
		}
	}
	code, err := strconv.Atoi(strings.TrimSpace(row[idx[0]]))
	if err != nil {
		return models.TweetRecord{}, false
	}
	label, err := models.LabelFromCode(code)
	if err != nil {
		return models.TweetRecord{}, false
	}
	return models.TweetRecord{
		Sentiment: label,
		Message:   row[idx[1]],
		TweetID:   strings.TrimSpace(row[idx[2]]),
	}, true
}

func (d *Dataset) Len() int {
	return len(d.records)
}

func (d *Dataset) Skipped() int {
	return d.skipped
}

// Count returns the number of records matching label, or all records when
// label is nil.
func (d *Dataset) Count(label *models.SentimentLabel) int {
	if label == nil {
		return len(d.records)
	}
	n := 0
	for _, r := range d.records {
		if r.Sentiment == *label {
			n++
		}
	}
	return n
}

// Page returns up to limit records starting at offset among those matching
// label (all records when label is nil), plus the number of matches.
func (d *Dataset) Page(label *models.SentimentLabel, offset, limit int) ([]models.TweetRecord, int) {
	if offset < 0 {
		offset = 0
	}
	var page []models.TweetRecord
	total := 0
	for _, r := range d.records {
		if label != nil && r.Sentiment != *label {
			continue
		}
		if total >= offset && (limit <= 0 || len(page) < limit) {
			page = append(page, r)
		}
		total++
	}
	return page, total
}

// LabelCounts reports every label in code order, including empty ones.
func (d *Dataset) LabelCounts() []LabelCount {
	counts := make(map[models.SentimentLabel]int)
	for _, r := range d.records {
		counts[r.Sentiment]++
	}
	labels := models.AllLabels()
	out := make([]LabelCount, 0, len(labels))
	for _, l := range labels {
		out = append(out, LabelCount{Label: l, Count: counts[l]})
	}
	return out
}

// TopWords returns the n most frequent tokens of the messages matching label
// after normalize, ties broken alphabetically. A nil normalize lowercases and
// splits on whitespace.
func (d *Dataset) TopWords(label *models.SentimentLabel, n int, normalize func(string) string) []WordCount {
	if normalize == nil {
		normalize = strings.ToLower
	}

	counts := make(map[string]int)
	for _, r := range d.records {
		if label != nil && r.Sentiment != *label {
			continue
		}
		for _, tok := range strings.Fields(normalize(r.Message)) {
			counts[tok]++
		}
	}

	words := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		words = append(words, WordCount{Word: w, Count: c})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})
	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return words
}

// LengthBuckets histograms message lengths into buckets of width characters,
// from zero up to the longest message.
func (d *Dataset) LengthBuckets(width int) []Bucket {
	if width <= 0 || len(d.records) == 0 {
		return nil
	}

	counts := make(map[int]int)
	maxBucket := 0
	for _, r := range d.records {
		b := utf8.RuneCountInString(r.Message) / width
		counts[b]++
		if b > maxBucket {
			maxBucket = b
		}
	}

	out := make([]Bucket, 0, maxBucket+1)
	for b := 0; b <= maxBucket; b++ {
		out = append(out, Bucket{Min: b * width, Max: (b+1)*width - 1, Count: counts[b]})
	}
	return out
}
