package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

const sample = `sentiment,message,tweetid
1,"Climate change is real, act now",1001
2,"RT @news: New climate report https://t.co/abc",1002
-1,Climate change is a hoax,1003
0,What is the weather like,1004
1,Climate action now,1005
x,broken row,1006
7,unknown code,1007
`

func load(t *testing.T) *Dataset {
	t.Helper()
	d, err := Read(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return d
}

func labelPtr(l models.SentimentLabel) *models.SentimentLabel {
	return &l
}

func TestReadSkipsBadRows(t *testing.T) {
	d := load(t)
	if d.Len() != 5 {
		t.Fatalf("Len = %d, want 5", d.Len())
	}
	if d.Skipped() != 2 {
		t.Fatalf("Skipped = %d, want 2", d.Skipped())
	}
	page, _ := d.Page(nil, 0, 1)
	if page[0].Message != "Climate change is real, act now" || page[0].TweetID != "1001" {
		t.Fatalf("first record = %+v", page[0])
	}
}

func TestReadHeaderErrors(t *testing.T) {
	if _, err := Read(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := Read(strings.NewReader("sentiment,text\n1,hello\n")); err == nil {
		t.Fatal("expected error for missing column")
	}
}

func TestReadColumnOrder(t *testing.T) {
	d, err := Read(strings.NewReader("tweetid,Message,Sentiment\n9,hello,2\n"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	page, total := d.Page(nil, 0, 0)
	if total != 1 || page[0].Sentiment != models.LabelNews || page[0].TweetID != "9" {
		t.Fatalf("page = %+v", page)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Len() != 5 {
		t.Fatalf("Len = %d", d.Len())
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPage(t *testing.T) {
	d := load(t)

	page, total := d.Page(labelPtr(models.LabelPro), 0, 10)
	if total != 2 || len(page) != 2 {
		t.Fatalf("Pro page = %d/%d", len(page), total)
	}

	page, total = d.Page(nil, 3, 10)
	if total != 5 || len(page) != 2 || page[0].TweetID != "1004" {
		t.Fatalf("offset page = %+v (total %d)", page, total)
	}

	page, total = d.Page(nil, 1, 2)
	if total != 5 || len(page) != 2 || page[1].TweetID != "1003" {
		t.Fatalf("limited page = %+v", page)
	}

	page, total = d.Page(nil, 50, 10)
	if total != 5 || len(page) != 0 {
		t.Fatalf("page past end = %+v", page)
	}
}

func TestCount(t *testing.T) {
	d := load(t)
	if n := d.Count(nil); n != 5 {
		t.Fatalf("Count(nil) = %d, want 5", n)
	}
	if n := d.Count(labelPtr(models.LabelPro)); n != 2 {
		t.Fatalf("Count(Pro) = %d, want 2", n)
	}
}

func TestLabelCounts(t *testing.T) {
	counts := load(t).LabelCounts()
	want := map[models.SentimentLabel]int{
		models.LabelAnti: 1, models.LabelNeutral: 1, models.LabelPro: 2, models.LabelNews: 1,
	}
	if len(counts) != 4 {
		t.Fatalf("got %d labels", len(counts))
	}
	for i, c := range counts {
		if c.Label != models.AllLabels()[i] {
			t.Errorf("counts[%d] is %v, want code order", i, c.Label)
		}
		if c.Count != want[c.Label] {
			t.Errorf("%v count = %d, want %d", c.Label, c.Count, want[c.Label])
		}
	}
}

func TestTopWords(t *testing.T) {
	d := load(t)
	normalize := func(s string) string {
		return strings.NewReplacer(",", "", ".", "").Replace(strings.ToLower(s))
	}

	top := d.TopWords(labelPtr(models.LabelPro), 3, normalize)
	want := []WordCount{{"climate", 2}, {"now", 2}, {"act", 1}}
	if len(top) != len(want) {
		t.Fatalf("TopWords = %+v", top)
	}
	for i := range want {
		if top[i] != want[i] {
			t.Errorf("TopWords[%d] = %+v, want %+v", i, top[i], want[i])
		}
	}

	all := d.TopWords(nil, 1, nil)
	if len(all) != 1 || all[0].Word != "climate" || all[0].Count != 4 {
		t.Fatalf("TopWords(all) = %+v", all)
	}
}

func TestLengthBuckets(t *testing.T) {
	d := New([]models.TweetRecord{
		{Message: "abc"},
		{Message: "abcdefghij"},
		{Message: "abcdefghijklmnopqrstuvwxy"},
		{Message: "héllo"},
	})
	buckets := d.LengthBuckets(10)
	if len(buckets) != 3 {
		t.Fatalf("buckets = %+v", buckets)
	}
	if buckets[0] != (Bucket{Min: 0, Max: 9, Count: 2}) {
		t.Errorf("bucket 0 = %+v", buckets[0])
	}
	if buckets[1] != (Bucket{Min: 10, Max: 19, Count: 1}) {
		t.Errorf("bucket 1 = %+v", buckets[1])
	}
	if buckets[2] != (Bucket{Min: 20, Max: 29, Count: 1}) {
		t.Errorf("bucket 2 = %+v", buckets[2])
	}
	if New(nil).LengthBuckets(10) != nil {
		t.Error("empty dataset should have no buckets")
	}
}
