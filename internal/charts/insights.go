package charts

import (
	"fmt"
	"io"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/spacesedan/tweetclassifier/internal/dataset"
	"github.com/spacesedan/tweetclassifier/internal/models"
)

const LENGTH_BUCKET_WIDTH = 20

// Summary holds the dataset statistics behind the insights page.
type Summary struct {
	Total    int
	Counts   []dataset.LabelCount
	TopWords map[models.SentimentLabel][]dataset.WordCount
	Lengths  []dataset.Bucket
}

// Summarize counts labels, message lengths and the topN normalized words of
// every label. Normalizing the whole dataset is slow, so callers keep the
// result.
func Summarize(d *dataset.Dataset, normalize func(string) string, topN int) Summary {
	s := Summary{
		Total:    d.Len(),
		Counts:   d.LabelCounts(),
		TopWords: make(map[models.SentimentLabel][]dataset.WordCount),
		Lengths:  d.LengthBuckets(LENGTH_BUCKET_WIDTH),
	}
	for _, l := range models.AllLabels() {
		label := l
		s.TopWords[label] = d.TopWords(&label, topN, normalize)
	}
	return s
}

// Insights lays out the label distribution, top words per label and the
// message length histogram on one page.
func Insights(s Summary) *components.Page {
	page := components.NewPage()
	page.PageTitle = "Tweet Classifier Insights"
	page.AddCharts(labelBar(s), labelPie(s))
	for _, l := range models.AllLabels() {
		if words := s.TopWords[l]; len(words) > 0 {
			page.AddCharts(topWordsBar(l, words))
		}
	}
	if len(s.Lengths) > 0 {
		page.AddCharts(lengthBar(s.Lengths))
	}
	return page
}

func RenderInsights(w io.Writer, s Summary) error {
	return Insights(s).Render(w)
}

func labelBar(s Summary) *echarts.Bar {
	bar := echarts.NewBar()
	bar.SetGlobalOptions(
		echarts.WithTitleOpts(opts.Title{
			Title:    "Tweets per label",
			Subtitle: fmt.Sprintf("%d labelled tweets", s.Total),
		}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	names := make([]string, 0, len(s.Counts))
	data := make([]opts.BarData, 0, len(s.Counts))
	for _, c := range s.Counts {
		names = append(names, c.Label.Name())
		data = append(data, opts.BarData{Value: c.Count})
	}
	bar.SetXAxis(names).AddSeries("Tweets", data)
	return bar
}

func labelPie(s Summary) *echarts.Pie {
	pie := echarts.NewPie()
	pie.SetGlobalOptions(echarts.WithTitleOpts(opts.Title{Title: "Label share"}))

	data := make([]opts.PieData, 0, len(s.Counts))
	for _, c := range s.Counts {
		data = append(data, opts.PieData{Name: c.Label.Name(), Value: c.Count})
	}
	pie.AddSeries("Labels", data).
		SetSeriesOptions(echarts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}))
	return pie
}

func topWordsBar(label models.SentimentLabel, words []dataset.WordCount) *echarts.Bar {
	bar := echarts.NewBar()
	bar.SetGlobalOptions(echarts.WithTitleOpts(opts.Title{
		Title:    fmt.Sprintf("Top words: %s", label.Name()),
		Subtitle: label.Description(),
	}))

	names := make([]string, 0, len(words))
	data := make([]opts.BarData, 0, len(words))
	for _, w := range words {
		names = append(names, w.Word)
		data = append(data, opts.BarData{Value: w.Count})
	}
	bar.SetXAxis(names).AddSeries(label.Name(), data)
	return bar
}

func lengthBar(buckets []dataset.Bucket) *echarts.Bar {
	bar := echarts.NewBar()
	bar.SetGlobalOptions(echarts.WithTitleOpts(opts.Title{Title: "Message length (characters)"}))

	names := make([]string, 0, len(buckets))
	data := make([]opts.BarData, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, fmt.Sprintf("%d-%d", b.Min, b.Max))
		data = append(data, opts.BarData{Value: b.Count})
	}
	bar.SetXAxis(names).AddSeries("Tweets", data)
	return bar
}
