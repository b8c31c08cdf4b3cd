package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spacesedan/tweetclassifier/internal/dataset"
	"github.com/spacesedan/tweetclassifier/internal/models"
)

const (
	TEXT_COLUMN_WIDTH = 60
	DEFAULT_TOP_WORDS = 10
)

func newNormalizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [text...]",
		Short: "Print the normalized form of a tweet (one per stdin line without arguments)",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return eachInput(cmd.InOrStdin(), args, func(text string) error {
				_, err := fmt.Fprintln(out, svc.Normalize(text))
				return err
			})
		},
	}
}

func newPredictCommand(ctx *commandContext) *cobra.Command {
	var modelID string

	cmd := &cobra.Command{
		Use:   "predict --model ID [text...]",
		Short: "Classify a tweet with one of the registered models",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService(cmd.Context())
			if err != nil {
				return err
			}

			var results []models.PredictionResult
			err = eachInput(cmd.InOrStdin(), args, func(text string) error {
				result, err := svc.Classify(cmd.Context(), modelID, text)
				if err != nil {
					return err
				}
				results = append(results, result)
				return nil
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 1 {
				printPrediction(out, results[0])
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Raw, r.LabelName, formatConfidence(r.Confidence)})
			}
			fmt.Fprintln(out, renderTable([]string{"Text", "Label", "Confidence"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelID, "model", "m", "", "Model identifier (see the models command)")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func printPrediction(w io.Writer, r models.PredictionResult) {
	fmt.Fprintf(w, "Model:       %s\n", r.ModelID)
	fmt.Fprintf(w, "Label:       %s (%d)\n", r.LabelName, int(r.Label))
	fmt.Fprintf(w, "Description: %s\n", r.Description)
	fmt.Fprintf(w, "Confidence:  %s\n", formatConfidence(r.Confidence))
	fmt.Fprintf(w, "Normalized:  %s\n", r.Normalized)
}

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the registered models and whether they can be loaded",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService(cmd.Context())
			if err != nil {
				return err
			}
			infos := svc.Models()
			rows := make([][]string, 0, len(infos))
			for _, m := range infos {
				available := "no"
				if m.Available {
					available = "yes"
				}
				rows = append(rows, []string{m.ID, m.Name, available, m.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Available", "Description"}, rows, nil))
			return nil
		},
	}
}

func newDatasetCommand(ctx *commandContext) *cobra.Command {
	var (
		file      string
		top       int
		normalize bool
	)

	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Summarize a labelled training file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := dataset.Load(file)
			if err != nil {
				return err
			}

			var normalizeFn func(string) string
			if normalize {
				svc, err := ctx.ensureService(cmd.Context())
				if err != nil {
					return err
				}
				normalizeFn = svc.Normalize
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d tweets (%d rows skipped)\n", data.Len(), data.Skipped())
			fmt.Fprintln(out, renderTable([]string{"Label", "Code", "Count", "Share"},
				labelCountRows(data), []columnAlignment{alignLeft, alignRight, alignRight, alignRight}))

			for _, l := range models.AllLabels() {
				label := l
				words := data.TopWords(&label, top, normalizeFn)
				if len(words) == 0 {
					continue
				}
				rows := make([][]string, 0, len(words))
				for _, w := range words {
					rows = append(rows, []string{w.Word, strconv.Itoa(w.Count)})
				}
				fmt.Fprintf(out, "\nTop words: %s\n", label.Name())
				fmt.Fprintln(out, renderTable([]string{"Word", "Count"}, rows,
					[]columnAlignment{alignLeft, alignRight}))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "resources/train.csv", "CSV file with sentiment,message,tweetid columns")
	cmd.Flags().IntVar(&top, "top", DEFAULT_TOP_WORDS, "Number of words listed per label")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Count normalized tokens instead of lowercased words")
	return cmd
}

func labelCountRows(data *dataset.Dataset) [][]string {
	counts := data.LabelCounts()
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		share := 0.0
		if data.Len() > 0 {
			share = float64(c.Count) / float64(data.Len()) * 100
		}
		rows = append(rows, []string{
			c.Label.Name(),
			strconv.Itoa(int(c.Label)),
			strconv.Itoa(c.Count),
			fmt.Sprintf("%.1f%%", share),
		})
	}
	return rows
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', 3, 64)
}

// eachInput calls fn with the joined arguments, or with every non-blank stdin
// line when there are none.
func eachInput(stdin io.Reader, args []string, fn func(string) error) error {
	if len(args) > 0 {
		return fn(strings.Join(args, " "))
	}
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
