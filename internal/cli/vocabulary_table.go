package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/at-ishikawa/hablabot/internal/conversation"
	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

// WriteVocabularyTable writes one row per item. Words due at now are marked "due".
func WriteVocabularyTable(w io.Writer, items []vocabulary.Item, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSPANISH\tENGLISH\tCATEGORY\tDIFFICULTY\tMASTERY\tNEXT REVIEW")
	for _, item := range items {
		next := item.NextReviewDate.Format(time.DateOnly)
		if vocabulary.IsDue(item, now) {
			next = "due"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.1f\t%s\n",
			item.ID, item.Spanish, item.English, item.Category, item.Difficulty, item.MasteryLevel, next)
	}
	return tw.Flush()
}

// WriteStatistics writes the summary counts followed by the daily review schedule.
func WriteStatistics(w io.Writer, stats vocabulary.Statistics, schedule []vocabulary.DailyReviews) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Total\t%d\n", stats.Total)
	_, _ = fmt.Fprintf(tw, "New / Learning / Mastered\t%d / %d / %d\n", stats.New, stats.Learning, stats.Mastered)
	_, _ = fmt.Fprintf(tw, "Average mastery\t%.1f\n", stats.AverageMastery)
	_, _ = fmt.Fprintf(tw, "Due today / tomorrow / this week\t%d / %d / %d\n", stats.DueToday, stats.DueTomorrow, stats.DueThisWeek)

	categories := slices.Sorted(maps.Keys(stats.ByCategory))
	parts := make([]string, 0, len(categories))
	for _, category := range categories {
		parts = append(parts, fmt.Sprintf("%s=%d", category, stats.ByCategory[category]))
	}
	_, _ = fmt.Fprintf(tw, "Categories\t%s\n", strings.Join(parts, ", "))

	if len(schedule) > 0 {
		_, _ = fmt.Fprintln(tw, "\nDATE\tDUE")
		for _, day := range schedule {
			_, _ = fmt.Fprintf(tw, "%s\t%d\n", day.Date.Format(time.DateOnly), day.DueCount)
		}
	}
	return tw.Flush()
}

// WriteImportReport writes the import counts and the reason for every skipped row.
func WriteImportReport(w io.Writer, report vocabulary.ImportReport) {
	_, _ = fmt.Fprintf(w, "Imported %d word(s), %d error(s)\n", report.ImportedCount(), report.ErrorCount())
	for _, rowErr := range report.Errors {
		_, _ = fmt.Fprintf(w, "  %s\n", rowErr)
	}
}

// WriteSessionList writes one row per past session, most recent first as given.
func WriteSessionList(w io.Writer, sessions []conversation.PastSession) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tSCENARIO\tMESSAGES\tWORDS USED\tDURATION\tWORDS")
	for _, past := range sessions {
		words := make([]string, 0, len(past.WordsUsed))
		for _, item := range past.WordsUsed {
			words = append(words, item.Spanish)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d%%\t%s\t%s\n",
			past.Record.StartTime.Format("2006-01-02 15:04"),
			past.Record.Scenario,
			past.Stats.MessageCount,
			past.Stats.WordsUsedPercentage,
			past.Stats.Duration.Round(time.Second),
			strings.Join(words, ", "),
		)
	}
	return tw.Flush()
}
