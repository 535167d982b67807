package main

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/hablabot/internal/cli"
	"github.com/at-ishikawa/hablabot/internal/importer"
	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

// ScaleFlag is the scale of the score given to "vocab review".
type ScaleFlag vocabulary.QualityScale

// Set implements pflag.Value.
func (s *ScaleFlag) Set(v string) error {
	switch scale := vocabulary.QualityScale(v); scale {
	case vocabulary.ScaleSM2, vocabulary.ScaleConfidence, vocabulary.ScalePercentage, vocabulary.ScaleBinary:
		*s = ScaleFlag(scale)
	default:
		return fmt.Errorf("invalid value %q, valid values are %q, %q, %q or %q", v,
			vocabulary.ScaleSM2, vocabulary.ScaleConfidence, vocabulary.ScalePercentage, vocabulary.ScaleBinary)
	}
	return nil
}

// String implements pflag.Value.
func (s *ScaleFlag) String() string {
	if s == nil {
		return ""
	}
	return string(*s)
}

// Type implements pflag.Value.
func (s *ScaleFlag) Type() string {
	return "ScaleFlag"
}

var (
	_ pflag.Value = (*ScaleFlag)(nil)
)

func newVocabCommand() *cobra.Command {
	vocabCommand := &cobra.Command{
		Use:   "vocab",
		Short: "Manage the vocabulary list",
	}

	vocabCommand.AddCommand(newVocabAddCommand())
	vocabCommand.AddCommand(newVocabEditCommand())
	vocabCommand.AddCommand(newVocabRemoveCommand())
	vocabCommand.AddCommand(newVocabListCommand())
	vocabCommand.AddCommand(newVocabReviewCommand())
	vocabCommand.AddCommand(newVocabImportCommand())
	vocabCommand.AddCommand(newVocabExportCommand())
	vocabCommand.AddCommand(newVocabStatsCommand())
	vocabCommand.AddCommand(newVocabCategoriesCommand())
	return vocabCommand
}

// itemFlags are the descriptive fields shared by add and edit.
type itemFlags struct {
	spanish    string
	english    string
	phonetic   string
	difficulty int
	category   string
	examples   []string
	tags       []string
}

func (f *itemFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.spanish, "spanish", "", "Spanish word or phrase")
	flags.StringVar(&f.english, "english", "", "English translation")
	flags.StringVar(&f.phonetic, "phonetic", "", "Pronunciation")
	flags.IntVar(&f.difficulty, "difficulty", 0, "Difficulty from 1 to 5 (default 1)")
	flags.StringVar(&f.category, "category", "", "Category (default general)")
	flags.StringArrayVar(&f.examples, "example", nil, "Example sentence, repeatable")
	flags.StringSliceVar(&f.tags, "tag", nil, "Tags, comma-separated or repeated")
}

func (f *itemFlags) patch(flags *pflag.FlagSet) vocabulary.Patch {
	var patch vocabulary.Patch
	if flags.Changed("spanish") {
		patch.Spanish = &f.spanish
	}
	if flags.Changed("english") {
		patch.English = &f.english
	}
	if flags.Changed("phonetic") {
		patch.Phonetic = &f.phonetic
	}
	if flags.Changed("difficulty") {
		patch.Difficulty = &f.difficulty
	}
	if flags.Changed("category") {
		patch.Category = &f.category
	}
	if flags.Changed("example") {
		patch.Examples = f.examples
	}
	if flags.Changed("tag") {
		patch.Tags = f.tags
	}
	return patch
}

func newVocabAddCommand() *cobra.Command {
	var f itemFlags
	command := &cobra.Command{
		Use:   "add",
		Short: "Add a word",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVocabulary(cmd, func(manager *vocabulary.Manager) error {
				item, err := manager.Add(cmd.Context(), vocabulary.Draft{
					Spanish:    f.spanish,
					English:    f.english,
					Phonetic:   f.phonetic,
					Difficulty: f.difficulty,
					Category:   f.category,
					Examples:   f.examples,
					Tags:       f.tags,
				})
				if err != nil {
					return fmt.Errorf("manager.Add() > %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", item.Spanish, item.ID)
				return nil
			})
		},
	}
	f.register(command.Flags())
	return command
}

func newVocabEditCommand() *cobra.Command {
	var f itemFlags
	command := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVocabulary(cmd, func(manager *vocabulary.Manager) error {
				item, err := manager.Update(cmd.Context(), args[0], f.patch(cmd.Flags()))
				if err != nil {
					return fmt.Errorf("manager.Update() > %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", item.Spanish, item.ID)
				return nil
			})
		},
	}
	f.register(command.Flags())
	return command
}

func newVocabRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVocabulary(cmd, func(manager *vocabulary.Manager) error {
				if err := manager.Remove(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("manager.Remove() > %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newVocabListCommand() *cobra.Command {
	var (
		filter  vocabulary.Filter
		mastery int
		due     bool
	)
	command := &cobra.Command{
		Use:   "list",
		Short: "List words",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("mastery") {
				filter.MasteryLevel = &mastery
			}
			return withVocabulary(cmd, func(manager *vocabulary.Manager) error {
				var items []vocabulary.Item
				if due {
					items = slices.DeleteFunc(manager.DueForReview(0), func(item vocabulary.Item) bool {
						return !filter.Match(item)
					})
				} else {
					items = manager.Filter(filter)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No words found.")
					return nil
				}
				return cli.WriteVocabularyTable(cmd.OutOrStdout(), items, time.Now())
			})
		},
	}
	flags := command.Flags()
	flags.StringVar(&filter.Search, "search", "", "Match Spanish, English, category or tags")
	flags.StringVar(&filter.Category, "category", "", "Only words of this category")
	flags.IntVar(&filter.Difficulty, "difficulty", 0, "Only words of this difficulty")
	flags.IntVar(&mastery, "mastery", 0, "Only words whose mastery level rounds down to this value")
	flags.BoolVar(&due, "due", false, "Only words due for review, most urgent first")
	return command
}

func newVocabReviewCommand() *cobra.Command {
	scale := ScaleFlag(vocabulary.ScaleSM2)
	command := &cobra.Command{
		Use:   "review <id> <score>",
		Short: "Record a review outside a conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid score %q: %w", args[1], err)
			}
			quality := vocabulary.ConvertQuality(score, vocabulary.QualityScale(scale))

			return withVocabulary(cmd, func(manager *vocabulary.Manager) error {
				item, err := manager.RecordReview(cmd.Context(), args[0], float64(quality))
				if err != nil {
					return fmt.Errorf("manager.RecordReview() > %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: quality %d, mastery %.1f, next review %s\n",
					item.Spanish, quality, item.MasteryLevel, item.NextReviewDate.Format(time.DateOnly))
				return nil
			})
		},
	}
	command.Flags().Var(&scale, "scale", "Scale of the score. Options: sm2, confidence, percentage, binary")
	return command
}

func newVocabImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv|file.xlsx>",
		Short: "Import words from a CSV or Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := importer.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("importer.ReadFile() > %w", err)
			}
			return withVocabulary(cmd, func(manager *vocabulary.Manager) error {
				cli.WriteImportReport(cmd.OutOrStdout(), manager.ImportBatch(cmd.Context(), rows))
				return nil
			})
		},
	}
}

func newVocabExportCommand() *cobra.Command {
	var output string
	command := &cobra.Command{
		Use:   "export",
		Short: "Export words to a CSV or Excel file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = fmt.Sprintf("hablabot-vocabulary-%s.csv", time.Now().Format(time.DateOnly))
			}
			return withVocabulary(cmd, func(manager *vocabulary.Manager) error {
				rows := manager.ExportRows()
				if err := importer.WriteFile(output, rows); err != nil {
					return fmt.Errorf("importer.WriteFile() > %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d word(s) to %s\n", len(rows), output)
				return nil
			})
		},
	}
	command.Flags().StringVarP(&output, "output", "o", "", "Output file, .csv or .xlsx")
	return command
}

func newVocabStatsCommand() *cobra.Command {
	var days int
	command := &cobra.Command{
		Use:   "stats",
		Short: "Show vocabulary statistics and upcoming reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVocabulary(cmd, func(manager *vocabulary.Manager) error {
				return cli.WriteStatistics(cmd.OutOrStdout(), manager.Statistics(), manager.ReviewSchedule(days))
			})
		},
	}
	command.Flags().IntVar(&days, "days", 7, "Number of days of the review schedule")
	return command
}

func newVocabCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVocabulary(cmd, func(manager *vocabulary.Manager) error {
				for _, category := range manager.Categories() {
					fmt.Fprintln(cmd.OutOrStdout(), category)
				}
				return nil
			})
		},
	}
}
