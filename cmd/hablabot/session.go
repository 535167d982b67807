package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/hablabot/internal/assets"
	"github.com/at-ishikawa/hablabot/internal/cli"
	"github.com/at-ishikawa/hablabot/internal/config"
	"github.com/at-ishikawa/hablabot/internal/conversation"
	"github.com/at-ishikawa/hablabot/internal/vocabulary"
)

func newSessionCommand() *cobra.Command {
	sessionCommand := &cobra.Command{
		Use:   "session",
		Short: "Practice conversations with the tutor",
	}

	sessionCommand.AddCommand(newSessionStartCommand())
	sessionCommand.AddCommand(newSessionListCommand())
	sessionCommand.AddCommand(newSessionScenariosCommand())
	return sessionCommand
}

func newSessionStartCommand() *cobra.Command {
	var (
		scenario           string
		difficulty         string
		maxWords           int
		minutes            int
		topic              string
		noPrioritizeReview bool
		confidence         float64
	)

	command := &cobra.Command{
		Use:   "start",
		Short: "Start a conversation practicing the words due for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("scenario") {
				scenario = cfg.Learning.Scenario
			}
			if !flags.Changed("difficulty") {
				difficulty = cfg.Learning.DifficultyLevel
			}
			if !flags.Changed("max-words") {
				maxWords = cfg.Learning.NewWordsPerSession
			}
			if !flags.Changed("minutes") {
				minutes = cfg.Learning.SessionLengthMinutes
			}
			if !flags.Changed("confidence") {
				confidence = cli.DefaultTypedConfidence
			}

			client, err := newOpenAIClient(cfg.OpenAI)
			if err != nil {
				return err
			}
			defer client.Close()

			catalog, err := assets.LoadCatalog()
			if err != nil {
				return fmt.Errorf("assets.LoadCatalog() > %w", err)
			}
			manager, s, err := openVocabulary(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = s.close()
			}()

			var opts []conversation.EngineOption
			if cfg.Learning.PromptTemplate != "" {
				opts = append(opts, conversation.WithPromptTemplate(cfg.Learning.PromptTemplate))
			}
			engine := conversation.NewEngine(client, manager, s.sessions, catalog, opts...)

			prioritizeReview := !noPrioritizeReview
			conversationCLI := cli.NewConversationCLI(engine, cmd.InOrStdin(), cmd.OutOrStdout(), confidence)
			if _, err := conversationCLI.Run(ctx, conversation.StartOptions{
				Scenario:          scenario,
				Difficulty:        vocabulary.ParseDifficultyTier(difficulty),
				MaxWords:          maxWords,
				Topic:             topic,
				PrioritizeReview:  &prioritizeReview,
				SessionLength:     time.Duration(minutes) * time.Minute,
				SuccessConfidence: cfg.Learning.SuccessConfidence,
			}); err != nil {
				return fmt.Errorf("conversationCLI.Run() > %w", err)
			}
			return nil
		},
	}

	flags := command.Flags()
	flags.StringVar(&scenario, "scenario", "", "Scenario of the conversation (default from the config)")
	flags.StringVar(&difficulty, "difficulty", "", "beginner, intermediate, advanced or mixed (default from the config)")
	flags.IntVar(&maxWords, "max-words", 0, "Number of target words (default from the config)")
	flags.IntVar(&minutes, "minutes", 0, "Session length in minutes (default from the config)")
	flags.StringVar(&topic, "topic", "", "Only words with this category or tag")
	flags.BoolVar(&noPrioritizeReview, "no-prioritize-review", false, "Do not pick the words due for review first")
	flags.Float64Var(&confidence, "confidence", cli.DefaultTypedConfidence, "Confidence given to each typed message, from 0 to 1")
	return command
}

func newSessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List past sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVocabularyStores(cmd, func(_ *config.Config, manager *vocabulary.Manager, s *stores) error {
				sessions, err := conversation.ListSessions(cmd.Context(), s.sessions, manager)
				if err != nil {
					return fmt.Errorf("conversation.ListSessions() > %w", err)
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet.")
					return nil
				}
				return cli.WriteSessionList(cmd.OutOrStdout(), sessions)
			})
		},
	}
}

func newSessionScenariosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the conversation scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := assets.LoadCatalog()
			if err != nil {
				return fmt.Errorf("assets.LoadCatalog() > %w", err)
			}
			for _, name := range catalog.ScenarioNames() {
				scenario, _ := catalog.Scenario(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", name, scenario.Title)
			}
			return nil
		},
	}
}
