package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/at-ishikawa/hablabot/internal/conversation"
	"github.com/at-ishikawa/hablabot/internal/inference"
	"github.com/at-ishikawa/hablabot/internal/session"
)

// DefaultTypedConfidence is the confidence given to typed turns, which have no recognizer score.
const DefaultTypedConfidence = 0.9

var errEnd = errors.New("end")

// Conversation is the part of conversation.Engine the CLI drives.
type Conversation interface {
	Start(ctx context.Context, opts conversation.StartOptions) (conversation.Opening, error)
	Respond(ctx context.Context, text string, confidence float64) (conversation.Reply, error)
	Pause() error
	Resume() error
	ShouldContinue() bool
	Stats() session.Stats
	End(ctx context.Context) (conversation.Summary, error)
}

// ConversationCLI runs a tutoring session on a terminal.
type ConversationCLI struct {
	conversation Conversation
	stdinReader  *bufio.Reader
	stdoutWriter io.Writer
	confidence   float64

	bold   *color.Color
	italic *color.Color
	tutor  *color.Color
}

func NewConversationCLI(conv Conversation, stdin io.Reader, stdout io.Writer, confidence float64) *ConversationCLI {
	if confidence <= 0 {
		confidence = DefaultTypedConfidence
	}
	return &ConversationCLI{
		conversation: conv,
		stdinReader:  bufio.NewReader(stdin),
		stdoutWriter: stdout,
		confidence:   confidence,
		bold:         color.New(color.Bold),
		italic:       color.New(color.Italic),
		tutor:        color.New(color.FgCyan),
	}
}

// Run starts a session and reads turns until the user quits, the input ends, the session time is up
// or an interrupt arrives. The session is ended and stored in every case.
func (cli *ConversationCLI) Run(ctx context.Context, opts conversation.StartOptions) (conversation.Summary, error) {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	opening, err := cli.conversation.Start(ctx, opts)
	if err != nil {
		return conversation.Summary{}, fmt.Errorf("conversation.Start() > %w", err)
	}
	cli.printOpening(opening)

	done := make(chan struct{})
	defer close(done)
	lines := cli.readLines(done)
	var loopErr error
LOOP:
	for {
		_, _ = cli.bold.Fprint(cli.stdoutWriter, "Tú: ")
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(cli.stdoutWriter, "\nReceived interrupt signal, ending the session...")
			break LOOP
		case line, ok := <-lines:
			if !ok {
				_, _ = fmt.Fprintln(cli.stdoutWriter)
				break LOOP
			}
			if err := cli.handle(ctx, line); err != nil {
				if !errors.Is(err, errEnd) {
					loopErr = err
				}
				break LOOP
			}
		}

		if cli.conversation.Stats().MessageCount > 0 && !cli.conversation.ShouldContinue() {
			_, _ = fmt.Fprintln(cli.stdoutWriter, "⏰ Time is up!")
			break
		}
	}

	summary, err := cli.conversation.End(context.WithoutCancel(ctx))
	cli.printSummary(summary)
	if err != nil {
		err = fmt.Errorf("conversation.End() > %w", err)
	}
	return summary, errors.Join(loopErr, err)
}

// readLines delivers stdin lines until EOF or done is closed.
// A read blocked on a terminal is only released when the process exits.
func (cli *ConversationCLI) readLines(done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := cli.stdinReader.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}

func (cli *ConversationCLI) handle(ctx context.Context, line string) error {
	text := strings.TrimSpace(line)
	switch strings.ToLower(text) {
	case "":
		return nil
	case "/quit", "/exit", "quit", "exit":
		return errEnd
	case "/pause":
		cli.report(cli.conversation.Pause(), "Paused. Type /resume to continue.")
		return nil
	case "/resume":
		cli.report(cli.conversation.Resume(), "¡Seguimos!")
		return nil
	case "/stats":
		cli.printStats(cli.conversation.Stats())
		return nil
	}

	reply, err := cli.conversation.Respond(ctx, text, cli.confidence)
	var generationErr *inference.GenerationError
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return nil
	case errors.Is(err, session.ErrNoActiveSession):
		color.New(color.FgYellow).Fprintln(cli.stdoutWriter, "The session is paused. Type /resume to continue.")
		return nil
	case errors.As(err, &generationErr):
		color.New(color.FgYellow).Fprintf(cli.stdoutWriter, "The tutor could not answer after %d attempt(s). Please try again.\n", generationErr.Attempts)
		return nil
	case err != nil:
		return fmt.Errorf("conversation.Respond() > %w", err)
	}
	cli.printReply(reply)
	return nil
}

func (cli *ConversationCLI) report(err error, message string) {
	if err != nil {
		color.New(color.FgRed).Fprintln(cli.stdoutWriter, err.Error())
		return
	}
	_, _ = fmt.Fprintln(cli.stdoutWriter, message)
}

func (cli *ConversationCLI) printOpening(opening conversation.Opening) {
	w := cli.stdoutWriter
	_, _ = fmt.Fprintf(w, "Session %s started. Commands: /pause /resume /stats /quit\n", opening.SessionID)
	if len(opening.TargetWords) > 0 {
		_, _ = fmt.Fprintln(w, "Target words:")
		for _, word := range opening.TargetWords {
			_, _ = fmt.Fprintf(w, "  - %s (%s)\n", cli.bold.Sprint(word.Spanish), cli.italic.Sprint(word.English))
		}
	}
	_, _ = fmt.Fprintln(w)
	_, _ = cli.tutor.Fprintf(w, "María: %s\n", opening.Message)
}

func (cli *ConversationCLI) printReply(reply conversation.Reply) {
	w := cli.stdoutWriter
	_, _ = cli.tutor.Fprintf(w, "María: %s\n", reply.Message)
	for _, use := range reply.WordsUsed {
		_, _ = fmt.Fprint(w, "✅ ")
		color.New(color.FgGreen).Fprintf(w, "%s (used %d time(s))\n", use.Word.Spanish, use.Count)
	}
	if reply.Nudge != "" {
		_, _ = fmt.Fprintf(w, "\U0001F4A1 %s\n", cli.italic.Sprint(reply.Nudge))
	}
}

func (cli *ConversationCLI) printStats(stats session.Stats) {
	_, _ = fmt.Fprintf(cli.stdoutWriter, "Messages: %d, target words used: %d/%d (%d%%), time: %s\n",
		stats.MessageCount,
		stats.WordsUsedCount,
		stats.TargetWordCount,
		stats.WordsUsedPercentage,
		stats.Duration.Round(time.Second),
	)
}

func (cli *ConversationCLI) printSummary(summary conversation.Summary) {
	w := cli.stdoutWriter
	_, _ = fmt.Fprintln(w)
	_, _ = cli.bold.Fprintln(w, "Session summary")
	cli.printStats(summary.Stats)
	for _, review := range summary.Reviews {
		_, _ = fmt.Fprintf(w, "  %s: quality %.1f, next review %s\n",
			cli.bold.Sprint(review.Word.Spanish),
			review.Quality,
			review.Item.NextReviewDate.Format(time.DateOnly),
		)
	}
	for _, word := range summary.Stats.UnusedWords {
		_, _ = fmt.Fprintf(w, "  %s: not used\n", cli.bold.Sprint(word.Spanish))
	}
}
