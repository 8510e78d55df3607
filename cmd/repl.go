package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scraper-llm/internal/export"
	"scraper-llm/internal/intent"
	"scraper-llm/internal/scraper"
	"scraper-llm/internal/ui"
)

var (
	replSession  string
	replNoRoute  bool
	replSkipPing bool
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive scraping conversation",
	Long: `Chat with the scraper. Paste a URL to analyze it, ask for data to extract
it, or ask questions about the results. Commands: analyze, extract, chat,
history, export, new, help, exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			display := ui.NewDisplay()
			if !replSkipPing {
				if err := checkModel(cmd.Context(), a, display); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)
			go func() {
				<-sigChan
				display.PrintInfo("\nShutting down gracefully...")
				cancel()
				a.Close()
				os.Exit(0)
			}()

			r := newREPL(a.svc, display, ui.NewInputReader(cmd.InOrStdin()), a.cfg.OracleModel)
			if !replNoRoute {
				r.classifier = intent.NewClassifier(a.oracle)
			}
			r.verbose = a.cfg.Verbose
			r.sessionID = replSession
			return r.run(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVarP(&replSession, "session", "s", "", "Session id to continue")
	replCmd.Flags().BoolVar(&replNoRoute, "no-classifier", false, "Route free text by keywords only")
	replCmd.Flags().BoolVar(&replSkipPing, "skip-check", false, "Skip the oracle health check")
}

// repl is the interactive conversation loop
type repl struct {
	svc        *scraper.Service
	display    *ui.Display
	input      *ui.InputReader
	router     *intent.Router
	classifier *intent.Classifier
	model      string
	sessionID  string
	verbose    bool
}

func newREPL(svc *scraper.Service, display *ui.Display, input *ui.InputReader, model string) *repl {
	return &repl{
		svc:     svc,
		display: display,
		input:   input,
		router:  intent.NewRouter(),
		model:   model,
	}
}

func (r *repl) run(ctx context.Context) error {
	r.sessionID = r.svc.Sessions().GetOrCreate(r.sessionID).ID
	r.display.PrintWelcome(r.model, r.sessionID)

	for {
		r.display.PrintPrompt()
		line, err := r.input.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			break
		}
		if line == "/clear" {
			r.display.ClearScreen()
			r.display.PrintWelcome(r.model, r.sessionID)
			continue
		}
		if !r.handle(ctx, line) {
			break
		}
	}

	r.display.PrintGoodbye()
	return nil
}

// hasSite reports whether the current session has an analyzed website
func (r *repl) hasSite() bool {
	s, ok := r.svc.Sessions().Get(r.sessionID)
	return ok && s.CurrentURL != ""
}

// handle executes one line of input and reports whether the loop should continue
func (r *repl) handle(ctx context.Context, line string) bool {
	hasSite := r.hasSite()
	in := r.router.Route(line, hasSite)
	in = r.classifier.Refine(ctx, in, hasSite)
	if r.verbose && in.Kind != intent.KindNone {
		r.display.PrintActivity(fmt.Sprintf("%s (%s)", in.Kind, in.Reason))
	}

	switch in.Kind {
	case intent.KindNone:
	case intent.KindExit:
		return false
	case intent.KindHelp:
		r.display.PrintHelp(scraper.Help())
	case intent.KindHistory:
		r.display.PrintHistory(r.svc.History(r.sessionID))
	case intent.KindNew:
		r.sessionID = r.svc.NewSession()
		r.display.PrintSuccess("Started session " + r.sessionID)
	case intent.KindExport:
		r.export(in.Argument)
	case intent.KindAnalyze:
		if in.Argument == "" {
			r.display.PrintWarning("Usage: analyze <url>")
			return true
		}
		r.display.PrintActivity("Analyzing " + in.Argument)
		r.display.PrintAnalysis(r.svc.AnalyzeWebsite(ctx, r.sessionID, in.Argument))
	case intent.KindExtract:
		r.display.PrintActivity("Extracting data")
		r.display.PrintExtraction(r.svc.ExtractData(ctx, r.sessionID, in.Argument))
	case intent.KindChat:
		if in.Argument == "" {
			r.display.PrintWarning("Usage: chat <message>")
			return true
		}
		r.chat(ctx, in.Argument)
	}
	return true
}

func (r *repl) chat(ctx context.Context, message string) {
	r.display.PrintUserMessage(message, time.Now())
	r.display.StartAssistantResponse()
	if _, err := r.svc.ChatStream(ctx, r.sessionID, message, r.display.WriteAnswer); err != nil {
		r.display.PrintError(err)
		return
	}
	r.display.EndAssistantResponse()
}

// export writes the session as "<format> [path]"; the path defaults to the session id
func (r *repl) export(arg string) {
	format, path, _ := strings.Cut(strings.TrimSpace(arg), " ")
	exp, err := export.ForFormat(format)
	if err != nil {
		r.display.PrintError(err)
		return
	}
	path = strings.TrimSpace(path)
	if path == "" {
		path = "session-" + r.sessionID + exp.Extension()
	}
	s, ok := r.svc.Sessions().Get(r.sessionID)
	if !ok {
		r.display.PrintWarning("Session no longer exists")
		return
	}
	snap := s.Snapshot()
	if err := export.WriteFile(path, exp, &snap); err != nil {
		r.display.PrintError(err)
		return
	}
	r.display.PrintSuccess("Session exported to " + path)
}
