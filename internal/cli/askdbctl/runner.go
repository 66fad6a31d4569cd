package askdbctl

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bhanuprasadthota/AskDB/internal/config"
	"github.com/bhanuprasadthota/AskDB/internal/nl2sql"
	"github.com/bhanuprasadthota/AskDB/internal/observability"
	"github.com/bhanuprasadthota/AskDB/internal/prompt"
	"github.com/bhanuprasadthota/AskDB/internal/session"
)

type Options struct {
	Lookup config.LookupFunc
	Stdout io.Writer
	Stderr io.Writer
}

func Run(ctx context.Context, args []string, opts Options) int {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	fs := flag.NewFlagSet("askdbctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	table := fs.String("table", "", "table or collection to work against")
	question := fs.String("question", "", "natural language question")
	sqlText := fs.String("sql", "", "SQL statement to execute verbatim")
	timeout := fs.Duration("timeout", 30*time.Second, "overall command timeout (e.g. 30s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	command := strings.TrimSpace(fs.Arg(0))
	switch command {
	case "ping", "schema", "match", "translate", "ask", "exec":
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	switch command {
	case "match", "translate", "ask":
		if strings.TrimSpace(*question) == "" {
			_, _ = fmt.Fprintf(stderr, "%s requires -question\n", command)
			return 2
		}
	}
	switch command {
	case "schema", "match", "ask":
		if strings.TrimSpace(*table) == "" {
			_, _ = fmt.Fprintf(stderr, "%s requires -table\n", command)
			return 2
		}
	}
	if command == "exec" && strings.TrimSpace(*sqlText) == "" {
		_, _ = fmt.Fprintln(stderr, "exec requires -sql")
		return 2
	}

	cfg, err := config.Load("askdbctl", lookup)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	logger := observability.NewLogger(cfg, stderr)

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	// Translate without a table never touches the backend: the question
	// goes to the model as-is.
	if command == "translate" && strings.TrimSpace(*table) == "" {
		translator, err := newTranslator(cfg.AI)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "configure translator: %v\n", err)
			return 1
		}
		result, err := translator.Translate(ctx, prompt.Direct(*question))
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "translate: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(stdout, result.SQL)
		return 0
	}

	sess, err := session.New(cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "open session: %v\n", err)
		return 1
	}
	defer func() { _ = sess.Close() }()

	if command == "translate" || command == "ask" {
		translator, err := newTranslator(cfg.AI)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "configure translator: %v\n", err)
			return 1
		}
		sess.AttachTranslator(translator)
	}

	if err := sess.Connect(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "connect %s: %v\n", cfg.Backend.Kind, err)
		return 1
	}

	switch command {
	case "ping":
		if err := sess.Ping(ctx); err != nil {
			_, _ = fmt.Fprintf(stderr, "ping: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "%s ok\n", sess.Kind())
	case "schema":
		columns, err := sess.Schema(ctx, *table)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "schema: %v\n", err)
			return 1
		}
		for _, column := range columns {
			_, _ = fmt.Fprintf(stdout, "%s\t%s\n", column.Name, column.Type)
		}
	case "match":
		matched, err := sess.MatchColumns(ctx, *question, *table)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "match: %v\n", err)
			return 1
		}
		for _, name := range matched {
			_, _ = fmt.Fprintln(stdout, name)
		}
	case "translate":
		result, err := sess.GenerateSQL(ctx, *question, *table)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "translate: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(stdout, result.SQL)
	case "ask":
		answer, err := sess.Ask(ctx, *question, *table)
		if err != nil {
			if answer.SQL != "" {
				_, _ = fmt.Fprintf(stderr, "generated sql: %s\n", answer.SQL)
			}
			_, _ = fmt.Fprintf(stderr, "ask: %v\n", err)
			return 1
		}
		writeAnswer(stdout, answer)
	case "exec":
		result, err := sess.Execute(ctx, *sqlText)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "exec: %v\n", err)
			return 1
		}
		writeAnswer(stdout, session.Answer{
			SQL:      *sqlText,
			Columns:  result.Columns,
			Rows:     result.Rows,
			Duration: result.Duration,
		})
	}
	return 0
}

func newTranslator(cfg config.AIConfig) (nl2sql.Translator, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return nl2sql.NewOllamaTranslator(nl2sql.OllamaConfig{
			ServerURL:   cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	default:
		return nl2sql.NewOpenAITranslator(nl2sql.OpenAIConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
	}
}

type answerOutput struct {
	SQL        string   `json:"sql"`
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	DurationMS int64    `json:"duration_ms"`
}

func writeAnswer(w io.Writer, answer session.Answer) {
	out := answerOutput{
		SQL:        answer.SQL,
		Columns:    answer.Columns,
		Rows:       answer.Rows,
		DurationMS: answer.Duration.Milliseconds(),
	}
	formatted, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintln(w, answer.SQL)
		return
	}
	_, _ = fmt.Fprintln(w, string(formatted))
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: askdbctl [flags] <command>")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  ping        check backend connectivity")
	_, _ = fmt.Fprintln(w, "  schema      list the columns of -table")
	_, _ = fmt.Fprintln(w, "  match       show the columns of -table matched against -question")
	_, _ = fmt.Fprintln(w, "  translate   generate SQL for -question (schema-free without -table)")
	_, _ = fmt.Fprintln(w, "  ask         generate SQL for -question and execute it against -table")
	_, _ = fmt.Fprintln(w, "  exec        execute -sql verbatim")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "configuration comes from ASKDB_* environment variables")
}
