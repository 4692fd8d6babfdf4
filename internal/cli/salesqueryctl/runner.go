package salesqueryctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

// errUsage marks argument problems; Run maps it to exit code 2.
var errUsage = errors.New("usage error")

type httpError struct {
	status int
	body   []byte
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.status, strings.TrimSpace(string(e.body)))
}

// Run executes one salesqueryctl invocation and returns the process exit code.
func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	root := NewCommand(defaults, stdout, stderr)
	if err := root.Run(ctx, append([]string{root.Name}, args...)); err != nil {
		var httpErr *httpError
		switch {
		case errors.Is(err, errUsage):
			_, _ = fmt.Fprintln(stderr, err)
			return 2
		case errors.As(err, &httpErr):
			_, _ = fmt.Fprintln(stderr, httpErr.Error())
			return 1
		default:
			_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
			return 1
		}
	}
	return 0
}

func NewCommand(defaults Options, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "salesqueryctl",
		Usage:     "Ask the SalesQuery API questions about sales data",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api-url",
				Value: firstNonEmpty(defaults.BaseURL, "http://localhost:8000"),
				Usage: "SalesQuery API base URL",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: durationOr(defaults.Timeout, 60*time.Second),
				Usage: "HTTP timeout (e.g. 30s)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Present() {
				return fmt.Errorf("%w: unknown command %q (want ask, sql, schema or health)", errUsage, cmd.Args().First())
			}
			return fmt.Errorf("%w: salesqueryctl [--api-url URL] [--timeout D] <ask|sql|schema|health> [args]", errUsage)
		},
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Translate a natural-language question into SQL and run it",
				ArgsUsage: "<question>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					question := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
					if question == "" {
						return fmt.Errorf("%w: ask needs a question", errUsage)
					}
					return call(ctx, cmd, defaults, stdout, stderr, http.MethodPost, "/v1/query", map[string]string{"question": question})
				},
			},
			{
				Name:      "sql",
				Usage:     "Run a SELECT statement through the safety gate",
				ArgsUsage: "<statement>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					statement := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
					if statement == "" {
						return fmt.Errorf("%w: sql needs a statement", errUsage)
					}
					return call(ctx, cmd, defaults, stdout, stderr, http.MethodPost, "/v1/sql", map[string]string{"sql": statement})
				},
			},
			{
				Name:  "schema",
				Usage: "Show the tables and columns the model sees",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return call(ctx, cmd, defaults, stdout, stderr, http.MethodGet, "/v1/schema", nil)
				},
			},
			{
				Name:  "health",
				Usage: "Check API liveness",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return call(ctx, cmd, defaults, stdout, stderr, http.MethodGet, "/v1/health", nil)
				},
			},
		},
	}
}

func call(ctx context.Context, cmd *cli.Command, defaults Options, stdout, stderr io.Writer, method, path string, payload any) error {
	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cmd.Duration("timeout")}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(stderr))
	s.Suffix = " waiting for " + path
	s.Start()
	endpoint := strings.TrimRight(cmd.String("api-url"), "/") + path
	code, body, err := doRequest(ctx, client, method, endpoint, payload)
	s.Stop()
	if err != nil {
		return err
	}
	if code >= 400 {
		return &httpError{status: code, body: body}
	}

	if pretty, ok := prettyJSON(body); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return nil
	}
	if len(body) > 0 {
		_, _ = fmt.Fprintln(stdout, string(body))
	}
	return nil
}

func doRequest(ctx context.Context, client *http.Client, method, url string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
