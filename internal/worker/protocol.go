package worker

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/IshaanNene/RivalScope/internal/types"
)

// Worker commands.
const (
	CmdProduct    = "product"
	CmdSearch     = "search"
	CmdScreenshot = "screenshot"
)

// Environment variables set on a worker process. EnvBrowserBin is read back
// through the config loader as browser.bin.
const (
	EnvRequestID  = "RIVALSCOPE_WORKER_REQUEST_ID"
	EnvProxy      = "RIVALSCOPE_WORKER_PROXY"
	EnvBrowserBin = "RIVALSCOPE_BROWSER_BIN"
)

// Request is one worker invocation:
//
//	rivalscope worker <product|search|screenshot> <arg> [domain] [page|language]
type Request struct {
	Command string
	Arg     string
	Domain  string

	// Extra is the page number for search and the language for screenshots.
	Extra string
}

// Args renders the request as worker subcommand arguments. Everything after
// the command follows a "--" so keywords starting with "-" are never parsed
// as flags.
func (r Request) Args() []string {
	return append([]string{"worker", r.Command, "--"}, r.positional()...)
}

func (r Request) positional() []string {
	args := []string{r.Arg}
	if r.Domain != "" || r.Extra != "" {
		args = append(args, r.Domain)
	}
	if r.Extra != "" {
		args = append(args, r.Extra)
	}
	return args
}

// Page returns Extra as a 1-based page number.
func (r Request) Page() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Extra))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Timeout returns the hard deadline for the command.
func (r Request) Timeout(fetch, screenshot time.Duration) time.Duration {
	if r.Command == CmdScreenshot {
		return screenshot
	}
	return fetch
}

func (r Request) String() string {
	return strings.Join(append([]string{r.Command}, r.positional()...), " ")
}

// ParseRequest parses positional worker arguments (without the leading
// "worker"). A "--" directly after the command is skipped; cobra normally
// consumes it before the arguments get here.
func ParseRequest(args []string) (Request, error) {
	if len(args) > 2 && args[1] == "--" {
		args = append([]string{args[0]}, args[2:]...)
	}
	if len(args) < 2 {
		return Request{}, fmt.Errorf("usage: worker <command> <arg> [domain] [page|language]")
	}
	r := Request{Command: args[0], Arg: args[1]}
	if len(args) > 2 {
		r.Domain = args[2]
	}
	if len(args) > 3 {
		r.Extra = args[3]
	}
	return r, nil
}

// ErrorDoc is the failure document a worker writes instead of a result.
type ErrorDoc struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ScreenshotDoc carries a base64-encoded PNG.
type ScreenshotDoc struct {
	Screenshot string `json:"screenshot"`
}

// probe detects an ErrorDoc in an object result.
type probe struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decodeObject unmarshals an object document into v, returning a
// WorkerError when the document is an ErrorDoc.
func decodeObject(data []byte, v any) error {
	var p probe
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", types.ErrMalformedOutput, err)
	}
	if p.Error != "" {
		return &types.WorkerError{Code: p.Error, Message: p.Message}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", types.ErrMalformedOutput, err)
	}
	return nil
}
