// pattern: Imperative Shell

// Package issue fetches issue and pull-request text from the tracker
// through the gh CLI. It is a thin adapter: the rest of the system
// only sees the Issue value.
package issue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"gitloom/internal/logging"
)

// Issue is the fetched tracker item.
type Issue struct {
	Type  string // "issue" or "pr"
	Key   string // tracker number as a string
	Title string
	Body  string
}

// Fetcher retrieves the text of a tracker reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (Issue, error)
}

// Executor runs a host command and returns its stdout.
type Executor func(ctx context.Context, name string, args ...string) (string, error)

// Ref is a parsed tracker reference.
type Ref struct {
	Type   string
	Number int
}

// ParseRef accepts the reference forms users type: "123", "#123",
// "pr/45", "pull/45", and full GitHub issue/PR URLs.
func ParseRef(ref string) (Ref, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Ref{}, fmt.Errorf("empty issue reference")
	}

	if strings.Contains(ref, "://") {
		return parseURL(ref)
	}

	typ := "issue"
	rest := ref
	switch {
	case strings.HasPrefix(ref, "pr/"):
		typ = "pr"
		rest = strings.TrimPrefix(ref, "pr/")
	case strings.HasPrefix(ref, "pull/"):
		typ = "pr"
		rest = strings.TrimPrefix(ref, "pull/")
	default:
		rest = strings.TrimPrefix(ref, "#")
	}

	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return Ref{}, fmt.Errorf("invalid issue reference %q", ref)
	}
	return Ref{Type: typ, Number: n}, nil
}

func parseURL(ref string) (Ref, error) {
	segments := strings.Split(strings.TrimSuffix(ref, "/"), "/")
	for i, seg := range segments {
		var typ string
		switch seg {
		case "issues":
			typ = "issue"
		case "pull":
			typ = "pr"
		default:
			continue
		}
		if i+1 >= len(segments) {
			break
		}
		n, err := strconv.Atoi(segments[i+1])
		if err != nil || n <= 0 {
			break
		}
		return Ref{Type: typ, Number: n}, nil
	}
	return Ref{}, fmt.Errorf("invalid issue URL %q", ref)
}

// GHFetcher shells out to the gh CLI. The repository is inferred by
// gh from the working directory.
type GHFetcher struct {
	exec Executor
	log  *logging.ScopedLogger
}

func NewGHFetcher(exec Executor, log *logging.ScopedLogger) *GHFetcher {
	if exec == nil {
		exec = hostExec
	}
	if log == nil {
		log = logging.NopLogger()
	}
	return &GHFetcher{exec: exec, log: log}
}

func (f *GHFetcher) Fetch(ctx context.Context, ref string) (Issue, error) {
	parsed, err := ParseRef(ref)
	if err != nil {
		return Issue{}, err
	}

	sub := "issue"
	if parsed.Type == "pr" {
		sub = "pr"
	}
	number := strconv.Itoa(parsed.Number)

	f.log.Debug("fetching tracker item", "type", parsed.Type, "number", number)

	out, err := f.exec(ctx, "gh", sub, "view", number, "--json", "title,body")
	if err != nil {
		return Issue{}, fmt.Errorf("fetch %s %s: %w", parsed.Type, number, err)
	}

	var payload struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return Issue{}, fmt.Errorf("parse gh output for %s %s: %w", parsed.Type, number, err)
	}

	return Issue{
		Type:  parsed.Type,
		Key:   number,
		Title: payload.Title,
		Body:  payload.Body,
	}, nil
}

func hostExec(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail != "" {
			return "", fmt.Errorf("%s: %s: %w", name, detail, err)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}
