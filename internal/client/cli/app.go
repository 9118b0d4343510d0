// Package cli implements the fieldlog admin client: a small command-line
// tool for operators to check backend health, run a diagnostics scan and
// clean up dangling photo references against a running server.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fieldops/fieldlog/internal/diagnostics"
	"github.com/fieldops/fieldlog/internal/httpx"
)

// App talks to a fieldlog server over its REST API.
type App struct {
	baseURL string
	http    *http.Client
	out     io.Writer
}

// NewApp builds an App for the server at baseURL, writing output to out.
func NewApp(baseURL string, out io.Writer) *App {
	return &App{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpx.NewClient(httpx.DefaultTimeout),
		out:     out,
	}
}

// Run dispatches one command. Supported commands are status, scan and
// cleanup; cleanup requires the confirm flag to have been handled by the
// caller already.
func (a *App) Run(ctx context.Context, command string, confirmed bool) error {
	switch command {
	case "status":
		return a.status(ctx)
	case "scan":
		return a.scan(ctx)
	case "cleanup":
		if !confirmed {
			return fmt.Errorf("cleanup modifies records; rerun with -yes to confirm")
		}
		return a.cleanup(ctx)
	default:
		return fmt.Errorf("unknown command %q (expected status, scan or cleanup)", command)
	}
}

type statusPayload struct {
	Data struct {
		Records []struct {
			Name    string `json:"name"`
			State   string `json:"state"`
			Reason  string `json:"reason"`
			Healthy *bool  `json:"healthy"`
		} `json:"records"`
		Photos []struct {
			Name    string `json:"name"`
			State   string `json:"state"`
			Reason  string `json:"reason"`
			Healthy *bool  `json:"healthy"`
		} `json:"photos"`
		ActiveRecord string `json:"activeRecordBackend"`
	} `json:"data"`
}

func (a *App) status(ctx context.Context) error {
	var payload statusPayload
	if err := a.get(ctx, "/api/v1/storage/status", &payload); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "active record backend: %s\n", payload.Data.ActiveRecord)
	fmt.Fprintln(a.out, "record backends:")
	for _, b := range payload.Data.Records {
		fmt.Fprintf(a.out, "  %-10s %s%s\n", b.Name, b.State, reasonSuffix(b.Reason))
	}
	fmt.Fprintln(a.out, "photo backends:")
	for _, b := range payload.Data.Photos {
		health := ""
		if b.Healthy != nil {
			if *b.Healthy {
				health = " (reachable)"
			} else {
				health = " (unreachable)"
			}
		}
		fmt.Fprintf(a.out, "  %-10s %s%s%s\n", b.Name, b.State, reasonSuffix(b.Reason), health)
	}
	return nil
}

func (a *App) scan(ctx context.Context) error {
	var payload struct {
		Data diagnostics.Report `json:"data"`
	}
	if err := a.get(ctx, "/api/v1/diagnostics/scan", &payload); err != nil {
		return err
	}

	report := payload.Data
	fmt.Fprintf(a.out, "referenced photos: %d\n", report.TotalReferencedPhotos)
	for backend, n := range report.CountsByBackend {
		fmt.Fprintf(a.out, "  %-10s %d\n", backend, n)
	}
	for _, b := range report.Degraded {
		fmt.Fprintf(a.out, "warning: %s unreachable, its references were not verified\n", b)
	}

	if len(report.Inconsistent) == 0 {
		fmt.Fprintln(a.out, "no dangling references")
		return nil
	}
	fmt.Fprintf(a.out, "dangling references: %d\n", len(report.Inconsistent))
	for _, ref := range report.Inconsistent {
		fmt.Fprintf(a.out, "  %s record of %s, %s: %s\n", ref.RecordType, ref.Owner, ref.Field, ref.Reason)
	}
	return nil
}

func (a *App) cleanup(ctx context.Context) error {
	body, err := json.Marshal(map[string]bool{"confirm": true})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/v1/diagnostics/cleanup", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("cleanup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cleanup failed: status %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Cleaned int `json:"cleaned"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode cleanup response: %w", err)
	}

	fmt.Fprintf(a.out, "cleaned %d dangling reference(s)\n", payload.Data.Cleaned)
	return nil
}

func (a *App) get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func reasonSuffix(reason string) string {
	if reason == "" {
		return ""
	}
	return " (" + reason + ")"
}
