// Package doctor checks that voicerelay can start: configuration, work
// directory, reference sample, synthesis server and Telegram token.
package doctor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/voicerelay/voicerelay/pkg/config"
	"github.com/voicerelay/voicerelay/pkg/voice"
)

// Check represents a single diagnostic check
type Check struct {
	Name    string
	Status  Status
	Message string
	Details []string
}

// Status represents the status of a check
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "✅"
	case StatusWarning:
		return "⚠️"
	case StatusError:
		return "❌"
	default:
		return "❓"
	}
}

// TokenChecker verifies the bot token against Telegram and returns the bot
// username.
type TokenChecker func(ctx context.Context, cfg *config.Config) (string, error)

type Options struct {
	EnvFile      string
	Out          io.Writer
	HTTPClient   *http.Client
	CheckTimeout time.Duration
	// CheckToken is skipped when nil.
	CheckToken TokenChecker
}

// Doctor runs all diagnostic checks
type Doctor struct {
	opts   Options
	cfg    *config.Config
	checks []Check
}

func NewDoctor(opts Options) *Doctor {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 10 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.CheckTimeout}
	}
	return &Doctor{opts: opts}
}

// Run executes all checks and prints a summary.
func (d *Doctor) Run(ctx context.Context) {
	fmt.Fprintln(d.opts.Out, "🏥 voicerelay doctor")
	fmt.Fprintln(d.opts.Out, "====================")
	fmt.Fprintln(d.opts.Out)

	d.checkConfig()

	if d.cfg != nil {
		d.checkTransport()
		d.checkWorkDir()
		d.checkReference(ctx)
		d.checkSynthesis(ctx)
		d.checkToken(ctx)
	}

	d.printSummary()
}

// Checks returns the results of the last Run.
func (d *Doctor) Checks() []Check {
	return d.checks
}

func (d *Doctor) checkConfig() {
	check := Check{Name: "Configuration"}

	var files []string
	if d.opts.EnvFile != "" {
		files = append(files, d.opts.EnvFile)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		check.Status = StatusError
		check.Message = "Failed to load configuration"
		check.Details = append(check.Details, fmt.Sprintf("Error: %v", err))
		d.checks = append(d.checks, check)
		return
	}

	d.cfg = cfg
	check.Status = StatusOK
	check.Message = fmt.Sprintf("%d allowed user(s)", len(cfg.AllowedUserIDs))
	d.checks = append(d.checks, check)
}

func (d *Doctor) checkTransport() {
	check := Check{Name: "Transport", Status: StatusOK}
	check.Message = fmt.Sprintf("Mode: %s", d.cfg.Transport)

	if d.cfg.RunsWebhook() {
		check.Details = append(check.Details, fmt.Sprintf("Listening on %s", d.cfg.ListenAddr()))
		switch {
		case d.cfg.RunsPolling():
			check.Status = StatusWarning
			check.Details = append(check.Details, "Polling removes any registered webhook: Telegram will not POST to this server")
		case d.cfg.Webhook.URL == "":
			check.Status = StatusWarning
			check.Details = append(check.Details, "WEBHOOK_URL not set: register the webhook with Telegram yourself")
		}
		if d.cfg.Webhook.Secret == "" {
			check.Details = append(check.Details, "WEBHOOK_SECRET not set: any client can post updates")
		}
	}

	d.checks = append(d.checks, check)
}

func (d *Doctor) checkWorkDir() {
	check := Check{Name: "Work Directory"}

	info, err := os.Stat(d.cfg.WorkDir)
	switch {
	case err != nil:
		check.Status = StatusError
		check.Message = "Work directory not accessible"
		check.Details = append(check.Details, fmt.Sprintf("Error: %v", err))
	case !info.IsDir():
		check.Status = StatusError
		check.Message = "Work directory is not a directory"
	default:
		f, err := os.CreateTemp(d.cfg.WorkDir, ".doctor-*")
		if err != nil {
			check.Status = StatusError
			check.Message = "Work directory is not writable"
			check.Details = append(check.Details, fmt.Sprintf("Error: %v", err))
			break
		}
		f.Close()
		os.Remove(f.Name())
		check.Status = StatusOK
		check.Message = "Writable"
	}
	check.Details = append(check.Details, fmt.Sprintf("Path: %s", d.cfg.WorkDir))

	d.checks = append(d.checks, check)
}

func (d *Doctor) checkReference(ctx context.Context) {
	check := Check{Name: "Reference Sample"}
	check.Details = append(check.Details, fmt.Sprintf("URL: %s", d.cfg.Reference.URL))

	status, err := d.probe(ctx, http.MethodHead, d.cfg.Reference.URL)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = d.probe(ctx, http.MethodGet, d.cfg.Reference.URL)
	}

	switch {
	case err != nil:
		check.Status = StatusError
		check.Message = "Reference sample unreachable"
		check.Details = append(check.Details, fmt.Sprintf("Error: %v", err))
	case status < 200 || status > 299:
		check.Status = StatusError
		check.Message = fmt.Sprintf("Reference sample returned HTTP %d", status)
	default:
		check.Status = StatusOK
		check.Message = "Reachable"
	}

	d.checks = append(d.checks, check)
}

func (d *Doctor) probe(ctx context.Context, method, url string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := d.opts.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (d *Doctor) checkSynthesis(ctx context.Context) {
	check := Check{Name: "Synthesis Server"}
	check.Details = append(check.Details, fmt.Sprintf("API: %s", d.cfg.Synth.APIBase))

	synth := voice.NewXTTSSynthesizer(d.cfg.Synth.APIBase, d.opts.CheckTimeout)
	if synth.IsAvailable(ctx) {
		check.Status = StatusOK
		check.Message = "Healthy"
	} else {
		// serve starts anyway and retries per message
		check.Status = StatusWarning
		check.Message = "Health check failed"
	}

	d.checks = append(d.checks, check)
}

func (d *Doctor) checkToken(ctx context.Context) {
	if d.opts.CheckToken == nil {
		return
	}
	check := Check{Name: "Telegram Token"}

	ctx, cancel := context.WithTimeout(ctx, d.opts.CheckTimeout)
	defer cancel()

	username, err := d.opts.CheckToken(ctx, d.cfg)
	if err != nil {
		check.Status = StatusError
		check.Message = "Telegram rejected the token"
		check.Details = append(check.Details, fmt.Sprintf("Error: %v", err))
	} else {
		check.Status = StatusOK
		check.Message = fmt.Sprintf("Authorized as @%s", username)
	}

	d.checks = append(d.checks, check)
}

func (d *Doctor) printSummary() {
	out := d.opts.Out
	fmt.Fprintln(out, "📊 Summary")
	fmt.Fprintln(out, "==========")
	fmt.Fprintln(out)

	okCount := 0
	warningCount := 0
	errorCount := 0

	for _, check := range d.checks {
		fmt.Fprintf(out, "%s %s\n", check.Status, check.Name)
		if check.Message != "" {
			fmt.Fprintf(out, "   %s\n", check.Message)
		}
		for _, detail := range check.Details {
			fmt.Fprintf(out, "   %s\n", detail)
		}
		fmt.Fprintln(out)

		switch check.Status {
		case StatusOK:
			okCount++
		case StatusWarning:
			warningCount++
		case StatusError:
			errorCount++
		}
	}

	fmt.Fprintln(out, "----------")
	fmt.Fprintf(out, "✅ %d passed  ⚠️ %d warnings  ❌ %d errors\n", okCount, warningCount, errorCount)
}

// IsHealthy returns true if all checks passed (no errors)
func (d *Doctor) IsHealthy() bool {
	for _, check := range d.checks {
		if check.Status == StatusError {
			return false
		}
	}
	return true
}
