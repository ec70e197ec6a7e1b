// Package lsf logs into the LSF course-registration portal through the
// university's sso identity provider and extracts the classes of the
// currently running semester from the lectures page.
package lsf

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"strings"
	"time"

	"lsfassist-backend/lib/browser"
	"lsfassist-backend/lib/restyutil"
	"lsfassist-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/pquerna/otp/totp"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("lsfassist.lib.scrapers.lsf")

const (
	portalDomain = "lsf.tu-dortmund.de"
	ssoDomain    = "sso.itmc"

	// deep link into the portal's "my lectures" view; initial
	// navigation target and post-login fallback target
	lecturesURL = "https://www.lsf.tu-dortmund.de/qisserver/rds?state=wscheck&wscheck=leistungen&navigationPosition=functions%2CmyLecturesWScheck&breadcrumb=myLectures&topitem=functions&subitem=myLecturesWScheck"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// Credentials are read-only for the duration of a login attempt.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// TotpSecret enables the second factor. Without it an otp prompt
	// is an expected failure path.
	TotpSecret string `json:"totp_secret"`
}

type Options struct {
	// ExpectedTerm replaces the default exact-term pattern, e.g. the
	// output of CurrentTerm. Empty keeps the built-in default.
	ExpectedTerm string
	// DebugDir receives screenshot/page-source pairs on login
	// failures. Empty disables artifact capture.
	DebugDir string
	// WaitTimeout bounds every explicit wait. Default: 20s.
	WaitTimeout time.Duration
	// PollInterval between wait condition checks. Default: 500ms.
	PollInterval time.Duration
	// NewSession creates the browser session owned by one
	// GetCurrentClasses call. Default: a stealth rod session.
	NewSession func() (browser.Session, error)
	// TotpCode computes the current time-step code from the shared
	// secret. Default: rfc 6238 via pquerna/otp.
	TotpCode func(secret string, t time.Time) (string, error)
}

func (o *Options) defaults() {
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = 20 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.NewSession == nil {
		o.NewSession = func() (browser.Session, error) {
			return browser.NewSession(browser.Options{Stealth: true})
		}
	}
	if o.TotpCode == nil {
		o.TotpCode = totp.GenerateCode
	}
}

type Class struct {
	Name string `json:"name"`
}

// Result is what the caller gets back. No error ever propagates out of
// GetCurrentClasses; failures surface here.
type Result struct {
	Success        bool    `json:"success"`
	CurrentClasses []Class `json:"current_classes"`
	Error          string  `json:"error,omitempty"`
}

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput dumps every fallback-fetch http exchange to
// the given output, for verbose debugging runs.
func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}

// GetCurrentClasses runs the whole pipeline: browser login through the
// sso, lectures page retrieval, semester-scoped class extraction. The
// browser session is released on every exit path.
func GetCurrentClasses(ctx context.Context, creds Credentials, opts Options) (result Result) {
	ctx, span := tracer.Start(ctx, "GetCurrentClasses")
	defer span.End()

	opts.defaults()

	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, "scrape panicked")
			slog.ErrorContext(ctx, "scrape panicked", "panic", r)
			result = Result{Success: false, Error: fmt.Sprint(r)}
		}
	}()

	session, err := opts.NewSession()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create browser session")
		return Result{Success: false, Error: err.Error()}
	}
	defer func() {
		err := session.Close()
		if err != nil {
			slog.WarnContext(ctx, "failed to release browser session", "err", err)
		}
	}()

	flow := &loginFlow{
		session:   session,
		creds:     creds,
		opts:      opts,
		artifacts: artifactSink{dir: opts.DebugDir},
	}
	err = flow.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return Result{Success: false, Error: err.Error()}
	}

	// make sure we are looking at the lectures view before fetching
	url, err := session.CurrentURL()
	if err == nil && !strings.Contains(url, "state=wscheck") {
		slog.InfoContext(ctx, "navigating back to lectures page")
		err = session.Navigate(lecturesURL)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to navigate to lectures page")
			return Result{Success: false, Error: err.Error()}
		}
	}

	markup := fetchLecturesPage(ctx, session)

	names, err := ExtractCurrentClasses(ctx, markup, opts.ExpectedTerm)
	if err != nil {
		// a malformed page degrades to an empty class list
		slog.WarnContext(ctx, "extraction failed on fetched page", "err", err)
		names = nil
	}

	classes := make([]Class, len(names))
	for i, name := range names {
		classes[i] = Class{Name: name}
	}
	slog.InfoContext(ctx, "extracted current classes", "count", len(classes))
	return Result{Success: true, CurrentClasses: classes}
}

// fetchLecturesPage retrieves the lectures markup over plain http with
// the browser's session cookies, because the rendered page source can
// interleave scripted widgets into the listing. Falls back to the
// browser's own page source when the fetch fails.
func fetchLecturesPage(ctx context.Context, session browser.Session) string {
	ctx, span := tracer.Start(ctx, "fetchLecturesPage")
	defer span.End()

	markup, err := fetchViaHttp(ctx, session)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "http fetch failed, using browser page source", "err", err)
		markup, err = session.PageSource()
		if err != nil {
			span.SetStatus(codes.Error, "failed to read browser page source")
			return ""
		}
	}
	return markup
}

func fetchViaHttp(ctx context.Context, session browser.Session) (string, error) {
	cookies, err := session.Cookies()
	if err != nil {
		return "", fmt.Errorf("exporting browser cookies: %w", err)
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return "", err
	}
	client.SetCookieJar(jar)
	client.SetCookies(cookies)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "lsfassist.lib.scrapers.lsf.http")
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	res, err := client.R().
		SetContext(ctx).
		Get(lecturesURL)
	if err != nil {
		return "", err
	}
	if res.StatusCode() != 200 {
		return "", fmt.Errorf("lectures page returned status %d", res.StatusCode())
	}
	return res.String(), nil
}
