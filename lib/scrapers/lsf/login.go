package lsf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lsfassist-backend/lib/browser"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var (
	ErrWaitTimeout           = errors.New("timed out waiting for page condition")
	ErrUsernameFieldNotFound = errors.New("Username field not found")
	ErrPasswordFieldNotFound = errors.New("Password field not found")
	ErrTokenFieldNotFound    = errors.New("Token field not found")
	ErrRedirectTimeout       = errors.New("Timed out waiting for portal redirect")
)

type loginState string

const (
	stateStart            loginState = "START"
	stateCheckSession     loginState = "CHECK_SESSION"
	stateResumed          loginState = "RESUMED"
	stateOnSso            loginState = "ON_SSO"
	stateOnPortalPreLogin loginState = "ON_PORTAL_PRE_LOGIN"
	stateInjecting        loginState = "INJECTING"
	stateAuthenticated    loginState = "AUTHENTICATED"
	stateFailed           loginState = "FAILED"
)

// login link text variants on the portal's landing markup, in priority
// order
var loginLabels = []string{"Anmelden", "Login", "Einloggen"}

// loginFlow owns one login attempt against one browser session. The
// session is shared, sequentially-accessed state; nothing here may be
// called concurrently.
type loginFlow struct {
	session   browser.Session
	creds     Credentials
	opts      Options
	artifacts artifactSink
}

func (f *loginFlow) currentURL() string {
	url, err := f.session.CurrentURL()
	if err != nil {
		return ""
	}
	return url
}

func (f *loginFlow) pageSource() string {
	source, err := f.session.PageSource()
	if err != nil {
		return ""
	}
	return source
}

// waitFor polls the condition until it holds or the wait timeout
// elapses. All waits in the login flow are synchronous bounded polls;
// there is no parallel execution of login steps.
func (f *loginFlow) waitFor(ctx context.Context, cond func() bool) error {
	deadline := time.Now().Add(f.opts.WaitTimeout)
	for {
		if cond() {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrWaitTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.opts.PollInterval):
		}
	}
}

func (f *loginFlow) onPortal() bool {
	return strings.Contains(f.currentURL(), portalDomain)
}

func (f *loginFlow) onSso() bool {
	return strings.Contains(f.currentURL(), ssoDomain)
}

// authenticated pages carry a logout affordance
func (f *loginFlow) loggedInMarker() bool {
	return strings.Contains(f.pageSource(), "Abmelden")
}

// run drives the state machine
// START -> CHECK_SESSION -> {RESUMED | ON_SSO | ON_PORTAL_PRE_LOGIN}
// -> INJECTING -> {AUTHENTICATED | FAILED}.
func (f *loginFlow) run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "login")
	defer span.End()

	state := stateStart
	for {
		span.AddEvent("transition", oteltrace.WithAttributes(
			attribute.String("state", string(state)),
		))
		slog.DebugContext(ctx, "login state", "state", state)

		switch state {
		case stateStart:
			err := f.session.Navigate(lecturesURL)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to navigate to lectures deep link")
				return err
			}
			state = stateCheckSession

		case stateCheckSession:
			state = f.checkSession(ctx)

		case stateResumed:
			slog.InfoContext(ctx, "session resumed, already logged in")
			return nil

		case stateOnSso:
			slog.InfoContext(ctx, "already on sso page")
			state = stateInjecting

		case stateOnPortalPreLogin:
			f.clickLoginAffordance(ctx)
			state = stateInjecting

		case stateInjecting:
			err := f.inject(ctx)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "credential injection failed")
				f.artifacts.capture(ctx, f.session, "lsf_injection_fail")
				return err
			}
			return nil
		}
	}
}

// checkSession waits (best effort) until the browser has settled on
// either the sso domain or a portal page whose content gives away the
// login state. A timeout here is tolerated: injection proceeds against
// whatever state was observed.
func (f *loginFlow) checkSession(ctx context.Context) loginState {
	err := f.waitFor(ctx, func() bool {
		if f.onSso() {
			return true
		}
		source := f.pageSource()
		return strings.Contains(source, "Abmelden") ||
			strings.Contains(source, "Anmelden") ||
			strings.Contains(source, "Login")
	})
	if err != nil {
		slog.WarnContext(ctx, "session check wait elapsed, continuing", "err", err)
	}

	if f.onPortal() && f.loggedInMarker() {
		return stateResumed
	}
	if f.onSso() {
		return stateOnSso
	}
	return stateOnPortalPreLogin
}

// clickLoginAffordance looks for a login link on the portal page and
// clicks it. Some portal versions redirect to the sso automatically,
// so a missing affordance or a failed click never aborts the flow.
func (f *loginFlow) clickLoginAffordance(ctx context.Context) {
	for _, label := range loginLabels {
		el, err := f.session.ElementByText("a", label)
		if err != nil {
			continue
		}
		err = el.Click()
		if err != nil {
			slog.WarnContext(ctx, "login affordance click failed, continuing", "label", label, "err", err)
			return
		}
		slog.InfoContext(ctx, "clicked login affordance", "label", label)
		return
	}
	slog.WarnContext(ctx, "no login affordance found, assuming automatic sso redirect")
}

// inject performs the sso form fill and submit sequence, including
// conditional second-factor handling.
func (f *loginFlow) inject(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "injectSsoCredentials")
	defer span.End()

	// 1. wait until the redirect dance has landed on either the sso
	// or the portal. this wait gates everything after it.
	err := f.waitFor(ctx, func() bool { return f.onSso() || f.onPortal() })
	if err != nil {
		return fmt.Errorf("waiting for sso or portal page: %w", err)
	}

	// 2. idempotent re-entry: a live portal session needs no injection
	if f.onPortal() && f.loggedInMarker() {
		slog.InfoContext(ctx, "portal session already authenticated, skipping injection")
		return nil
	}

	// 3+4. username
	userField, err := resolveVisible(f.session, usernameStrategies)
	if err != nil {
		f.artifacts.capture(ctx, f.session, "lsf_login_no_user")
		return ErrUsernameFieldNotFound
	}
	err = fillField(userField, f.creds.Username)
	if err != nil {
		return fmt.Errorf("filling username field: %w", err)
	}

	// 5+6. password
	passField, err := resolveVisible(f.session, passwordStrategies)
	if err != nil {
		return ErrPasswordFieldNotFound
	}
	err = fillField(passField, f.creds.Password)
	if err != nil {
		return fmt.Errorf("filling password field: %w", err)
	}

	// 7. submit, falling back to submitting the password field's form
	submitBtn, err := resolveVisible(f.session, submitStrategies)
	if err == nil {
		err = submitBtn.Click()
	} else {
		err = passField.SubmitForm()
	}
	if err != nil {
		return fmt.Errorf("submitting login form: %w", err)
	}

	// 8. second factor, if the idp asks for one
	f.handleSecondFactor(ctx)

	// 9. the portal redirect is the success signal
	err = f.waitFor(ctx, f.onPortal)
	if err != nil {
		f.artifacts.capture(ctx, f.session, "lsf_login_no_redirect")
		return ErrRedirectTimeout
	}

	slog.InfoContext(ctx, "successfully logged in")
	return nil
}

func (f *loginFlow) otpIndicator() bool {
	source := strings.ToLower(f.pageSource())
	return strings.Contains(source, "token") || strings.Contains(source, "otp")
}

// handleSecondFactor waits for either an otp prompt or the portal
// redirect. Sessions without 2fa enabled skip the prompt entirely, so
// a timeout here is tolerated and every failure is non-fatal: the
// final redirect wait decides whether login worked.
func (f *loginFlow) handleSecondFactor(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "handleSecondFactor")
	defer span.End()

	err := f.waitFor(ctx, func() bool { return f.otpIndicator() || f.onPortal() })
	if err != nil {
		slog.WarnContext(ctx, "no otp prompt or portal redirect observed yet", "err", err)
	}

	if !f.otpIndicator() {
		return
	}
	if f.creds.TotpSecret == "" {
		// without a shared secret there is no code to enter; the
		// redirect wait below will report the failure
		slog.WarnContext(ctx, "otp prompt present but no totp secret configured")
		return
	}

	slog.InfoContext(ctx, "otp code required")
	code, err := f.opts.TotpCode(f.creds.TotpSecret, time.Now())
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to compute totp code", "err", err)
		return
	}

	tokenField, err := resolveVisible(f.session, tokenStrategies)
	if err != nil {
		slog.WarnContext(ctx, "otp prompt present but token field not found")
		return
	}
	err = tokenField.Input(code)
	if err != nil {
		slog.WarnContext(ctx, "failed to enter otp code", "err", err)
		return
	}

	proceed, err := resolveVisible(f.session, proceedStrategies)
	if err != nil {
		slog.WarnContext(ctx, "otp proceed control not found")
		return
	}
	err = proceed.Click()
	if err != nil {
		slog.WarnContext(ctx, "failed to activate otp proceed control", "err", err)
	}
}

func fillField(el browser.Element, value string) error {
	err := el.Clear()
	if err != nil {
		return err
	}
	return el.Input(value)
}
