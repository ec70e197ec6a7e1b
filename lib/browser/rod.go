package browser

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

type Options struct {
	// RemoteURL is the websocket url of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string
	// Headful disables headless mode, mostly useful when debugging
	// login flows interactively.
	Headful bool
	// Stealth injects the stealth patches before every navigation.
	Stealth bool
	// OpTimeout bounds individual page operations. Default: 30s.
	OpTimeout time.Duration
}

type rodSession struct {
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher
	timeout time.Duration
}

// NewSession launches (or connects to) Chrome and opens a single blank
// page owned by the returned session. The caller must Close it.
func NewSession(opts Options) (Session, error) {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 30 * time.Second
	}

	var wsURL string
	var lnch *launcher.Launcher
	if opts.RemoteURL != "" {
		wsURL = opts.RemoteURL
		slog.Info("connecting to remote chrome", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(!opts.Headful).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		wsURL = u
		lnch = l
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	var page *rod.Page
	var err error
	if opts.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		b.Close()
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &rodSession{
		browser: b,
		page:    page,
		lnch:    lnch,
		timeout: opts.OpTimeout,
	}, nil
}

func (s *rodSession) Navigate(url string) error {
	page := s.page.Timeout(s.timeout)
	err := page.Navigate(url)
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	err = page.WaitLoad()
	if err != nil {
		return fmt.Errorf("wait for page load: %w", err)
	}
	return nil
}

func (s *rodSession) CurrentURL() (string, error) {
	info, err := s.page.Timeout(s.timeout).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (s *rodSession) PageSource() (string, error) {
	return s.page.Timeout(s.timeout).HTML()
}

func (s *rodSession) Element(l Locator) (Element, error) {
	has, el, err := s.page.Timeout(s.timeout).Has(l.Selector())
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrNoElement
	}
	return rodElement{el: el.Timeout(s.timeout)}, nil
}

func (s *rodSession) ElementByText(selector, text string) (Element, error) {
	has, el, err := s.page.Timeout(s.timeout).HasR(selector, regexp.QuoteMeta(text))
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrNoElement
	}
	return rodElement{el: el.Timeout(s.timeout)}, nil
}

func (s *rodSession) Screenshot() ([]byte, error) {
	return s.page.Timeout(s.timeout).Screenshot(false, nil)
}

func (s *rodSession) Cookies() ([]*http.Cookie, error) {
	rodCookies, err := s.page.Cookies(nil)
	if err != nil {
		return nil, err
	}
	cookies := make([]*http.Cookie, len(rodCookies))
	for i, c := range rodCookies {
		cookies[i] = &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		}
	}
	return cookies, nil
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	if s.lnch != nil {
		s.lnch.Cleanup()
	}
	return err
}

type rodElement struct {
	el *rod.Element
}

func (e rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e rodElement) Clear() error {
	err := e.el.SelectAllText()
	if err != nil {
		return err
	}
	return e.el.Type(input.Backspace)
}

func (e rodElement) Input(text string) error {
	return e.el.Input(text)
}

func (e rodElement) Visible() (bool, error) {
	return e.el.Visible()
}

func (e rodElement) SubmitForm() error {
	_, err := e.el.Eval(`() => { if (this.form) this.form.submit() }`)
	return err
}
