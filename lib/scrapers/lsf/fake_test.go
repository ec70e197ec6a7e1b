package lsf

import (
	"fmt"
	"net/http"
	"strings"

	"lsfassist-backend/lib/browser"
)

// fakeElement records the mutations the login flow performs on it.
type fakeElement struct {
	visible bool

	clicks    int
	clears    int
	inputs    []string
	submits   int
	clickErr  error
	onClick   func()
	visibleFn func() (bool, error)
}

func (e *fakeElement) Click() error {
	e.clicks++
	if e.clickErr != nil {
		return e.clickErr
	}
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

func (e *fakeElement) Clear() error {
	e.clears++
	return nil
}

func (e *fakeElement) Input(text string) error {
	e.inputs = append(e.inputs, text)
	return nil
}

func (e *fakeElement) Visible() (bool, error) {
	if e.visibleFn != nil {
		return e.visibleFn()
	}
	return e.visible, nil
}

func (e *fakeElement) SubmitForm() error {
	e.submits++
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

// fakeSession is an in-memory browser.Session whose url and page
// source the test mutates through element hooks.
type fakeSession struct {
	url    string
	source string

	// keyed by Locator.String()
	elements map[string]*fakeElement
	// keyed by the label passed to ElementByText
	textElements map[string]*fakeElement

	navigations []string
	onNavigate  func(url string)
	screenshots int
	closed      int
	cookies     []*http.Cookie
	cookiesErr  error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		elements:     map[string]*fakeElement{},
		textElements: map[string]*fakeElement{},
		// keeps the hybrid fetch offline in tests: cookie export
		// fails, so the page source fallback is used
		cookiesErr: fmt.Errorf("no cookies in fake session"),
	}
}

func (s *fakeSession) Navigate(url string) error {
	s.navigations = append(s.navigations, url)
	s.url = url
	if s.onNavigate != nil {
		s.onNavigate(url)
	}
	return nil
}

func (s *fakeSession) CurrentURL() (string, error) {
	return s.url, nil
}

func (s *fakeSession) PageSource() (string, error) {
	return s.source, nil
}

func (s *fakeSession) Element(l browser.Locator) (browser.Element, error) {
	el, ok := s.elements[l.String()]
	if !ok {
		return nil, browser.ErrNoElement
	}
	return el, nil
}

func (s *fakeSession) ElementByText(selector, text string) (browser.Element, error) {
	el, ok := s.textElements[text]
	if !ok {
		return nil, browser.ErrNoElement
	}
	return el, nil
}

func (s *fakeSession) Screenshot() ([]byte, error) {
	s.screenshots++
	return []byte("png"), nil
}

func (s *fakeSession) Cookies() ([]*http.Cookie, error) {
	if s.cookiesErr != nil {
		return nil, s.cookiesErr
	}
	return s.cookies, nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

func locatorKey(kind browser.LocatorKind, value string) string {
	return browser.Locator{Kind: kind, Value: value}.String()
}

// portalSource builds a minimal authenticated lectures page.
func portalSource(body string) string {
	return strings.Join([]string{
		`<html><body><a href="#">Abmelden</a>`,
		body,
		`</body></html>`,
	}, "\n")
}
