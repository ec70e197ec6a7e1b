package lsf

import (
	"fmt"
	"lsfassist-backend/lib/browser"
)

// SSO login pages vary between identity provider versions, so every
// field is located through an ordered strategy list, most specific
// first. The first visible match wins.

var usernameStrategies = []browser.Locator{
	{Kind: browser.ById, Value: "username"},
	{Kind: browser.ByName, Value: "j_username"},
	{Kind: browser.ByCss, Value: "input#idToken1"},
	{Kind: browser.ByCss, Value: "input[type='text']"},
}

var passwordStrategies = []browser.Locator{
	{Kind: browser.ById, Value: "password"},
	{Kind: browser.ByName, Value: "j_password"},
	{Kind: browser.ByCss, Value: "input#idToken2"},
	{Kind: browser.ByCss, Value: "input[type='password']"},
}

var submitStrategies = []browser.Locator{
	{Kind: browser.ByName, Value: "_eventId_proceed"},
	{Kind: browser.ById, Value: "loginButton_0"},
	{Kind: browser.ByCss, Value: "button[type='submit']"},
	{Kind: browser.ByCss, Value: "input[type='submit']"},
}

var tokenStrategies = []browser.Locator{
	{Kind: browser.ById, Value: "token"},
	{Kind: browser.ByName, Value: "otp"},
	{Kind: browser.ByCss, Value: "input[inputmode='numeric']"},
}

var proceedStrategies = []browser.Locator{
	{Kind: browser.ByName, Value: "_eventId_proceed"},
	{Kind: browser.ByCss, Value: "button[type='submit']"},
}

var ErrElementNotFound = fmt.Errorf("no strategy resolved a visible element")

// resolveVisible tries each locator in order against the current page
// and returns the first element that exists and is visible. A locator
// that matches nothing is an expected outcome, not an error, so
// per-strategy lookup failures are swallowed.
func resolveVisible(session browser.Session, strategies []browser.Locator) (browser.Element, error) {
	for _, l := range strategies {
		el, err := session.Element(l)
		if err != nil {
			continue
		}
		visible, err := el.Visible()
		if err != nil || !visible {
			continue
		}
		return el, nil
	}
	return nil, ErrElementNotFound
}
