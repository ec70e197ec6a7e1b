// Package browser wraps a headless Chrome controlled through Rod behind
// a small session contract so scraping logic can be tested against fakes.
package browser

import (
	"fmt"
	"net/http"
)

type LocatorKind string

const (
	ById   LocatorKind = "id"
	ByName LocatorKind = "name"
	ByCss  LocatorKind = "css"
)

// Locator names a single way of finding an element on the current page.
type Locator struct {
	Kind  LocatorKind
	Value string
}

// Selector renders the locator as a css selector.
func (l Locator) Selector() string {
	switch l.Kind {
	case ById:
		return fmt.Sprintf("[id=%q]", l.Value)
	case ByName:
		return fmt.Sprintf("[name=%q]", l.Value)
	default:
		return l.Value
	}
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Kind, l.Value)
}

type Element interface {
	Click() error
	// Clear empties an input field.
	Clear() error
	// Input types text into an input field.
	Input(text string) error
	Visible() (bool, error)
	// SubmitForm submits the form enclosing the element, for login pages
	// whose submit control cannot be located.
	SubmitForm() error
}

// Session is a single exclusively-owned browser navigation context.
// Implementations are not safe for concurrent use.
type Session interface {
	Navigate(url string) error
	CurrentURL() (string, error)
	PageSource() (string, error)
	// Element returns the first element matching the locator on the
	// current page, or ErrNoElement if there is none right now.
	Element(l Locator) (Element, error)
	// ElementByText returns the first element matching the css
	// selector whose visible text contains `text`, or ErrNoElement.
	ElementByText(selector, text string) (Element, error)
	Screenshot() ([]byte, error)
	Cookies() ([]*http.Cookie, error)
	Close() error
}

var ErrNoElement = fmt.Errorf("no element matched the locator")
