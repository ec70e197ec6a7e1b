package lsf

import (
	"testing"

	"lsfassist-backend/lib/browser"

	"github.com/stretchr/testify/require"
)

func TestResolveVisibleExhaustion(t *testing.T) {
	session := newFakeSession()

	el, err := resolveVisible(session, usernameStrategies)
	require.ErrorIs(t, err, ErrElementNotFound)
	require.Nil(t, el)
}

func TestResolveVisibleSkipsHidden(t *testing.T) {
	session := newFakeSession()
	hidden := &fakeElement{visible: false}
	shown := &fakeElement{visible: true}
	session.elements[locatorKey(browser.ById, "username")] = hidden
	session.elements[locatorKey(browser.ByName, "j_username")] = shown

	el, err := resolveVisible(session, usernameStrategies)
	require.NoError(t, err)
	require.Same(t, shown, el)
}

func TestResolveVisiblePriorityOrder(t *testing.T) {
	session := newFakeSession()
	specific := &fakeElement{visible: true}
	generic := &fakeElement{visible: true}
	session.elements[locatorKey(browser.ById, "password")] = specific
	session.elements[locatorKey(browser.ByCss, "input[type='password']")] = generic

	el, err := resolveVisible(session, passwordStrategies)
	require.NoError(t, err)
	require.Same(t, specific, el)
}

func TestResolveVisibleSwallowsVisibilityErrors(t *testing.T) {
	session := newFakeSession()
	broken := &fakeElement{visibleFn: func() (bool, error) {
		return false, browser.ErrNoElement
	}}
	ok := &fakeElement{visible: true}
	session.elements[locatorKey(browser.ById, "token")] = broken
	session.elements[locatorKey(browser.ByName, "otp")] = ok

	el, err := resolveVisible(session, tokenStrategies)
	require.NoError(t, err)
	require.Same(t, ok, el)
}
