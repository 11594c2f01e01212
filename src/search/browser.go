package search

import "github.com/pkg/browser"

// Opener launches a URL in the user's default browser. Abstracted so tests
// can observe dispatches without opening windows.
type Opener interface {
	Open(url string) error
}

type defaultOpener struct{}

func (defaultOpener) Open(url string) error {
	return browser.OpenURL(url)
}

// NewOpener returns the default-browser opener.
func NewOpener() Opener {
	return defaultOpener{}
}
