//go:build !windows

package overlay

import (
	"context"
	"fmt"

	"circle-search/src/capture"
)

type stubSelector struct{}

func newPlatformSelector() Selector { return &stubSelector{} }

func (s *stubSelector) Select(ctx context.Context) (capture.Region, bool, error) {
	return capture.Region{}, false, fmt.Errorf("interactive region selection not implemented for this platform")
}
