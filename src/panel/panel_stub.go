//go:build !windows

package panel

func newPlatformPanel() Panel {
	return logPanel{}
}
