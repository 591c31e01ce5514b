package auth

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Browser opens a URL for the user
type Browser interface {
	Open(url string) error
}

// SystemBrowser opens URLs in the platform's default browser
type SystemBrowser struct{}

// NewSystemBrowser returns the default Browser
func NewSystemBrowser() *SystemBrowser {
	return &SystemBrowser{}
}

// Open starts the platform opener without waiting for the browser to exit
func (b *SystemBrowser) Open(url string) error {
	cmd, err := browserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	// Reap the opener once it hands the URL over
	go func() { _ = cmd.Wait() }()
	return nil
}

func browserCommand(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", url), nil
	case "darwin":
		return exec.Command("open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
