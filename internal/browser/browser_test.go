package browser

import (
	"runtime"
	"strings"
	"testing"
)

func TestOpenCommand(t *testing.T) {
	cmd, err := openCommand("https://mail.google.com/#all/abc123")
	if err != nil {
		t.Fatalf("openCommand() error = %v", err)
	}

	var wantBinary string
	switch runtime.GOOS {
	case "darwin":
		wantBinary = "open"
	case "windows":
		wantBinary = "rundll32"
	default:
		wantBinary = "xdg-open"
	}

	if !strings.HasSuffix(cmd.Path, wantBinary) && cmd.Args[0] != wantBinary {
		t.Errorf("openCommand() binary = %q, want %q", cmd.Args[0], wantBinary)
	}

	found := false
	for _, arg := range cmd.Args {
		if strings.Contains(arg, "mail.google.com") {
			found = true
		}
	}
	if !found {
		t.Error("openCommand() args should contain the URL")
	}
}
