package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Merith-TK/tftpctl/internal/tftp"
)

func TestDispatchHelp(t *testing.T) {
	var out bytes.Buffer
	if err := dispatch("help", nil, "server", 69, tftp.DefaultOptions(), nil, &out); err != nil {
		t.Fatalf("dispatch(help) returned error: %v", err)
	}
	if !strings.Contains(out.String(), "quit | exit | bye") {
		t.Errorf("help output missing command summary: %q", out.String())
	}
}

func TestDispatchDirUnsupported(t *testing.T) {
	var out bytes.Buffer
	if err := dispatch("dir", nil, "server", 69, tftp.DefaultOptions(), nil, &out); err != nil {
		t.Fatalf("dispatch(dir) returned error: %v", err)
	}
	if !strings.Contains(out.String(), "not supported") {
		t.Errorf("dir output = %q, want a not-supported message", out.String())
	}
}

func TestDispatchQuitVariants(t *testing.T) {
	for _, cmd := range []string{"quit", "exit", "bye"} {
		var out bytes.Buffer
		err := dispatch(cmd, nil, "server", 69, tftp.DefaultOptions(), nil, &out)
		if err != errQuit {
			t.Errorf("dispatch(%s) returned %v, want errQuit", cmd, err)
		}
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	if err := dispatch("frobnicate", nil, "server", 69, tftp.DefaultOptions(), nil, &out); err != nil {
		t.Fatalf("dispatch(unknown) returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Unknown command") {
		t.Errorf("unknown-command output = %q", out.String())
	}
}

func TestDispatchGetMissingArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	if err := dispatch("get", nil, "server", 69, tftp.DefaultOptions(), nil, &out); err != nil {
		t.Fatalf("dispatch(get) with no args returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Usage: get") {
		t.Errorf("get usage output = %q", out.String())
	}
}

func TestDispatchPutMissingArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	if err := dispatch("put", nil, "server", 69, tftp.DefaultOptions(), nil, &out); err != nil {
		t.Fatalf("dispatch(put) with no args returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Usage: put") {
		t.Errorf("put usage output = %q", out.String())
	}
}

func TestRunExitsOnEOF(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("")
	if err := Run("127.0.0.1", 69, tftp.DefaultOptions(), nil, in, &out); err != nil {
		t.Fatalf("Run on empty input should exit cleanly, got: %v", err)
	}
}

func TestRunQuitsOnCommand(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("help\nquit\n")
	if err := Run("127.0.0.1", 69, tftp.DefaultOptions(), nil, in, &out); err != nil {
		t.Fatalf("Run should exit cleanly on quit, got: %v", err)
	}
	if !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("Run output missing goodbye message: %q", out.String())
	}
}
