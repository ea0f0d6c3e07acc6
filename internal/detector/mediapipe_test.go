package detector

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

// fakeService speaks the landmark service protocol without MediaPipe.
// It refuses to start unless the hands options arrived intact.
const fakeService = `import json, struct, sys
inp = sys.stdin.buffer
hello = json.loads(inp.readline())
opts = hello.get("options") or {}
if hello.get("solution") != "hands" or opts.get("max_num_hands") != 3:
    sys.stdout.write(json.dumps({"ready": False, "error": "bad options"}) + "\n")
    sys.stdout.flush()
    sys.exit(1)
sys.stdout.write(json.dumps({"ready": True, "connections": [[0, 1], [1, 2]]}) + "\n")
sys.stdout.flush()
while True:
    hdr = inp.read(4)
    if len(hdr) < 4:
        break
    n = struct.unpack(">I", hdr)[0]
    data = inp.read(n)
    if data[:2] != b"\xff\xd8":
        sys.stdout.write(json.dumps({"error": "not a jpeg"}) + "\n")
    else:
        sys.stdout.write(json.dumps({"landmarks": [[{"x": 0.5, "y": 0.25, "z": 0.0}, {"x": 0.1, "y": 0.2, "z": -0.1}]]}) + "\n")
    sys.stdout.flush()
`

// noisyService writes a stray line before its first reply. The first process
// answers x = 0.1*n, a restarted one x = 0.5 + 0.1*n, so a reader that
// stays on the first process sees stale replies.
const noisyService = `import json, os, struct, sys
marker = os.path.join(os.path.dirname(os.path.abspath(__file__)), "started")
restarted = os.path.exists(marker)
open(marker, "w").close()
inp = sys.stdin.buffer
inp.readline()
sys.stdout.write(json.dumps({"ready": True, "connections": []}) + "\n")
sys.stdout.flush()
n = 0
while True:
    hdr = inp.read(4)
    if len(hdr) < 4:
        break
    inp.read(struct.unpack(">I", hdr)[0])
    n += 1
    if n == 1 and not restarted:
        sys.stdout.write("stray output\n")
    x = 0.1 * n + (0.5 if restarted else 0.0)
    sys.stdout.write(json.dumps({"landmarks": [[{"x": x, "y": 0.0, "z": 0.0}]]}) + "\n")
    sys.stdout.flush()
`

func writeFakeService(t *testing.T) (python, script string) {
	t.Helper()
	return writeService(t, fakeService)
}

func writeService(t *testing.T, source string) (python, script string) {
	t.Helper()

	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}

	script = filepath.Join(t.TempDir(), ServiceScript)
	if err := os.WriteFile(script, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}
	return python, script
}

func TestNewMediaPipeBackend_MissingScript(t *testing.T) {
	_, err := NewMediaPipeBackend(SolutionHands, DefaultHandsConfig(), ServiceOptions{
		Script: filepath.Join(t.TempDir(), "missing.py"),
	})
	if !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("error = %v, want ErrServiceNotFound", err)
	}
}

func TestMediaPipeBackend_EmptyFrame(t *testing.T) {
	_, script := writeFakeService(t)

	b, err := NewMediaPipeBackend(SolutionHands, DefaultHandsConfig(), ServiceOptions{Script: script})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if _, err := b.Process(nil); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("error = %v, want ErrEmptyFrame", err)
	}
}

func TestMediaPipeBackend_Protocol(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping subprocess test in short mode")
	}
	python, script := writeFakeService(t)

	cfg := DefaultHandsConfig()
	cfg.MaxNumHands = 3

	b, err := NewMediaPipeBackend(SolutionHands, cfg, ServiceOptions{Python: python, Script: script})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for i := 0; i < 3; i++ {
		lists, err := b.Process(&frame)
		if err != nil {
			t.Fatalf("Process() #%d error = %v", i, err)
		}
		if len(lists) != 1 || len(lists[0]) != 2 {
			t.Fatalf("unexpected result %v", lists)
		}
		if lists[0][0].X != 0.5 || lists[0][1].Z != -0.1 {
			t.Errorf("unexpected landmarks %v", lists[0])
		}
	}

	if got := len(b.Connections()); got != 2 {
		t.Errorf("connections = %d, want 2 from handshake", got)
	}

	if err := b.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// a closed backend restarts on demand
	if _, err := b.Process(&frame); err != nil {
		t.Errorf("Process() after Close error = %v", err)
	}
}

func TestMediaPipeBackend_RejectedOptions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping subprocess test in short mode")
	}
	python, script := writeFakeService(t)

	// the fake service wants max_num_hands == 3
	b, err := NewMediaPipeBackend(SolutionHands, DefaultHandsConfig(), ServiceOptions{Python: python, Script: script})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if _, err := b.Process(&frame); err == nil {
		t.Error("expected handshake error")
	}
}

func TestMediaPipeBackend_MalformedReplyRestarts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping subprocess test in short mode")
	}
	python, script := writeService(t, noisyService)

	b, err := NewMediaPipeBackend(SolutionHands, DefaultHandsConfig(), ServiceOptions{Python: python, Script: script})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if _, err := b.Process(&frame); !errors.Is(err, errMalformedReply) {
		t.Fatalf("first Process() error = %v, want malformed reply", err)
	}

	lists, err := b.Process(&frame)
	if err != nil {
		t.Fatalf("second Process() error = %v", err)
	}
	if len(lists) != 1 || len(lists[0]) != 1 {
		t.Fatalf("unexpected result %v", lists)
	}
	if got := lists[0][0].X; got < 0.55 || got > 0.65 {
		t.Errorf("x = %v, want 0.6 from a restarted service", got)
	}
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantLists int
		wantErr   bool
		malformed bool
	}{
		{"no detections", `{"landmarks": []}`, 0, false, false},
		{"missing field", `{}`, 0, false, false},
		{"two instances", `{"landmarks": [[{"x":0.1,"y":0.2,"z":0}], [{"x":0.3,"y":0.4,"z":0}]]}`, 2, false, false},
		{"service error", `{"error": "boom"}`, 0, true, false},
		{"garbage", `not json`, 0, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeResponse([]byte(tt.line))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, errMalformedReply) != tt.malformed {
				t.Errorf("malformed = %v, want %v", errors.Is(err, errMalformedReply), tt.malformed)
			}
			if len(got) != tt.wantLists {
				t.Errorf("lists = %d, want %d", len(got), tt.wantLists)
			}
		})
	}
}
