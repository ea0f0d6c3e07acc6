package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/ayusman/holoroom/internal/landmark"
	"github.com/ayusman/holoroom/internal/log"
	"gocv.io/x/gocv"
)

// ServiceScript is the file name of the Python bridge.
const ServiceScript = "landmark_service.py"

// ServiceOptions locate and tune the Python bridge process.
type ServiceOptions struct {
	// Python is the interpreter. Empty means a venv python if found, else python3.
	Python string
	// Script is the bridge path. Empty means FindServiceScript.
	Script string
	// IdleTimeout stops the process after this long without frames. 0 disables it.
	IdleTimeout time.Duration
}

// DefaultServiceOptions returns options with a 30 second idle timeout.
func DefaultServiceOptions() ServiceOptions {
	return ServiceOptions{IdleTimeout: 30 * time.Second}
}

// MediaPipeBackend implements Backend using a Python MediaPipe subprocess.
//
// Protocol: on start the backend writes one JSON line
// {"solution": ..., "options": {...}} and reads back one JSON line
// {"ready": true, "connections": [[a, b], ...]}. Each frame is then sent as a
// 4-byte big-endian length followed by JPEG bytes, and answered with one JSON
// line {"landmarks": [[{"x":..,"y":..,"z":..}, ...], ...]} or {"error": "..."}.
type MediaPipeBackend struct {
	solution Solution
	options  any
	service  ServiceOptions
	logger   *slog.Logger

	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	conns     landmark.Connections
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeBackend creates a backend for one solution.
// The Python process is started lazily on first Process.
func NewMediaPipeBackend(solution Solution, options any, service ServiceOptions) (*MediaPipeBackend, error) {
	if service.Script == "" {
		service.Script = FindServiceScript()
	}
	if service.Script == "" {
		return nil, ErrServiceNotFound
	}
	if _, err := os.Stat(service.Script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
	}

	return &MediaPipeBackend{
		solution: solution,
		options:  options,
		service:  service,
		logger:   log.With("component", "mediapipe", "solution", string(solution)),
	}, nil
}

// Process sends a frame to MediaPipe and returns the detected landmark lists.
func (b *MediaPipeBackend) Process(frame *gocv.Mat) ([]landmark.NormalizedList, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureStarted(); err != nil {
		return nil, err
	}

	// Encode frame as JPEG
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := b.stdin.Write(length); err != nil {
		b.fail()
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := b.stdin.Write(data); err != nil {
		b.fail()
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := b.stdout.ReadBytes('\n')
	if err != nil {
		b.fail()
		return nil, fmt.Errorf("read response: %w", err)
	}

	result, err := decodeResponse(line)
	if err != nil {
		// an unparsable line means the stream is out of step with our requests
		if errors.Is(err, errMalformedReply) {
			b.fail()
		}
		return nil, err
	}

	b.lastUsed = time.Now()
	b.resetIdleTimer()

	return result, nil
}

// Connections returns the connection table reported by the service at startup.
func (b *MediaPipeBackend) Connections() landmark.Connections {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conns
}

// Close shuts down the Python process.
func (b *MediaPipeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shutdown()
}

func (b *MediaPipeBackend) ensureStarted() error {
	if b.started {
		return nil
	}

	python := b.service.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	b.cmd = exec.Command(python, "-u", b.service.Script)

	stdin, err := b.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := b.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// MediaPipe and TensorFlow log to stderr
	b.cmd.Stderr = os.Stderr

	if err := b.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark service: %w", err)
	}

	b.stdin = stdin
	b.stdout = bufio.NewReader(stdout)
	b.started = true

	conns, err := b.handshake()
	if err != nil {
		b.shutdown()
		return fmt.Errorf("landmark service handshake: %w", err)
	}

	b.conns = conns
	b.lastUsed = time.Now()
	b.logger.Info("landmark service started", "pid", b.cmd.Process.Pid, "connections", len(conns))

	return nil
}

type helloRequest struct {
	Solution Solution `json:"solution"`
	Options  any      `json:"options"`
}

type helloResponse struct {
	Ready       bool     `json:"ready"`
	Error       string   `json:"error"`
	Connections [][2]int `json:"connections"`
}

func (b *MediaPipeBackend) handshake() (landmark.Connections, error) {
	hello, err := json.Marshal(helloRequest{Solution: b.solution, Options: b.options})
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}
	if _, err := b.stdin.Write(append(hello, '\n')); err != nil {
		return nil, fmt.Errorf("write options: %w", err)
	}

	line, err := b.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read ready: %w", err)
	}

	var resp helloResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse ready: %w", err)
	}
	if !resp.Ready {
		return nil, fmt.Errorf("service not ready: %s", resp.Error)
	}

	return landmark.Pairs(resp.Connections...), nil
}

// fail tears the process down after a broken pipe so the next call restarts it.
func (b *MediaPipeBackend) fail() {
	if err := b.shutdown(); err != nil {
		b.logger.Warn("landmark service exited", "error", err)
	}
}

func (b *MediaPipeBackend) shutdown() error {
	if !b.started {
		return nil
	}

	if b.idleTimer != nil {
		b.idleTimer.Stop()
		b.idleTimer = nil
	}

	if b.stdin != nil {
		b.stdin.Close()
	}

	err := b.cmd.Wait()
	b.started = false
	b.cmd = nil
	b.stdin = nil
	b.stdout = nil

	return err
}

func (b *MediaPipeBackend) resetIdleTimer() {
	if b.service.IdleTimeout <= 0 {
		return
	}
	if b.idleTimer != nil {
		b.idleTimer.Stop()
	}
	b.idleTimer = time.AfterFunc(b.service.IdleTimeout, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if time.Since(b.lastUsed) < b.service.IdleTimeout {
			return
		}
		b.logger.Debug("stopping idle landmark service")
		b.shutdown()
	})
}

// jsonPoint is one landmark in the service response.
type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type frameResponse struct {
	Landmarks [][]jsonPoint `json:"landmarks"`
	Error     string        `json:"error"`
}

var errMalformedReply = errors.New("malformed reply")

func decodeResponse(line []byte) ([]landmark.NormalizedList, error) {
	var resp frameResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w: %v", errMalformedReply, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("landmark service: %s", resp.Error)
	}

	result := make([]landmark.NormalizedList, len(resp.Landmarks))
	for i, points := range resp.Landmarks {
		list := make(landmark.NormalizedList, len(points))
		for j, p := range points {
			list[j] = landmark.Normalized{X: p.X, Y: p.Y, Z: p.Z}
		}
		result[i] = list
	}
	return result, nil
}

// FindServiceScript looks for landmark_service.py relative to the working
// directory, the executable, and ~/.holoroom/scripts.
func FindServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", ServiceScript),
		filepath.Join("..", "scripts", ServiceScript),
		filepath.Join(execDir, "scripts", ServiceScript),
		filepath.Join(os.Getenv("HOME"), ".holoroom", "scripts", ServiceScript),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".holoroom/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
