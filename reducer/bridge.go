package reducer

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dimred/core/model"
	"github.com/YuminosukeSato/dimred/dataset"
	"github.com/YuminosukeSato/dimred/internal/fs"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
)

// DefaultPython is the interpreter used when BridgeConfig.Python is empty.
const DefaultPython = "python3"

// stderrTailLines is how many trailing stderr lines a failure carries.
const stderrTailLines = 20

// DefaultWaitDelay bounds how long output is drained after the interpreter is
// killed. Worker processes spawned by the script may keep the pipes open.
const DefaultWaitDelay = 5 * time.Second

// BridgeConfig configures how bridged reducers start their interpreter.
type BridgeConfig struct {
	// Python is the interpreter executable.
	Python string
	// TempDir is where per-call working directories are created.
	// Empty means os.TempDir().
	TempDir string
	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
	Logger    log.Logger
}

var _ model.Reducer = (*Bridge)(nil)

// Bridge runs a reducer implemented in Python. The input matrix is written to
// in.npy, the script is run as
//
//	python3 -c <script> in.npy out.npy <params-json>
//
// and out.npy is read back. The child process is killed when ctx is done.
type Bridge struct {
	name   string
	script string
	params map[string]any
	python    string
	tmpDir    string
	waitDelay time.Duration
	logger    log.Logger
}

// NewBridge creates a bridged reducer.
func NewBridge(name, script string, params map[string]any, cfg BridgeConfig) *Bridge {
	python := cfg.Python
	if python == "" {
		python = DefaultPython
	}
	waitDelay := cfg.WaitDelay
	if waitDelay <= 0 {
		waitDelay = DefaultWaitDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Bridge{
		name:      name,
		script:    script,
		params:    params,
		python:    python,
		tmpDir:    cfg.TempDir,
		waitDelay: waitDelay,
		logger:    logger.With(log.ComponentKey, "reducer", log.ReducerKey, name),
	}
}

// Name implements model.Reducer.
func (b *Bridge) Name() string {
	return b.name
}

// FitTransform implements model.Reducer.
func (b *Bridge) FitTransform(ctx context.Context, X mat.Matrix) (mat.Matrix, error) {
	dir, err := os.MkdirTemp(b.tmpDir, "dimred-bridge-")
	if err != nil {
		return nil, errors.Wrap(err, "create bridge working directory")
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.npy")
	out := filepath.Join(dir, "out.npy")

	if err := dataset.Save(fs.Default, in, X); err != nil {
		return nil, err
	}

	params, err := json.Marshal(b.params)
	if err != nil {
		return nil, errors.Wrap(err, "encode hyperparameters")
	}

	if err := b.run(ctx, in, out, string(params)); err != nil {
		return nil, err
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, errors.Wrapf(err, "%s produced no embedding", b.name)
	}
	defer f.Close()

	embedding, err := dataset.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s embedding", b.name)
	}
	return embedding, nil
}

func (b *Bridge) run(ctx context.Context, in, out, params string) error {
	cmd := exec.CommandContext(ctx, b.python, "-c", b.script, in, out, params)
	cmd.WaitDelay = b.waitDelay

	// WaitDelay only bounds output that exec copies itself, hence io.Pipe
	// instead of StdoutPipe.
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	tail := newLineTail(stderrTailLines)
	var g errgroup.Group
	g.Go(func() error { return b.stream(stdoutR, "stdout", nil) })
	g.Go(func() error { return b.stream(stderrR, "stderr", tail) })

	b.logger.Debug("Starting bridge process", "python", b.python, log.HyperParamsKey, params)
	var waitErr error
	if err := cmd.Start(); err != nil {
		waitErr = errors.Wrapf(err, "start %s", b.python)
	} else {
		waitErr = cmd.Wait()
	}
	stdoutW.Close()
	stderrW.Close()
	streamErr := g.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrapf(ctxErr, "%s interrupted", b.name)
	}
	if waitErr != nil {
		if msg := tail.String(); msg != "" {
			return errors.Wrapf(waitErr, "%s failed:\n%s", b.name, msg)
		}
		return errors.Wrapf(waitErr, "%s failed", b.name)
	}
	if streamErr != nil {
		return errors.Wrap(streamErr, "read bridge output")
	}
	return nil
}

// stream forwards every line of r to the debug log.
func (b *Bridge) stream(r io.Reader, name string, tail *lineTail) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		b.logger.Debug(line, "stream", name)
		if tail != nil {
			tail.Add(line)
		}
	}
	if err := scanner.Err(); err != nil {
		// keep the writer unblocked
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}

// lineTail keeps the last n lines written to it.
type lineTail struct {
	mu    sync.Mutex
	n     int
	lines []string
}

func newLineTail(n int) *lineTail {
	return &lineTail{n: n}
}

func (t *lineTail) Add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
