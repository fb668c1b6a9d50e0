package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	runewidth "github.com/mattn/go-runewidth"
)

const barWidth = 30

// Display multiplexes progress updates from concurrent download tasks onto
// one writer. Updates are serialized by a mutex so tasks never block on each
// other for longer than a single render.
type Display struct {
	mu         sync.Mutex
	out        io.Writer
	quiet      bool
	nameWidth  int
	lastRender time.Time
}

// NewDisplay constructs a Display writing to out. A nil writer or quiet mode
// silences rendering while keeping the task bookkeeping intact.
func NewDisplay(out io.Writer, quiet bool) *Display {
	return &Display{
		out:   out,
		quiet: quiet || out == nil,
	}
}

// Task tracks one file's download progress.
type Task struct {
	display *Display
	name    string
	total   int64
	current int64
	started time.Time
}

// Add registers a progress row for the named file.
func (d *Display) Add(name string) *Task {
	d.mu.Lock()
	defer d.mu.Unlock()

	if w := runewidth.StringWidth(name); w > d.nameWidth {
		d.nameWidth = w
	}

	return &Task{
		display: d,
		name:    name,
		started: time.Now(),
	}
}

// Start records the expected total size. A total of zero or less renders as
// an indeterminate byte counter.
func (t *Task) Start(total int64) {
	t.display.mu.Lock()
	defer t.display.mu.Unlock()
	t.total = total
	t.started = time.Now()
}

// Advance adds n downloaded bytes and re-renders, throttled.
func (t *Task) Advance(n int64) {
	t.display.mu.Lock()
	defer t.display.mu.Unlock()

	t.current += n

	if t.display.quiet {
		return
	}
	now := time.Now()
	if now.Sub(t.display.lastRender) < 200*time.Millisecond {
		return
	}
	t.display.lastRender = now
	t.render()
}

// Complete marks the task finished with a success mark. Used both for real
// downloads and for existing files that short-circuited.
func (t *Task) Complete(total int64) {
	t.display.mu.Lock()
	defer t.display.mu.Unlock()

	if total > 0 {
		t.total = total
	}
	t.current = t.total

	if t.display.quiet {
		return
	}
	mark := color.GreenString("✔")
	fmt.Fprintf(t.display.out, "\r%s %s %s\n", mark, t.paddedName(), t.sizeText())
}

// Fail marks the task failed with the given message.
func (t *Task) Fail(message string) {
	t.display.mu.Lock()
	defer t.display.mu.Unlock()

	if t.display.quiet {
		return
	}
	mark := color.RedString("✘")
	fmt.Fprintf(t.display.out, "\r%s %s %s\n", mark, t.paddedName(), message)
}

// Reader wraps r so that every read advances this task.
func (t *Task) Reader(r io.Reader) io.Reader {
	return &progressReader{reader: r, task: t}
}

// render draws the current bar. Caller holds the display mutex.
func (t *Task) render() {
	if t.total > 0 {
		percentage := float64(t.current) / float64(t.total) * 100
		filled := int(float64(barWidth) * percentage / 100)
		if filled > barWidth {
			filled = barWidth
		}
		bar := strings.Repeat("=", filled)
		if filled < barWidth {
			bar += ">" + strings.Repeat(" ", barWidth-filled-1)
		}
		fmt.Fprintf(t.display.out, "\r  %s [%s] %5.1f%% %s",
			t.paddedName(), bar, percentage, t.sizeText())
		return
	}

	fmt.Fprintf(t.display.out, "\r  %s %.2f MB downloaded",
		t.paddedName(), float64(t.current)/1024/1024)
}

func (t *Task) paddedName() string {
	pad := t.display.nameWidth - runewidth.StringWidth(t.name)
	if pad < 0 {
		pad = 0
	}
	return t.name + strings.Repeat(" ", pad)
}

func (t *Task) sizeText() string {
	if t.total > 0 {
		return fmt.Sprintf("(%.2f/%.2f MB)",
			float64(t.current)/1024/1024, float64(t.total)/1024/1024)
	}
	return fmt.Sprintf("(%.2f MB)", float64(t.current)/1024/1024)
}

// Current returns the bytes recorded so far.
func (t *Task) Current() int64 {
	t.display.mu.Lock()
	defer t.display.mu.Unlock()
	return t.current
}

type progressReader struct {
	reader io.Reader
	task   *Task
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.task.Advance(int64(n))
	}
	return n, err
}
