package progress

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestReaderCountsBytes(t *testing.T) {
	d := NewDisplay(io.Discard, false)
	task := d.Add("k3s")
	task.Start(11)

	n, err := io.Copy(io.Discard, task.Reader(strings.NewReader("hello world")))
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if n != 11 {
		t.Fatalf("copied %d bytes, want 11", n)
	}
	if got := task.Current(); got != 11 {
		t.Errorf("Current() = %d, want 11", got)
	}
}

func TestCompleteRendersCheckmark(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf, false)

	task := d.Add("k3s")
	task.Start(5)
	task.Complete(5)

	if !strings.Contains(buf.String(), "k3s") {
		t.Errorf("output = %q, missing task name", buf.String())
	}
}

func TestFailRendersMessage(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf, false)

	task := d.Add("k3s-airgap-images-amd64.tar.zst")
	task.Fail("download failed")

	if !strings.Contains(buf.String(), "download failed") {
		t.Errorf("output = %q, missing failure message", buf.String())
	}
}

func TestQuietSuppressesOutput(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf, true)

	task := d.Add("k3s")
	task.Start(5)
	task.Advance(5)
	task.Complete(5)
	d.Add("other").Fail("nope")

	if buf.Len() != 0 {
		t.Errorf("quiet display wrote %q", buf.String())
	}
}
