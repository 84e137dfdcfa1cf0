package main

import (
	"strings"
	"testing"

	"github.com/wippyai/script-runtime/config"
	"github.com/wippyai/script-runtime/errors"
	"github.com/wippyai/script-runtime/host"
)

func newPlayground(t *testing.T, cfg *config.Config) *playground {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	sess, err := host.NewStandaloneSession(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewStandaloneSession failed: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return &playground{sess: sess}
}

func TestPlayground_Commands(t *testing.T) {
	p := newPlayground(t, nil)

	steps := []struct {
		line    string
		entries []string
	}{
		{"foo", []string{"foo"}},
		{`"cat"`, []string{"foo", "cat"}},
		{"cat 0 1", []string{"foo", "cat", "foocat"}},
		{"cat 2 2", []string{"foo", "cat", "foocat", "foocatfoocat"}},
		{"free 1", []string{"foo", "foocat", "foocatfoocat"}},
		{"   ", []string{"foo", "foocat", "foocatfoocat"}},
		{"reset", nil},
		{`""`, []string{""}},
	}
	for _, s := range steps {
		if _, err := p.exec(s.line); err != nil {
			t.Fatalf("exec(%q) failed: %v", s.line, err)
		}
		var got []string
		for _, e := range p.entries {
			got = append(got, e.preview)
		}
		if strings.Join(got, "|") != strings.Join(s.entries, "|") || len(got) != len(s.entries) {
			t.Fatalf("after %q: entries = %q, want %q", s.line, got, s.entries)
		}
	}

	if got := p.sess.Arena.Stats().LiveBlocks; got != 1 {
		t.Errorf("LiveBlocks = %d, want 1", got)
	}
}

func TestPlayground_BadIndex(t *testing.T) {
	p := newPlayground(t, nil)
	if _, err := p.exec("a"); err != nil {
		t.Fatal(err)
	}

	for _, line := range []string{"cat 0", "cat 0 5", "free x", "free -1"} {
		if _, err := p.exec(line); err == nil {
			t.Errorf("exec(%q) should fail", line)
		}
	}
}

func TestPlayground_HeapLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Heap.Limit = 16
	p := newPlayground(t, cfg)

	if _, err := p.exec("0123456789"); err != nil {
		t.Fatal(err)
	}
	_, err := p.exec("cat 0 0")
	if !errors.IsKind(err, errors.KindOutOfMemory) {
		t.Errorf("expected out_of_memory, got: %v", err)
	}
	if len(p.entries) != 1 {
		t.Errorf("entries = %d, want 1", len(p.entries))
	}
}

func TestPlayground_Preview(t *testing.T) {
	p := newPlayground(t, nil)
	long := strings.Repeat("x", previewLen+10)

	if _, err := p.exec(long); err != nil {
		t.Fatal(err)
	}
	if got := p.entries[0].preview; got != long[:previewLen]+"..." {
		t.Errorf("preview = %q", got)
	}
	if p.entries[0].value.Length != uint32(len(long)) {
		t.Errorf("Length = %d, want %d", p.entries[0].value.Length, len(long))
	}
}
