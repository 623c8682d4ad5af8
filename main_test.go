package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/metcalfc/simplyread/internal/config"
	"github.com/metcalfc/simplyread/internal/events"
	"github.com/metcalfc/simplyread/internal/genai"
	"github.com/metcalfc/simplyread/internal/prompt"
	"github.com/metcalfc/simplyread/internal/reader"
	"github.com/metcalfc/simplyread/internal/state"
	"github.com/metcalfc/simplyread/internal/view"
)

type stubService struct {
	synonyms map[string]string
}

func (s stubService) Simplify(_ context.Context, word, _ string, _ prompt.Level) string {
	if syn, ok := s.synonyms[word]; ok {
		return syn
	}
	return word
}

func (stubService) Define(context.Context, string, string) string { return "" }

func (stubService) AnalyzeBias(context.Context, string) string { return "Neutral." }

type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (r *recordingSpeaker) Speak(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := config.Load(config.New(), "")
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	cfg.UI.TermMinLength = 0
	return cfg
}

type testSession struct {
	*session
	loop    *events.Loop
	speaker *recordingSpeaker
}

func newTestSession(t *testing.T, chapters ...string) *testSession {
	t.Helper()
	var sections []reader.Section
	for i, body := range chapters {
		sections = append(sections, reader.Section{Title: "Chapter " + string(rune('A'+i)), HTML: body})
	}
	book, err := reader.Build(sections)
	if err != nil {
		t.Fatalf("reader.Build() error = %v", err)
	}

	svc := stubService{synonyms: map[string]string{"tremendous": "great"}}
	speaker := &recordingSpeaker{}
	s := newSession(testConfig(t), book, svc, speaker)
	s.clock = events.NewManualClock()

	loop := events.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	s.start(loop)
	t.Cleanup(func() {
		s.close()
		cancel()
	})
	ts := &testSession{session: s, loop: loop, speaker: speaker}
	ts.do(func() { s.open(0) })
	return ts
}

// do runs fn on the loop and waits for it.
func (ts *testSession) do(fn func()) {
	ts.loop.Do(fn)
}

// settle waits for service calls to post back and for the loop to run them.
func (ts *testSession) settle() {
	for _, eng := range ts.engines {
		eng.Wait()
	}
	ts.loop.Do(func() {})
}

func (ts *testSession) layout() *view.Layout {
	return view.Build(ts.current().Document(), 80)
}

func TestLevelForKey(t *testing.T) {
	tests := []struct {
		key   string
		want  prompt.Level
		valid bool
	}{
		{"1", prompt.Easy, true},
		{"2", prompt.Medium, true},
		{"3", prompt.Hard, true},
		{"4", 0, false},
		{"0", 0, false},
		{"x", 0, false},
		{"12", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := levelForKey(tt.key)
			if ok != tt.valid {
				t.Fatalf("levelForKey(%q) ok = %v, want %v", tt.key, ok, tt.valid)
			}
			if ok && got != tt.want {
				t.Errorf("levelForKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestNewGenerator(t *testing.T) {
	cfg := testConfig(t)
	key := func(context.Context) (string, error) { return "k", nil }

	for _, backend := range []string{config.BackendGemini, config.BackendOpenAI} {
		cfg.Backend = backend
		gen, err := newGenerator(cfg, key)
		if err != nil {
			t.Fatalf("newGenerator(%s) error = %v", backend, err)
		}
		guard, ok := gen.(*genai.Guard)
		if !ok {
			t.Fatalf("newGenerator(%s) = %T, want *genai.Guard", backend, gen)
		}
		if guard.State() != "closed" {
			t.Errorf("breaker state = %q, want closed", guard.State())
		}
	}

	cfg.Backend = "carrier-pigeon"
	if _, err := newGenerator(cfg, key); err == nil {
		t.Error("newGenerator() with unknown backend should fail")
	}
}

func TestKeySource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Credential.Env = []string{"SIMPLYREAD_TEST_KEY"}
	cfg.Credential.Helper = "/nonexistent/helper"
	t.Setenv("SIMPLYREAD_TEST_KEY", "from-env")

	key, err := keySource(cfg, true).FetchKey(context.Background())
	if err != nil || key != "from-env" {
		t.Errorf("FetchKey() = %q, %v; want from-env", key, err)
	}

	cfg.Credential.APIKey = "from-config"
	key, err = keySource(cfg, false).FetchKey(context.Background())
	if err != nil || key != "from-config" {
		t.Errorf("FetchKey() = %q, %v; want from-config", key, err)
	}
}

func TestLogPath(t *testing.T) {
	cfg := testConfig(t)
	t.Setenv("XDG_STATE_HOME", "/tmp/state")

	if got, want := logPath(cfg), filepath.Join("/tmp/state", "simplyread", "simplyread.log"); got != want {
		t.Errorf("logPath() = %q, want %q", got, want)
	}
	cfg.Log.File = "/var/log/sr.log"
	if got := logPath(cfg); got != "/var/log/sr.log" {
		t.Errorf("logPath() = %q, want configured file", got)
	}
}

func TestSimplifyAndRestore(t *testing.T) {
	ts := newTestSession(t, "<p>The outcome was tremendous news.</p>")
	doc := ts.current().Document()
	var before string
	ts.do(func() { before = doc.String() })

	ts.do(func() {
		l := ts.layout()
		if !simplifyAt(ts.session, l, l.Find("tremendous")) {
			t.Error("simplifyAt() = false")
		}
		if !ts.current().Prompt().IsOpen() {
			t.Fatal("prompt should be open after double-click")
		}
		if !chooseLevel(ts.session, prompt.Easy) {
			t.Error("chooseLevel() = false")
		}
	})
	ts.settle()

	ts.do(func() {
		if got := strings.Join(strings.Fields(doc.Text()), " "); got != "The outcome was great news." {
			t.Errorf("text after simplify = %q", got)
		}
		if n := ts.current().Registry().Len(); n != 1 {
			t.Errorf("registry has %d entries, want 1", n)
		}
		l := ts.layout()
		simplifyAt(ts.session, l, l.Find("great"))
	})
	ts.settle()

	ts.do(func() {
		if got := doc.String(); got != before {
			t.Errorf("document after restore:\n%s\nwant:\n%s", got, before)
		}
		if ts.current().Prompt().IsOpen() {
			t.Error("restoring should not open the prompt")
		}
	})
}

func TestSimplifyAtOutOfRange(t *testing.T) {
	ts := newTestSession(t, "<p>One word.</p>")
	ts.do(func() {
		if simplifyAt(ts.session, ts.layout(), 99) {
			t.Error("simplifyAt() past the last token should do nothing")
		}
		if chooseLevel(ts.session, prompt.Easy) {
			t.Error("chooseLevel() with no prompt open should do nothing")
		}
	})
}

func TestCancelPrompt(t *testing.T) {
	ts := newTestSession(t, "<p>The outcome was tremendous news.</p>")
	ts.do(func() {
		l := ts.layout()
		simplifyAt(ts.session, l, l.Find("outcome"))
		if !cancelPrompt(ts.session) {
			t.Error("cancelPrompt() = false with an open prompt")
		}
		if ts.current().Prompt().IsOpen() {
			t.Error("prompt still open after cancel")
		}
		if cancelPrompt(ts.session) {
			t.Error("cancelPrompt() = true with no prompt")
		}
	})
	ts.settle()
	ts.do(func() {
		if n := len(ts.current().Document().Marked()); n != 0 {
			t.Errorf("cancelled prompt left %d substitutions", n)
		}
	})
}

func TestReadAloudLatest(t *testing.T) {
	ts := newTestSession(t, "<p>The outcome was tremendous news.</p>")
	ts.do(func() {
		if readAloudLatest(ts.session) {
			t.Error("readAloudLatest() with no affordance should do nothing")
		}
		selectSpan(ts.session, ts.layout(), 0, 2)
		if !readAloudLatest(ts.session) {
			t.Error("readAloudLatest() = false after a selection")
		}
	})

	ts.speaker.mu.Lock()
	defer ts.speaker.mu.Unlock()
	if len(ts.speaker.spoken) != 1 || ts.speaker.spoken[0] != "The outcome was" {
		t.Errorf("spoken = %q, want [The outcome was]", ts.speaker.spoken)
	}
}

func TestChaptersKeepTheirAnnotations(t *testing.T) {
	ts := newTestSession(t,
		"<p>A tremendous start.</p>",
		"<p>Another tremendous day.</p>",
	)
	first := ts.current()

	ts.do(func() {
		l := ts.layout()
		simplifyAt(ts.session, l, l.Find("tremendous"))
		chooseLevel(ts.session, prompt.Hard)
	})
	ts.settle()

	ts.do(func() {
		second := ts.open(1)
		if second == first {
			t.Fatal("chapters share an engine")
		}
		if second.Registry().Active("tremendous") {
			t.Error("substitution leaked into another chapter")
		}
		if ts.open(0) != first {
			t.Error("reopening a chapter built a new engine")
		}
		if !first.Registry().Active("tremendous") {
			t.Error("substitution lost after switching chapters")
		}
	})
}

func TestSessionSave(t *testing.T) {
	ts := newTestSession(t, "<p>First chapter.</p>", "<p>Second chapter.</p>")
	store, err := state.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("state.NewStore() error = %v", err)
	}
	ts.store, ts.key = store, "book"

	ts.do(func() {
		ts.open(1)
		ts.save(7)
	})

	if got := store.Get("book"); got != (state.Position{Chapter: 1, Word: 7}) {
		t.Errorf("saved position = %+v, want chapter 1 word 7", got)
	}
}

func TestCredentialHelperCommand(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SIMPLYREAD_API_KEY", "from-env")

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(`{"action":"getAPIKey"}`))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"credential-helper"})
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("setup did not load the configuration")
	}
	if got := strings.TrimSpace(out.String()); got != `{"apiKey":"from-env"}` {
		t.Errorf("helper output = %s, want the key from the environment", got)
	}
}
