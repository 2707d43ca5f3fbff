package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtract_EntityTakesPrecedence(t *testing.T) {
	entities := []Entity{{Type: EntityBotCommand, Offset: 0, Length: 6}}
	cmd, ok := Extract("/reset@mybot extra text", entities)
	if !ok {
		t.Fatalf("expected command")
	}
	if cmd != "/reset" {
		t.Fatalf("expected /reset, got %q", cmd)
	}
}

func TestExtract_EntityWithQualifierInsideLength(t *testing.T) {
	entities := []Entity{{Type: EntityBotCommand, Offset: 0, Length: 12}}
	cmd, ok := Extract("/Reset@MyBot please", entities)
	if !ok || cmd != "/reset" {
		t.Fatalf("expected /reset, got %q, %v", cmd, ok)
	}
}

func TestExtract_NoMarkerAtStart(t *testing.T) {
	if cmd, ok := Extract("hello /reset", nil); ok {
		t.Fatalf("expected no command, got %q", cmd)
	}
}

func TestExtract_EntityNotAtStartIgnored(t *testing.T) {
	entities := []Entity{{Type: EntityBotCommand, Offset: 6, Length: 6}}
	if cmd, ok := Extract("hello /reset", entities); ok {
		t.Fatalf("expected no command, got %q", cmd)
	}
}

func TestExtract_PlainTextFallback(t *testing.T) {
	cases := map[string]string{
		"/start":             "/start",
		"  /HELP  me":        "/help",
		"/reset@other_bot":   "/reset",
		"/unknown arguments": "/unknown",
	}
	for text, want := range cases {
		got, ok := Extract(text, nil)
		if !ok || got != want {
			t.Fatalf("Extract(%q) = %q, %v; want %q", text, got, ok, want)
		}
	}
	for _, text := range []string{"", "   ", "just chatting", "a/b"} {
		if got, ok := Extract(text, nil); ok {
			t.Fatalf("Extract(%q) expected none, got %q", text, got)
		}
	}
}

func TestExtract_EntityLengthInUTF16Units(t *testing.T) {
	// "/ключ" — 5 символов, 5 UTF-16 units; дальше эмодзи из двух units.
	entities := []Entity{{Type: EntityBotCommand, Offset: 0, Length: 5}}
	cmd, ok := Extract("/ключ😀 x", entities)
	if !ok || cmd != "/ключ" {
		t.Fatalf("expected /ключ, got %q, %v", cmd, ok)
	}

	// Длина больше текста обрезается по тексту.
	entities = []Entity{{Type: EntityBotCommand, Offset: 0, Length: 40}}
	cmd, ok = Extract("/help", entities)
	if !ok || cmd != "/help" {
		t.Fatalf("expected /help, got %q, %v", cmd, ok)
	}
}

func TestTable_Resolve(t *testing.T) {
	table := DefaultTable()

	reset := table.Resolve("/reset")
	if !reset.Known() || !reset.ResetMemory || reset.Reply == "" {
		t.Fatalf("unexpected reset action: %+v", reset)
	}

	for _, cmd := range []string{"/start", "/help"} {
		a := table.Resolve(cmd)
		if !a.Known() || a.ResetMemory || a.Reply == "" {
			t.Fatalf("unexpected action for %s: %+v", cmd, a)
		}
	}

	unknown := table.Resolve("/weather")
	if unknown.Known() || unknown.ResetMemory || unknown.Reply != defaultUnknownReply {
		t.Fatalf("unexpected unknown action: %+v", unknown)
	}
	if bare := table.Resolve("/"); bare.Known() {
		t.Fatalf("bare marker must not be a known command")
	}
}

func TestLoadTable_Overlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	content := `unknown: "Nope."
commands:
  start:
    reply: "Welcome aboard"
  /About:
    reply: "Relay bot"
  reset:
    reset: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("load table: %v", err)
	}

	if got := table.Resolve("/start").Reply; got != "Welcome aboard" {
		t.Fatalf("expected overridden start reply, got %q", got)
	}
	if got := table.Resolve("/about"); !got.Known() || got.Reply != "Relay bot" {
		t.Fatalf("expected added about command, got %+v", got)
	}
	reset := table.Resolve("/reset")
	if !reset.ResetMemory || reset.Reply != defaultResetReply {
		t.Fatalf("reset must keep its effect and reply, got %+v", reset)
	}
	if got := table.Resolve("/x").Reply; got != "Nope." {
		t.Fatalf("expected custom unknown reply, got %q", got)
	}
}

func TestLoadTable_Errors(t *testing.T) {
	if _, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("commands:\n  newcmd: {}\n"), 0o600)
	if _, err := LoadTable(path); err == nil {
		t.Fatalf("expected error for command without reply")
	}

	table, err := LoadTable("")
	if err != nil || len(table.Names()) != 3 {
		t.Fatalf("expected default table, got %v, %v", table, err)
	}
}
