package hook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root, dir string, m Manifest) {
	t.Helper()

	hookDir := filepath.Join(root, dir)
	if err := os.MkdirAll(hookDir, 0755); err != nil {
		t.Fatalf("failed to create hook dir: %v", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(hookDir, ManifestFile), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "relay", Manifest{
		Name:        "chat-relay",
		Version:     "1.0.0",
		Description: "Posts gestures to the chat",
		Executable:  "chat-relay",
		Actions:     []string{"send", "log"},
	})
	writeManifest(t, root, "beep", Manifest{Name: "beep", Executable: "beep.sh"})

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	hooks := m.List()
	if len(hooks) != 2 {
		t.Fatalf("expected 2 hooks, got %d", len(hooks))
	}
	if hooks[0].Manifest.Name != "beep" || hooks[1].Manifest.Name != "chat-relay" {
		t.Errorf("hooks not sorted by name: %s, %s", hooks[0].Manifest.Name, hooks[1].Manifest.Name)
	}

	h, err := m.Get("chat-relay")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if h.Path != filepath.Join(root, "relay") {
		t.Errorf("Path = %q", h.Path)
	}
	if h.Executable != filepath.Join(root, "relay", "chat-relay") {
		t.Errorf("Executable = %q", h.Executable)
	}
}

func TestManager_Discover_SkipsInvalid(t *testing.T) {
	root := t.TempDir()

	bad := filepath.Join(root, "bad")
	if err := os.MkdirAll(bad, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, ManifestFile), []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, root, "noexec", Manifest{Name: "noexec"})
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if n := len(m.List()); n != 0 {
		t.Errorf("expected 0 hooks, got %d", n)
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing"))

	if err := m.Discover(); err != nil {
		t.Errorf("Discover() on missing dir should not fail: %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("expected no hooks")
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	m := NewManager(t.TempDir())

	if _, err := m.Get("nope"); err != ErrHookNotFound {
		t.Errorf("Get() error = %v, want ErrHookNotFound", err)
	}
}

func TestManager_Rediscover(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "a", Manifest{Name: "a", Executable: "a.sh"})

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(filepath.Join(root, "a")); err != nil {
		t.Fatal(err)
	}
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Get("a"); err != ErrHookNotFound {
		t.Errorf("removed hook still present: %v", err)
	}
	if m.Dir() != root {
		t.Errorf("Dir() = %q, want %q", m.Dir(), root)
	}
}

func TestManifest_SupportsAction(t *testing.T) {
	open := Manifest{}
	if !open.SupportsAction("send") {
		t.Error("empty action list should accept any action")
	}

	m := Manifest{Actions: []string{"send", "log"}}
	if !m.SupportsAction("log") {
		t.Error("expected log to be supported")
	}
	if m.SupportsAction("delete") {
		t.Error("expected delete to be unsupported")
	}
}
