package sandbox

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/runtime"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/system"
)

func newRecord(id, title string, created time.Time) *Record {
	return &Record{
		ID:          id,
		Title:       title,
		ProjectPath: "/home/u/" + title,
		Tool:        "claude",
		Command:     []string{"claude"},
		CreatedAt:   created,
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rec := newRecord("abcd1234-0000", "proj", created)
	rec.Sandbox = &Info{
		Enabled:       true,
		ContainerID:   "container123",
		Image:         "custom:image",
		ContainerName: "aoe-sandbox-abcd1234",
		CreatedAt:     &created,
		ExtraEnvKeys:  []string{"API_KEY", "SECRET"},
		Mode:          runtime.ModeDocker,
	}

	if err := store.Save(rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "abcd1234-0000.json.tmp")); !os.IsNotExist(err) {
		t.Error("temporary file should not remain")
	}

	loaded, err := store.Load("abcd1234-0000")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !loaded.IsSandboxed() {
		t.Error("loaded record should be sandboxed")
	}
	sb := loaded.Sandbox
	if sb.ContainerID != "container123" || sb.Image != "custom:image" || sb.ContainerName != "aoe-sandbox-abcd1234" {
		t.Errorf("sandbox info = %+v", sb)
	}
	if len(sb.ExtraEnvKeys) != 2 || sb.ExtraEnvKeys[1] != "SECRET" {
		t.Errorf("ExtraEnvKeys = %v", sb.ExtraEnvKeys)
	}
	if !loaded.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v", loaded.CreatedAt)
	}
}

func TestInfo_JSONFieldNames(t *testing.T) {
	info := Info{Enabled: true, Image: "ubuntu:latest", ContainerName: "aoe-sandbox-test1234", ExtraEnvKeys: []string{"MY_VAR"}}
	data, err := json.Marshal(info)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"enabled"`, `"image"`, `"container_name"`, `"extra_env_keys"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("JSON %s missing %s", data, key)
		}
	}
	if strings.Contains(string(data), "container_id") {
		t.Errorf("empty container_id should be omitted: %s", data)
	}
}

func TestRecord_IsSandboxed(t *testing.T) {
	rec := newRecord("a", "t", time.Now())
	if rec.IsSandboxed() {
		t.Error("record without sandbox info should not be sandboxed")
	}
	rec.Sandbox = &Info{Enabled: false}
	if rec.IsSandboxed() {
		t.Error("disabled sandbox should not count")
	}
	rec.Sandbox.Enabled = true
	if !rec.IsSandboxed() {
		t.Error("enabled sandbox should count")
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	if _, err := store.Load("nope"); !errors.Is(err, errors.ErrSessionNotFound) {
		t.Errorf("Load error = %v, want SessionNotFound", err)
	}
}

func TestStore_InvalidIDs(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	for _, id := range []string{"", "../escape", "a/b", `a\b`, ".."} {
		if err := store.Save(&Record{ID: id}); err == nil {
			t.Errorf("Save(%q) should fail", id)
		}
	}
}

func TestStore_ListSortedAndSkipsJunk(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for title, hours := range map[string]int{"second": 2, "first": 1, "third": 3} {
		if err := store.Save(newRecord("id-"+title, title, base.Add(time.Duration(hours)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(store.Dir(), "broken.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	var titles []string
	for _, rec := range records {
		titles = append(titles, rec.Title)
	}
	if strings.Join(titles, ",") != "first,second,third" {
		t.Errorf("List titles = %v", titles)
	}
}

func TestStore_ListMissingDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent"), nil)
	records, err := store.List()
	if err != nil || len(records) != 0 {
		t.Errorf("List() = %v, %v; want empty, nil", records, err)
	}
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	if err := store.Save(newRecord("gone", "x", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("gone"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := store.Delete("gone"); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
}

func TestStore_Resolve(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	now := time.Now()
	for _, rec := range []*Record{
		newRecord("abcd1234-aaaa", "api", now),
		newRecord("abcd9999-bbbb", "web", now),
		newRecord("ffff0000-cccc", "web", now),
	} {
		if err := store.Save(rec); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		identifier string
		wantID     string
		wantErr    error
	}{
		{"abcd1234-aaaa", "abcd1234-aaaa", nil},
		{"abcd1", "abcd1234-aaaa", nil},
		{"ffff", "ffff0000-cccc", nil},
		{"api", "abcd1234-aaaa", nil},
		{"abcd", "", errors.New(errors.ExitGeneralError, "ambiguous")},
		{"web", "", errors.New(errors.ExitGeneralError, "ambiguous")},
		{"nothing", "", errors.ErrSessionNotFound},
		{"../etc", "", errors.ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			rec, err := store.Resolve(tt.identifier)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Resolve(%q) error = %v, want %v", tt.identifier, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.identifier, err)
			}
			if rec.ID != tt.wantID {
				t.Errorf("Resolve(%q) = %s, want %s", tt.identifier, rec.ID, tt.wantID)
			}
		})
	}
}

func TestStore_SaveRenameFailure(t *testing.T) {
	mockFS := system.NewMockFS()
	mockFS.RenameErr = fs.ErrPermission
	store := NewStore("/app", mockFS)

	err := store.Save(newRecord("abc", "x", time.Now()))
	if !errors.Is(err, errors.ErrIO) {
		t.Fatalf("Save error = %v, want IO error", err)
	}
	if mockFS.Exists("/app/sessions/abc.json.tmp") {
		t.Error("temporary file should be removed after a failed rename")
	}
}
