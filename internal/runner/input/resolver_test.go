package input

import (
	"fmt"
	"reflect"
	"testing"
)

func fakeUploader(t *testing.T, calls *map[string]int) UploadFunc {
	t.Helper()
	return func(filename string) (string, error) {
		if calls != nil {
			(*calls)[filename]++
		}
		return "https://files.test/" + filename, nil
	}
}

func TestResolveLiteralYieldsSingleURL(t *testing.T) {
	r := NewResolver([]string{"ref.png", "mask.png"}, fakeUploader(t, nil))

	got, err := r.Resolve("files:ref.png")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	url, ok := got.(string)
	if !ok {
		t.Fatalf("expected single URL string, got %T (%v)", got, got)
	}
	if url != "https://files.test/ref.png" {
		t.Errorf("unexpected URL: %s", url)
	}
}

func TestResolveWildcardYieldsListEvenForOneMatch(t *testing.T) {
	r := NewResolver([]string{"ref.png", "notes.txt"}, fakeUploader(t, nil))

	got, err := r.Resolve("files:*.png")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	list, ok := got.([]any)
	if !ok {
		t.Fatalf("expected list, got %T (%v)", got, got)
	}
	if len(list) != 1 || list[0] != "https://files.test/ref.png" {
		t.Errorf("unexpected list: %v", list)
	}
}

func TestResolveZeroMatchesYieldsEmptyList(t *testing.T) {
	r := NewResolver([]string{"ref.png"}, fakeUploader(t, nil))

	for _, pattern := range []string{"files:missing.png", "files:*.wav"} {
		got, err := r.Resolve(pattern)
		if err != nil {
			t.Fatalf("Resolve(%s) failed: %v", pattern, err)
		}
		list, ok := got.([]any)
		if !ok || len(list) != 0 {
			t.Errorf("Resolve(%s) = %v, want empty list", pattern, got)
		}
	}
}

func TestResolveNameOnlyPatternMatchesNestedFiles(t *testing.T) {
	files := []string{"frames/intro/a.png", "b.png"}
	r := NewResolver(files, fakeUploader(t, nil))

	got, err := r.Resolve("files:a.png")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "https://files.test/frames/intro/a.png" {
		t.Errorf("expected nested file matched by bare name, got %v", got)
	}

	got, err = r.Resolve("files:*.png")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	list := got.([]any)
	if len(list) != 2 {
		t.Errorf("expected name-only wildcard to match nested and top-level, got %v", list)
	}
}

func TestResolvePathPatternDoesNotMatchBareNames(t *testing.T) {
	r := NewResolver([]string{"frames/a.png", "a.png"}, fakeUploader(t, nil))

	got, err := r.Resolve("files:frames/*.png")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	list := got.([]any)
	if len(list) != 1 || list[0] != "https://files.test/frames/a.png" {
		t.Errorf("expected only the nested match, got %v", list)
	}
}

func TestResolveWalksNestedStructures(t *testing.T) {
	r := NewResolver([]string{"ref.png"}, fakeUploader(t, nil))

	in := map[string]any{
		"prompt": "keep me",
		"steps":  30.0,
		"image":  "files:ref.png",
		"layers": []any{
			map[string]any{"mask": "files:*.png", "strength": 0.5},
			"plain string",
		},
	}

	got, err := r.Resolve(in)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := map[string]any{
		"prompt": "keep me",
		"steps":  30.0,
		"image":  "https://files.test/ref.png",
		"layers": []any{
			map[string]any{"mask": []any{"https://files.test/ref.png"}, "strength": 0.5},
			"plain string",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve mismatch:\n got %#v\nwant %#v", got, want)
	}

	// Original input must be untouched.
	if in["image"] != "files:ref.png" {
		t.Error("Resolve mutated its input")
	}
}

func TestCachedUploaderUploadsOncePerFilename(t *testing.T) {
	calls := map[string]int{}
	upload := CachedUploader(fakeUploader(t, &calls))
	r := NewResolver([]string{"ref.png"}, upload)

	in := map[string]any{
		"a": "files:ref.png",
		"b": "files:*.png",
		"c": "files:ref.png",
	}
	if _, err := r.Resolve(in); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if calls["ref.png"] != 1 {
		t.Errorf("expected exactly one upload for ref.png, got %d", calls["ref.png"])
	}
}

func TestResolveUploadFailureAborts(t *testing.T) {
	failing := func(filename string) (string, error) {
		return "", fmt.Errorf("upload rejected: %s", filename)
	}
	r := NewResolver([]string{"ref.png"}, failing)

	_, err := r.Resolve(map[string]any{"image": "files:ref.png"})
	if err == nil {
		t.Fatal("expected upload failure to abort resolution")
	}
}

func TestHasWildcard(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"ref.png", false},
		{"*.png", true},
		{"frame-?.png", true},
		{"[ab].png", true},
		{"{a,b}.png", true},
		{"dir/literal.mp4", false},
	}

	for _, tt := range tests {
		if got := hasWildcard(tt.pattern); got != tt.want {
			t.Errorf("hasWildcard(%q) = %v, want %v", tt.pattern, got, tt.want)
		}
	}
}
