package sitegen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/termsite/config"
	"github.com/dalemusser/termsite/plugins"
	"github.com/dalemusser/termsite/site"
)

func TestScaffold(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blog")
	names, err := Scaffold(dir, "My Blog")
	if err != nil {
		t.Fatalf("Scaffold error = %v", err)
	}
	if len(names) != 6 {
		t.Errorf("wrote %d files: %v", len(names), names)
	}
	b, err := os.ReadFile(filepath.Join(dir, "_config.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `title: "My Blog"`) {
		t.Errorf("_config.yml = %q", b)
	}
}

func TestScaffold_NotEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "keep.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Scaffold(dir, ""); !errors.Is(err, ErrNotEmpty) {
		t.Errorf("error = %v, want ErrNotEmpty", err)
	}
}

// The starter site must build cleanly with strict controller checks.
func TestScaffold_Builds(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	if _, err := Scaffold(dir, "Demo"); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(t.TempDir(), "_site")
	s := site.New(config.BuildConfig{
		Source:            dir,
		Destination:       dest,
		AssetsDir:         "_assets",
		LayoutsDir:        "_layouts",
		DataDir:           "_data",
		WrapWidth:         42,
		RenderWorkers:     2,
		ImportMapBase:     "/",
		StrictControllers: true,
	}, nil, nil, nil)
	c, err := plugins.Install(s, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Build(context.Background()); err != nil {
		t.Fatalf("Build error = %v", err)
	}
	if !c.Application().Registered("hello") {
		t.Error("hello controller not resolved")
	}

	out, err := os.ReadFile(filepath.Join(dest, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<title>Home</title>", `"./controllers/hello_controller"`, "\x1b[32mhello\x1b[0m"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("index.html missing %q", want)
		}
	}
}
