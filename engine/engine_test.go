package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cpcf/scaffold/processors"
	"github.com/cpcf/scaffold/state"
	"github.com/cpcf/scaffold/template"
	scaffoldtest "github.com/cpcf/scaffold/testing"
	"github.com/cpcf/scaffold/variant"
	"github.com/cpcf/scaffold/write"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testValues() template.Context {
	return variant.BuildContext(variant.Inputs{CrateName: "my-app", Authors: "Ada"})
}

func TestEngineBasic(t *testing.T) {
	memFS := scaffoldtest.NewMemoryFSFrom(map[string]string{
		"Cargo.toml.tmpl":  "[package]\nname = \"{{ crate_name }}\"\nauthors = [\"{{ authors }}\"]\n",
		"src/main.rs.tmpl": "{% if use_local -%}\n// local\n{% else -%}\n// published\n{% endif -%}\nfn main() {}\n",
	})
	v := variant.Variant{
		Backend: variant.Axum,
		Templates: []variant.TemplatePath{
			{Source: "Cargo.toml.tmpl", Output: "Cargo.toml"},
			{Source: "src/main.rs.tmpl", Output: "src/main.rs"},
		},
	}

	tempDir := t.TempDir()
	engine := New(WithLogger(quietLogger()))
	ctx := NewContext(memFS, "test", tempDir)

	if err := engine.RenderVariant(context.Background(), ctx, v, testValues()); err != nil {
		t.Fatalf("RenderVariant failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tempDir, "Cargo.toml"))
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	expected := "[package]\nname = \"my-app\"\nauthors = [\"Ada\"]\n"
	if string(content) != expected {
		t.Errorf("Output mismatch.\nExpected: %q\nGot: %q", expected, string(content))
	}

	content, err = os.ReadFile(filepath.Join(tempDir, "src", "main.rs"))
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	if string(content) != "// published\nfn main() {}\n" {
		t.Errorf("Unexpected main.rs: %q", string(content))
	}
}

func TestEngineTemplateParseError(t *testing.T) {
	memFS := scaffoldtest.NewMemoryFSFrom(map[string]string{
		"bad.tmpl": "{% if use_local %}\nunclosed\n",
	})
	v := variant.Variant{Backend: variant.Tide, Templates: []variant.TemplatePath{{Source: "bad.tmpl", Output: "bad"}}}

	mem := write.NewMemoryWriter()
	engine := New(WithLogger(quietLogger()), WithWriter(mem))
	err := engine.RenderVariant(context.Background(), NewContext(memFS, "test", "out"), v, testValues())
	if err == nil {
		t.Fatal("Expected error for malformed template, got nil")
	}
	if !errors.Is(err, template.ErrParse) {
		t.Errorf("Expected parse error, got: %v", err)
	}
	if !template.IsKind(err, template.UnmatchedIf) {
		t.Errorf("Expected UnmatchedIf, got: %v", err)
	}
	if len(mem.Paths()) != 0 {
		t.Errorf("Expected nothing written, got %v", mem.Paths())
	}
}

func TestEngineFailureModes(t *testing.T) {
	memFS := scaffoldtest.NewMemoryFSFrom(map[string]string{
		"good.tmpl":  "name = \"{{ crate_name }}\"\n",
		"bad.tmpl":   "{{ missing }}\n",
		"worse.tmpl": "{% else %}\n",
	})
	v := variant.Variant{
		Backend: variant.Axum,
		Templates: []variant.TemplatePath{
			{Source: "bad.tmpl", Output: "bad"},
			{Source: "good.tmpl", Output: "good"},
			{Source: "worse.tmpl", Output: "worse"},
		},
	}
	ctx := NewContext(memFS, "test", "out")

	t.Run("FailFast", func(t *testing.T) {
		mem := write.NewMemoryWriter()
		engine := New(WithLogger(quietLogger()), WithWriter(mem), WithFailureMode(FailFast))
		err := engine.RenderVariant(context.Background(), ctx, v, testValues())
		if err == nil {
			t.Fatal("Expected error in FailFast mode")
		}

		var genErr *GenerationError
		if !errors.As(err, &genErr) {
			t.Fatalf("Expected GenerationError, got %T", err)
		}
		if len(mem.Paths()) != 0 {
			t.Errorf("Expected nothing written, got %v", mem.Paths())
		}
	})

	t.Run("FailAtEnd", func(t *testing.T) {
		mem := write.NewMemoryWriter()
		engine := New(WithLogger(quietLogger()), WithWriter(mem), WithFailureMode(FailAtEnd))
		err := engine.RenderVariant(context.Background(), ctx, v, testValues())
		if err == nil {
			t.Fatal("Expected error in FailAtEnd mode")
		}

		multiErr, ok := err.(*MultiError)
		if !ok {
			t.Fatalf("Expected MultiError, got %T", err)
		}
		if len(multiErr.Errors) != 2 {
			t.Fatalf("Expected 2 errors, got %d: %v", len(multiErr.Errors), multiErr)
		}
		if multiErr.Errors[0].Path != "bad.tmpl" || multiErr.Errors[1].Path != "worse.tmpl" {
			t.Errorf("Errors not in template order: %v", multiErr)
		}
		if !template.IsKind(err, template.UndefinedVariable) || !template.IsKind(multiErr.Errors[1], template.UnexpectedElse) {
			t.Errorf("Unexpected error kinds: %v", multiErr)
		}
		if len(mem.Paths()) != 0 {
			t.Errorf("Expected nothing written, got %v", mem.Paths())
		}
	})

	t.Run("BestEffort", func(t *testing.T) {
		mem := write.NewMemoryWriter()
		engine := New(WithLogger(quietLogger()), WithWriter(mem), WithFailureMode(BestEffort))
		err := engine.RenderVariant(context.Background(), ctx, v, testValues())
		if err != nil {
			t.Errorf("Expected no error in BestEffort mode, got: %v", err)
		}

		content, ok := mem.File(filepath.Join("out", "good"))
		if !ok {
			t.Fatal("Good template should have been rendered in BestEffort mode")
		}
		if string(content) != "name = \"my-app\"\n" {
			t.Errorf("Unexpected content %q", string(content))
		}
		if len(mem.Paths()) != 1 {
			t.Errorf("Expected only the good file, got %v", mem.Paths())
		}
	})
}

func TestRenderFilesOrder(t *testing.T) {
	files := make(map[string]string)
	var paths []variant.TemplatePath
	for i := 0; i < 50; i++ {
		src := fmt.Sprintf("t%02d.tmpl", i)
		files[src] = fmt.Sprintf("%d {{ crate_ident }}", i)
		paths = append(paths, variant.TemplatePath{Source: src, Output: fmt.Sprintf("f%02d", i)})
	}
	memFS := scaffoldtest.NewMemoryFSFrom(files)
	v := variant.Variant{Backend: variant.Axum, Templates: paths}

	engine := New(WithLogger(quietLogger()), WithWorkers(4))
	out, err := engine.RenderFiles(context.Background(), NewContext(memFS, "test", "out"), v, testValues())
	if err != nil {
		t.Fatalf("RenderFiles failed: %v", err)
	}
	if len(out) != len(paths) {
		t.Fatalf("Expected %d files, got %d", len(paths), len(out))
	}
	for i, f := range out {
		if f.Path != paths[i].Output {
			t.Errorf("out[%d].Path = %q, want %q", i, f.Path, paths[i].Output)
		}
		if want := fmt.Sprintf("%d my_app", i); string(f.Content) != want {
			t.Errorf("out[%d] = %q, want %q", i, string(f.Content), want)
		}
	}
	if engine.cache.Len() != len(paths) {
		t.Errorf("Expected %d cached templates, got %d", len(paths), engine.cache.Len())
	}
}

func TestRenderFilesCancelled(t *testing.T) {
	memFS := scaffoldtest.NewMemoryFSFrom(map[string]string{"a.tmpl": "a"})
	v := variant.Variant{Backend: variant.Axum, Templates: []variant.TemplatePath{{Source: "a.tmpl", Output: "a"}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := New(WithLogger(quietLogger()))
	_, err := engine.RenderFiles(ctx, NewContext(memFS, "test", "out"), v, testValues())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestEnginePostProcessing(t *testing.T) {
	memFS := scaffoldtest.NewMemoryFSFrom(map[string]string{
		"Cargo.toml.tmpl": "[dependencies]\nhashira = \"1\"\n",
		"README.md.tmpl":  "# {{ crate_name }}",
	})
	v := variant.Variant{
		Backend: variant.Axum,
		Templates: []variant.TemplatePath{
			{Source: "Cargo.toml.tmpl", Output: "Cargo.toml"},
			{Source: "README.md.tmpl", Output: "README.md"},
		},
	}
	ctx := NewContext(memFS, "test", "out")

	t.Run("lenient", func(t *testing.T) {
		engine := New(WithLogger(quietLogger()))
		engine.AddPostProcessor(processors.NewTOMLCheck())
		engine.AddPostProcessor(processors.NewTrailingNewline())

		out, err := engine.RenderFiles(context.Background(), ctx, v, testValues())
		if err != nil {
			t.Fatalf("Expected post-processing failure to be logged, got %v", err)
		}
		if string(out[1].Content) != "# my-app\n" {
			t.Errorf("Expected trailing newline to be added, got %q", string(out[1].Content))
		}
	})

	t.Run("strict", func(t *testing.T) {
		engine := New(WithLogger(quietLogger()), WithStrictPostProcessing(true))
		engine.AddPostProcessor(processors.NewTOMLCheck())

		_, err := engine.RenderFiles(context.Background(), ctx, v, testValues())
		if err == nil || !strings.Contains(err.Error(), "missing [package] table") {
			t.Errorf("Expected strict post-processing error, got %v", err)
		}
	})

	t.Run("pattern", func(t *testing.T) {
		var calls atomic.Int32
		engine := New(WithLogger(quietLogger()))
		err := engine.AddPostProcessorFor("*.md", processorFunc(func(path string, content []byte) ([]byte, error) {
			calls.Add(1)
			return []byte(strings.ToUpper(string(content))), nil
		}))
		if err != nil {
			t.Fatal(err)
		}

		out, err := engine.RenderFiles(context.Background(), ctx, v, testValues())
		if err != nil {
			t.Fatal(err)
		}
		if calls.Load() != 1 {
			t.Errorf("Expected processor to run once, ran %d times", calls.Load())
		}
		if string(out[1].Content) != "# MY-APP" {
			t.Errorf("Unexpected README %q", string(out[1].Content))
		}
	})
}

type processorFunc func(string, []byte) ([]byte, error)

func (f processorFunc) ProcessContent(path string, content []byte) ([]byte, error) {
	return f(path, content)
}

func TestScaffoldBuiltinVariants(t *testing.T) {
	for _, b := range variant.Backends() {
		t.Run(b.String(), func(t *testing.T) {
			mem := write.NewMemoryWriter()
			engine := New(WithLogger(quietLogger()), WithWriter(mem), WithStrictPostProcessing(true))
			engine.AddPostProcessor(processors.NewTOMLCheck())
			engine.AddPostProcessor(processors.NewYAMLCheck())

			ctx := NewContext(variant.FS(), "builtin", "app")
			in := variant.Inputs{CrateName: "my-app", Authors: "Ada <ada@example.com>", UseLocal: b == variant.Axum}
			if err := engine.Scaffold(context.Background(), ctx, b.String(), in); err != nil {
				t.Fatalf("Scaffold failed: %v", err)
			}

			cargo, ok := mem.File(filepath.Join("app", "Cargo.toml"))
			if !ok {
				t.Fatalf("Cargo.toml not written, got %v", mem.Paths())
			}
			if !strings.Contains(string(cargo), `name = "my-app"`) {
				t.Errorf("Cargo.toml lacks crate name:\n%s", cargo)
			}

			_, hasComponents := mem.File(filepath.Join("app", "src", "components.rs"))
			if hasComponents == (b == variant.WasmTarget) {
				t.Errorf("src/components.rs presence = %v for %s", hasComponents, b)
			}
		})
	}
}

func TestScaffoldUnknownBackend(t *testing.T) {
	engine := New(WithLogger(quietLogger()), WithWriter(write.NewMemoryWriter()))
	err := engine.Scaffold(context.Background(), NewContext(variant.FS(), "builtin", "app"), "rocket", variant.Inputs{CrateName: "x"})

	var cfgErr *variant.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigError, got %v", err)
	}
	if cfgErr.Backend != "rocket" {
		t.Errorf("Expected backend rocket, got %q", cfgErr.Backend)
	}
}

func TestScaffoldManifest(t *testing.T) {
	tempDir := t.TempDir()
	engine := New(WithLogger(quietLogger()), WithManifest(true))

	ctx := NewContext(variant.FS(), "builtin", tempDir)
	in := variant.Inputs{CrateName: "my-app", Authors: "Ada"}
	if err := engine.Scaffold(context.Background(), ctx, "tide", in); err != nil {
		t.Fatalf("Scaffold failed: %v", err)
	}

	m, err := state.NewManifestManager(tempDir).Load()
	if err != nil || m == nil {
		t.Fatalf("Expected manifest, got %v, %v", m, err)
	}
	if m.Backend != "tide" {
		t.Errorf("Expected backend tide, got %q", m.Backend)
	}
	entry, ok := m.Entries["Cargo.toml"]
	if !ok || entry.Template != "tide/Cargo.toml.tmpl" {
		t.Errorf("Unexpected Cargo.toml entry %+v", entry)
	}

	content, err := os.ReadFile(filepath.Join(tempDir, "Cargo.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if entry.Hash != state.Hash(content) {
		t.Error("Manifest hash does not match written file")
	}
}

func TestScaffoldRefusesExistingFiles(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tempDir, "README.md"), []byte("mine"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := New(WithLogger(quietLogger()))
	err := engine.Scaffold(context.Background(), NewContext(variant.FS(), "builtin", tempDir), "axum", variant.Inputs{CrateName: "app"})
	if !errors.Is(err, write.ErrExists) {
		t.Fatalf("Expected ErrExists, got %v", err)
	}

	content, _ := os.ReadFile(filepath.Join(tempDir, "README.md"))
	if string(content) != "mine" {
		t.Errorf("Existing README was modified: %q", string(content))
	}
}

func TestTemplateCacheKeyCollision(t *testing.T) {
	cache := NewTemplateCache()

	memFS1 := scaffoldtest.NewMemoryFSFrom(map[string]string{"test.tmpl": "template1: {{ value }}"})
	memFS2 := scaffoldtest.NewMemoryFSFrom(map[string]string{"test.tmpl": "template2: {{ value }}"})

	tmpl1, err := cache.Get("one", memFS1, "test.tmpl")
	if err != nil {
		t.Fatal(err)
	}
	tmpl2, err := cache.Get("two", memFS2, "test.tmpl")
	if err != nil {
		t.Fatal(err)
	}

	values := template.NewContext(map[string]template.Value{"value": template.StringValue("test")})
	out1, err := tmpl1.Render(values)
	if err != nil {
		t.Fatal(err)
	}
	out2, err := tmpl2.Render(values)
	if err != nil {
		t.Fatal(err)
	}

	if out1 == out2 {
		t.Error("Templates from different sources should be cached separately")
	}
	if cache.Len() != 2 {
		t.Errorf("Expected 2 cache entries, got %d", cache.Len())
	}

	again, _ := cache.Get("one", memFS2, "test.tmpl")
	if again != tmpl1 {
		t.Error("Expected cached template for known source ID")
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d", cache.Len())
	}
}

func TestTemplateCacheSkipsParseFailures(t *testing.T) {
	cache := NewTemplateCache()
	memFS := scaffoldtest.NewMemoryFSFrom(map[string]string{"bad.tmpl": "{{ oops"})

	if _, err := cache.Get("src", memFS, "bad.tmpl"); err == nil {
		t.Fatal("Expected parse error")
	}
	if cache.Len() != 0 {
		t.Errorf("Expected failed parse not to be cached, got %d entries", cache.Len())
	}

	memFS.WriteString("bad.tmpl", "{{ fixed }}")
	if _, err := cache.Get("src", memFS, "bad.tmpl"); err != nil {
		t.Errorf("Expected fixed template to parse, got %v", err)
	}
}

func TestParseFailureMode(t *testing.T) {
	tests := map[string]FailureMode{
		"":            FailFast,
		"fail-fast":   FailFast,
		"fail-at-end": FailAtEnd,
		"best-effort": BestEffort,
	}
	for in, want := range tests {
		got, err := ParseFailureMode(in)
		if err != nil || got != want {
			t.Errorf("ParseFailureMode(%q) = %v, %v; want %v", in, got, err, want)
		}
		if in != "" && got.String() != in {
			t.Errorf("%v.String() = %q", got, got.String())
		}
	}
	if _, err := ParseFailureMode("yolo"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestWorkerPoolStats(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Stop()

	done := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		task := &funcTask{id: fmt.Sprint(i), fn: func() error {
			defer func() { done <- struct{}{} }()
			if i%2 == 0 {
				return errors.New("boom")
			}
			return nil
		}}
		if err := pool.Submit(context.Background(), task); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	stats := pool.Stats()
	if stats.WorkerCount != 2 {
		t.Errorf("Expected 2 workers, got %d", stats.WorkerCount)
	}
	if stats.TasksCompleted+stats.TasksFailed > 4 {
		t.Errorf("Unexpected task counts %+v", stats)
	}
}

func TestWorkerPoolSubmitAfterStop(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	pool.Stop()

	task := &funcTask{id: "late", fn: func() error { return nil }}
	for i := 0; i < cap(pool.queue)+1; i++ {
		if err := pool.Submit(context.Background(), task); err != nil {
			if !errors.Is(err, ErrPoolStopped) {
				t.Errorf("Expected ErrPoolStopped, got %v", err)
			}
			return
		}
	}
	t.Error("Expected Submit to fail on a stopped pool")
}

type funcTask struct {
	id string
	fn func() error
}

func (f *funcTask) Execute(ctx context.Context) error { return f.fn() }
func (f *funcTask) ID() string                        { return f.id }
