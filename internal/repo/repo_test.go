package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseLocalDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/Models/Order.cs", "public class Order {}")
	writeFile(t, root, "app/main.py", "print('hi')")
	writeFile(t, root, "README.md", "# readme")          // not allowlisted
	writeFile(t, root, ".git/config", "[core]")          // hidden, skipped
	writeFile(t, root, "node_modules/x/index.js", "{}")  // dependency tree, skipped

	p := NewParser(nil, 4)
	files, err := p.ParseRepository(context.Background(), root)
	if err != nil {
		t.Fatalf("ParseRepository: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("files = %v", Paths(files))
	}

	order, ok := files["src/Models/Order.cs"]
	if !ok {
		t.Fatalf("missing Order.cs in %v", Paths(files))
	}
	if order.Content != "public class Order {}" {
		t.Fatalf("content = %q", order.Content)
	}
	if order.Extension != ".cs" || order.Language != "csharp" {
		t.Fatalf("record = %+v", order)
	}

	if files["app/main.py"].Language != "python" {
		t.Fatalf("language = %q", files["app/main.py"].Language)
	}
}

func TestParseMissingSourceIsFatal(t *testing.T) {
	p := NewParser(nil, 4)
	_, err := p.ParseRepository(context.Background(), filepath.Join(t.TempDir(), "no-such-remote"))
	if err == nil {
		t.Fatal("expected acquisition error")
	}
}

func TestLanguagesHistogram(t *testing.T) {
	files := map[string]FileRecord{
		"a.cs": {Language: "csharp"},
		"b.cs": {Language: "csharp"},
		"c.py": {Language: "python"},
	}
	dist := Languages(files)
	if dist["csharp"] != 2 || dist["python"] != 1 {
		t.Fatalf("dist = %v", dist)
	}
}
