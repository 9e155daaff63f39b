// Package scaffold produces the boilerplate every generated service
// needs regardless of what the model wrote: a Dockerfile, a README
// assembled from the boundary description, and runnable entry files
// for services the model left without one.
package scaffold

import (
	"fmt"
	"strings"

	"monoshift/internal/boundary"
	"monoshift/internal/extract"
)

// Template supplies language-specific boilerplate for one service.
type Template interface {
	LanguageName() string
	Dockerfile() string
	MainFiles(serviceName string) []extract.FilePair
	Prerequisites() string
}

// ForLanguage returns the template for a language name as reported by
// analysis ("csharp", "python", "go", "java", "javascript",
// "typescript"). Unknown languages get the C# template, the most
// common monolith source in practice.
func ForLanguage(language string) Template {
	switch strings.ToLower(language) {
	case "go":
		return goTemplate{}
	case "python":
		return pythonTemplate{}
	case "java":
		return javaTemplate{}
	case "javascript", "typescript":
		return javascriptTemplate{}
	case "csharp", "":
		return csharpTemplate{}
	default:
		return csharpTemplate{}
	}
}

// SupportFiles returns the scaffold files for one generated service:
// Dockerfile and README, plus main files when the generation produced
// no runnable entry point.
func SupportFiles(t Template, b boundary.ServiceBoundary, generated []extract.FilePair) []extract.FilePair {
	files := []extract.FilePair{
		{Path: "Dockerfile", Content: t.Dockerfile()},
		{Path: "README.md", Content: Readme(t, b)},
	}
	if !hasEntryPoint(generated) {
		files = append(files, t.MainFiles(b.Name)...)
	}
	return files
}

func hasEntryPoint(files []extract.FilePair) bool {
	for _, f := range files {
		base := strings.ToLower(f.Path)
		if strings.HasSuffix(base, "main.go") ||
			strings.HasSuffix(base, "program.cs") ||
			strings.HasSuffix(base, "main.py") ||
			strings.HasSuffix(base, "app.py") ||
			strings.HasSuffix(base, "application.java") ||
			strings.HasSuffix(base, "index.js") {
			return true
		}
	}
	return false
}

// Readme renders the service README from the boundary description.
func Readme(t Template, b boundary.ServiceBoundary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", b.Name)
	if b.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", b.Description)
	}

	sb.WriteString("## Responsibilities\n\n")
	for _, r := range b.Responsibilities {
		fmt.Fprintf(&sb, "- %s\n", r)
	}

	fmt.Fprintf(&sb, "\n## Technology Stack\n\n- **Language**: %s\n", t.LanguageName())
	if len(b.Entities) > 0 {
		fmt.Fprintf(&sb, "- **Entities**: %s\n", strings.Join(b.Entities, ", "))
	}
	if len(b.APIs) > 0 {
		fmt.Fprintf(&sb, "- **APIs**: %s\n", strings.Join(b.APIs, ", "))
	}

	name := strings.ToLower(b.Name)
	fmt.Fprintf(&sb, `
## Getting Started

### Prerequisites

- Docker
- %s

### Running the Service

    docker build -t %s .
    docker run -p 8080:8080 %s
`, t.Prerequisites(), name, name)
	return sb.String()
}
