package agents

import (
	"fmt"
	"sort"
	"strings"

	"monoshift/internal/analysis"
	"monoshift/internal/boundary"
	"monoshift/internal/repo"
)

const architectSystemPrompt = `You are an expert software architect specializing in decomposing monolithic applications into microservices. Respond with a single JSON object and nothing else.`

const developerSystemPrompt = `You are an expert software developer migrating monolith code into standalone microservices. Respond with a single JSON object and nothing else.`

const classifierSystemPrompt = `You are an expert software architect. Respond with a single JSON object and nothing else.`

// architecturePrompt asks the model to classify the monolith's overall
// architecture from a structural summary.
func architecturePrompt(res *analysis.Result, files map[string]repo.FileRecord) string {
	var sb strings.Builder
	sb.WriteString("Classify the architecture of the following codebase.\n\n")
	fmt.Fprintf(&sb, "File count: %d\n", res.FileCount)

	sb.WriteString("Languages: ")
	sb.WriteString(strings.Join(sortedKeys(res.LanguageDistribution), ", "))
	sb.WriteString("\n\nSample files:\n")
	for _, path := range samplePaths(files, 10) {
		fmt.Fprintf(&sb, "- %s\n", path)
	}

	sb.WriteString("\nRespond with JSON: {\"architecture_type\": \"<layered|mvc|modular|monolithic|microservices|unknown>\", \"frameworks\": [\"...\"]}\n")
	return sb.String()
}

// boundaryPrompt asks for service boundaries, grounded in the static
// analysis and a handful of sample files.
func boundaryPrompt(res *analysis.Result, files map[string]repo.FileRecord) string {
	var sb strings.Builder
	sb.WriteString("Based on the following code analysis, identify logical microservice boundaries:\n\n")
	fmt.Fprintf(&sb, "Architecture Type: %s\n", orUnknown(res.ArchitectureType))
	fmt.Fprintf(&sb, "Languages: %s\n", strings.Join(sortedKeys(res.LanguageDistribution), ", "))
	fmt.Fprintf(&sb, "File Count: %d\n\n", res.FileCount)

	if len(res.PotentialServices) > 0 {
		sb.WriteString("Namespace clusters detected by static analysis:\n")
		for _, s := range res.PotentialServices {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", s.Name, s.Namespace, strings.Join(s.Entities, ", "))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Sample Files:\n")
	for _, path := range samplePaths(files, 5) {
		fmt.Fprintf(&sb, "- %s\n", path)
	}

	sb.WriteString(`
Identify boundaries using these principles:
1. Domain-Driven Design (DDD) concepts
2. High cohesion and low coupling
3. Single Responsibility Principle
4. Business capabilities

Respond with JSON:
{"service_boundaries": [{"name": "...", "description": "...", "responsibilities": ["..."], "entities": ["..."], "apis": ["..."]}], "rationale": "..."}
`)
	return sb.String()
}

// refactorPrompt asks for the generated files of one service, for one
// batch of original files.
func refactorPrompt(b boundary.ServiceBoundary, batch []repo.FileRecord, language string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Refactor the following code to create a microservice for '%s'.\n\n", b.Name)
	sb.WriteString("Service Boundary:\n")
	fmt.Fprintf(&sb, "Service Name: %s\n", b.Name)
	fmt.Fprintf(&sb, "Description: %s\n", orUnknown(b.Description))
	fmt.Fprintf(&sb, "Responsibilities: %s\n", strings.Join(b.Responsibilities, ", "))
	fmt.Fprintf(&sb, "Entities: %s\n", strings.Join(b.Entities, ", "))
	fmt.Fprintf(&sb, "APIs: %s\n", strings.Join(b.APIs, ", "))
	fmt.Fprintf(&sb, "Target Language: %s\n\n", orUnknown(language))

	sb.WriteString("Original Code:\n")
	for _, f := range batch {
		fmt.Fprintf(&sb, "File: %s\n```\n%s\n```\n\n", f.Path, f.Content)
	}

	sb.WriteString(`Refactor this code into a standalone microservice with:
1. Controllers for the API endpoints
2. Models for the core entities
3. Services for the business logic
4. A data access layer

Respond with JSON: {"service_name": "...", "files": [{"path": "...", "content": "..."}]}
`)
	return sb.String()
}

func samplePaths(files map[string]repo.FileRecord, n int) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	if len(paths) > n {
		paths = paths[:n]
	}
	return paths
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
