// Package analysis performs static inspection of a parsed monolith:
// entity and endpoint extraction per language, namespace grouping, and
// a first cut at potential service boundaries. Extraction is regex
// based on purpose; it feeds heuristics and prompts, not a compiler.
package analysis

import (
	"sort"
	"strings"

	"monoshift/internal/repo"
)

// Entity is a class-like declaration found in the monolith.
type Entity struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Namespace  string     `json:"namespace,omitempty"`
	FilePath   string     `json:"file_path"`
	Properties []Property `json:"properties,omitempty"`
	Methods    []Method   `json:"methods,omitempty"`
	Parents    []string   `json:"parent_classes,omitempty"`
}

// Property is one extracted member with a getter.
type Property struct {
	Access string `json:"access"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// Method is one extracted method signature.
type Method struct {
	Access     string `json:"access"`
	ReturnType string `json:"return_type"`
	Name       string `json:"name"`
	Parameters string `json:"parameters"`
}

// Endpoint is an HTTP route discovered in controller or handler code.
type Endpoint struct {
	Route      string `json:"route"`
	Method     string `json:"method"`
	Handler    string `json:"handler"`
	ReturnType string `json:"return_type,omitempty"`
}

// Dependency is a referenced namespace, module, or class.
type Dependency struct {
	// Source is where the reference was found: the file's namespace, or
	// its path when no namespace was declared.
	Source string `json:"source"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// PotentialService is a namespace cluster that looks like it could
// stand alone.
type PotentialService struct {
	Name      string   `json:"name"`
	Namespace string   `json:"namespace"`
	Entities  []string `json:"entities"`
	Files     []string `json:"files"`
}

// Result aggregates everything extracted from a codebase.
type Result struct {
	Entities             []Entity            `json:"entities"`
	Dependencies         []Dependency        `json:"dependencies"`
	Endpoints            []Endpoint          `json:"api_endpoints"`
	Namespaces           map[string][]string `json:"namespaces"`
	PotentialServices    []PotentialService  `json:"potential_services"`
	LanguageDistribution map[string]int      `json:"language_distribution"`
	ArchitectureType     string              `json:"architecture_type,omitempty"`
	FileCount            int                 `json:"file_count"`
}

// fileResult is what one per-language extractor returns.
type fileResult struct {
	entities     []Entity
	dependencies []Dependency
	endpoints    []Endpoint
	namespace    string
}

// Analyze inspects every parsed file and aggregates the findings.
// Files are processed in sorted path order so results are stable.
func Analyze(files map[string]repo.FileRecord) *Result {
	res := &Result{
		Namespaces:           make(map[string][]string),
		LanguageDistribution: make(map[string]int),
		FileCount:            len(files),
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		rec := files[path]
		if rec.Language != "" {
			res.LanguageDistribution[rec.Language]++
		}
		if rec.Content == "" {
			continue
		}

		var fr fileResult
		switch rec.Language {
		case "csharp":
			if rec.Extension != ".cs" {
				continue // project and solution files carry no entities
			}
			fr = analyzeCSharp(path, rec.Content)
		case "python":
			fr = analyzePython(path, rec.Content)
		default:
			continue
		}

		res.Entities = append(res.Entities, fr.entities...)
		for _, dep := range fr.dependencies {
			dep.Source = fr.namespace
			if dep.Source == "" {
				dep.Source = path
			}
			res.Dependencies = append(res.Dependencies, dep)
		}
		res.Endpoints = append(res.Endpoints, fr.endpoints...)
		if fr.namespace != "" {
			res.Namespaces[fr.namespace] = append(res.Namespaces[fr.namespace], path)
		}
	}

	res.Entities = deduplicateEntities(res.Entities)
	res.PotentialServices = identifyPotentialServices(res.Entities, res.Namespaces)
	return res
}

// deduplicateEntities keeps the first entity per namespace+name pair.
func deduplicateEntities(entities []Entity) []Entity {
	seen := make(map[string]struct{}, len(entities))
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		key := e.Namespace + "." + e.Name
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// genericNamespaceParts are structural names that carry no domain
// meaning and are skipped when deriving a service name.
var genericNamespaceParts = map[string]struct{}{
	"models": {}, "controllers": {}, "services": {}, "repositories": {},
	"data": {}, "core": {}, "api": {}, "web": {},
}

// identifyPotentialServices groups entities by namespace and promotes
// clusters of two or more to candidate services.
func identifyPotentialServices(entities []Entity, namespaces map[string][]string) []PotentialService {
	byNamespace := make(map[string][]Entity)
	for _, e := range entities {
		if e.Namespace != "" {
			byNamespace[e.Namespace] = append(byNamespace[e.Namespace], e)
		}
	}

	nsKeys := make([]string, 0, len(byNamespace))
	for ns := range byNamespace {
		nsKeys = append(nsKeys, ns)
	}
	sort.Strings(nsKeys)

	var services []PotentialService
	for _, ns := range nsKeys {
		members := byNamespace[ns]
		if len(members) < 2 {
			continue
		}
		concept := extractDomainConcept(ns)
		if concept == "" {
			continue
		}
		names := make([]string, 0, len(members))
		for _, e := range members {
			names = append(names, e.Name)
		}
		services = append(services, PotentialService{
			Name:      titleCase(concept) + "Service",
			Namespace: ns,
			Entities:  names,
			Files:     namespaces[ns],
		})
	}
	return services
}

// extractDomainConcept returns the last namespace segment that is not a
// generic structural name.
func extractDomainConcept(namespace string) string {
	parts := strings.Split(namespace, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		if _, generic := genericNamespaceParts[strings.ToLower(parts[i])]; !generic {
			return parts[i]
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
