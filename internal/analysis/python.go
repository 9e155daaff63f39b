package analysis

import (
	"path"
	"regexp"
	"strings"
)

var (
	pyClassPattern   = regexp.MustCompile(`class\s+([a-zA-Z0-9_]+)(?:\(([a-zA-Z0-9_, ]+)\))?:`)
	pyFlaskPattern   = regexp.MustCompile(`@app\.route\(['"]([^'"]+)['"](?:,\s*methods=\[([^\]]+)\])?\)`)
	pyFastAPIPattern = regexp.MustCompile(`@app\.(get|post|put|delete)\(['"]([^'"]+)['"]`)
	pyFuncPattern    = regexp.MustCompile(`(?:async\s+)?def\s+([a-zA-Z0-9_]+)\s*\(`)
	pyImportPattern  = regexp.MustCompile(`(?:from\s+([a-zA-Z0-9_.]+)\s+import\s+([a-zA-Z0-9_, ]+))|(?:import\s+([a-zA-Z0-9_.]+))`)
)

func analyzePython(filePath, content string) fileResult {
	// The directory acts as the namespace for Python modules.
	var fr fileResult
	fr.namespace = strings.ReplaceAll(path.Dir(filePath), "/", ".")
	if fr.namespace == "." {
		fr.namespace = ""
	}

	for _, m := range pyClassPattern.FindAllStringSubmatch(content, -1) {
		var parents []string
		for _, p := range strings.Split(m[2], ",") {
			if p = strings.TrimSpace(p); p != "" {
				parents = append(parents, p)
			}
		}
		fr.entities = append(fr.entities, Entity{
			Name:      m[1],
			Type:      "class",
			Namespace: fr.namespace,
			FilePath:  filePath,
			Parents:   parents,
		})
	}

	if strings.Contains(content, "app.route") || strings.Contains(content, "@app") {
		fr.endpoints = extractPythonEndpoints(content)
	}

	for _, m := range pyImportPattern.FindAllStringSubmatch(content, -1) {
		switch {
		case m[1] != "" && m[2] != "":
			for _, imp := range strings.Split(m[2], ",") {
				if imp = strings.TrimSpace(imp); imp != "" {
					fr.dependencies = append(fr.dependencies, Dependency{
						Type: "module",
						Name: m[1] + "." + imp,
					})
				}
			}
		case m[3] != "":
			fr.dependencies = append(fr.dependencies, Dependency{Type: "module", Name: m[3]})
		}
	}

	return fr
}

func extractPythonEndpoints(content string) []Endpoint {
	var endpoints []Endpoint

	for _, loc := range pyFlaskPattern.FindAllStringSubmatchIndex(content, -1) {
		route := content[loc[2]:loc[3]]
		methods := []string{"GET"}
		if loc[4] != -1 {
			methods = methods[:0]
			for _, m := range strings.Split(content[loc[4]:loc[5]], ",") {
				m = strings.Trim(strings.TrimSpace(m), `'"`)
				if m != "" {
					methods = append(methods, m)
				}
			}
		}
		fm := pyFuncPattern.FindStringSubmatch(content[loc[1]:])
		if fm == nil {
			continue
		}
		for _, method := range methods {
			endpoints = append(endpoints, Endpoint{Route: route, Method: method, Handler: fm[1]})
		}
	}

	for _, loc := range pyFastAPIPattern.FindAllStringSubmatchIndex(content, -1) {
		verb := strings.ToUpper(content[loc[2]:loc[3]])
		route := content[loc[4]:loc[5]]
		fm := pyFuncPattern.FindStringSubmatch(content[loc[1]:])
		if fm == nil {
			continue
		}
		endpoints = append(endpoints, Endpoint{Route: route, Method: verb, Handler: fm[1]})
	}

	return endpoints
}
