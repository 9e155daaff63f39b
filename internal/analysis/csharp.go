package analysis

import (
	"regexp"
	"strings"
)

var (
	csNamespacePattern = regexp.MustCompile(`namespace\s+([a-zA-Z0-9_.]+)`)
	csClassPattern     = regexp.MustCompile(`(public|internal|private)?\s*(class|interface|record|struct)\s+([a-zA-Z0-9_]+)`)
	csPropertyPattern  = regexp.MustCompile(`(public|private|protected|internal)?\s+([a-zA-Z0-9_<>]+)\s+([a-zA-Z0-9_]+)\s*\{\s*get;`)
	csMethodPattern    = regexp.MustCompile(`(public|private|protected|internal)\s+(?:async\s+)?([a-zA-Z0-9_<>]+)\s+([a-zA-Z0-9_]+)\s*\(([^)]*)\)`)
	csRoutePattern     = regexp.MustCompile(`\[(?:Http(?:Get|Post|Put|Delete)|Route)\((?:"|')([^"']+)(?:"|')\)\]`)
	csHandlerPattern   = regexp.MustCompile(`(?:public|private|protected)?\s+(?:async\s+)?([a-zA-Z0-9_<>]+)\s+([a-zA-Z0-9_]+)\s*\(`)
	csUsingPattern     = regexp.MustCompile(`using\s+([a-zA-Z0-9_.]+);`)
	csNewRefPattern    = regexp.MustCompile(`new\s+([a-zA-Z0-9_]+)[\s(]`)
)

// builtinRefs are constructor targets that are never domain classes.
var builtinRefs = map[string]struct{}{
	"string": {}, "int": {}, "bool": {}, "var": {}, "object": {},
}

func analyzeCSharp(path, content string) fileResult {
	var fr fileResult

	if m := csNamespacePattern.FindStringSubmatch(content); m != nil {
		fr.namespace = m[1]
	}

	for _, m := range csClassPattern.FindAllStringSubmatch(content, -1) {
		fr.entities = append(fr.entities, Entity{
			Name:       m[3],
			Type:       m[2],
			Namespace:  fr.namespace,
			FilePath:   path,
			Properties: extractCSharpProperties(content),
			Methods:    extractCSharpMethods(content),
		})
	}

	if strings.Contains(path, "Controller") || strings.Contains(strings.ToLower(content), "controller") {
		fr.endpoints = extractCSharpEndpoints(content)
	}

	for _, m := range csUsingPattern.FindAllStringSubmatch(content, -1) {
		fr.dependencies = append(fr.dependencies, Dependency{Type: "namespace", Name: m[1]})
	}
	for _, m := range csNewRefPattern.FindAllStringSubmatch(content, -1) {
		if _, builtin := builtinRefs[m[1]]; builtin {
			continue
		}
		fr.dependencies = append(fr.dependencies, Dependency{Type: "class", Name: m[1]})
	}

	return fr
}

func extractCSharpProperties(content string) []Property {
	var props []Property
	for _, m := range csPropertyPattern.FindAllStringSubmatch(content, -1) {
		access := m[1]
		if access == "" {
			access = "public"
		}
		props = append(props, Property{Access: access, Type: m[2], Name: m[3]})
	}
	return props
}

func extractCSharpMethods(content string) []Method {
	var methods []Method
	for _, m := range csMethodPattern.FindAllStringSubmatch(content, -1) {
		methods = append(methods, Method{
			Access:     m[1],
			ReturnType: m[2],
			Name:       m[3],
			Parameters: m[4],
		})
	}
	return methods
}

// extractCSharpEndpoints pairs each route attribute with the method
// declaration that follows it.
func extractCSharpEndpoints(content string) []Endpoint {
	var endpoints []Endpoint
	for _, loc := range csRoutePattern.FindAllStringSubmatchIndex(content, -1) {
		attr := content[loc[0]:loc[1]]
		route := content[loc[2]:loc[3]]

		after := content[loc[1]:]
		hm := csHandlerPattern.FindStringSubmatch(after)
		if hm == nil {
			continue
		}

		httpMethod := "GET"
		switch {
		case strings.Contains(attr, "HttpPost"):
			httpMethod = "POST"
		case strings.Contains(attr, "HttpPut"):
			httpMethod = "PUT"
		case strings.Contains(attr, "HttpDelete"):
			httpMethod = "DELETE"
		}

		endpoints = append(endpoints, Endpoint{
			Route:      route,
			Method:     httpMethod,
			Handler:    hm[2],
			ReturnType: hm[1],
		})
	}
	return endpoints
}
