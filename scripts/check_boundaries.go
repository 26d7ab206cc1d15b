// Command check_boundaries enforces the layering of every service under
// contexts/. Run it from the repository root:
//
//	go run ./scripts/check_boundaries.go
package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "tally"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists the in-module prefixes (relative to the service root) a
// layer may import, and whether third-party modules are allowed at all.
type layerRule struct {
	allowed    []string
	extra      []string
	thirdParty bool
}

var layerRules = map[string]layerRule{
	"domain": {
		allowed: []string{"domain"},
	},
	"ports": {
		allowed: []string{"domain", "ports"},
		extra:   []string{modulePath + "/contracts"},
	},
	"application": {
		allowed: []string{"application", "domain", "ports"},
		extra:   []string{modulePath + "/contracts"},
	},
	"transport": {
		allowed: []string{"transport"},
	},
}

// domainLeaves may not import any other package of the service.
var domainLeaves = map[string]bool{
	"entities": true,
}

func main() {
	root := flag.String("root", "contexts", "directory holding <context>/<service> trees")
	flag.Parse()

	violations := collectViolations(*root)
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sortViolations(violations)

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func sortViolations(violations []violation) {
	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})
}

func collectViolations(root string) []violation {
	var violations []violation
	base := filepath.ToSlash(filepath.Clean(root))

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		normalized := filepath.ToSlash(path)
		rel := strings.TrimPrefix(strings.TrimPrefix(normalized, base), "/")
		parts := strings.Split(rel, "/")
		if len(parts) < 3 {
			return nil
		}

		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[0], parts[1])
		layer := ""
		subpackage := ""
		if len(parts) > 3 {
			layer = parts[2]
		}
		if len(parts) > 4 {
			subpackage = parts[3]
		}
		violations = append(violations, validateFile(path, normalized, servicePrefix, layer, subpackage)...)
		return nil
	})

	return violations
}

func validateFile(path string, normalizedPath string, servicePrefix string, layer string, subpackage string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalizedPath, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	add := func(line int, importPath string, rule string) {
		violations = append(violations, violation{File: normalizedPath, Line: line, Import: importPath, Rule: rule})
	}

	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
			add(line, importPath, "cross-service imports are forbidden")
			continue
		}

		rule, ok := layerRules[layer]
		if !ok || isStdlib(importPath) {
			continue
		}
		if !strings.HasPrefix(importPath, modulePath+"/") {
			if !rule.thirdParty {
				add(line, importPath, layer+" must not import third-party modules")
			}
			continue
		}

		allowed := append([]string(nil), rule.extra...)
		for _, p := range rule.allowed {
			allowed = append(allowed, servicePrefix+"/"+p)
		}
		if !isAllowed(importPath, allowed) {
			add(line, importPath, layer+" import is outside explicit allowlist")
			continue
		}

		if layer == "domain" && domainLeaves[subpackage] && hasPrefix(importPath, servicePrefix+"/domain") {
			add(line, importPath, "domain/"+subpackage+" must not import other domain packages")
		}
	}

	return violations
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
