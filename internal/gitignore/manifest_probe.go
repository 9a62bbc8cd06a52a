package gitignore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// probeManifests inspects the project's build manifests to learn which
// language extensions count as source here, beyond the built-in table.
// A manifest that exists but fails to parse contributes nothing.
func probeManifests(projectRoot string) []string {
	var exts []string

	if tomlManifestExists(filepath.Join(projectRoot, "Cargo.toml")) {
		exts = append(exts, ".rs")
	}
	if tomlManifestExists(filepath.Join(projectRoot, "pyproject.toml")) {
		exts = append(exts, ".py")
	}
	if _, err := os.Stat(filepath.Join(projectRoot, "go.mod")); err == nil {
		exts = append(exts, ".go")
	}
	if _, err := os.Stat(filepath.Join(projectRoot, "Gemfile")); err == nil {
		exts = append(exts, ".rb")
	}
	exts = append(exts, packageJSONExtensions(filepath.Join(projectRoot, "package.json"))...)

	return exts
}

func tomlManifestExists(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]interface{}
	return toml.Unmarshal(data, &doc) == nil
}

// packageJSONExtensions reads package.json; TypeScript in the dependency
// sets adds the TS family on top of plain JS.
func packageJSONExtensions(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if json.Unmarshal(data, &pkg) != nil {
		return nil
	}

	exts := []string{".js", ".jsx", ".mjs", ".cjs"}
	if _, ok := pkg.Dependencies["typescript"]; ok {
		return append(exts, ".ts", ".tsx")
	}
	if _, ok := pkg.DevDependencies["typescript"]; ok {
		return append(exts, ".ts", ".tsx")
	}
	return exts
}
