package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/kyrelabs/keel"
)

// Loader selects and parses the configuration file for an environment. The
// zero value loads from DefaultFolder with no application namespace.
type Loader struct {
	// Folder is the configuration root folder; empty means DefaultFolder.
	Folder string
	// AppName, when set, nests candidate files one level under Folder.
	AppName string
}

// Load picks the first existing candidate file for env, expands it against the
// process environment, and parses it. The local override file, when present,
// is used exclusively; it is never merged with the base file.
func (l Loader) Load(env Environment) (*Document, error) {
	folder := l.Folder
	if folder == "" {
		folder = DefaultFolder
	}
	if l.AppName != "" {
		folder = filepath.Join(folder, l.AppName)
	}

	for _, name := range candidateNames(env) {
		path := filepath.Join(folder, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return loadFile(path)
	}

	return nil, keel.New(keel.KindConfigNotFound, env.String(),
		fmt.Sprintf("no configuration file for environment %q under %s", env, folder))
}

// candidateNames returns candidate file names in strict precedence order: the
// local override layer before the base layer, TOML before YAML within a layer.
func candidateNames(env Environment) []string {
	return []string{
		fmt.Sprintf("%s.local.toml", env),
		fmt.Sprintf("%s.local.yaml", env),
		fmt.Sprintf("%s.toml", env),
		fmt.Sprintf("%s.yaml", env),
	}
}

func loadFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, keel.Wrap(keel.KindConfigNotFound, path, err)
	}

	expanded, err := expand(string(raw))
	if err != nil {
		return nil, keel.Wrap(keel.KindTemplate, path, err)
	}

	if filepath.Ext(path) == ".yaml" {
		return parseYAML(expanded)
	}
	return parseTOML(expanded)
}

// expand substitutes {{ NAME }} placeholders in text with process environment
// variable values. Every variable whose name is a valid identifier is bound as
// a zero-argument template function, which keeps the bare placeholder syntax
// without a leading dot. Referencing an unset name fails at parse time.
func expand(text string) (string, error) {
	funcs := template.FuncMap{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !identifier(name) {
			continue
		}
		funcs[name] = func() string { return value }
	}

	tmpl, err := template.New("config").Funcs(funcs).Parse(text)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, nil); err != nil {
		return "", err
	}
	return b.String(), nil
}

func identifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z':
		case '0' <= r && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
