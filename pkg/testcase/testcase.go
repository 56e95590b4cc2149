// Package testcase reads and writes shortest test files.
//
// A test file is YAML holding one or more natural language test cases:
//
//	tests:
//	  - name: user can log in
//	    url: /login
//	    steps:
//	      - fill the login form with the demo account
//	      - the dashboard greets the user by name
//
// Cases written from crawled flows also carry the literal actions that were
// observed, which the prompt passes along as hints.
package testcase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antiwork/shortest/pkg/agent/prompts"
	"github.com/antiwork/shortest/pkg/run"
	"gopkg.in/yaml.v3"
)

// FileSuffix is the extension of test files written by shortest.
const FileSuffix = ".test.yaml"

// File is a parsed test file.
type File struct {
	// Path is the file location relative to the discovery root.
	Path string `yaml:"-"`

	Tests []Case `yaml:"tests"`
}

// Case is a single test case.
type Case struct {
	Name    string            `yaml:"name"`
	URL     string            `yaml:"url,omitempty"`
	Steps   []string          `yaml:"steps,omitempty"`
	Actions []run.FlowStep    `yaml:"actions,omitempty"`
	Context map[string]string `yaml:"context,omitempty"`

	// Key identifies the case across runs. It is set when the file is loaded.
	Key string `yaml:"-"`
}

// Validate checks that every case can be turned into a prompt.
func (f *File) Validate() error {
	if len(f.Tests) == 0 {
		return fmt.Errorf("%s: no tests defined", f.Path)
	}
	seen := make(map[string]bool, len(f.Tests))
	for i, tc := range f.Tests {
		if strings.TrimSpace(tc.Name) == "" {
			return fmt.Errorf("%s: test %d: name cannot be empty", f.Path, i)
		}
		if seen[tc.Name] {
			return fmt.Errorf("%s: duplicate test name %q", f.Path, tc.Name)
		}
		seen[tc.Name] = true
		for j, action := range tc.Actions {
			if action.Action == "" {
				return fmt.Errorf("%s: test %q: action %d has no action", f.Path, tc.Name, j)
			}
		}
	}
	return nil
}

// Load reads and validates the test file at root/rel.
func Load(root, rel string) (*File, error) {
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		return nil, fmt.Errorf("failed to read test file: %w", err)
	}

	file := &File{Path: filepath.ToSlash(rel)}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rel, err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	for i := range file.Tests {
		file.Tests[i].Key = file.Path + "#" + file.Tests[i].Name
	}
	return file, nil
}

// Save writes file to path, creating parent directories.
func Save(path string, file *File) error {
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to encode test file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write test file: %w", err)
	}
	return nil
}

// Prompt renders the case as the task prompt of a test run.
func (c Case) Prompt(baseURL string) string {
	var b strings.Builder
	b.WriteString("Test case: ")
	b.WriteString(c.Name)
	if len(c.Steps) > 0 {
		b.WriteString("\n\nExpectations:")
		for i, step := range c.Steps {
			fmt.Fprintf(&b, "\n%d. %s", i+1, step)
		}
	}
	if len(c.Actions) > 0 {
		b.WriteString("\n\nPreviously observed actions (hints, selectors may have changed):")
		for _, action := range c.Actions {
			b.WriteString("\n- ")
			b.WriteString(action.Action)
			if action.Selector != "" {
				b.WriteString(" " + action.Selector)
			}
			if action.Value != "" {
				fmt.Fprintf(&b, " %q", action.Value)
			}
		}
	}

	context := make(map[string]string, len(c.Context)+2)
	if baseURL != "" {
		context["base_url"] = baseURL
	}
	if c.URL != "" {
		context["start_url"] = c.URL
	}
	for k, v := range c.Context {
		context[k] = v
	}
	return prompts.FormatTaskPrompt(b.String(), context)
}
