package testcase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/antiwork/shortest/pkg/run"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const loginYAML = `
tests:
  - name: user can log in
    url: /login
    steps:
      - fill the form with the demo account
      - the dashboard is shown
  - name: wrong password is rejected
`

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "login.test.yaml", loginYAML)
	writeFile(t, root, "cart/add.test.yaml", "tests:\n  - name: add to cart\n")
	writeFile(t, root, "notes.yaml", "tests:\n  - name: ignored\n")
	writeFile(t, root, "node_modules/pkg/x.test.yaml", "tests:\n  - name: ignored\n")

	files, err := Discover(root, "**.test.yaml")
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "cart/add.test.yaml", files[0].Path)
	assert.Equal(t, "login.test.yaml", files[1].Path)

	login := files[1].Tests[0]
	assert.Equal(t, "user can log in", login.Name)
	assert.Equal(t, "/login", login.URL)
	assert.Equal(t, "login.test.yaml#user can log in", login.Key)
	assert.Len(t, login.Steps, 2)
}

func TestDiscover_InvalidFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "dup.test.yaml", "tests:\n  - name: a\n  - name: a\n")

	_, err := Discover(root, "**.test.yaml")
	assert.ErrorContains(t, err, "duplicate")
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher("auth/**.test.yaml", "smoke.test.yaml")
	require.NoError(t, err)

	assert.True(t, m.Match("auth/login.test.yaml"))
	assert.True(t, m.Match("auth/deep/reset.test.yaml"))
	assert.True(t, m.Match("./smoke.test.yaml"))
	assert.False(t, m.Match("cart/add.test.yaml"))

	_, err = NewMatcher("[")
	assert.Error(t, err)
}

func TestCase_Prompt(t *testing.T) {
	tc := Case{
		Name:    "checkout",
		URL:     "/cart",
		Steps:   []string{"pay with the test card"},
		Actions: []run.FlowStep{{Action: "click", Selector: "#pay"}},
	}

	prompt := tc.Prompt("http://localhost:3000")
	assert.Contains(t, prompt, "Test case: checkout")
	assert.Contains(t, prompt, "1. pay with the test card")
	assert.Contains(t, prompt, "- click #pay")
	assert.Contains(t, prompt, "base_url: http://localhost:3000")
	assert.Contains(t, prompt, "start_url: /cart")
}

func TestWriteExplorerFlows(t *testing.T) {
	dir := t.TempDir()
	flows := []run.ExplorerFlow{{
		ID:    "auth/login",
		Steps: []string{"user can login with email and password", "user can view dashboard after login"},
	}}

	written, err := WriteExplorerFlows(flows, dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "auth", "login.test.yaml")}, written)

	file, err := Load(dir, "auth/login.test.yaml")
	require.NoError(t, err)
	require.Len(t, file.Tests, 1)
	assert.Equal(t, "auth/login", file.Tests[0].Name)
	assert.Equal(t, flows[0].Steps, file.Tests[0].Steps)
}

func TestWriteCrawlerFlows(t *testing.T) {
	dir := t.TempDir()
	flows := []run.CrawlerFlow{{
		ID: "search",
		Steps: []run.FlowStep{
			{Action: "type", Selector: "#q", Value: "shoes"},
			{Action: "key", Value: "Enter"},
		},
	}}

	_, err := WriteCrawlerFlows(flows, dir)
	require.NoError(t, err)

	file, err := Load(dir, "search.test.yaml")
	require.NoError(t, err)
	assert.Equal(t, flows[0].Steps, file.Tests[0].Actions)
	assert.Equal(t, []string{`type #q "shoes"`, `key "Enter"`}, file.Tests[0].Steps)
}

func TestFlowPath_RejectsEscapes(t *testing.T) {
	for _, id := range []string{"", "..", "../etc/passwd", "/abs"} {
		_, err := FlowPath("out", id)
		assert.Error(t, err, id)
	}
}
