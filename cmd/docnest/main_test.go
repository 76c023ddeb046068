package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DOCNEST_CONFIG", "WARN_MALFORMED_HEAD", "MAX_DIAGNOSTICS", "DEFAULT_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	isolateEnv(t)
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const fooRecords = `{"file": "Foo.js", "line": 10, "records": [
	{"name": "foo", "type": "Object"},
	{"name": "foo.bar", "type": "String"},
	{"name": "zap.zup"}
]}`

func TestNest_TextWithWarning(t *testing.T) {
	path := write(t, t.TempDir(), "recs.json", fooRecords)

	stdout, stderr, err := run(t, "", "nest", "--format", "text", "--color", "off", path)
	require.NoError(t, err)
	assert.Equal(t, "- foo : Object\n  - bar : String\n", stdout)
	assert.Equal(t,
		"Foo.js:10: warning[subproperty]: Ignoring subproperty `zap.zup`, no parent found with name 'zap'.\n",
		stderr)
}

func TestNest_JSONFromStdin(t *testing.T) {
	stdout, _, err := run(t, `[{"name": "a"}, {"name": "a.b"}]`, "nest", "-")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0]["name"])
	children := got[0]["children"].([]any)
	require.Len(t, children, 1)
	assert.Equal(t, "b", children[0].(map[string]any)["name"])
}

func TestNest_YAMLAndOverrides(t *testing.T) {
	path := write(t, t.TempDir(), "recs.yaml", "- name: opts\n- name: opts.silent\n- name: x.y\n")

	stdout, stderr, err := run(t, "", "nest", "--format", "text", "--color", "off",
		"--file", "Grid.js", "--line", "42", path)
	require.NoError(t, err)
	assert.Equal(t, "- opts\n  - silent\n", stdout)
	assert.True(t, strings.HasPrefix(stderr, "Grid.js:42: warning[subproperty]:"), stderr)
}

func TestNest_DefaultLocationIsInputPath(t *testing.T) {
	path := write(t, t.TempDir(), "recs.json", `[{"name": "a"}, {"name": "b.c"}]`)
	_, stderr, err := run(t, "", "nest", "--color", "off", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stderr, path+":1: warning[subproperty]:"), stderr)
}

func TestNest_QuietAndColor(t *testing.T) {
	path := write(t, t.TempDir(), "recs.json", fooRecords)

	_, stderr, err := run(t, "", "nest", "--quiet", path)
	require.NoError(t, err)
	assert.Empty(t, stderr)

	_, stderr, err = run(t, "", "nest", "--color", "on", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "\x1b[")
	assert.Contains(t, stderr, "zap.zup")

	_, _, err = run(t, "", "nest", "--color", "sometimes", path)
	assert.ErrorContains(t, err, "unknown color value")
}

func TestNest_MalformedHead(t *testing.T) {
	path := write(t, t.TempDir(), "recs.json", `[{"name": "a.b"}, {"name": "c"}, {"name": "d"}]`)

	stdout, stderr, err := run(t, "", "nest", "--format", "text", path)
	require.NoError(t, err)
	assert.Equal(t, "- a.b\n", stdout)
	assert.Empty(t, stderr)

	_, stderr, err = run(t, "", "nest", "--color", "off", "--warn-malformed-head", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "warning[malformed_head]")
	assert.Contains(t, stderr, "ignoring 2 following declarations")
}

func TestNest_MaxDiagnostics(t *testing.T) {
	path := write(t, t.TempDir(), "recs.json", `[{"name": "x"}, {"name": "a.b"}, {"name": "c.d"}, {"name": "e.f"}]`)
	_, stderr, err := run(t, "", "nest", "--color", "off", "--max-diagnostics", "1", path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(stderr, "warning[subproperty]"))
	assert.Contains(t, stderr, "2 more warnings not shown")
}

func TestNest_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := write(t, dir, "docnest.toml", "default_format = \"text\"\nwarn_malformed_head = true\n")
	path := write(t, dir, "recs.json", `[{"name": "a.b"}, {"name": "c"}]`)

	stdout, stderr, err := run(t, "", "nest", "--config", cfg, "--color", "off", path)
	require.NoError(t, err)
	assert.Equal(t, "- a.b\n", stdout)
	assert.Contains(t, stderr, "warning[malformed_head]")

	// An explicit flag beats the file.
	_, stderr, err = run(t, "", "nest", "--config", cfg, "--warn-malformed-head=false", path)
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

func TestNest_Errors(t *testing.T) {
	dir := t.TempDir()
	_, _, err := run(t, "", "nest", write(t, dir, "recs.txt", "[]"))
	assert.ErrorContains(t, err, "records must be")

	_, _, err = run(t, "", "nest", write(t, dir, "bad.json", "{"))
	assert.ErrorContains(t, err, "parse json records")

	_, _, err = run(t, "", "nest", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, _, err = run(t, "", "nest", "--format", "pdf", write(t, dir, "ok.json", "[]"))
	assert.ErrorContains(t, err, "unknown format")
}

const widgetJS = `/**
 * @cfg {Object} data Group data.
 * @cfg {String} data.title Group title.
 * @cfg {String} missing.name Lost.
 */
`

const guideMD = "# Guide\n\nSome prose.\n\n```js\n/**\n * @param {Object} opts\n * @param {Boolean} opts.silent\n */\n```\n"

func TestScan_DirectoryInOrder(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a/widget.js", widgetJS)
	write(t, dir, "b/guide.md", guideMD)
	write(t, dir, "b/notes.txt", "ignored")

	stdout, stderr, err := run(t, "", "scan", "--format", "text", "--color", "off", "--jobs", "2", dir)
	require.NoError(t, err)

	widget := strings.Index(stdout, "widget")
	guide := strings.Index(stdout, "Guide")
	require.GreaterOrEqual(t, widget, 0, stdout)
	require.GreaterOrEqual(t, guide, 0, stdout)
	assert.Less(t, widget, guide, "results follow walk order")
	assert.Contains(t, stdout, "  - data : Object  Group data.\n    - title : String  Group title.\n")
	assert.Contains(t, stdout, "  - opts : Object\n    - silent : Boolean\n")
	assert.NotContains(t, stdout, "ignored")

	assert.Equal(t, 1, strings.Count(stderr, "warning[subproperty]"), stderr)
	assert.Contains(t, stderr, filepath.Join(dir, "a", "widget.js")+":1:")
}

func TestScan_JSONAndFailures(t *testing.T) {
	dir := t.TempDir()
	good := write(t, dir, "widget.js", widgetJS)
	bad := write(t, dir, "bad.json", "{")
	odd := write(t, dir, "notes.txt", "x")

	stdout, stderr, err := run(t, "", "scan", good, bad, odd)
	assert.ErrorContains(t, err, "2 of 3 files failed")
	assert.Contains(t, stderr, bad+": error:")
	assert.Contains(t, stderr, odd+": error:")

	var results []struct {
		Path     string          `json:"path"`
		Tree     json.RawMessage `json:"tree"`
		Warnings []any           `json:"warnings"`
		Error    string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 3)
	assert.Equal(t, good, results[0].Path)
	assert.NotEmpty(t, results[0].Tree)
	assert.Len(t, results[0].Warnings, 1)
	assert.Equal(t, bad, results[1].Path)
	assert.NotEmpty(t, results[1].Error)
	assert.Equal(t, odd, results[2].Path)
}

func TestScan_NoFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "notes.txt", "x")
	_, _, err := run(t, "", "scan", dir)
	assert.ErrorContains(t, err, "no supported files")

	_, _, err = run(t, "", "scan", filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "docnest "), stdout)

	stdout, _, err = run(t, "", "version", "--format", "json")
	require.NoError(t, err)
	var payload versionPayload
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Equal(t, "docnest", payload.Tool)
	assert.NotEmpty(t, payload.Version)
}
