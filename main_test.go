package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guestDSL = `
labels Guests v1 {
  meta {
    title: "Guests"
  }

  sheet L7163 {}

  label left each guests {
    text "${name}\n" size 14pt bold
    text "Table ${table|?}" size 10pt
  }
}
`

type fixture struct {
	dir    string
	config string
	input  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	cfg := filepath.Join(dir, "labelsheet.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
[log]
level = "error"

[storage]
driver = "file"
dir = "`+filepath.ToSlash(out)+`"
`), 0o644))
	input := filepath.Join(dir, "guests.lbl")
	require.NoError(t, os.WriteFile(input, []byte(guestDSL), 0o644))
	return fixture{dir: dir, config: cfg, input: input}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRenderToFileSink(t *testing.T) {
	fx := newFixture(t)
	debugPath := filepath.Join(fx.dir, "debug", "layout.json")

	out, err := execute(t, "render", fx.input,
		"--config", fx.config,
		"--data-json", `{"guests":[{"name":"Ada","table":1},{"name":"Linus"}]}`,
		"--debug", debugPath,
		"--skip", "1",
		"--borders",
	)
	require.NoError(t, err)

	target := filepath.Join(fx.dir, "out", "guests.pdf")
	assert.Contains(t, out, target)
	pdf, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	raw, err := os.ReadFile(debugPath)
	require.NoError(t, err)
	var dump struct {
		Grid []struct {
			Rows []struct {
				Cells []struct {
					Ordinal int `json:"ordinal"`
				} `json:"cells"`
			} `json:"rows"`
		} `json:"grid"`
	}
	require.NoError(t, json.Unmarshal(raw, &dump))
	require.Len(t, dump.Grid, 1)
	assert.Equal(t, -1, dump.Grid[0].Rows[0].Cells[0].Ordinal)
	assert.Equal(t, 1, dump.Grid[0].Rows[0].Cells[2].Ordinal)
}

func TestRenderToStdoutWithProtection(t *testing.T) {
	fx := newFixture(t)
	dataPath := filepath.Join(fx.dir, "guests.json")
	require.NoError(t, os.WriteFile(dataPath, []byte(`{"guests":[{"name":"Ada"}]}`), 0o644))

	out, err := execute(t, "render", fx.input, "--config", fx.config, "--data", dataPath, "-o", "-", "--expires", "2h")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "%PDF-"))

	ctx, err := api.ReadContext(strings.NewReader(out), model.NewDefaultConfiguration())
	require.NoError(t, err)
	root, err := ctx.Catalog()
	require.NoError(t, err)
	_, found := root.Find("OpenAction")
	assert.True(t, found)
}

func TestRenderErrors(t *testing.T) {
	fx := newFixture(t)

	_, err := execute(t, "render", filepath.Join(fx.dir, "missing.lbl"), "--config", fx.config)
	assert.Error(t, err)

	_, err = execute(t, "render", fx.input, "--config", fx.config, "--data-json", "{")
	assert.ErrorContains(t, err, "JSON")

	_, err = execute(t, "render", fx.input, "--config", fx.config, "--data-json", "{}", "--data", "x.json")
	assert.Error(t, err)

	// 没有数据时 each 展开为空，没有可渲染的标签。
	_, err = execute(t, "render", fx.input, "--config", fx.config, "--data-json", `{"guests":[]}`)
	assert.Error(t, err)
}

func TestProductsCommand(t *testing.T) {
	fx := newFixture(t)
	out, err := execute(t, "products", "--config", fx.config)
	require.NoError(t, err)
	assert.Contains(t, out, "L7651")
	assert.Contains(t, out, "5 x 13 = 65")
}

func TestFontsCommand(t *testing.T) {
	fx := newFixture(t)
	out, err := execute(t, "fonts", "--config", fx.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Go Mono")
}
