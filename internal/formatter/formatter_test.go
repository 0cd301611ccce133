package formatter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type sample struct {
	Name   string `json:"name" yaml:"name"`
	Active bool   `json:"active" yaml:"active"`
}

func (s sample) Headers() []string { return []string{"FIELD", "VALUE"} }
func (s sample) Rows() []Row {
	return []Row{{"name", s.Name}, {"active", "true", "extra"}, {"short"}}
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatTable, sample{Name: "po", Active: true}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "FIELD"))
	assert.Contains(t, lines[1], "-----")
	assert.Contains(t, lines[2], "po")
	assert.NotContains(t, buf.String(), "extra")
}

func TestRender_TableRequiresTabular(t *testing.T) {
	err := Render(&bytes.Buffer{}, FormatTable, map[string]int{"a": 1})
	assert.Error(t, err)
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "JSON", sample{Name: "a<b>", Active: true}))

	assert.Contains(t, buf.String(), "a<b>")
	var out sample
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, sample{Name: "a<b>", Active: true}, out)
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatYAML, sample{Name: "po", Active: true}))

	var out sample
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, sample{Name: "po", Active: true}, out)
}

func TestRender_UnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, "xml", sample{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
