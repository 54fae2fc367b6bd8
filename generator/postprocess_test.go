package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostProcess(t *testing.T) {
	raw := `{
		"figure_name": " 孔子 ",
		"quote": "過ちて改めざる、\n是を過ちと謂う。",
		"source": "",
		"short_explain": "**失敗**そのものより、改めないことが問題だという教え。",
		"trivia": "『論語』は弟子たちがまとめた言行録。",
		"hashtags": ["論語", "#孔子", "#論語"],
		"risk_flags": ["none"]
	}`

	c, err := PostProcess(raw)
	require.NoError(t, err)
	assert.Equal(t, "孔子", c.FigureName)
	assert.Equal(t, "過ちて改めざる、 是を過ちと謂う。", c.Quote)
	assert.Equal(t, UncertainSource, c.Source)
	assert.Equal(t, "失敗そのものより、改めないことが問題だという教え。", c.ShortExplain)
	assert.Equal(t, []string{"#論語", "#孔子"}, c.Hashtags)
	assert.Equal(t, []string{"none"}, c.RiskFlags)
}

func TestPostProcess_EmbeddedJSON(t *testing.T) {
	raw := "Here you go:\n```json\n{\"figure_name\":\"A\",\"quote\":\"B\",\"short_explain\":\"C\",\"trivia\":\"D\",\"hashtags\":\"x #y\",\"riskFlags\":\"r1 r2\"}\n```"

	c, err := PostProcess(raw)
	require.NoError(t, err)
	assert.Equal(t, "A", c.FigureName)
	assert.Equal(t, []string{"#x", "#y"}, c.Hashtags)
	assert.Equal(t, []string{"r1", "r2"}, c.RiskFlags)
}

func TestPostProcess_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "  ", "empty response"},
		{"not json", "no braces here", "not valid JSON"},
		{"broken json", "{\"quote\": ", "not valid JSON"},
		{"array", `["a"]`, "not a JSON object"},
		{"missing fields", `{"figure_name":"A","quote":"","trivia":3}`, "quote, short_explain, trivia"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PostProcess(tt.raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"**bold** and _em_", "bold and em"},
		{"use `go test`", "use go test"},
		{"[link text](https://example.com)", "link text"},
		{"# 見出し\n本文です。", "見出し 本文です。"},
		{"- one\n- two", "one two"},
		{"line one\nline two", "line one line two"},
		{"<https://example.com>", "https://example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PlainText(tt.in), "input %q", tt.in)
	}
}
