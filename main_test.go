package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto_x_quote_publisher/composer"
	"auto_x_quote_publisher/generator"
	"auto_x_quote_publisher/publisher"
)

func runRoot(t *testing.T, args ...string) (string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String(), errOut.String()
}

func TestComposeCmd(t *testing.T) {
	out, errOut := runRoot(t, "compose",
		"--quote", "Stay hungry.",
		"--figure", "Steve Jobs",
		"--source", "Stanford",
		"--hashtags", "quote,#jobs")

	assert.Equal(t, "Stay hungry.\nSteve Jobs『Stanford』\n#quote #jobs\n", out)
	assert.Contains(t, errOut, "stage none")
}

func TestComposeCmd_RespectsBudget(t *testing.T) {
	out, _ := runRoot(t, "compose",
		"--quote", strings.Repeat("あ", 100),
		"--figure", "someone",
		"--budget", "40")

	text := strings.TrimSuffix(out, "\n")
	assert.LessOrEqual(t, composer.WeightedLength(text), 40)
	assert.Contains(t, text, "someone")
}

func TestComposeCmd_Caption(t *testing.T) {
	out, _ := runRoot(t, "compose",
		"--caption", "hello world",
		"--url", "https://x.co",
		"--hashtags", "a")

	assert.Equal(t, "hello world\nhttps://x.co #a\n", out)
}

func TestBuildLLM(t *testing.T) {
	_, err := buildLLM(publisher.Config{})
	assert.Error(t, err)

	llm, err := buildLLM(publisher.Config{LLM: &publisher.LLMConfig{Provider: "mock"}})
	require.NoError(t, err)
	assert.IsType(t, generator.MockLLM{}, llm)

	_, err = buildLLM(publisher.Config{LLM: &publisher.LLMConfig{Provider: "deepseek", APIKey: "k"}})
	assert.ErrorContains(t, err, "base_url")

	_, err = buildLLM(publisher.Config{LLM: &publisher.LLMConfig{Provider: "claude"}})
	assert.ErrorContains(t, err, "not supported")
}
