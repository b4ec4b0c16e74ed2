package main

import (
	"bytes"
	"testing"

	"github.com/ashutoshrp06/sow-assistant/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestVersionRows_ShowsModelStack(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Model = "llama3.1"

	rows := map[string]string{}
	for _, r := range versionRows(cfg) {
		rows[r.label] = r.value
	}
	assert.Equal(t, Version, rows["Version"])
	assert.Equal(t, "ollama", rows["Provider"])
	assert.Equal(t, "llama3.1", rows["Chat model"])
	assert.Equal(t, "sow-index @ localhost:6334", rows["Collection"])
	assert.Equal(t, "heuristic", rows["Risk check"])
}

func TestWriteVersion_WithoutConfig(t *testing.T) {
	var buf bytes.Buffer
	writeVersion(&buf, nil)
	assert.Contains(t, buf.String(), "not loaded")
	assert.NotContains(t, buf.String(), "Provider")
}
