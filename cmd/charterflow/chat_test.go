package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatOffline(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	t.Setenv("CHARTER_LLM_API_KEY", "")
	t.Setenv("CHARTER_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader("Customer Portal Relaunch\nreview\n/document\n/quit\n"))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"chat", "--conversation", "cli"})
	require.NoError(t, rootCmd.Execute())

	text := out.String()
	assert.Contains(t, text, "Project title")
	assert.Contains(t, text, "Saved Project title: Customer Portal Relaunch")
	assert.Contains(t, text, "Confirmed: Project title.")
	assert.Contains(t, text, `"project_title": "Customer Portal Relaunch"`)
}
