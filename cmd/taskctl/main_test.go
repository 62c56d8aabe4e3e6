package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiclient "github.com/Anveeka07/TaskManager/pkg/api/client"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	t.Setenv("TASKCTL_CONFIG", path)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, apiclient.DefaultBaseURL, cfg.APIBaseURL)
	assert.Empty(t, cfg.AccessToken)

	cfg.APIBaseURL = "http://tasks.internal:8080"
	cfg.AccessToken = "tok"
	require.NoError(t, saveConfig(cfg))

	loaded, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestAuthedClientRequiresToken(t *testing.T) {
	t.Setenv("TASKCTL_CONFIG", filepath.Join(t.TempDir(), "config.json"))

	_, err := authedClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "taskctl login")
}

func TestApplyAPIBase(t *testing.T) {
	cfg := cliConfig{}
	applyAPIBase(&cfg, "")
	assert.Equal(t, apiclient.DefaultBaseURL, cfg.APIBaseURL)

	applyAPIBase(&cfg, " http://other:1 ")
	assert.Equal(t, "http://other:1", cfg.APIBaseURL)

	applyAPIBase(&cfg, "")
	assert.Equal(t, "http://other:1", cfg.APIBaseURL)
}

func TestTaskIDArg(t *testing.T) {
	cases := map[string][]string{
		"positional":      {"abc"},
		"flag":            {"--id", "abc"},
		"positional-flag": {"abc", "--id", ""},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			id, err := taskIDArg("test", args)
			require.NoError(t, err)
			assert.Equal(t, "abc", id)
		})
	}

	_, err := taskIDArg("test", nil)
	assert.Error(t, err)
}

func TestPrintTasks(t *testing.T) {
	var buf bytes.Buffer
	printTasks(&buf, []apiclient.Task{{
		ID:        "t1",
		Title:     "Buy milk",
		Status:    "Pending",
		Priority:  "High",
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}})
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "High")
}
