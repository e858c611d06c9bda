package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsMissingHost(t *testing.T) {
	c := ConnectionConfig{LobbyCapacity: 4}
	assert.Error(t, c.Validate())
}

func TestValidateRejectsOutOfRangeCapacity(t *testing.T) {
	c := ConnectionConfig{ServerHost: "localhost", LobbyCapacity: 1}
	assert.Error(t, c.Validate())

	c.LobbyCapacity = 17
	assert.Error(t, c.Validate())
}

func TestValidateRejectsBadLoggerEncoding(t *testing.T) {
	c := ConnectionConfig{ServerHost: "localhost", LobbyCapacity: 4, Logger: Logger{Encoding: "xml"}}
	assert.Error(t, c.Validate())
}

func TestValidateAccepts(t *testing.T) {
	c := ConnectionConfig{ServerHost: "localhost", LobbyCapacity: 4}
	assert.NoError(t, c.Validate())
}

func TestReconnectDefaults(t *testing.T) {
	c := ConnectionConfig{}
	assert.Equal(t, DefaultReconnectWindow, c.ReconnectWindowOrDefault())
	assert.Equal(t, DefaultReconnectRetryInterval, c.ReconnectRetryIntervalOrDefault())

	c.ReconnectWindow = 5 * time.Second
	c.ReconnectRetryInterval = 2 * time.Second
	assert.Equal(t, 5*time.Second, c.ReconnectWindowOrDefault())
	assert.Equal(t, 2*time.Second, c.ReconnectRetryIntervalOrDefault())
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "serverHost: rendezvous.example.com\n" +
		"serverPort: 7777\n" +
		"lobbyCapacity: 8\n" +
		"apiVersion: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rendezvous.example.com", c.ServerHost)
	assert.Equal(t, uint16(7777), c.ServerPort)
	assert.EqualValues(t, 8, c.LobbyCapacity)
}

func TestLoadPropagatesValidationError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lobbyCapacity: 4\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}
