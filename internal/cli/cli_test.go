package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/ftpvault/pkg/config"
	"github.com/sdejongh/ftpvault/pkg/storage"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the command tree with a private home directory so no user
// configuration leaks into the test
func execute(t *testing.T, args ...string) result {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(passwordEnv, "")

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestListCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.kdbx"), "bb")
	writeFile(t, filepath.Join(dir, "a.kdbx"), "a")

	res := execute(t, "ls", dir, "-o", "json")
	require.NoError(t, res.err)

	var event struct {
		Type string `json:"type"`
		Data struct {
			Location string                    `json:"location"`
			Entries  []storage.FileDescription `json:"entries"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &event))
	assert.Equal(t, "listing", event.Type)
	require.Len(t, event.Data.Entries, 2)
	assert.Equal(t, "a.kdbx", event.Data.Entries[0].DisplayName)
	assert.Equal(t, int64(2), event.Data.Entries[1].SizeInBytes)
}

func TestListCommand_EmptyHuman(t *testing.T) {
	dir := t.TempDir()

	res := execute(t, "ls", dir)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "is empty")
}

func TestPutAndGet_LocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "db.kdbx")
	writeFile(t, src, "vault contents")
	remote := filepath.Join(dir, "remote", "db.kdbx")
	require.NoError(t, os.MkdirAll(filepath.Dir(remote), 0755))

	res := execute(t, "put", src, remote, "--transacted")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "transacted")
	assert.Contains(t, res.stdout, "success")
	assert.Empty(t, res.stderr, "no progress bar or log lines without a terminal")

	back := filepath.Join(dir, "back.kdbx")
	res = execute(t, "get", remote, back, "--transacted=false", "-q")
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout, "quiet suppresses the report")

	data, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, "vault contents", string(data))

	entries, err := os.ReadDir(filepath.Dir(remote))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "transacted upload leaves no temporary file")
}

func TestCopyCommand_IntoDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	writeFile(t, src, "hello")
	target := filepath.Join(dir, "target")
	require.NoError(t, os.Mkdir(target, 0755))

	res := execute(t, "cp", src, target, "--bandwidth", "1M")
	require.NoError(t, res.err)

	data, err := os.ReadFile(filepath.Join(target, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestCopyCommand_Verify(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "db.kdbx")
	writeFile(t, src, "vault")

	res := execute(t, "cp", src, filepath.Join(dir, "copy.kdbx"), "--verify")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Verified:       sha-256")
}

func TestMoveCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "old.kdbx")
	writeFile(t, src, "x")
	dst := filepath.Join(dir, "new.kdbx")

	res := execute(t, "mv", src, dst, "-o", "json")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"type":"transfer"`)

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source should be gone")
	_, err = os.Stat(dst)
	assert.NoError(t, err)
}

func TestMkdirStatAndRemove(t *testing.T) {
	dir := t.TempDir()

	res := execute(t, "mkdir", dir, "backups")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "created")

	res = execute(t, "stat", filepath.Join(dir, "backups"))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Type:      directory")

	res = execute(t, "rm", filepath.Join(dir, "backups"))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "deleted")

	_, err := os.Stat(filepath.Join(dir, "backups"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveMissing_ExitCode(t *testing.T) {
	missing := filepath.ToSlash(filepath.Join(t.TempDir(), "missing"))

	res := execute(t, "rm", missing)
	require.Error(t, res.err)

	var exitErr *ExitError
	require.ErrorAs(t, res.err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.False(t, exitErr.Reported)
	assert.Equal(t, storage.KindNotFound, storage.KindOf(res.err))

	var stderr bytes.Buffer
	assert.Equal(t, 2, HandleError(res.err, &stderr))
	assert.Equal(t, "Error: file does not exist: "+missing+"\n", stderr.String())
}

func TestRemoveMissing_JSONReportsOnce(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	res := execute(t, "rm", missing, "--output", "json")
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, `"kind":"not-found"`)

	var stderr bytes.Buffer
	assert.Equal(t, 2, HandleError(res.err, &stderr))
	assert.Empty(t, stderr.String(), "already reported on stdout")
}

func TestUsageErrors(t *testing.T) {
	t.Run("BadSaveCredentials", func(t *testing.T) {
		res := execute(t, "ls", t.TempDir(), "--save-credentials", "always")
		require.Error(t, res.err)
		assert.Equal(t, 1, HandleError(res.err, &bytes.Buffer{}))
	})

	t.Run("BadOutputFormat", func(t *testing.T) {
		res := execute(t, "ls", t.TempDir(), "-o", "xml")
		require.Error(t, res.err)
		assert.Contains(t, res.err.Error(), "output.format")
	})

	t.Run("BadBandwidth", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a"), "a")
		res := execute(t, "cp", filepath.Join(dir, "a"), filepath.Join(dir, "b"), "-b", "fast")
		require.Error(t, res.err)
		assert.Contains(t, res.err.Error(), "invalid bandwidth limit")
	})

	t.Run("MissingArgs", func(t *testing.T) {
		res := execute(t, "get", "ftp://0/example.com/a")
		require.Error(t, res.err)
	})
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ftpvault.yaml")

	res := execute(t, "config", "init", "--config", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, path)

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	res = execute(t, "config", "init", "--config", path)
	require.Error(t, res.err, "init must not overwrite without --force")

	res = execute(t, "config", "show", "--config", path, "--log-level", "debug")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Trust: verify")
	assert.Contains(t, res.stdout, "Log Level: debug")

	res = execute(t, "config", "show", "--config", path, "--yaml")
	require.NoError(t, res.err)
	parsed, err := config.Parse([]byte(res.stdout))
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}

func TestVersionCommand(t *testing.T) {
	res := execute(t, "version", "--short")
	require.NoError(t, res.err)
	assert.Equal(t, Version+"\n", res.stdout)

	res = execute(t, "version")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "ftpvault "))
}

func TestCredentials(t *testing.T) {
	t.Setenv(passwordEnv, "from-env")
	globalFlags = GlobalFlags{User: "alice", SaveCredentials: "user"}
	t.Cleanup(func() { globalFlags = GlobalFlags{} })

	creds, err := credentials()
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.UserName)
	assert.Equal(t, "from-env", creds.Password)
	assert.Equal(t, storage.CredSaveUserNameOnly, creds.CredSaveMode)

	globalFlags.Password = "from-flag"
	creds, err = credentials()
	require.NoError(t, err)
	assert.Equal(t, "from-flag", creds.Password)
}

func TestBuildRegistry(t *testing.T) {
	registry, err := buildRegistry(config.Default(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"file", "ftp", "ftps"}, registry.Schemes())

	cfg := config.Default()
	cfg.Connection.Trust = "sometimes"
	_, err = buildRegistry(cfg, nil)
	assert.Error(t, err)
}

func TestParseBandwidth(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1024", 1024},
		{"10M", 10 * 1000 * 1000},
		{"512 KiB", 512 * 1024},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseBandwidth(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
