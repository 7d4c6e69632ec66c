package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHome = "/home/tester"

func newFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("endpoint", "", "")
	flags.StringArray("prefix", nil, "")
	flags.String("journal", "", "")
	flags.Duration("timeout", 30*time.Second, "")
	flags.String("format", "text", "")
	flags.BoolP("verbose", "v", false, "")
	return flags
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	l := Loader{Fs: afero.NewMemMapFs(), Home: testHome}

	cfg, err := l.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, 0, cfg.Prefixes.Len())
	assert.Equal(t, "", cfg.Journal)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "text", cfg.Format)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, "", cfg.File)
}

func TestLoad_HomeConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join(testHome, ".config", "sparqlc", "sparqlc.yaml")
	writeFile(t, fs, path, `
endpoint: http://localhost:8890/sparql
prefixes:
  - foaf=http://xmlns.com/foaf/0.1/
  - dc=http://purl.org/dc/terms/
journal: /tmp/journal.db
timeout: 5s
format: json
`)

	cfg, err := Loader{Fs: fs, Home: testHome}.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8890/sparql", cfg.Endpoint)
	assert.Equal(t, []string{"foaf", "dc"}, cfg.Prefixes.Keys())
	assert.Equal(t, "/tmp/journal.db", cfg.Journal)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/etc/sparqlc/dev.yaml", "endpoint: http://dev:8890/sparql\n")

	cfg, err := Loader{Fs: fs, Home: testHome, ConfigFile: "/etc/sparqlc/dev.yaml"}.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://dev:8890/sparql", cfg.Endpoint)
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	_, err := Loader{Fs: afero.NewMemMapFs(), Home: testHome, ConfigFile: "/nope.yaml"}.Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_Precedence(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join(testHome, ".config", "sparqlc", "sparqlc.yaml")
	writeFile(t, fs, path, "endpoint: http://file/sparql\nformat: json\njournal: file.db\n")

	t.Setenv("SPARQLC_ENDPOINT", "http://env/sparql")
	t.Setenv("SPARQLC_JOURNAL", "env.db")

	flags := newFlags(t)
	require.NoError(t, flags.Parse([]string{"--endpoint", "http://flag/sparql", "-v"}))

	cfg, err := Loader{Fs: fs, Home: testHome}.Load(flags)
	require.NoError(t, err)

	assert.Equal(t, "http://flag/sparql", cfg.Endpoint, "flag beats env")
	assert.Equal(t, "env.db", cfg.Journal, "env beats file")
	assert.Equal(t, "json", cfg.Format, "file beats flag default")
	assert.Equal(t, 30*time.Second, cfg.Timeout, "flag default applies last")
	assert.True(t, cfg.Verbose)
}

func TestLoad_PrefixFlags(t *testing.T) {
	flags := newFlags(t)
	require.NoError(t, flags.Parse([]string{
		"--prefix", "ex=urn:ex:",
		"--prefix", "foaf=http://xmlns.com/foaf/0.1/",
	}))

	cfg, err := Loader{Fs: afero.NewMemMapFs(), Home: testHome}.Load(flags)
	require.NoError(t, err)

	assert.Equal(t, []string{"ex", "foaf"}, cfg.Prefixes.Keys())
	iri, _ := cfg.Prefixes.Get("foaf")
	assert.Equal(t, "http://xmlns.com/foaf/0.1/", iri)
}

func TestLoad_EnvFile(t *testing.T) {
	const key = "SPARQLC_ENDPOINT"
	if _, set := os.LookupEnv(key); set {
		t.Skipf("%s is set in the environment", key)
	}
	t.Cleanup(func() { os.Unsetenv(key) })

	fs := afero.NewMemMapFs()
	writeFile(t, fs, ".env", "SPARQLC_ENDPOINT=http://dotenv/sparql\n")

	cfg, err := Loader{Fs: fs, Home: testHome}.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv/sparql", cfg.Endpoint)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	t.Setenv("SPARQLC_FORMAT", "json")

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "local.env", "SPARQLC_FORMAT=text\n")

	cfg, err := Loader{Fs: fs, Home: testHome, EnvFile: "local.env"}.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr string
	}{
		{"bad format", "format: xml\n", "invalid format"},
		{"bad timeout", "timeout: soon\n", "invalid timeout"},
		{"negative timeout", "timeout: -1s\n", "must not be negative"},
		{"bad prefix", "prefixes:\n  - foaf\n", "want name=iri"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFile(t, fs, "/cfg.yaml", tt.file)

			_, err := Loader{Fs: fs, Home: testHome, ConfigFile: "/cfg.yaml"}.Load(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParsePrefixes(t *testing.T) {
	m, err := ParsePrefixes([]string{"a=urn:a", " b = urn:b ", "a=urn:a2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, _ := m.Get("a")
	assert.Equal(t, "urn:a2", v)

	for _, bad := range []string{"", "noequals", "=urn:x", "x="} {
		_, err := ParsePrefixes([]string{bad})
		assert.Error(t, err, bad)
	}

	empty, err := ParsePrefixes(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}
