package harness

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverScenarios(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"b_set.yaml", "a_query.yml", "c_set.yaml", "notes.txt", "sub/d.yaml"} {
		require.NoError(t, afero.WriteFile(fs, "/sc/"+name, []byte("x"), 0o644))
	}

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"all", "", []string{"/sc/a_query.yml", "/sc/b_set.yaml", "/sc/c_set.yaml"}},
		{"filtered", "*_set", []string{"/sc/b_set.yaml", "/sc/c_set.yaml"}},
		{"exact", "a_query", []string{"/sc/a_query.yml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiscoverScenarios(fs, "/sc", tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverScenarios_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/empty", 0o755))

	_, err := DiscoverScenarios(fs, "/empty", "")
	var nse *NoScenariosError
	require.ErrorAs(t, err, &nse)
	assert.Equal(t, "no scenario files in /empty", err.Error())

	_, err = DiscoverScenarios(fs, "/empty", "x*")
	require.ErrorAs(t, err, &nse)
	assert.Contains(t, err.Error(), `matching "x*"`)

	_, err = DiscoverScenarios(fs, "/missing", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read scenario dir")

	_, err = DiscoverScenarios(fs, "/empty", "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter")
}
