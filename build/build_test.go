package build_test

import (
	"encoding/json"
	"testing"

	"github.com/mir-robotics/actionstates/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent(t *testing.T) {
	t.Parallel()

	info := build.Current()

	assert.Equal(t, build.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestParse_RoundTripsCurrent(t *testing.T) {
	t.Parallel()

	js, err := json.Marshal(build.Info{
		Version:      "v1.4.0",
		GitCommit:    "abc123",
		Dependencies: map[string]string{"github.com/go-resty/resty/v2": "v2.16.5", "github.com/alitto/pond/v2": "v2.6.0"},
	})
	require.NoError(t, err)

	info, ok := build.Parse(string(js))
	require.True(t, ok)

	assert.Equal(t, "v1.4.0", info.Version)
	assert.Equal(t, "abc123", info.GitCommit)
	assert.Equal(t, []string{"github.com/alitto/pond/v2", "github.com/go-resty/resty/v2"}, info.DependencyNames())
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	for _, js := range []string{"", "{}", "{not json"} {
		info, ok := build.Parse(js)
		assert.False(t, ok, js)
		assert.Nil(t, info)
	}
}
