package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot_ProfileFlagsWriteFiles(t *testing.T) {
	// Given: a search run with CPU and memory profiling
	_, _, index := writeSite(t)
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")

	// When: the command completes
	_, _, err := runCLI(t, nil, "--profile-cpu", cpu, "--profile-mem", mem, "search", "salmon", "--index", index)

	// Then: both profiles are written
	require.NoError(t, err)
	for _, path := range []string{cpu, mem} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Greater(t, info.Size(), int64(0), path)
	}
}
