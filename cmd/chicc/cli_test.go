package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckCmd_CleanModuleExitsWithoutError(t *testing.T) {
	logger = nil
	dir := t.TempDir()
	file := filepath.Join(dir, "demo.chic")
	require.NoError(t, os.WriteFile(file, []byte("namespace Demo;\n"), 0o644))

	checkCmd.SetArgs(nil)
	err := checkCmd.RunE(checkCmd, []string{file})
	require.NoError(t, err)
}

func TestBuildCmd_EmitsReflectManifest(t *testing.T) {
	logger = nil
	dir := t.TempDir()
	file := filepath.Join(dir, "demo.chic")
	require.NoError(t, os.WriteFile(file, []byte("namespace Demo;\nstruct Point {\n    public int X;\n}\n"), 0o644))
	output := filepath.Join(dir, "demo.out")

	emitReflect = true
	defer func() { emitReflect = false }()
	err := buildCmd.RunE(buildCmd, []string{file, output})
	require.NoError(t, err)

	_, statErr := os.Stat(output + ".reflect.json")
	require.NoError(t, statErr)
}
