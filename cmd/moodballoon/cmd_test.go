package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/moodballoon/internal/classify"
	"github.com/junsooki/moodballoon/internal/history"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model", "emotion_model.onnx")
	cascade := filepath.Join(dir, "data", "haarcascade_frontalface_default.xml")
	dataset := filepath.Join(dir, "FER dataset", "train")
	touch(t, model)
	touch(t, cascade)
	for _, l := range []string{"angry", "disgust", "fear", "happy", "sad", "surprise", "neutral"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dataset, l), 0o755))
	}

	var out bytes.Buffer
	require.NoError(t, runCheck(&out, model, cascade, dataset))
	assert.Contains(t, out.String(), "All dependencies found.")
}

func TestRunCheck_Missing(t *testing.T) {
	dir := t.TempDir()
	cascade := filepath.Join(dir, "cascade.xml")
	touch(t, cascade)
	dataset := filepath.Join(dir, "train")
	require.NoError(t, os.MkdirAll(filepath.Join(dataset, "happy"), 0o755))

	var out bytes.Buffer
	err := runCheck(&out, filepath.Join(dir, "nope.onnx"), cascade, dataset)

	require.Error(t, err)
	assert.ErrorIs(t, err, classify.ErrModelNotFound)
	assert.NotErrorIs(t, err, classify.ErrCascadeNotFound)
	assert.Contains(t, out.String(), "[missing] model")
	assert.Contains(t, out.String(), "[ok]      cascade")
	assert.Contains(t, err.Error(), "sad")
	assert.NotContains(t, strings.SplitN(err.Error(), "missing label directories", 2)[1], "happy")
}

func TestMissingLabelDirs_NotADirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	touch(t, f)
	_, err := missingLabelDirs(f)
	assert.Error(t, err)
}

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	printBanner(&out, "q")
	s := out.String()
	assert.Contains(t, s, "Press 'q' to quit emotion detection")
	assert.Contains(t, s, "- SURPRISE: Orange balloon, super fast")
	assert.Contains(t, s, "- NEUTRAL: Pink balloon, normal speed")
}

func TestPrintSessions(t *testing.T) {
	var out bytes.Buffer
	printSessions(&out, nil)
	assert.Equal(t, "No sessions recorded yet.\n", out.String())

	out.Reset()
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.Local)
	printSessions(&out, []history.Session{{
		ID:        "a",
		StartedAt: start,
		EndedAt:   start.Add(90 * time.Second),
		Score:     40,
		Frames:    1200,
		Dominant:  "happy",
	}})
	s := out.String()
	assert.Contains(t, s, "2026-05-01 10:00")
	assert.Contains(t, s, "1m30s")
	assert.Contains(t, s, "happy")
}
