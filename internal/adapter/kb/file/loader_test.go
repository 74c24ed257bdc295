package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kbfile "github.com/fairyhunter13/ai-oral-evaluator/internal/adapter/kb/file"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
)

func writeFixture(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoad_FullBundle(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFixture(t, dir, "pcb.course.json", `{
		"competencies": [
			{"id": "c1", "name": "Routing", "subskills": ["length matching"],
			 "responsibilities": ["route high speed nets"], "red_flags": ["ignores stackup"]}
		],
		"probe_templates": [{"id": "p1", "pattern": "Explain {subskill}."}]
	}`)
	writeFixture(t, dir, "pcb.quiz.json", `{"Basics": ["what is a via?", "define annular ring"]}`)

	bundle, err := kbfile.New(dir).Load(context.Background(), "pcb")
	require.NoError(t, err)
	require.Len(t, bundle.Competencies, 1)
	assert.Equal(t, "Routing", bundle.Competencies[0].Name)
	assert.Equal(t, []string{"route high speed nets"}, bundle.Competencies[0].Responsibilities)
	require.Len(t, bundle.ProbeTemplates, 1)
	assert.Equal(t, domain.QuizBank{"Basics": {"what is a via?", "define annular ring"}}, bundle.Quiz)
}

func TestLoad_MissingFilesDegrade(t *testing.T) {
	t.Parallel()
	bundle, err := kbfile.New(t.TempDir()).Load(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.True(t, bundle.Empty())
}

func TestLoad_QuizOnly(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFixture(t, dir, "pcb.quiz.json", `{"Advanced": ["impedance control?"]}`)

	bundle, err := kbfile.New(dir).Load(context.Background(), "pcb")
	require.NoError(t, err)
	assert.Empty(t, bundle.Competencies)
	assert.False(t, bundle.Empty())
}

func TestLoad_MalformedSectionsSkipped(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFixture(t, dir, "pcb.quiz.json", `{
		"Good": ["a stem", 42, {"not": "a string"}, "another stem"],
		"Bad": {"not": "an array"},
		"AlsoBad": "just a string"
	}`)

	bundle, err := kbfile.New(dir).Load(context.Background(), "pcb")
	require.NoError(t, err)
	assert.Equal(t, domain.QuizBank{"Good": {"a stem", "another stem"}}, bundle.Quiz)
}

func TestLoad_InvalidJSONFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFixture(t, dir, "pcb.course.json", `{not json`)

	_, err := kbfile.New(dir).Load(context.Background(), "pcb")
	require.Error(t, err)
}

func TestLoad_RejectsPathTraversal(t *testing.T) {
	t.Parallel()
	l := kbfile.New(t.TempDir())
	for _, key := range []string{"../etc/passwd", `..\secrets`, ""} {
		_, err := l.Load(context.Background(), key)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, "key %q", key)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	assert.NoError(t, kbfile.New(dir).Check(context.Background()))
	assert.Error(t, kbfile.New(filepath.Join(dir, "missing")).Check(context.Background()))

	f := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o600))
	assert.Error(t, kbfile.New(f).Check(context.Background()))
}
