// Package file loads per-topic knowledge bases from JSON documents on disk.
//
// Each topic key resolves to two optional files under the data directory:
// <key>.course.json (competencies and probe templates) and <key>.quiz.json
// (section name to question stems). Missing files and malformed sections
// degrade to empty structures; the evaluation engine never fails on an
// unknown or partial knowledge base.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
)

// Loader reads course and quiz JSON documents from a directory.
type Loader struct {
	dir string
}

// New constructs a Loader rooted at dir.
func New(dir string) *Loader {
	return &Loader{dir: dir}
}

type courseDoc struct {
	Competencies   []domain.Competency    `json:"competencies"`
	ProbeTemplates []domain.ProbeTemplate `json:"probe_templates"`
}

// Load reads the topic's bundle. Unknown keys yield an empty bundle; only
// unreadable or syntactically invalid files surface as errors.
func (l *Loader) Load(_ context.Context, key string) (domain.Bundle, error) {
	if strings.ContainsAny(key, `/\`) || key == "" {
		return domain.Bundle{}, fmt.Errorf("op=kb.Load: %w: key %q", domain.ErrInvalidArgument, key)
	}

	var course courseDoc
	if err := l.readJSON(key+".course.json", &course); err != nil {
		return domain.Bundle{}, fmt.Errorf("op=kb.Load: %w", err)
	}

	var rawQuiz map[string]json.RawMessage
	if err := l.readJSON(key+".quiz.json", &rawQuiz); err != nil {
		return domain.Bundle{}, fmt.Errorf("op=kb.Load: %w", err)
	}

	return domain.Bundle{
		Competencies:   course.Competencies,
		Quiz:           decodeQuiz(rawQuiz),
		ProbeTemplates: course.ProbeTemplates,
	}, nil
}

// decodeQuiz keeps only well-formed sections: the value must be an array,
// and only its string entries survive. Anything else is skipped, not fatal.
func decodeQuiz(raw map[string]json.RawMessage) domain.QuizBank {
	if len(raw) == 0 {
		return domain.QuizBank{}
	}
	quiz := make(domain.QuizBank, len(raw))
	for section, msg := range raw {
		var entries []json.RawMessage
		if err := json.Unmarshal(msg, &entries); err != nil {
			slog.Warn("skipping malformed quiz section", slog.String("section", section))
			continue
		}
		stems := make([]string, 0, len(entries))
		for _, e := range entries {
			var s string
			if err := json.Unmarshal(e, &s); err != nil {
				continue
			}
			stems = append(stems, s)
		}
		quiz[section] = stems
	}
	return quiz
}

func (l *Loader) readJSON(name string, v any) error {
	b, err := os.ReadFile(filepath.Join(l.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// Check reports whether the data directory is readable; used for readiness.
func (l *Loader) Check(_ context.Context) error {
	info, err := os.Stat(l.dir)
	if err != nil {
		return fmt.Errorf("op=kb.Check: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("op=kb.Check: %s is not a directory", l.dir)
	}
	return nil
}
