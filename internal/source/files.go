package source

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"firewall-rule-engine/internal/model"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// DefaultExtensions are the rule file suffixes picked up when walking a
// directory. Files named explicitly are always read.
var DefaultExtensions = []string{".rules", ".fw"}

// FileLoader reads rule documents from files, directories and stdin.
type FileLoader struct {
	Extensions []string
	Stdin      io.Reader
}

func NewFileLoader(extensions []string) *FileLoader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &FileLoader{Extensions: extensions, Stdin: os.Stdin}
}

// Load returns one document per file, in argument order. Directories expand
// to their matching files in lexical order.
func (l *FileLoader) Load(paths []string) ([]model.RuleDocument, error) {
	var docs []model.RuleDocument
	for _, path := range paths {
		if path == Stdin {
			doc, err := ReadDocument("stdin", "stdin", l.Stdin)
			if err != nil {
				return nil, fmt.Errorf("error reading stdin: %w", err)
			}
			docs = append(docs, doc)
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if !info.IsDir() {
			doc, err := readFile(path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			continue
		}

		dirDocs, err := l.loadDir(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, dirDocs...)
	}
	return docs, nil
}

func (l *FileLoader) loadDir(dir string) ([]model.RuleDocument, error) {
	var docs []model.RuleDocument
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !l.matches(path) {
			return nil
		}
		doc, err := readFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", dir, err)
	}
	return docs, nil
}

func (l *FileLoader) matches(path string) bool {
	return slices.Contains(l.Extensions, strings.ToLower(filepath.Ext(path)))
}

func readFile(path string) (model.RuleDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.RuleDocument{}, fmt.Errorf("failed to open rules file %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(path, "file", f)
}

// ReadDocument reads r whole. The text is kept byte for byte so that line
// numbers match what the author sees.
func ReadDocument(name, source string, r io.Reader) (model.RuleDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.RuleDocument{}, err
	}
	return model.RuleDocument{Name: name, Source: source, Text: string(data)}, nil
}
