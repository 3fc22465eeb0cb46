package faq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"support-agent/internal/integrations/paramstore"
)

// Source describes where a FAQ table may be supplied from. Every field is
// optional; Load falls through to the next source when one is absent.
type Source struct {
	Params    paramstore.Getter
	Parameter string
	Path      string
}

// Origin labels reported by Load.
const (
	OriginDefault = "default"
	originSSM     = "ssm:"
	originFile    = "file:"
)

// Load returns the first available table from the SSM parameter, the file,
// then the compiled-in default. A source that exists but cannot be parsed is
// an error rather than a silent fallback.
func Load(ctx context.Context, src Source) (*Table, string, error) {
	if src.Params != nil && strings.TrimSpace(src.Parameter) != "" {
		raw, err := src.Params.GetParameter(ctx, src.Parameter)
		switch {
		case err == nil:
			entries, perr := ParseJSON([]byte(raw))
			if perr != nil {
				return nil, "", fmt.Errorf("faq: parameter %s: %w", src.Parameter, perr)
			}
			t, terr := NewTable(entries)
			if terr != nil {
				return nil, "", terr
			}
			return t, originSSM + src.Parameter, nil
		case !errors.Is(err, paramstore.ErrNotFound):
			return nil, "", fmt.Errorf("faq: load parameter: %w", err)
		}
	}

	if path := strings.TrimSpace(src.Path); path != "" {
		t, err := LoadFile(path)
		switch {
		case err == nil:
			return t, originFile + path, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, "", err
		}
	}

	return Default(), OriginDefault, nil
}

// LoadFile reads a JSON or YAML table, chosen by extension.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("faq: read %s: %w", path, err)
	}
	var entries []Entry
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		entries, err = ParseJSON(data)
	case ".yaml", ".yml":
		entries, err = ParseYAML(data)
	default:
		return nil, fmt.Errorf("faq: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("faq: parse %s: %w", path, err)
	}
	return NewTable(entries)
}

// ParseJSON decodes a JSON object of string values, keeping key order.
func ParseJSON(data []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("expected a JSON object of topic to answer")
	}

	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var answer string
		if err := dec.Decode(&answer); err != nil {
			return nil, fmt.Errorf("decode answer for %q: %w", key, err)
		}
		entries = append(entries, Entry{Key: key, Answer: answer})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON object")
	}
	return entries, nil
}

// ParseYAML decodes a YAML mapping of string values, keeping key order.
func ParseYAML(data []byte) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty YAML document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("expected a YAML mapping of topic to answer")
	}

	entries := make([]Entry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: topic and answer must be strings", k.Line)
		}
		entries = append(entries, Entry{Key: k.Value, Answer: v.Value})
	}
	return entries, nil
}
