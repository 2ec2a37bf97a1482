package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/discernus/discernus-core/internal/artifact"
)

// frameworkFile mirrors framework.yaml's on-disk shape (spec.md 6 Framework
// file format): name, version, ordered dimensions, each with a
// description and scoring scale.
type frameworkFile struct {
	Name       string               `yaml:"name"`
	Version    string               `yaml:"version"`
	Dimensions []artifact.Dimension `yaml:"dimensions"`
}

// LoadFrameworkSpec reads framework.yaml at path into a FrameworkSpec.
func LoadFrameworkSpec(path string) (artifact.FrameworkSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return artifact.FrameworkSpec{}, fmt.Errorf("config: read framework file %s: %w", path, err)
	}
	var f frameworkFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return artifact.FrameworkSpec{}, fmt.Errorf("config: parse framework file %s: %w", path, err)
	}
	return artifact.FrameworkSpec{Name: f.Name, Version: f.Version, Dimensions: f.Dimensions}, nil
}

// corpusManifestFile mirrors corpus_manifest.yaml's on-disk shape
// (spec.md 6 Corpus manifest): a flat list of {filename, document_id,
// metadata}.
type corpusManifestFile struct {
	Documents []struct {
		Filename   string         `yaml:"filename"`
		DocumentID string         `yaml:"document_id"`
		Metadata   map[string]any `yaml:"metadata"`
		Hash       string         `yaml:"hash"`
	} `yaml:"documents"`
}

// LoadCorpusDocuments reads corpus_manifest.yaml at manifestPath and the
// text file it references for each entry, relative to the manifest's own
// directory. Encoding fallback (UTF-8 vs Latin-1) is the data
// pre-flight's concern (internal/integrity.CheckData), not the loader's —
// this returns raw file bytes as-read. expectedHashes carries only the
// document_ids whose manifest entry declared a hash; a document with no
// declared hash is simply absent from the map, so CheckData's lookup
// skips the mismatch check for it rather than failing it.
func LoadCorpusDocuments(manifestPath string) (docs []artifact.CorpusDocument, expectedHashes map[string]string, err error) {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config: read corpus manifest %s: %w", manifestPath, err)
	}
	var m corpusManifestFile
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("config: parse corpus manifest %s: %w", manifestPath, err)
	}

	dir := filepath.Dir(manifestPath)
	docs = make([]artifact.CorpusDocument, 0, len(m.Documents))
	expectedHashes = make(map[string]string, len(m.Documents))
	for _, entry := range m.Documents {
		text, err := os.ReadFile(filepath.Join(dir, entry.Filename))
		if err != nil {
			return nil, nil, fmt.Errorf("config: read corpus document %s: %w", entry.Filename, err)
		}
		docs = append(docs, artifact.CorpusDocument{
			DocumentID: entry.DocumentID,
			Filename:   entry.Filename,
			Text:       string(text),
		})
		if entry.Hash != "" {
			expectedHashes[entry.DocumentID] = entry.Hash
		}
	}
	return docs, expectedHashes, nil
}

// LoadExperimentConfig reads experiment_config.yaml at path (spec.md 6
// Experiment config shape).
func LoadExperimentConfig(path string) (artifact.ExperimentConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return artifact.ExperimentConfig{}, fmt.Errorf("config: read experiment config %s: %w", path, err)
	}
	var cfg artifact.ExperimentConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return artifact.ExperimentConfig{}, fmt.Errorf("config: parse experiment config %s: %w", path, err)
	}
	return cfg, nil
}
