package history

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// xmlTranscripts is the root element of transcripts.xml.
type xmlTranscripts struct {
	XMLName xml.Name    `xml:"transcripts"`
	Entries []xmlRecord `xml:"t"`
}

type xmlRecord struct {
	At     string `xml:"at,attr"`
	Engine string `xml:"engine,attr"`
	Model  string `xml:"model,attr,omitempty"`
	Lang   string `xml:"lang,attr"`
	DurS   string `xml:"dur_s,attr"`
	Text   string `xml:",chardata"`
}

// XMLStore appends records to a single transcripts.xml file. Every write
// goes to a sibling temp file under the same directory, then renames over the target, so a crash
// mid-write never corrupts the existing file.
type XMLStore struct {
	path string
}

// NewXMLStore opens (or prepares to create) the transcripts.xml file at path.
func NewXMLStore(path string) (*XMLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &XMLStore{path: path}, nil
}

// Append reads the current document (if any), adds r, and atomically
// replaces the file.
func (s *XMLStore) Append(r Record) error {
	doc, err := s.read()
	if err != nil {
		return err
	}

	doc.Entries = append(doc.Entries, xmlRecord{
		At:     r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Engine: r.Engine,
		Lang:   r.Language,
		DurS:   fmt.Sprintf("%.3f", r.DurationS),
		Text:   r.Transcript,
	})

	return s.writeAtomic(doc)
}

func (s *XMLStore) read() (xmlTranscripts, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return xmlTranscripts{}, nil
	}
	if err != nil {
		return xmlTranscripts{}, fmt.Errorf("read history file: %w", err)
	}
	var doc xmlTranscripts
	if err := xml.Unmarshal(data, &doc); err != nil {
		return xmlTranscripts{}, fmt.Errorf("parse history file: %w", err)
	}
	return doc, nil
}

func (s *XMLStore) writeAtomic(doc xmlTranscripts) error {
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".transcripts-*.xml.tmp")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp history file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp history file: %w", err)
	}
	return nil
}

func (s *XMLStore) Close() error { return nil }
