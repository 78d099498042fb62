// Package store loads and saves the documents of a cloud service project.
// A save stages every file as a temp file before any of them is replaced.
package store

import (
	"bytes"
	"encoding/xml"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/NielsdaWheelz/cloudrole/internal/errors"
	"github.com/NielsdaWheelz/cloudrole/internal/fs"
	"github.com/NielsdaWheelz/cloudrole/internal/logging"
	"github.com/NielsdaWheelz/cloudrole/internal/model"
)

// Default document file names.
const (
	DefaultDefinitionFile    = "ServiceDefinition.csdef"
	DefaultCloudSettingsFile = "ServiceConfiguration.Cloud.cscfg"
	DefaultLocalSettingsFile = "ServiceConfiguration.Local.cscfg"
)

// Layout names the project documents relative to the project root.
type Layout struct {
	Definition string
	Settings   []string
}

// DefaultLayout returns the standard definition plus cloud and local settings.
func DefaultLayout() Layout {
	return Layout{
		Definition: DefaultDefinitionFile,
		Settings:   []string{DefaultCloudSettingsFile, DefaultLocalSettingsFile},
	}
}

// Store handles persistence of project documents.
type Store struct {
	FS     fs.FS
	Layout Layout
	Logger *slog.Logger
}

// NewStore creates a new Store with the given dependencies.
func NewStore(filesystem fs.FS, layout Layout, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{FS: filesystem, Layout: layout, Logger: logger}
}

// DefinitionPath returns the path of the definition document under root.
func (s *Store) DefinitionPath(root string) string {
	return filepath.Join(root, s.Layout.Definition)
}

// Load reads and validates every document of the project at root.
//
// Errors:
//   - E_DOCUMENT_NOT_FOUND: root or one of the documents is missing
//   - E_DOCUMENT_MALFORMED: a document does not parse, or the documents
//     disagree (see model.Project.Check)
func (s *Store) Load(root string) (*model.Project, error) {
	root = filepath.Clean(root)

	info, err := s.FS.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.NewWithDetails(errors.EDocumentNotFound,
			"project directory does not exist: "+root, map[string]string{"path": root})
	}

	p := &model.Project{Root: root}

	def := &model.ServiceDefinition{}
	if err := s.readDocument(s.DefinitionPath(root), def); err != nil {
		return nil, err
	}
	p.Definition = def

	for _, name := range s.Layout.Settings {
		doc := &model.ServiceSettings{}
		if err := s.readDocument(filepath.Join(root, name), doc); err != nil {
			return nil, err
		}
		doc.File = name
		p.Settings = append(p.Settings, doc)
	}

	if err := p.Check(); err != nil {
		return nil, errors.WrapWithDetails(errors.EDocumentMalformed,
			"inconsistent project documents: "+err.Error(), err, map[string]string{"path": root})
	}

	s.Logger.Debug("loaded project", "root", root, "roles", len(def.Roles()), "settings_documents", len(p.Settings))
	return p, nil
}

func (s *Store) readDocument(path string, v any) error {
	data, err := s.FS.ReadFile(path)
	if err != nil {
		details := map[string]string{"path": path}
		if os.IsNotExist(err) {
			return errors.WrapWithDetails(errors.EDocumentNotFound, "document not found: "+path, err, details)
		}
		return errors.WrapWithDetails(errors.EDocumentNotFound, "cannot read document: "+path, err, details)
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return errors.WrapWithDetails(errors.EDocumentMalformed,
			"invalid document "+filepath.Base(path)+": "+err.Error(), err, map[string]string{"path": path})
	}
	return nil
}

// Save writes the project back to disk. Every document is encoded in memory
// first; then pending scaffold files, the settings documents and finally the
// definition document are committed with fs.CommitFiles, in that order.
// A failed save may leave earlier files replaced. Pending is cleared on success.
//
// Errors:
//   - E_IO_FAILURE: a document could not be encoded or a file could not be written
func (s *Store) Save(p *model.Project) error {
	files := make([]fs.File, 0, len(p.Pending)+len(p.Settings)+1)
	files = append(files, p.Pending...)

	for _, doc := range p.Settings {
		data, err := Encode(doc)
		if err != nil {
			return errors.Wrap(errors.EIOFailure, "failed to encode "+doc.File, err)
		}
		files = append(files, fs.File{Path: filepath.Join(p.Root, doc.File), Data: data, Perm: 0644})
	}

	data, err := Encode(p.Definition)
	if err != nil {
		return errors.Wrap(errors.EIOFailure, "failed to encode "+s.Layout.Definition, err)
	}
	files = append(files, fs.File{Path: s.DefinitionPath(p.Root), Data: data, Perm: 0644})

	if err := fs.CommitFiles(s.FS, files); err != nil {
		var details map[string]string
		var ce *fs.CommitError
		if stderrors.As(err, &ce) {
			details = map[string]string{"path": ce.Path}
		}
		return errors.WrapWithDetails(errors.EIOFailure, "failed to write project files", err, details)
	}

	s.Logger.Debug("saved project", "root", p.Root, "files", len(files))
	p.Pending = nil
	return nil
}

// Encode renders a document with an XML declaration and two-space indentation.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
