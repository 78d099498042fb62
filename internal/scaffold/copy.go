package scaffold

import (
	"embed"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/NielsdaWheelz/cloudrole/internal/fs"
)

//go:embed templates
var templates embed.FS

// Template names.
const (
	TemplateWebRole      = "web"
	TemplateWorkerRole   = "worker"
	TemplateCacheWebRole = "cache/webrole"
)

const (
	templateRoot   = "templates"
	executableGlob = "**/*.cmd"
)

// Stager collects whole-file writes so they can be committed together
// with the project documents. *model.Project implements it.
type Stager interface {
	Stage(f fs.File)
	Staged(path string) ([]byte, bool)
}

// CopyResult holds the result of a template copy.
type CopyResult struct {
	Created []string // slash-separated paths relative to the destination
	Skipped []string // paths that already existed or were already staged
}

// Files lists the files of a template, slash-separated and sorted.
func Files(template string) ([]string, error) {
	sub, err := iofs.Sub(templates, path.Join(templateRoot, template))
	if err != nil {
		return nil, err
	}
	files, err := doublestar.Glob(sub, "**", doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("unknown scaffold template %q", template)
	}
	return files, nil
}

// Copy stages every file of template under dstDir. Never overwrites: a file
// that exists on disk or is already staged is skipped. Nothing is written
// until the stager commits.
func Copy(fsys fs.FS, st Stager, template, dstDir string) (CopyResult, error) {
	result := CopyResult{}

	files, err := Files(template)
	if err != nil {
		return result, err
	}

	for _, rel := range files {
		dst := filepath.Join(dstDir, filepath.FromSlash(rel))

		if _, ok := st.Staged(dst); ok {
			result.Skipped = append(result.Skipped, rel)
			continue
		}
		_, err := fsys.Stat(dst)
		if err == nil {
			result.Skipped = append(result.Skipped, rel)
			continue
		}
		if !os.IsNotExist(err) {
			return result, err
		}

		data, err := templates.ReadFile(path.Join(templateRoot, template, rel))
		if err != nil {
			return result, err
		}
		st.Stage(fs.File{Path: dst, Data: data, Perm: filePerm(rel)})
		result.Created = append(result.Created, rel)
	}

	return result, nil
}

// filePerm marks startup scripts executable.
func filePerm(rel string) os.FileMode {
	if ok, _ := doublestar.Match(executableGlob, rel); ok {
		return 0755
	}
	return 0644
}
