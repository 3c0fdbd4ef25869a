// Package container manages the ~/.qdesigner/ project hierarchy.
//
// Directory layout:
//
//	$QDESIGNER_HOME (default ~/.qdesigner)/<project>/
//	    project.yaml     # generation settings for the project
//	    current.json     # the current validated questionnaire
//	    history.db       # revision history (internal/store)
//	    briefs/          # reference files and brief.md
//	    exports/         # rendered .docx files and vault folders
package container

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"qdesigner/internal/generate"
	"qdesigner/internal/model"
)

// HomeEnv overrides the base directory.
const HomeEnv = "QDESIGNER_HOME"

// Files and directories inside a project.
const (
	ConfigFile  = "project.yaml"
	CurrentFile = "current.json"
	HistoryFile = "history.db"
	BriefsDir   = "briefs"
	ExportsDir  = "exports"
)

// ErrNoCurrent is returned by LoadCurrent before any questionnaire is saved.
var ErrNoCurrent = errors.New("project has no current questionnaire")

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Project is an open project directory.
type Project struct {
	Name string
	Dir  string
}

// Config stores per-project generation settings.
type Config struct {
	Provider string         `yaml:"provider,omitempty"`
	Model    string         `yaml:"model,omitempty"`
	Brief    generate.Brief `yaml:"brief"`
}

// BaseDir returns $QDESIGNER_HOME, or ~/.qdesigner when it is unset.
func BaseDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".qdesigner"), nil
}

func projectDir(name string) (string, error) {
	if !validName.MatchString(name) {
		return "", fmt.Errorf("invalid project name %q (letters, digits, '.', '_' and '-' only)", name)
	}
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, name), nil
}

// Init creates a project with its briefs/ and exports/ directories and
// writes cfg. It errors if the project already exists.
func Init(name string, cfg Config) (*Project, error) {
	dir, err := projectDir(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("project %q already exists at %s", name, dir)
	}
	for _, sub := range []string{BriefsDir, ExportsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create project: %w", err)
		}
	}
	p := &Project{Name: name, Dir: dir}
	if err := p.SaveConfig(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// Open opens an existing project. Returns an error if not found.
func Open(name string) (*Project, error) {
	dir, err := projectDir(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err != nil {
		return nil, fmt.Errorf("project %q not found (run 'qdesigner init %s' first)", name, name)
	}
	return &Project{Name: name, Dir: dir}, nil
}

// List returns the names of all projects under the base directory.
func List() ([]string, error) {
	base, err := BaseDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read qdesigner dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(base, e.Name(), ConfigFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Remove deletes a project and all its contents.
func Remove(name string) error {
	dir, err := projectDir(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("project %q not found", name)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove project: %w", err)
	}
	return nil
}

// Path joins elem onto the project directory.
func (p *Project) Path(elem ...string) string {
	return filepath.Join(append([]string{p.Dir}, elem...)...)
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// SaveConfig writes project.yaml.
func (p *Project) SaveConfig(cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal project config: %w", err)
	}
	if err := writeAtomic(p.Path(ConfigFile), data); err != nil {
		return fmt.Errorf("write project config: %w", err)
	}
	return nil
}

// LoadConfig reads project.yaml.
func (p *Project) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(p.Path(ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("read project %q: %w", p.Name, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse project %q: %w", p.Name, err)
	}
	return &cfg, nil
}

// ---------------------------------------------------------------------------
// Current questionnaire
// ---------------------------------------------------------------------------

// SaveCurrent writes q as canonical JSON, replacing the previous file
// atomically.
func (p *Project) SaveCurrent(q *model.Questionnaire) error {
	data, err := model.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal questionnaire: %w", err)
	}
	if err := writeAtomic(p.Path(CurrentFile), data); err != nil {
		return fmt.Errorf("write current questionnaire: %w", err)
	}
	return nil
}

// LoadCurrent reads and re-validates current.json.
func (p *Project) LoadCurrent() (*model.Questionnaire, error) {
	data, err := os.ReadFile(p.Path(CurrentFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoCurrent
	}
	if err != nil {
		return nil, fmt.Errorf("read current questionnaire: %w", err)
	}
	raw, err := model.Parse(data)
	if err != nil {
		return nil, err
	}
	return model.Validate(raw)
}

// ---------------------------------------------------------------------------
// Copying
// ---------------------------------------------------------------------------

// Clone creates project dst as a copy of p's config, briefs and current
// questionnaire. History and exports are not copied.
func (p *Project) Clone(dst string) (*Project, error) {
	cfg, err := p.LoadConfig()
	if err != nil {
		return nil, err
	}
	out, err := Init(dst, *cfg)
	if err != nil {
		return nil, err
	}
	if err := copyDir(p.Path(BriefsDir), out.Path(BriefsDir)); err != nil {
		return nil, fmt.Errorf("copy briefs: %w", err)
	}
	if _, err := os.Stat(p.Path(CurrentFile)); err == nil {
		if err := copyFile(p.Path(CurrentFile), out.Path(CurrentFile)); err != nil {
			return nil, fmt.Errorf("copy current questionnaire: %w", err)
		}
	}
	return out, nil
}

// writeAtomic writes data to a temp file beside path and renames it over
// path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// copyDir recursively copies src to dst.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target)
	})
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
