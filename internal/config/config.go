// Package config loads the optional iridescent.toml project file, the
// way the teacher's closest analogue (a module-file loader in the
// reference pack) loads project defaults that CLI arguments may override.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

const fileName = "iridescent.toml"

// Defaults holds the project-wide settings iridescent.toml may override.
// Load starts from the compiler's built-in defaults, so a missing file is
// never an error.
type Defaults struct {
	OutputBase     string `toml:"output-base"`
	Target         string `toml:"target"`
	FrameWarnBytes int    `toml:"frame-warn-bytes"`
}

// tomlProject mirrors the on-disk shape under the "project" table.
type tomlProject struct {
	Project *tomlFields `toml:"project"`
}

type tomlFields struct {
	OutputBase     string `toml:"output-base"`
	Target         string `toml:"target"`
	FrameWarnBytes int    `toml:"frame-warn-bytes"`
}

// Load reads iridescent.toml from dir, returning the built-in defaults
// unchanged if the file does not exist.
func Load(dir string) (Defaults, error) {
	d := Defaults{OutputBase: "out", Target: "mips", FrameWarnBytes: 4096}

	buf, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return d, err
	}

	var tp tomlProject
	if err := toml.Unmarshal(buf, &tp); err != nil {
		return d, err
	}
	if tp.Project == nil {
		return d, nil
	}

	if tp.Project.OutputBase != "" {
		d.OutputBase = tp.Project.OutputBase
	}
	if tp.Project.Target != "" {
		d.Target = tp.Project.Target
	}
	if tp.Project.FrameWarnBytes != 0 {
		d.FrameWarnBytes = tp.Project.FrameWarnBytes
	}
	return d, nil
}
