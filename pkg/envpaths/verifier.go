package envpaths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"ckpthub/pkg/logger"
	"ckpthub/pkg/ui"
)

const (
	DatasetKey   = "SHAPENET_DATASET_PATH"
	DatasetLabel = "ShapeNet"
	ProjectKey   = "DINO_PROJECT_PATH"
	ProjectLabel = "DINO project"
)

// ErrMissingPaths is matched by every MissingError
var ErrMissingPaths = errors.New("one or more required paths are missing")

// MissingError lists the environment keys that were absent or empty
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingPaths, strings.Join(e.Keys, ", "))
}

func (e *MissingError) Is(target error) bool {
	return target == ErrMissingPaths
}

// Requirement names an environment variable holding a directory path
type Requirement struct {
	Key   string
	Label string
}

// Paths holds the verified values. Neither field is ever empty.
type Paths struct {
	Dataset string
	Project string
}

// Verifier checks that the dataset and project paths are configured
type Verifier struct {
	Dataset Requirement
	Project Requirement

	// Lookup reads a variable from the environment
	Lookup func(string) (string, bool)
	// IsDir reports whether a path is an existing directory
	IsDir func(string) bool
	// Exit terminates the process when GetPaths finds missing keys
	Exit func(int)

	printer *ui.Printer
	logger  logger.Logger
}

// NewVerifier creates a verifier with the default keys, reading the process
// environment and printing to printer (stdout when nil).
func NewVerifier(printer *ui.Printer, log logger.Logger) *Verifier {
	if printer == nil {
		printer = ui.NewPrinter(os.Stdout, false)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Verifier{
		Dataset: Requirement{Key: DatasetKey, Label: DatasetLabel},
		Project: Requirement{Key: ProjectKey, Label: ProjectLabel},
		Lookup:  os.LookupEnv,
		IsDir:   isDir,
		Exit:    os.Exit,
		printer: printer,
		logger:  log.WithField("component", "envpaths"),
	}
}

// Verify reads both requirements in order and prints one status line per
// requirement. A path that is not an existing directory only earns a
// warning. Missing keys are reported as a *MissingError.
func (v *Verifier) Verify() (Paths, error) {
	var missing []string

	dataset, ok := v.check(v.Dataset)
	if !ok {
		missing = append(missing, v.Dataset.Key)
	}
	project, ok := v.check(v.Project)
	if !ok {
		missing = append(missing, v.Project.Key)
	}

	if len(missing) > 0 {
		v.logger.WarnWithFields("required paths missing", map[string]interface{}{
			"keys": missing,
		})
		return Paths{}, &MissingError{Keys: missing}
	}

	return Paths{Dataset: dataset, Project: project}, nil
}

// GetPaths is Verify for scripts: when a key is missing it prints a final
// notice and exits with status 1.
func (v *Verifier) GetPaths() (dataset, project string) {
	paths, err := v.Verify()
	if err != nil {
		v.printer.Error("\nOne or more required paths are missing. Exiting to prevent errors.")
		v.Exit(1)
		return "", ""
	}
	return paths.Dataset, paths.Project
}

func (v *Verifier) check(req Requirement) (string, bool) {
	value, _ := v.Lookup(req.Key)
	if value == "" {
		v.printer.Error(fmt.Sprintf("❌ ERROR: '%s' not found in .env file or environment.", req.Key))
		return "", false
	}

	v.printer.Success(fmt.Sprintf("✅ SUCCESS: Loaded %s path: %s", req.Label, value))
	if !v.IsDir(value) {
		v.printer.Warning(fmt.Sprintf("   - Warning: The path '%s' does not exist or is not a directory.", value))
		v.logger.DebugWithFields("path is not a directory", map[string]interface{}{
			"key":  req.Key,
			"path": value,
		})
	}
	return value, true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// LoadEnv merges the given env files (".env" when none) into the process
// environment. Variables that are already set keep their value. A missing
// file is not an error.
func LoadEnv(log logger.Logger, files ...string) error {
	if log == nil {
		log = logger.GetLogger()
	}
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.DebugWithFields("env file not found", map[string]interface{}{
					"file": file,
				})
				continue
			}
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
		log.DebugWithFields("env file loaded", map[string]interface{}{
			"file": file,
		})
	}
	return nil
}

// RunScript is the whole verification script: it reports the working
// directory, loads the env files, verifies both paths and shows how they
// are used. It exits through v.Exit when a path is missing.
func (v *Verifier) RunScript(envFiles ...string) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = fmt.Sprintf("<unknown: %v>", err)
	}
	v.printer.Println("Current Working Directory: " + cwd)

	if err := LoadEnv(v.logger, envFiles...); err != nil {
		v.printer.Error(fmt.Sprintf("❌ ERROR: %v", err))
		v.Exit(1)
		return
	}
	v.printer.Println("Attempting to load variables from .env file...")

	paths, err := v.Verify()
	if err != nil {
		v.printer.Error("\nOne or more required paths are missing. Exiting to prevent errors.")
		v.Exit(1)
		return
	}

	v.printer.Println("\n--- Your script can now use these paths safely ---")
	v.printer.Println("Path to ShapeNet Dataset: " + paths.Dataset)
	v.printer.Println("Path to DINO Project: " + paths.Project)

	example := filepath.Join(paths.Project, "models", "final_model.pth")
	v.printer.Println("\nExample of a constructed file path: " + example)
}
