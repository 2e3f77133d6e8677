package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
)

// LoadMode controls how errors are handled during manifest loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No manifest files found
	ErrCodeLoadFailed  = "E004" // File read or parse failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeCompile     = "E007" // Manifest does not compile to a template
)

// LoadResult contains the templates loaded from a path.
type LoadResult struct {
	Templates []*Template
	FileCount int
}

// LoadError represents an error that occurred during loading.
type LoadError struct {
	Code    string
	Message string
	File    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads manifests from a file or a directory tree.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors and keeps every
// template that did compile.
func Load(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing path: %v", err)}}
	}

	var files []string
	if info.IsDir() {
		files, err = FindManifestFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(files) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no manifest files found in %s", path)}}
		}
	} else {
		if !isManifestFile(path) {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("not a manifest file: %s", path)}}
		}
		files = []string{path}
	}

	result := &LoadResult{FileCount: len(files)}
	var errs []error
	for _, f := range files {
		templates, err := LoadFile(f)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Templates = append(result.Templates, templates...)
	}

	if len(result.Templates) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no templates found in manifests"})
	}
	return result, errs
}

// LoadFile compiles every template in one CUE or YAML file.
// Errors are *LoadError.
func LoadFile(path string) ([]*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, File: path, Message: err.Error()}
	}

	var templates []*Template
	switch filepath.Ext(path) {
	case ".cue":
		templates, err = compileCUEFile(path, data)
	default:
		templates, err = DecodeYAML(data)
		if err != nil {
			err = convertCompileError(err, path)
		}
	}
	if err != nil {
		return nil, err
	}

	for _, t := range templates {
		t.Source = path
	}
	return templates, nil
}

func compileCUEFile(path string, data []byte) ([]*Template, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, convertCompileError(formatCUEError(err), path)
	}

	templatesVal := value.LookupPath(cue.ParsePath("template"))
	if !templatesVal.Exists() {
		return nil, &LoadError{Code: ErrCodeGeneric, File: path, Message: "no template struct found"}
	}

	iter, err := templatesVal.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, File: path, Message: fmt.Sprintf("iterating templates: %v", err)}
	}

	var templates []*Template
	for iter.Next() {
		t, err := CompileCUE(iter.Value())
		if err != nil {
			return nil, convertCompileError(err, path)
		}
		templates = append(templates, t)
	}
	if len(templates) == 0 {
		return nil, &LoadError{Code: ErrCodeGeneric, File: path, Message: "template struct is empty"}
	}
	return templates, nil
}

// FindManifestFiles walks dir and returns .cue, .yaml and .yml files in
// lexical order.
func FindManifestFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && isManifestFile(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func isManifestFile(path string) bool {
	switch filepath.Ext(path) {
	case ".cue", ".yaml", ".yml":
		return true
	}
	return false
}

// convertCompileError converts a compile error to a LoadError with position info.
func convertCompileError(err error, file string) *LoadError {
	var ce *CompileError
	if errors.As(err, &ce) {
		code := ErrCodeCompile
		if ce.Field == "cue" || ce.Field == "yaml" {
			code = ErrCodeLoadFailed
		}
		msg := fmt.Sprintf("%s: %s", ce.Field, ce.Message)
		if ce.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", ce.Line, msg)
		}
		return &LoadError{Code: code, File: file, Message: msg, Pos: ce.Pos}
	}
	return &LoadError{Code: ErrCodeGeneric, File: file, Message: err.Error()}
}
