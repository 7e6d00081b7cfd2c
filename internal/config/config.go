// Package config loads and validates YAML run files. A run file names
// a set of requests and the order they execute in.
package config

import (
	"os"
	"strconv"

	"rawhttp/uri"
	"rawhttp/wire"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RunFile is the top-level document of a run file.
type RunFile struct {
	Requests map[string]Request `yaml:"requests"`
	Run      []string           `yaml:"run"`
}

// Request describes a single request to send.
type Request struct {
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    string            `yaml:"body,omitempty"`
}

// Load reads and parses a run file from disk.
func Load(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading run file")
	}

	return Parse(data)
}

// Parse decodes a run file from raw YAML.
func Parse(data []byte) (*RunFile, error) {
	var file RunFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parsing run file")
	}

	return &file, nil
}

// ValidationError points at the offending part of a run file.
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}

// Validate checks a run file for problems the client would only
// discover at send time. It returns every error found, not just the
// first.
func Validate(file *RunFile) []ValidationError {
	var errs []ValidationError

	if len(file.Requests) == 0 {
		errs = append(errs, ValidationError{
			Path:    "requests",
			Message: "at least one request is required",
		})
	}

	for name, req := range file.Requests {
		if req.URL == "" {
			errs = append(errs, ValidationError{
				Path:    "requests." + name + ".url",
				Message: "url is required",
			})
		} else if _, err := uri.Parse(req.URL); err != nil {
			errs = append(errs, ValidationError{
				Path:    "requests." + name + ".url",
				Message: err.Error(),
			})
		}

		if req.Method == "" {
			errs = append(errs, ValidationError{
				Path:    "requests." + name + ".method",
				Message: "method is required",
			})
		} else if _, ok := wire.ParseMethod(req.Method); !ok {
			errs = append(errs, ValidationError{
				Path:    "requests." + name + ".method",
				Message: "unsupported method: " + req.Method,
			})
		}
	}

	if len(file.Run) == 0 {
		errs = append(errs, ValidationError{
			Path:    "run",
			Message: "at least one run entry is required",
		})
	}

	for i, name := range file.Run {
		if _, ok := file.Requests[name]; !ok {
			errs = append(errs, ValidationError{
				Path:    "run[" + strconv.Itoa(i) + "]",
				Message: "unknown request: " + name,
			})
		}
	}

	return errs
}
