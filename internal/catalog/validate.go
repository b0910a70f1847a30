package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema://catalog.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// ValidationError reports a catalog that does not match the schema.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid catalog: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// validate checks a decoded YAML tree against the catalog schema.
func validate(tree any) error {
	sch, err := schema()
	if err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}

	// YAML yields ints and typed maps; round-trip through JSON so the
	// validator sees plain JSON values.
	b, err := json.Marshal(tree)
	if err != nil {
		return &ValidationError{Err: err}
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return &ValidationError{Err: err}
	}

	if err := sch.Validate(v); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var doc any
		if err := json.Unmarshal(schemaJSON, &doc); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}
