package content

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema map[string]*jsonschema.Schema
	schemaErr      error
)

func compileSchemas() {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		schemaErr = fmt.Errorf("parse content schema: %w", err)
		return
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", doc); err != nil {
		schemaErr = fmt.Errorf("add content schema: %w", err)
		return
	}

	compiledSchema = make(map[string]*jsonschema.Schema)
	for _, def := range []string{"ArchetypeDocument", "KoanDocument", "Framework"} {
		sch, err := compiler.Compile("schema.json#/$defs/" + def)
		if err != nil {
			schemaErr = fmt.Errorf("compile content schema %s: %w", def, err)
			return
		}
		compiledSchema[def] = sch
	}
}

// validateDocument checks raw JSON against the named schema definition
// before it is unmarshaled, so malformed documents fail at load with a
// structural error rather than at first use.
func validateDocument(def string, data []byte) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return schemaErr
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}

	return compiledSchema[def].Validate(instance)
}
