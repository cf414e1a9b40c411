package export

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hyperjump/annotator/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrInvalidRecord is returned when a record does not match its schema.
var ErrInvalidRecord = errors.New("record does not match schema")

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var printer = message.NewPrinter(language.English)

var schemas = map[Variant]*jsonschema.Schema{
	VariantBasic:    mustCompileSchema("schemas/basic.schema.json"),
	VariantExtended: mustCompileSchema("schemas/extended.schema.json"),
}

func mustCompileSchema(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to read embedded %s: %v", name, err))
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateRecord checks rec against the schema of variant.
func ValidateRecord(rec *models.Record, variant Variant) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return ValidateBytes(data, variant)
}

// ValidateBytes checks an encoded record against the schema of variant.
func ValidateBytes(data []byte, variant Variant) error {
	sch, ok := schemas[variant]
	if !ok {
		return fmt.Errorf("unknown export schema %q", variant)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrInvalidRecord, err)
	}
	if err := sch.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		var msgs []string
		collectSchemaErrors(ve, &msgs)
		return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(msgs, "; "))
	}
	return nil
}

// ValidateFile checks the record stored at path.
func ValidateFile(path string, variant Variant) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := ValidateBytes(data, variant); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func collectSchemaErrors(ve *jsonschema.ValidationError, msgs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		*msgs = append(*msgs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(printer)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, msgs)
	}
}
