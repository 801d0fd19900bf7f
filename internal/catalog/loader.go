package catalog

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"
)

// catalogSchema describes a catalog file. Skills may be an empty list here so
// that New can report it as an InvalidRoleError naming the role.
const catalogSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["roles"],
  "properties": {
    "roles": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "skills"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "skills": {
            "type": "array",
            "items": {"type": "string"}
          }
        }
      }
    }
  }
}`

type fileRole struct {
	Name   string   `mapstructure:"name"`
	Skills []string `mapstructure:"skills"`
}

// LoadFile reads a catalog from a YAML, JSON or TOML file. The file format is
// taken from the extension. The document is checked against the catalog
// schema before roles are built.
func LoadFile(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	if err := validateDocument(path, v.AllSettings()); err != nil {
		return nil, err
	}

	var roles []fileRole
	if err := v.UnmarshalKey("roles", &roles); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}

	profiles := make([]RoleProfile, len(roles))
	for i, r := range roles {
		profiles[i] = RoleProfile{Name: r.Name, RequiredSkills: r.Skills}
	}

	return New(profiles...)
}

func validateDocument(path string, doc map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(catalogSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to validate catalog %s: %w", path, err)
	}

	if result.Valid() {
		return nil
	}

	schemaErr := &SchemaError{
		Path:   path,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		schemaErr.Errors = append(schemaErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return schemaErr
}
