package adapter

import (
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// ResponseSchema derives a Gemini response schema from the JSON schema of T
func ResponseSchema[T any]() (*genai.Schema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer json schema")
	}
	return ConvertSchema(schema)
}

// ConvertSchema converts JSON Schema to genai.Schema
func ConvertSchema(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	out := &genai.Schema{
		Description: schema.Description,
		Required:    schema.Required,
	}

	typ := schema.Type
	if typ == "" {
		// nullable slices and pointers come as ["null", "<type>"]
		for _, t := range schema.Types {
			if t == "null" {
				out.Nullable = genai.Ptr(true)
				continue
			}
			typ = t
		}
	}

	switch typ {
	case "object":
		out.Type = genai.TypeObject
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
	case "":
	default:
		return nil, goerr.New("unsupported schema type", goerr.V("type", typ))
	}

	for _, v := range schema.Enum {
		if s, ok := v.(string); ok {
			out.Enum = append(out.Enum, s)
		}
	}

	if len(schema.Properties) > 0 {
		names := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			names = append(names, name)
		}
		sort.Strings(names)

		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for _, name := range names {
			converted, err := ConvertSchema(schema.Properties[name])
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property schema", goerr.V("property", name))
			}
			out.Properties[name] = converted
		}
		out.PropertyOrdering = names
	}

	if schema.Items != nil {
		converted, err := ConvertSchema(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
		out.Items = converted
	}

	return out, nil
}
