package tools

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/simonyos/agentcore/internal/llm"
)

// Registry is the closed, read-only catalog of tool definitions. It is
// built once and shared.
type Registry struct {
	defs   []ToolDefinition
	byName map[string]int
}

// NewRegistry builds a registry from definitions in the given order. A
// duplicate name is a programming error.
func NewRegistry(defs ...[]ToolDefinition) *Registry {
	r := &Registry{byName: make(map[string]int)}
	for _, group := range defs {
		for _, d := range group {
			if _, dup := r.byName[d.Name]; dup {
				panic(fmt.Sprintf("tools: duplicate definition %q", d.Name))
			}
			r.byName[d.Name] = len(r.defs)
			r.defs = append(r.defs, d)
		}
	}
	return r
}

// DefaultRegistry holds every built-in tool: the core table followed by
// the extended one.
func DefaultRegistry() *Registry {
	return NewRegistry(CoreDefinitions(), ExtendedDefinitions())
}

// List returns all definitions in registration order.
func (r *Registry) List() []ToolDefinition {
	return append([]ToolDefinition(nil), r.defs...)
}

// ByName returns the definition of a tool.
func (r *Registry) ByName(name string) (ToolDefinition, bool) {
	i, ok := r.byName[name]
	if !ok {
		return ToolDefinition{}, false
	}
	return r.defs[i], true
}

// Basic returns the read-only subset.
func (r *Registry) Basic() *Registry {
	var basic []ToolDefinition
	for _, d := range r.defs {
		if d.Basic {
			basic = append(basic, d)
		}
	}
	return NewRegistry(basic)
}

// Names lists tool names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// OpenAITools returns tool definitions in OpenAI-compatible format
func (r *Registry) OpenAITools() []llm.OpenAITool {
	result := make([]llm.OpenAITool, 0, len(r.defs))
	for _, def := range r.defs {
		result = append(result, llm.OpenAITool{
			Type: "function",
			Function: llm.OpenAIFunction{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  jsonSchemaToMap(def.Parameters),
			},
		})
	}
	return result
}

// jsonSchemaToMap converts JSONSchema to map for OpenAI API.
//
// Only the features the built-in tools use are supported: type,
// description, properties, required and enum.
func jsonSchemaToMap(schema *JSONSchema) map[string]interface{} {
	if schema == nil {
		return map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		}
	}

	result := map[string]interface{}{
		"type": schema.Type,
	}

	if schema.Description != "" {
		result["description"] = schema.Description
	}

	if schema.Type == "object" {
		props := make(map[string]interface{}, len(schema.Properties))
		for name, prop := range schema.Properties {
			props[name] = jsonSchemaToMap(prop)
		}
		result["properties"] = props
		required := schema.Required
		if required == nil {
			required = []string{}
		}
		result["required"] = required
	}

	if len(schema.Enum) > 0 {
		result["enum"] = schema.Enum
	}

	return result
}

// Describe renders a one-line-per-tool summary for help output.
func (r *Registry) Describe() string {
	var sb strings.Builder
	for _, d := range r.defs {
		marker := " "
		if d.Basic {
			marker = "*"
		}
		params := make([]string, 0, len(d.Parameters.Properties))
		for name := range d.Parameters.Properties {
			if slices.Contains(d.Parameters.Required, name) {
				params = append(params, name)
			} else {
				params = append(params, name+"?")
			}
		}
		sort.Strings(params)
		fmt.Fprintf(&sb, "%s %s(%s)\n    %s\n", marker, d.Name, strings.Join(params, ", "), d.Description)
	}
	return sb.String()
}
