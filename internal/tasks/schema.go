package tasks

import (
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// taskSchema describes one stored record. Extra properties are tolerated so
// older or newer writers do not cost us the whole record.
const taskSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["id", "title", "completed", "createdAt"],
	"properties": {
		"id":        {"type": "integer", "minimum": 1, "maximum": 9007199254740991},
		"title":     {"type": "string", "minLength": 1},
		"completed": {"type": "boolean"},
		"createdAt": {"type": "string", "format": "date-time"}
	}
}`

var recordSchema = mustCompileSchema("task.json", taskSchema)

func mustCompileSchema(url, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(url, strings.NewReader(src)); err != nil {
		panic("tasks: add schema: " + err.Error())
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		panic("tasks: compile schema: " + err.Error())
	}
	return schema
}

// firstSchemaCause digs out the innermost failure, which names the offending field.
func firstSchemaCause(err error) (location, message string) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return "", err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve.InstanceLocation, ve.Message
}
