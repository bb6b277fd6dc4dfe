// Package tools defines the tool contracts offered to the model and their implementations.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - Research tools: arxiv_search, read_pdf, fetch_page.
//   - Output tools: render_latex_pdf, list_outputs.
//   - Registry(Deps): the tool set, built once at startup and handed to the runner.
//
// Handlers return errors as safety.ToolError JSON where the model can act on a stable code.
package tools
