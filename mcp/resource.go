package mcp

import "context"

// Resource is a readable document exposed to MCP clients under a fixed URI.
type Resource struct {
	URI         string
	Name        string
	Description string
	MIMEType    string

	// Read produces the document text. It receives the request context.
	Read func(ctx context.Context) (string, error)
}

// StaticResource returns a Resource whose Read always yields text.
func StaticResource(uri, name, description, mimeType, text string) Resource {
	return Resource{
		URI:         uri,
		Name:        name,
		Description: description,
		MIMEType:    mimeType,
		Read: func(context.Context) (string, error) {
			return text, nil
		},
	}
}
