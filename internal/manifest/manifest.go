// Package manifest builds the capability-discovery document advertised to
// AI agents.
package manifest

import (
	"github.com/agentgate/agentgate/internal/tools"
)

// SchemaVersion is the manifest format version.
const SchemaVersion = "1.0"

// Document is the discovery document served at /manifest and
// /.well-known/ai-plugin.json.
type Document struct {
	SchemaVersion string          `json:"schema_version"`
	Name          string          `json:"name"`
	Version       string          `json:"version"`
	Description   string          `json:"description"`
	APIVersion    string          `json:"api_version"`
	Capabilities  map[string]bool `json:"capabilities"`
	Tools         []tools.Tool    `json:"tools,omitempty"`
	Server        Server          `json:"server"`
	Auth          Auth            `json:"auth"`
	Usage         Usage           `json:"usage"`
}

// Server describes where the API lives.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Auth describes how agents obtain credentials.
type Auth struct {
	Type             string            `json:"type"`
	AuthorizationURL string            `json:"authorization_url"`
	TokenURL         string            `json:"token_url"`
	RefreshURL       string            `json:"refresh_url"`
	Scopes           map[string]string `json:"scopes"`
	SimpleAuth       SimpleAuth        `json:"simple_auth"`
}

// SimpleAuth describes the direct username/password login shortcut.
type SimpleAuth struct {
	Type        string `json:"type"`
	LoginURL    string `json:"login_url"`
	Description string `json:"description"`
	Method      string `json:"method"`
}

// Usage shows agents how to invoke tools.
type Usage struct {
	ToolsEndpoint string            `json:"tools_endpoint"`
	Example       string            `json:"example"`
	Method        string            `json:"method"`
	Headers       map[string]string `json:"headers"`
}

// Builder assembles manifest documents from the live tool registry.
type Builder struct {
	name        string
	version     string
	description string
	baseURL     string
}

// NewBuilder creates a manifest Builder. baseURL is the externally visible
// root of the API, without a trailing slash.
func NewBuilder(name, version, description, baseURL string) *Builder {
	return &Builder{
		name:        name,
		version:     version,
		description: description,
		baseURL:     baseURL,
	}
}

// Generate builds the document for the given tool list.
func (b *Builder) Generate(toolList []tools.Tool) *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		Name:          b.name,
		Version:       b.version,
		Description:   b.description,
		APIVersion:    "v1",
		Capabilities: map[string]bool{
			"tools":     true,
			"resources": false,
			"prompts":   false,
		},
		Tools: toolList,
		Server: Server{
			URL:         b.baseURL,
			Description: b.description,
		},
		Auth: Auth{
			Type:             "oauth2",
			AuthorizationURL: b.baseURL + "/oauth/authorize",
			TokenURL:         b.baseURL + "/oauth/token",
			RefreshURL:       b.baseURL + "/oauth/refresh",
			Scopes: map[string]string{
				"read":  "Read content",
				"write": "Create and modify content",
				"admin": "Administrative operations",
			},
			SimpleAuth: SimpleAuth{
				Type:        "direct",
				LoginURL:    b.baseURL + "/auth/login",
				Description: "Direct authentication with username and password",
				Method:      "POST",
			},
		},
		Usage: Usage{
			ToolsEndpoint: b.baseURL + "/tools/{tool_name}",
			Example:       b.baseURL + "/tools/content.searchPosts",
			Method:        "POST",
			Headers: map[string]string{
				"Authorization": "Bearer {access_token}",
				"Content-Type":  "application/json",
			},
		},
	}
}
