package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	treeURI      = "sln://tree"
	nodeTemplate = "sln://nodes/{token}"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerTreeResource(srv, svc)
	registerNodeTemplate(srv, svc)
}

func registerTreeResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		treeURI,
		"Solution Tree",
		mcp.WithResourceDescription("The solution tree with every expanded node's children."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		roots, err := svc.Roots(ctx)
		if err != nil {
			return nil, err
		}
		payload := map[string]any{
			"solution": svc.Workspace.Path,
			"expanded": svc.Workspace.Tree.Expanded(),
			"roots":    roots,
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

func registerNodeTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		nodeTemplate,
		"Tree Node",
		mcp.WithTemplateDescription("One node of the solution tree and its visible children."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		token := templateArgument(request.Params.Arguments, "token")
		if token == "" {
			return nil, fmt.Errorf("node token is required")
		}
		node, err := svc.Node(ctx, token)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{"node": node})
	})
}

// templateArgument reads a URI template variable, which the server hands
// over as a string or a one-element list.
func templateArgument(args map[string]any, name string) string {
	switch v := args[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case []string:
		if len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
	}
	return ""
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
