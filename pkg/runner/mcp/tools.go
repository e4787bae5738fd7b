package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerTreeTools(srv, svc)
	registerFolderTools(srv, svc)
	registerItemTools(srv, svc)
	registerStartupTool(srv, svc)
}

func registerTreeTools(srv *server.MCPServer, svc *Service) {
	srv.AddTool(mcp.NewTool(
		"tree_roots",
		mcp.WithDescription("Return the solution tree as currently expanded."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		roots, err := svc.Roots(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"roots": roots})
	})

	srv.AddTool(mcp.NewTool(
		"tree_expand",
		mcp.WithDescription("Expand a node and return it with its children."),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("Token of the node to expand, as returned by tree_roots."),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		token, err := request.RequireString("token")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		node, err := svc.Expand(ctx, token)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(node)
	})

	srv.AddTool(mcp.NewTool(
		"tree_collapse",
		mcp.WithDescription("Collapse a node. Its children stay loaded."),
		mcp.WithString("token",
			mcp.Required(),
			mcp.Description("Token of the node to collapse."),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		token, err := request.RequireString("token")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		node, err := svc.Collapse(ctx, token)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(node)
	})

	srv.AddTool(mcp.NewTool(
		"tree_refresh",
		mcp.WithDescription("Rebuild the tree, listing every expanded node again."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		roots, err := svc.Refresh(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"roots": roots})
	})
}

func registerFolderTools(srv *server.MCPServer, svc *Service) {
	srv.AddTool(mcp.NewTool(
		"folder_add",
		mcp.WithDescription("Create a solution folder."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the new folder."),
		),
		mcp.WithString("parent",
			mcp.Description(`Parent folder by GUID or name path such as "Shared/Tools". Omit for the solution root.`),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Name   string `json:"name"`
			Parent string `json:"parent"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		res, err := svc.AddFolder(ctx, args.Name, args.Parent)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(res)
	})

	srv.AddTool(mcp.NewTool(
		"folder_remove",
		mcp.WithDescription("Remove a solution folder with every folder and project nested in it."),
		mcp.WithString("folder",
			mcp.Required(),
			mcp.Description("Folder by GUID or name path."),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		folder, err := request.RequireString("folder")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := svc.RemoveFolder(ctx, folder)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(res)
	})

	srv.AddTool(mcp.NewTool(
		"folder_rename",
		mcp.WithDescription("Rename a solution folder."),
		mcp.WithString("folder",
			mcp.Required(),
			mcp.Description("Folder by GUID or name path."),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("New folder name."),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		folder, err := request.RequireString("folder")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := svc.RenameFolder(ctx, folder, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(res)
	})
}

func registerItemTools(srv *server.MCPServer, svc *Service) {
	itemArgs := []mcp.ToolOption{
		mcp.WithString("folder",
			mcp.Required(),
			mcp.Description("Folder by GUID or name path."),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path, absolute or relative to the solution directory."),
		),
	}

	add := append([]mcp.ToolOption{mcp.WithDescription("Group a file under a solution folder.")}, itemArgs...)
	srv.AddTool(mcp.NewTool("item_add", add...), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		folder, path, err := itemArguments(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := svc.AddItem(ctx, folder, path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(res)
	})

	remove := append([]mcp.ToolOption{mcp.WithDescription("Drop a file from a solution folder. The file stays on disk.")}, itemArgs...)
	srv.AddTool(mcp.NewTool("item_remove", remove...), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		folder, path, err := itemArguments(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := svc.RemoveItem(ctx, folder, path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(res)
	})
}

func itemArguments(request mcp.CallToolRequest) (string, string, error) {
	folder, err := request.RequireString("folder")
	if err != nil {
		return "", "", err
	}
	path, err := request.RequireString("path")
	if err != nil {
		return "", "", err
	}
	return folder, path, nil
}

func registerStartupTool(srv *server.MCPServer, svc *Service) {
	srv.AddTool(mcp.NewTool(
		"startup_set",
		mcp.WithDescription("Set the startup project recorded in the user options file."),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project by GUID or name path."),
		),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		project, err := request.RequireString("project")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := svc.SetStartup(ctx, project)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(res)
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
