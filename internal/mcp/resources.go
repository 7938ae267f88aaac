package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) programs(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	programs, err := h.svc.Programs()
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, programs)
}

func (h *handlers) achievements(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	badges, err := h.svc.Achievements()
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, badges)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
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
