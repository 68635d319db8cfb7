package extraction

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/tbxark/charterflow/catalog"
	"github.com/tbxark/charterflow/structured"
)

// ToolClient extracts values with a forced tool call whose parameters cover
// exactly the requested fields.
type ToolClient struct {
	catalog      *catalog.Catalog
	chain        *structured.Chain[Request, map[string]any]
	systemPrompt string
	toolName     string
	now          func() time.Time
	logger       *zap.Logger
}

type toolOptions struct {
	systemPrompt string
	toolName     string
	now          func() time.Time
	logger       *zap.Logger
}

type ToolOption func(*toolOptions)

func WithSystemPrompt(prompt string) ToolOption {
	return func(o *toolOptions) {
		o.systemPrompt = prompt
	}
}

func WithToolName(name string) ToolOption {
	return func(o *toolOptions) {
		o.toolName = name
	}
}

func WithClock(now func() time.Time) ToolOption {
	return func(o *toolOptions) {
		o.now = now
	}
}

func WithLogger(logger *zap.Logger) ToolOption {
	return func(o *toolOptions) {
		o.logger = logger
	}
}

func NewToolClient(chatModel model.ToolCallingChatModel, cat *catalog.Catalog, opts ...ToolOption) (*ToolClient, error) {
	if chatModel == nil {
		return nil, &Error{Code: CodeConfiguration, Message: "No chat model is configured."}
	}
	if cat == nil {
		return nil, &Error{Code: CodeConfiguration, Message: "No field catalog is configured."}
	}
	options := toolOptions{
		systemPrompt: DefaultSystemPrompt,
		toolName:     DefaultToolName,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.logger == nil {
		options.logger = zap.L()
	}
	c := &ToolClient{
		catalog:      cat,
		systemPrompt: options.systemPrompt,
		toolName:     options.toolName,
		now:          options.now,
		logger:       options.logger.Named("extraction"),
	}
	c.chain = structured.NewDynamicChain[Request, map[string]any](chatModel, c.buildPrompt, c.buildTool)
	return c, nil
}

func (c *ToolClient) buildPrompt(_ context.Context, req Request) ([]*schema.Message, error) {
	section, err := FormatRequest(c.catalog, req, c.now())
	if err != nil {
		return nil, err
	}
	messages := make([]*schema.Message, 0, len(req.Messages)+2)
	messages = append(messages, schema.SystemMessage(c.systemPrompt))
	messages = append(messages, schema.SystemMessage(section))
	for _, m := range req.Messages {
		if m == nil || m.Role == schema.System {
			continue
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func (c *ToolClient) buildTool(_ context.Context, req Request) (*schema.ToolInfo, error) {
	return buildToolInfo(c.catalog, c.toolName, req.FieldIDs), nil
}

func (c *ToolClient) Extract(ctx context.Context, req Request) (*Response, error) {
	ctx = callbacks.EnsureRunInfo(ctx, "ToolClient", "Extraction")
	ctx = callbacks.OnStart(ctx, map[string]any{
		"field_ids": req.FieldIDs,
		"messages":  len(req.Messages),
	})
	res, err := c.extract(ctx, req)
	if err != nil {
		callbacks.OnError(ctx, err)
		c.logger.Debug("extraction failed",
			zap.Strings("field_ids", req.FieldIDs),
			zap.String("code", string(AsError(err).Code)),
			zap.Error(err))
		return nil, err
	}
	callbacks.OnEnd(ctx, map[string]any{
		"values":   len(res.Values),
		"warnings": len(res.Warnings),
	})
	return res, nil
}

func (c *ToolClient) extract(ctx context.Context, req Request) (*Response, error) {
	if err := checkRequest(c.catalog, req); err != nil {
		return nil, err
	}
	out, err := c.chain.Invoke(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	if out == nil || *out == nil {
		return nil, &Error{Code: CodeInvalidToolPayload, Message: "The model returned an empty tool payload."}
	}
	return Finalize(c.catalog, req.FieldIDs, *out)
}

func classify(err error) *Error {
	switch {
	case errors.Is(err, structured.ErrMissingToolCall):
		return &Error{Code: CodeMissingToolCall, Message: "The model did not return the field values.", Err: err}
	case errors.Is(err, structured.ErrInvalidArguments):
		return &Error{Code: CodeInvalidToolPayload, Message: "The model returned field values I could not read.", Err: err}
	default:
		return &Error{Code: CodeOpenAIError, Message: "The language model request failed.", Err: err}
	}
}
