package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rotisserie/eris"
)

// DefaultDialogueSystemPromptTemplate may contain a single "%s" placeholder
// for the language.
const DefaultDialogueSystemPromptTemplate = `You are a friendly assistant helping someone write a project charter, one field at a time.

Rephrase the draft question you are given into one short conversational message:
- Keep every fact from the draft: the field name, whether it is optional, the format, the example and any current answer.
- Ask about this field only.
- Do not use headings or bullet points.
- Reply in %s.`

type ToolBasedDialogueGenerator struct {
	Lang         string
	systemPrompt string
	chatModel    model.ToolCallingChatModel
}

type dialogueGeneratorOptions struct {
	lang                 string
	systemPrompt         string
	systemPromptTemplate string
}

type GeneratorOption func(*dialogueGeneratorOptions)

func WithDialogueLang(lang string) GeneratorOption {
	return func(o *dialogueGeneratorOptions) {
		o.lang = lang
	}
}

// WithDialogueSystemPrompt replaces the system prompt outright.
func WithDialogueSystemPrompt(systemPrompt string) GeneratorOption {
	return func(o *dialogueGeneratorOptions) {
		o.systemPrompt = systemPrompt
	}
}

func WithDialogueSystemPromptTemplate(tpl string) GeneratorOption {
	return func(o *dialogueGeneratorOptions) {
		o.systemPromptTemplate = tpl
	}
}

func NewToolBasedDialogueGenerator(chatModel model.ToolCallingChatModel, opts ...GeneratorOption) *ToolBasedDialogueGenerator {
	options := dialogueGeneratorOptions{
		lang:                 "English",
		systemPromptTemplate: DefaultDialogueSystemPromptTemplate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.lang == "" {
		options.lang = "English"
	}
	systemPrompt := options.systemPrompt
	if systemPrompt == "" {
		systemPrompt = options.systemPromptTemplate
		if strings.Contains(systemPrompt, "%s") {
			systemPrompt = fmt.Sprintf(systemPrompt, options.lang)
		}
	}
	return &ToolBasedDialogueGenerator{
		Lang:         options.lang,
		systemPrompt: systemPrompt,
		chatModel:    chatModel,
	}
}

func (g *ToolBasedDialogueGenerator) GenerateDialogue(ctx context.Context, req *Request) (string, error) {
	messages, err := g.buildDialoguePrompt(req)
	if err != nil {
		return "", err
	}
	response, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", eris.Wrap(err, "dialogue: generate")
	}
	text := strings.TrimSpace(response.Content)
	if text == "" {
		return "", eris.New("dialogue: empty response")
	}
	return text, nil
}

func (g *ToolBasedDialogueGenerator) GenerateDialogueStream(ctx context.Context, req *Request) (*schema.StreamReader[string], error) {
	messages, err := g.buildDialoguePrompt(req)
	if err != nil {
		return nil, err
	}
	stream, err := g.chatModel.Stream(ctx, messages)
	if err != nil {
		return nil, eris.Wrap(err, "dialogue: stream")
	}
	return schema.StreamReaderWithConvert(stream, func(message *schema.Message) (string, error) {
		return message.Content, nil
	}), nil
}

func (g *ToolBasedDialogueGenerator) buildDialoguePrompt(req *Request) ([]*schema.Message, error) {
	if g.chatModel == nil {
		return nil, eris.New("dialogue: chat model is not configured")
	}
	if req == nil || req.Field.ID == "" {
		return nil, eris.New("dialogue: no field to ask about")
	}
	var sb strings.Builder
	if len(req.Recent) > 0 {
		sb.WriteString("# Recent conversation:\n")
		for _, m := range req.Recent {
			if m == nil || m.Role == schema.System {
				continue
			}
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("# Draft question:\n")
	sb.WriteString(FieldPrompt(req, false))
	return []*schema.Message{
		schema.SystemMessage(g.systemPrompt),
		schema.UserMessage(sb.String()),
	}, nil
}
