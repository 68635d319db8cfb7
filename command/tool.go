package command

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rotisserie/eris"

	"github.com/tbxark/charterflow/structured"
)

const (
	parseCommandToolName        = "parse_session_command"
	parseCommandToolDescription = "Decide whether the user's message is a session command: skip, back, review, edit or none."
)

// DefaultParseCommandSystemPromptTemplate may contain one "%s" placeholder
// for the tool name.
const DefaultParseCommandSystemPromptTemplate = `You help a guided project charter assistant understand the user's latest message.

Decide whether the message is a command about the session itself rather than an answer to the current question:
- skip: the user wants to leave the current field empty and move on.
- back: the user wants to return to the previous field.
- review: the user wants a summary of what has been captured so far.
- edit: the user wants to change a specific field. Put the field name they used in target.
- none: anything else, including answers to the question.

When in doubt, choose none. Call the '%s' tool with the result.`

type parseCommandOutput struct {
	Kind   Kind   `json:"kind" jsonschema:"required,enum=skip,enum=back,enum=review,enum=edit,enum=none,description=The command the user issued"`
	Target string `json:"target,omitempty" jsonschema:"description=Field name or id for edit"`
}

type toolParserOptions struct {
	systemPromptTemplate string
}

type ParserOption func(*toolParserOptions)

func WithCommandSystemPromptTemplate(tpl string) ParserOption {
	return func(o *toolParserOptions) {
		o.systemPromptTemplate = tpl
	}
}

// ToolBasedCommandParser lets a model map free phrasing such as "let's come
// back to this later" onto the command vocabulary.
type ToolBasedCommandParser struct {
	chain *structured.Chain[string, parseCommandOutput]
}

func NewToolBasedCommandParser(chatModel model.ToolCallingChatModel, opts ...ParserOption) (*ToolBasedCommandParser, error) {
	options := toolParserOptions{systemPromptTemplate: DefaultParseCommandSystemPromptTemplate}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	systemPrompt := fmt.Sprintf(options.systemPromptTemplate, parseCommandToolName)
	chain, err := structured.NewChain[string, parseCommandOutput](
		chatModel,
		func(_ context.Context, input string) ([]*schema.Message, error) {
			return []*schema.Message{
				schema.SystemMessage(systemPrompt),
				schema.UserMessage(input),
			}, nil
		},
		parseCommandToolName,
		parseCommandToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedCommandParser{chain: chain}, nil
}

func (p *ToolBasedCommandParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	result, err := p.chain.Invoke(ctx, input)
	if err != nil {
		return Command{Kind: None}, eris.Wrap(err, "command: parse")
	}
	switch result.Kind {
	case Skip, Back, Review:
		return Command{Kind: result.Kind}, nil
	case Edit:
		if result.Target == "" {
			return Command{Kind: None}, eris.New("command: edit without target")
		}
		return Command{Kind: Edit, Target: result.Target}, nil
	case None:
		return Command{Kind: None}, nil
	default:
		return Command{Kind: None}, eris.Errorf("command: unexpected kind %q from %s", result.Kind, parseCommandToolName)
	}
}
