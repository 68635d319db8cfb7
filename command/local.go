package command

import (
	"context"
	"strings"
)

// Recognize matches input against skip, back, review and edit <target>.
// Matching ignores case, surrounding whitespace and a leading slash. A bare
// "edit" yields an Edit with an empty Target.
func Recognize(input string) Command {
	s := strings.TrimPrefix(normalizeSpace(input), "/")
	lower := strings.ToLower(s)
	switch lower {
	case "skip":
		return Command{Kind: Skip}
	case "back":
		return Command{Kind: Back}
	case "review":
		return Command{Kind: Review}
	case "edit":
		return Command{Kind: Edit}
	}
	if rest, ok := strings.CutPrefix(lower, "edit "); ok && strings.TrimSpace(rest) != "" {
		return Command{Kind: Edit, Target: strings.TrimSpace(s[len("edit "):])}
	}
	return Command{Kind: None}
}

type LocalCommandParser struct{}

func NewLocalCommandParser() *LocalCommandParser {
	return &LocalCommandParser{}
}

func (p *LocalCommandParser) ParseCommand(_ context.Context, input string) (Command, error) {
	return Recognize(input), nil
}

// FailbackCommandParser returns the first parser result that is not an error.
type FailbackCommandParser struct {
	parsers []Parser
}

func NewFailbackCommandParser(parsers ...Parser) *FailbackCommandParser {
	return &FailbackCommandParser{parsers: parsers}
}

func (p *FailbackCommandParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	var lastErr error
	for _, parser := range p.parsers {
		cmd, err := parser.ParseCommand(ctx, input)
		if err == nil {
			return cmd, nil
		}
		lastErr = err
	}
	return Command{Kind: None}, lastErr
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
