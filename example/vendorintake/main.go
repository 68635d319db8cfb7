package main

import (
	"bufio"
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/tbxark/charterflow"
	"github.com/tbxark/charterflow/agent"
	"github.com/tbxark/charterflow/catalog"
	"github.com/tbxark/charterflow/config"
)

//go:embed catalog.yaml
var catalogYAML []byte

func main() {
	conversation := flag.String("conversation", "vendor-intake", "conversation id")
	flag.Parse()
	if err := startApp(context.Background(), *conversation); err != nil {
		log.Fatalf("start app: %v", err)
	}
}

func startApp(ctx context.Context, conversation string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.InitLogger(config.LogConfig{Level: "warn", Format: "console"}); err != nil {
		return err
	}
	cat, err := catalog.Parse(catalogYAML)
	if err != nil {
		return err
	}
	cm, err := charterflow.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	client, err := charterflow.NewExtractionClient(cat, cm, cfg.LLM, zap.L())
	if err != nil {
		return err
	}
	orchestrator, err := agent.NewOrchestrator(cat, client)
	if err != nil {
		return err
	}
	intake := agent.NewAgent(
		"VendorIntake",
		"Collects the details needed to onboard a new vendor",
		orchestrator,
	)
	runner := adk.NewRunner(ctx, adk.RunnerConfig{Agent: intake})

	chatCtx := agent.WithConversationID(ctx, conversation)
	reader := bufio.NewReader(os.Stdin)
	fmt.Println(`Vendor intake. Say "hi" to begin, "review" for a summary, Ctrl-D to quit.`)
	for {
		fmt.Print("you: ")
		input, rErr := reader.ReadString('\n')
		if rErr != nil {
			return nil
		}
		iter := runner.Run(chatCtx, []*schema.Message{schema.UserMessage(strings.TrimSpace(input))})
		for {
			event, ok := iter.Next()
			if !ok {
				break
			}
			if event.Err != nil {
				return event.Err
			}
			msg, mErr := event.Output.MessageOutput.GetMessage()
			if mErr != nil {
				return mErr
			}
			fmt.Printf("\nassistant: %s\n======\n", msg.Content)
		}
		state, err := orchestrator.GetState(ctx, conversation)
		if err == nil && state.Complete() {
			fmt.Printf("captured: %v\n", agent.ToDocumentDTO(state))
		}
	}
}
