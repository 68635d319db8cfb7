package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tbxark/charterflow"
	"github.com/tbxark/charterflow/agent"
)

var chatConversation string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Fill in a charter interactively on the terminal",
	Long:  `Type answers at the prompt. "skip", "back", "review" and "edit <field>" work as in the API; "/document" prints the confirmed fields, "/reset" starts over and "/quit" exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		orchestrator, err := charterflow.New(ctx, cfg, zap.L())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		res, err := orchestrator.StartSession(ctx, agent.StartOptions{ConversationID: chatConversation})
		if err != nil {
			return err
		}
		id := res.ConversationID
		printTurn(out, res)

		reader := bufio.NewReader(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			line, rErr := reader.ReadString('\n')
			if rErr != nil && line == "" {
				if rErr == io.EOF {
					return nil
				}
				return rErr
			}
			input := strings.TrimSpace(line)
			switch input {
			case "/quit", "/exit":
				return nil
			case "/document":
				state, err := orchestrator.GetState(ctx, id)
				if err != nil {
					return err
				}
				doc, err := sonic.ConfigStd.MarshalIndent(agent.ToDocumentDTO(state), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(doc))
				continue
			case "/reset":
				res, err = orchestrator.ResetSession(ctx, id)
			default:
				res, err = orchestrator.HandleUserMessage(ctx, agent.UserMessage{ConversationID: id, Text: input})
			}
			if err != nil {
				return err
			}
			printTurn(out, res)
		}
	},
}

func printTurn(out io.Writer, res *agent.TurnResult) {
	if text := agent.Transcript(res); text != "" {
		fmt.Fprintf(out, "\n%s\n\n", text)
	}
}

func init() {
	chatCmd.Flags().StringVar(&chatConversation, "conversation", "", "conversation id (default: random)")
	rootCmd.AddCommand(chatCmd)
}
