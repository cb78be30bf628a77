package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tcnksm/go-input"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/scoutgpt/pkg/events"
	"github.com/go-go-golems/scoutgpt/pkg/football"
	"github.com/go-go-golems/scoutgpt/pkg/orchestrator"
	"github.com/go-go-golems/scoutgpt/pkg/turns/serde"
)

// terminateLiteral ends the chat session when either side says it.
const terminateLiteral = "TERMINATE CONVERSATION"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the football analysis assistant",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		loadSession, _ := cmd.Flags().GetString("load-session")
		saveSession, _ := cmd.Flags().GetString("save-session")

		orch, err := buildOrchestrator()
		if err != nil {
			return err
		}

		if loadSession != "" {
			t, err := serde.LoadTurnYAML(loadSession)
			if err != nil {
				return err
			}
			if err := orch.Store().Update(sessionID, t); err != nil {
				return err
			}
			log.Info().Str("path", loadSession).Int("num_blocks", len(t.Blocks)).Msg("loaded session")
		}

		var logger watermill.LoggerAdapter = watermill.NopLogger{}
		if viper.GetBool("verbose") {
			logger = events.NewWatermillLogger(log.Logger)
		}
		pubSub := gochannel.NewGoChannel(gochannel.Config{
			// Guarantee that messages are delivered in the order of publishing.
			BlockPublishUntilSubscriberAck: true,
		}, logger)
		defer func(pubSub *gochannel.GoChannel) {
			err := pubSub.Close()
			if err != nil {
				log.Error().Err(err).Msg("Failed to close pubSub")
			}
		}(pubSub)

		router, err := message.NewRouter(message.RouterConfig{}, logger)
		if err != nil {
			return err
		}
		router.AddNoPublisherHandler("chat", "chat", pubSub, printChatEvent)

		manager := events.NewPublisherManager()
		manager.SubscribePublisher("chat", pubSub)

		ctx, cancel := context.WithCancel(cmd.Context())
		ctx = events.WithEventSinks(ctx, manager)

		eg := errgroup.Group{}
		eg.Go(func() error {
			return router.Run(ctx)
		})
		eg.Go(func() error {
			defer cancel()
			defer func() {
				if saveSession == "" {
					return
				}
				t, err := orch.Store().Get(sessionID)
				if err != nil {
					log.Error().Err(err).Msg("Failed to load session for saving")
					return
				}
				if err := serde.SaveTurnYAML(saveSession, t); err != nil {
					log.Error().Err(err).Msg("Failed to save session")
				}
			}()
			return chatLoop(ctx, orch, sessionID)
		})

		return eg.Wait()
	},
}

func buildOrchestrator() (*orchestrator.Orchestrator, error) {
	apiKey := viper.GetString("openai-api-key")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return football.BuildOrchestrator(football.Config{
		APIKey:          apiKey,
		BaseURL:         viper.GetString("openai-base-url"),
		QueryURL:        viper.GetString("query-url"),
		ScanURL:         viper.GetString("scan-url"),
		StatsAPIBaseURL: viper.GetString("stats-api-base-url"),
		TrimThreshold:   viper.GetInt("token-threshold"),
	})
}

func chatLoop(ctx context.Context, orch *orchestrator.Orchestrator, sessionID string) error {
	isOutputTerminal := isatty.IsTerminal(os.Stdout.Fd())
	if isOutputTerminal {
		fmt.Println("Ask about players, games, or anything football. Type TERMINATE CONVERSATION to quit.")
	}

	ui := &input.UI{
		Writer: os.Stdout,
		Reader: os.Stdin,
	}

	awaitingConfirmation := false
	for {
		query := "\nYou"
		if awaitingConfirmation {
			query = "\nPress enter to discard the proposal, or paste a JSON object to adjust it"
		}
		line, err := ui.Ask(query, &input.Options{
			Required:  false,
			HideOrder: true,
		})
		if err != nil {
			return err
		}

		if strings.TrimSpace(line) == terminateLiteral {
			return nil
		}
		if strings.TrimSpace(line) == "" && !awaitingConfirmation {
			continue
		}

		reply, err := orch.ProcessMessage(ctx, sessionID, line)
		if err != nil {
			fmt.Printf("\nerror: %s\n", err)
			continue
		}

		awaitingConfirmation = reply.AwaitingConfirmation
		text := reply.Text
		if strings.Contains(text, terminateLiteral) {
			text = strings.TrimSpace(strings.ReplaceAll(text, terminateLiteral, ""))
			if text != "" {
				fmt.Printf("\n%s\n", text)
			}
			return nil
		}
		fmt.Printf("\n%s\n", text)
	}
}

// printChatEvent surfaces tool activity while the assistant is thinking;
// final answers are printed by the chat loop itself.
func printChatEvent(msg *message.Message) error {
	defer msg.Ack()

	var e struct {
		Type     events.EventType `json:"type"`
		ToolCall struct {
			Name  string `json:"name"`
			Input string `json:"input"`
		} `json:"tool_call"`
		AgentName string `json:"agent_name"`
	}
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		log.Warn().Err(err).Msg("Failed to parse chat event")
		return nil
	}

	switch e.Type {
	case events.EventTypeRouted:
		log.Debug().Str("agent", e.AgentName).Msg("routed")
	case events.EventTypeToolCallExecute:
		fmt.Printf("\n[running %s %s]\n", e.ToolCall.Name, e.ToolCall.Input)
	case events.EventTypeToolCallExecutionResult:
		log.Debug().Msg("tool call finished")
	}

	return nil
}

func init() {
	chatCmd.Flags().String("session", "cli", "Session identifier")
	chatCmd.Flags().String("load-session", "", "Load a saved session (YAML) before chatting")
	chatCmd.Flags().String("save-session", "", "Save the session (YAML) on exit")
}
