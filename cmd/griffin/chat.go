package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/xxxsen/griffin/internal/client"
	"github.com/xxxsen/griffin/internal/model"
)

func newChatCmd() *cobra.Command {
	var (
		noteID   string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "chat <conversation-id|new> <message>",
		Short: "send a message and wait for the reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			store, err := openState()
			if err != nil {
				return err
			}
			api, err := newAPIClient(store, client.WithPollInterval(interval))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			convID := args[0]
			if convID == "new" {
				conv, err := api.CreateConversation(ctx, "", noteID)
				if err != nil {
					return err
				}
				convID = conv.ID
				cmd.PrintErrf("conversation %s\n", convID)
			}
			sent, err := api.SendMessage(ctx, convID, args[1])
			if err != nil {
				return err
			}
			_, err = api.PollConversation(ctx, convID, sent.UserItem.Seq, func(items []model.ConversationItem) {
				for _, item := range items {
					printItem(out, item)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&noteID, "note", "", "bind a new conversation to this note")
	cmd.Flags().DurationVar(&interval, "interval", client.DefaultPollInterval, "poll interval")
	return cmd
}
