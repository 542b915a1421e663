package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/amelia751/cloudly/internal/auth"
)

func run(cmd *cobra.Command, method, path string, body any) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()
	raw, err := newAPIClient(serviceURL, token).call(ctx, method, path, body)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), raw)
}

func recipientPath(id string, rest string) string {
	return "/recipients/" + url.PathEscape(id) + rest
}

func newRecipientsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "recipients", Short: "Manage recipients"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your recipients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, http.MethodGet, "/recipients", nil)
		},
	})

	var name, email, relationship, birthday string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a recipient",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"recipientName": name}
			if email != "" {
				body["recipientEmail"] = email
			}
			if relationship != "" {
				body["recipientRelationship"] = relationship
			}
			if birthday != "" {
				body["recipientBirthday"] = birthday
			}
			return run(cmd, http.MethodPost, "/recipients", body)
		},
	}
	create.Flags().StringVar(&name, "name", "", "Recipient name (required)")
	create.Flags().StringVar(&email, "email", "", "Recipient email")
	create.Flags().StringVar(&relationship, "relationship", "", "Relationship to the sender")
	create.Flags().StringVar(&birthday, "birthday", "", "Birthday (YYYY-MM-DD)")
	_ = create.MarkFlagRequired("name")
	cmd.AddCommand(create)

	return cmd
}

func newMessagesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "messages", Short: "Manage a recipient's messages"}

	var recipient, message, msgContext, note string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, http.MethodPost, recipientPath(recipient, "/messages"), map[string]any{
				"message": message, "context": msgContext, "note": note,
			})
		},
	}
	add.Flags().StringVar(&recipient, "recipient", "", "Recipient ID (required)")
	add.Flags().StringVar(&message, "message", "", "Message text (required)")
	add.Flags().StringVar(&msgContext, "context", "", "When the message applies")
	add.Flags().StringVar(&note, "note", "", "Private note")
	_ = add.MarkFlagRequired("recipient")
	_ = add.MarkFlagRequired("message")
	cmd.AddCommand(add)

	var listRecipient string
	list := &cobra.Command{
		Use:   "list",
		Short: "List messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, http.MethodGet, recipientPath(listRecipient, "/messages"), nil)
		},
	}
	list.Flags().StringVar(&listRecipient, "recipient", "", "Recipient ID (required)")
	_ = list.MarkFlagRequired("recipient")
	cmd.AddCommand(list)

	return cmd
}

func newAssistantCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "assistant", Short: "Manage a recipient's assistant"}

	var recipient, name, voiceID, content, firstMessage, assistantID string
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Create or update the recipient's assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"assistantName": name,
				"voiceId":       voiceID,
				"content":       content,
				"firstMessage":  firstMessage,
			}
			if assistantID != "" {
				body["assistantId"] = assistantID
			}
			return run(cmd, http.MethodPut, recipientPath(recipient, "/assistant"), body)
		},
	}
	sync.Flags().StringVar(&recipient, "recipient", "", "Recipient ID (required)")
	sync.Flags().StringVar(&name, "name", "", "Assistant name (required)")
	sync.Flags().StringVar(&voiceID, "voice-id", "", "Cloned voice ID (required)")
	sync.Flags().StringVar(&content, "content", "", "Extra instructions")
	sync.Flags().StringVar(&firstMessage, "first-message", "", "Greeting")
	sync.Flags().StringVar(&assistantID, "assistant-id", "", "Force an update of this provider assistant")
	_ = sync.MarkFlagRequired("recipient")
	cmd.AddCommand(sync)

	for _, sub := range []struct {
		use, short, method, suffix string
	}{
		{"show", "Show the stored assistant", http.MethodGet, "/assistant"},
		{"publish", "Share the assistant with the recipient", http.MethodPost, "/assistant/publish"},
		{"refresh", "Recompose the prompt from current messages and events", http.MethodPost, "/assistant/refresh"},
	} {
		sub := sub
		var id string
		c := &cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, sub.method, recipientPath(id, sub.suffix), nil)
			},
		}
		c.Flags().StringVar(&id, "recipient", "", "Recipient ID (required)")
		_ = c.MarkFlagRequired("recipient")
		cmd.AddCommand(c)
	}

	return cmd
}

func newVoiceCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "voice", Short: "Inspect your cloned voice"}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show your registered voice",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, http.MethodGet, "/voice", nil)
		},
	})
	return cmd
}

func newTokenCmd() *cobra.Command {
	var secret, userID, email, name string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with the service JWT secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or CLOUDLY_JWT_SECRET required")
			}
			tok, err := auth.Sign(secret, auth.Identity{UserID: userID, Email: email, Name: name}, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", getEnv("CLOUDLY_JWT_SECRET", ""), "JWT signing secret")
	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	cmd.Flags().StringVar(&email, "email", "", "User email")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
