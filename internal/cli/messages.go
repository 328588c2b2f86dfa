package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stampedhq/onboard/pkg/models"
)

var (
	messagesJSON bool

	msgUser       string
	msgSender     string
	msgSenderName string
	msgSenderType string
	msgUnreadOnly bool
)

var messagesCmd = &cobra.Command{
	Use:     "messages",
	Aliases: []string{"msg"},
	Short:   "Read and send client conversation messages",
}

var messagesConversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "List conversations, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		convs, err := Repo.GetConversations(cmd.Context(), msgUser)
		if err != nil {
			return fmt.Errorf("listing conversations: %w", err)
		}
		out := cmd.OutOrStdout()
		if messagesJSON {
			return printJSON(out, convs)
		}
		if len(convs) == 0 {
			fmt.Fprintln(out, "No conversations found.")
			return nil
		}
		fmt.Fprintf(out, "%-12s %-32s %-8s %-12s %-6s %s\n", "ID", "SUBJECT", "ENTITY", "ENTITY ID", "UNREAD", "LAST MESSAGE")
		for _, c := range convs {
			fmt.Fprintf(out, "%-12s %-32s %-8s %-12s %-6d %s\n",
				truncate(c.ID, 12), truncate(c.Subject, 32), c.EntityType, truncate(c.EntityID, 12),
				c.UnreadCount, c.LastMessageAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var messagesListCmd = &cobra.Command{
	Use:               "list <conversation-id>",
	Short:             "Show the messages of a conversation",
	ValidArgsFunction: completeConversationIDs,
	Args:              cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		msgs, err := Repo.GetMessagesByConversationID(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("listing messages: %w", err)
		}
		out := cmd.OutOrStdout()
		if messagesJSON {
			return printJSON(out, msgs)
		}
		if len(msgs) == 0 {
			fmt.Fprintln(out, "No messages.")
			return nil
		}
		for _, m := range msgs {
			marker := " "
			if !m.Read {
				marker = "*"
			}
			fmt.Fprintf(out, "%s [%s] %s (%s): %s\n",
				marker, m.Timestamp.Format("2006-01-02 15:04"), m.SenderName, m.SenderType, m.Content)
		}
		return nil
	},
}

var messagesSendCmd = &cobra.Command{
	Use:               "send <conversation-id> <content>",
	Short:             "Send a message to a conversation",
	ValidArgsFunction: completeConversationIDs,
	Long: `Append a message to a conversation. Messages from a client or vendor
notify the entity's compliance officer.

  onb messages send conv-1 "Please re-upload the W-9" --sender emp-2 --sender-name "Sarah Chen"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		msg, err := Repo.SendMessage(cmd.Context(), models.MessageInput{
			ConversationID: args[0],
			SenderID:       msgSender,
			SenderName:     msgSenderName,
			SenderType:     models.SenderType(msgSenderType),
			Content:        args[1],
		})
		if err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
		if messagesJSON {
			return printJSON(cmd.OutOrStdout(), msg)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to %s\n", msg.ID, msg.ConversationID)
		return nil
	},
}

var messagesReadCmd = &cobra.Command{
	Use:               "read <conversation-id>",
	Short:             "Mark every message of a conversation as read",
	ValidArgsFunction: completeConversationIDs,
	Args:              cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		if err := Repo.MarkConversationAsRead(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("marking %s read: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as read\n", args[0])
		return nil
	},
}

var messagesUnreadCmd = &cobra.Command{
	Use:   "unread <user-id>",
	Short: "Count unread messages in a user's conversations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		n, err := Repo.GetUnreadMessageCount(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("counting unread messages: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications <recipient-id>",
	Short: "Show a staff member's notification inbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Inbox == nil {
			return fmt.Errorf("notification inbox not initialized")
		}
		all := Inbox.List(args[0])
		list := make([]models.Notification, 0, len(all))
		for _, n := range all {
			if msgUnreadOnly && n.Read {
				continue
			}
			list = append(list, n)
		}

		out := cmd.OutOrStdout()
		if messagesJSON {
			return printJSON(out, list)
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "No notifications.")
			return nil
		}
		for _, n := range list {
			marker := " "
			if !n.Read {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-10s [%-7s] %s: %s\n", marker, truncate(n.ID, 10), n.Type, n.Title, n.Message)
		}
		fmt.Fprintf(out, "\n%d unread\n", Inbox.UnreadCount(args[0]))
		return nil
	},
}

func init() {
	messagesCmd.PersistentFlags().BoolVar(&messagesJSON, "json", false, "Output as JSON")

	messagesConversationsCmd.Flags().StringVar(&msgUser, "user", "", "Only conversations this user takes part in")

	messagesSendCmd.Flags().StringVar(&msgSender, "sender", "", "Sender id (required)")
	messagesSendCmd.Flags().StringVar(&msgSenderName, "sender-name", "", "Sender display name")
	messagesSendCmd.Flags().StringVar(&msgSenderType, "sender-type", string(models.SenderEmployee), "Sender type (employee, client, vendor)")

	notificationsCmd.Flags().BoolVar(&msgUnreadOnly, "unread", false, "Only unread notifications")
	notificationsCmd.Flags().BoolVar(&messagesJSON, "json", false, "Output as JSON")

	messagesCmd.AddCommand(messagesConversationsCmd, messagesListCmd, messagesSendCmd, messagesReadCmd, messagesUnreadCmd)
	rootCmd.AddCommand(messagesCmd, notificationsCmd)
}
