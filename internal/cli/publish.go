package cli

import (
	"encoding/json"
	"fmt"

	"homebroker/pkg/notifyclient"

	"github.com/spf13/cobra"
)

// PublishOptions holds flags for the publish command.
type PublishOptions struct {
	*RootOptions
	UserID  string
	Type    string
	Message string
	Data    map[string]string
	Secret  string
}

// NewPublishCommand creates the publish command.
func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PublishOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a notification to a user",
		Long: `Publish a notification through the internal endpoint.

Example:
  notifyctl publish --user 7f3c... --type appointment \
    --message "Viewing confirmed for Saturday" --data listing_id=42`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "target user id")
	cmd.Flags().StringVar(&opts.Type, "type", "", "notification type (default system)")
	cmd.Flags().StringVar(&opts.Message, "message", "", "notification text")
	cmd.Flags().StringToStringVar(&opts.Data, "data", nil, "extra data fields as key=value")
	cmd.Flags().StringVar(&opts.Secret, "secret", "", "publish secret (overrides notifications.publish_secret)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func runPublish(cmd *cobra.Command, opts *PublishOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	secret := opts.Secret
	if secret == "" {
		secret = cfg.Notifications.PublishSecret
	}
	if secret == "" {
		return fmt.Errorf("no publish secret: set notifications.publish_secret or pass --secret")
	}

	data := make(map[string]any, len(opts.Data)+1)
	for k, v := range opts.Data {
		data[k] = v
	}
	data["message"] = opts.Message

	pub := notifyclient.NewPublisher(cfg.Notifications.BaseURL, secret)
	n, err := pub.Publish(cmd.Context(), opts.UserID, opts.Type, data)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	out, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
