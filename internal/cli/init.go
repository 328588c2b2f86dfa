package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/stampedhq/onboard/internal/core"
)

var (
	initDriver  string
	initAddr    string
	initSlack   string
	initAPIKeys string
)

var configTemplate = template.Must(template.New("config").Parse(`# Onboard workspace configuration.
storage:
  driver: {{.Driver}}   # file, sqlite or memory
  path: data

latency:
  enabled: true
  default_ms: 500
  read_ms: 500
  upload_ms: 1000
  message_ms: 300
  quick_ms: 100

events:
  history_size: 100

log:
  level: info

screening:
  base_url: https://api.deepseek.com/v1
  model: deepseek-chat
  api_key_env: {{.APIKeyEnv}}
  temperature: 0.3
  max_tokens: 2000
  requests_per_minute: 20

notifications:
  enabled: {{if .Slack}}true{{else}}false{{end}}
  slack:
    webhook_url: "{{.Slack}}"

alerts:
  review_days: 5
  risk_review_grace_days: 0

server:
  addr: "{{.Addr}}"
`))

type configTemplateData struct {
	Driver    string
	APIKeyEnv string
	Slack     string
	Addr      string
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize an onboard workspace",
	Long: `Create a .onboardconfig and the data directory in the given directory
(default: the current one). Existing files are left untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		basePath := "."
		if len(args) > 0 {
			basePath = args[0]
		}
		absPath, err := filepath.Abs(basePath)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		created, skipped, err := initWorkspace(absPath, configTemplateData{
			Driver:    initDriver,
			APIKeyEnv: initAPIKeys,
			Slack:     initSlack,
			Addr:      initAddr,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(created) > 0 {
			fmt.Fprintln(out, "Created:")
			for _, p := range created {
				rel, _ := filepath.Rel(absPath, p)
				fmt.Fprintf(out, "  %s\n", rel)
			}
		}
		if len(skipped) > 0 {
			fmt.Fprintln(out, "Skipped (already exist):")
			for _, p := range skipped {
				rel, _ := filepath.Rel(absPath, p)
				fmt.Fprintf(out, "  %s\n", rel)
			}
		}
		fmt.Fprintf(out, "\nWorkspace initialized at %s\n", absPath)
		return nil
	},
}

// initWorkspace writes the config file and data directory under base,
// skipping whatever already exists.
func initWorkspace(base string, data configTemplateData) (created, skipped []string, err error) {
	if data.Driver == "" {
		data.Driver = "file"
	}
	// Validate the chosen driver before writing anything.
	cfg := core.DefaultGlobalConfig()
	cfg.Storage.Driver = data.Driver
	cfg.Notifications.Enabled = data.Slack != ""
	cfg.Notifications.Slack.WebhookURL = data.Slack
	if err := core.NewConfigurationManager(base).ValidateConfig(cfg); err != nil {
		return nil, nil, err
	}
	if data.APIKeyEnv == "" {
		data.APIKeyEnv = cfg.Screening.APIKeyEnv
	}
	if data.Addr == "" {
		data.Addr = cfg.ServerAddr
	}

	dataDir := filepath.Join(base, cfg.Storage.Path)
	if _, statErr := os.Stat(dataDir); statErr == nil {
		skipped = append(skipped, dataDir)
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating %s: %w", dataDir, err)
		}
		created = append(created, dataDir)
	}

	configPath := filepath.Join(base, core.ConfigFileName)
	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return created, append(skipped, configPath), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", configPath, err)
	}
	defer f.Close()
	if err := configTemplate.Execute(f, data); err != nil {
		return nil, nil, fmt.Errorf("writing %s: %w", configPath, err)
	}
	return append(created, configPath), skipped, nil
}

func init() {
	initCmd.Flags().StringVar(&initDriver, "driver", "file", "Storage driver (file, sqlite, memory)")
	initCmd.Flags().StringVar(&initAddr, "addr", "", "HTTP listen address")
	initCmd.Flags().StringVar(&initSlack, "slack-webhook", "", "Slack webhook URL; enables notifications")
	initCmd.Flags().StringVar(&initAPIKeys, "api-key-env", "", "Environment variable holding the screening API key")
	rootCmd.AddCommand(initCmd)
}
