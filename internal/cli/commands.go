package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rileyhilliard/commandcenter/internal/errors"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	monitorIntervalFlag string
	watchRecordFlag     string
	replayPaceFlag      string
	replayTUIFlag       bool
)

// monitorCmd starts the TUI dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard for every configured gateway",
	Long: `Connect to every gateway in the config and show an interactive
dashboard of sessions, CPU, heap and service states.

When a gateway asks for a login, the form is shown inside the dashboard.
Logins are asked one at a time, and the first accepted credentials are
tried on the other gateways before asking again.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  r           Force refresh
  up/k        Select previous gateway
  down/j      Select next gateway
  Enter       Show every store of the gateway
  Esc         Go back / cancel the login form
  ?           Show help

Examples:
  commandcenter monitor
  commandcenter monitor --interval 500ms`,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := parseInterval(monitorIntervalFlag, 100*time.Millisecond)
		if err != nil {
			return err
		}
		return monitorCommand(interval)
	},
}

// watchCmd prints updates without a dashboard
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print gateway updates as lines of text",
	Long: `Connect to every gateway in the config and print one line for every
summary record received, until interrupted.

On a terminal, logins use an interactive form. Otherwise the login section
of the config (username and password_env) answers them.

Examples:
  commandcenter watch
  commandcenter watch --record feed.yaml
  CC_LOGIN_MODE=static CC_PASSWORD=secret commandcenter watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand(watchRecordFlag)
	},
}

// replayCmd plays a recorded feed
var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Play a recorded feed file",
	Long: `Play a YAML feed file, as written by 'watch --record', into a fresh
cluster. Updates are printed, or shown in the dashboard with --tui.

Examples:
  commandcenter replay feed.yaml
  commandcenter replay feed.yaml --pace 200ms --tui`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pace, err := parseInterval(replayPaceFlag, 0)
		if err != nil {
			return err
		}
		return replayCommand(args[0], pace, replayTUIFlag)
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for commandcenter.

Examples:
  # Bash
  commandcenter completion bash > /etc/bash_completion.d/commandcenter

  # Zsh
  commandcenter completion zsh > "${fpath[1]}/_commandcenter"

  # Fish
  commandcenter completion fish > ~/.config/fish/completions/commandcenter.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return errors.New(errors.ErrConfig,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

// parseInterval parses a duration flag. An empty flag returns zero so the
// config value applies.
func parseInterval(flag string, minimum time.Duration) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid duration", flag),
			"Try something like 500ms, 2s or 1m.")
	}
	if d < minimum {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("%s is too short", d),
			fmt.Sprintf("The minimum is %s", minimum))
	}
	return d, nil
}

func init() {
	monitorCmd.Flags().StringVar(&monitorIntervalFlag, "interval", "", "refresh interval (default from config, e.g. 1s)")
	watchCmd.Flags().StringVar(&watchRecordFlag, "record", "", "also write every message to this replay file")
	replayCmd.Flags().StringVar(&replayPaceFlag, "pace", "", "delay between messages (e.g. 100ms)")
	replayCmd.Flags().BoolVar(&replayTUIFlag, "tui", false, "show the replay in the dashboard")

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(completionCmd)
}
