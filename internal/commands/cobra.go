package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"dingtalk/internal/config"
	"dingtalk/internal/output"
)

// GlobalFlags select the robot and shared transport settings.
type GlobalFlags struct {
	Robot           string
	Token           string
	ConfigFile      string
	URL             string
	MetricsTextfile string
	Timeout         time.Duration
}

// Global holds the values of the persistent root flags.
var Global GlobalFlags

// AddGlobalFlags registers the persistent robot selection flags on root.
func AddGlobalFlags(root *cobra.Command) {
	pf := root.PersistentFlags()
	pf.StringVarP(&Global.Robot, "robot", "r", "", "Robot profile name")
	pf.StringVar(&Global.Token, "token", "", "Credential string, e.g. dingtalk:TOKEN?SECRET or wechatwork:KEY")
	pf.StringVar(&Global.ConfigFile, "config-file", "", "Robot credential file (JSON or YAML)")
	pf.StringVar(&Global.URL, "url", "", "Complete webhook URL, used as is")
	pf.StringVar(&Global.MetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after sending")
	pf.DurationVar(&Global.Timeout, "timeout", 10*time.Second, "HTTP timeout for webhook requests")

	_ = root.RegisterFlagCompletionFunc("robot", completeRobotNames)
}

// runOrExit reports err and exits non-zero when it is set.
func runOrExit(err error) {
	if err != nil {
		output.PrintError(err)
	}
}

// SendCmd is the parent command for sending messages.
var SendCmd = &cobra.Command{
	Use:     "send",
	Aliases: []string{"s"},
	Short:   "Send a message through a robot",
	Long:    "Send text, markdown, link, action card or feed card messages to a DingTalk or WeChat Work group robot",
}

var sendTextCmd = &cobra.Command{
	Use:   "text [content]",
	Short: "Send a text message",
	Long:  "Send a plain text message. Without an argument the content is read from stdin.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunSendText(cmd.Context(), firstArg(args)))
	},
}

var sendMarkdownCmd = &cobra.Command{
	Use:   "markdown <title> [text]",
	Short: "Send a markdown message",
	Long:  "Send a markdown message. Without a text argument the body is read from stdin.",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunSendMarkdown(cmd.Context(), args[0], secondArg(args)))
	},
}

var sendLinkCmd = &cobra.Command{
	Use:   "link <title> <text> <message-url>",
	Short: "Send a link message",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		pic, _ := cmd.Flags().GetString("pic")
		runOrExit(RunSendLink(cmd.Context(), args[0], args[1], pic, args[2]))
	},
}

var sendActionCardCmd = &cobra.Command{
	Use:     "actioncard <title> [text]",
	Aliases: []string{"card"},
	Short:   "Send an action card",
	Long: `Send an action card with buttons. Buttons are given as "Title=URL".
A --single button replaces any --button list.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		opts := actionCardOptions{}
		opts.Single, _ = cmd.Flags().GetString("single")
		opts.Buttons, _ = cmd.Flags().GetStringArray("button")
		opts.HideAvatar, _ = cmd.Flags().GetBool("hide-avatar")
		opts.Landscape, _ = cmd.Flags().GetBool("landscape")
		runOrExit(RunSendActionCard(cmd.Context(), args[0], secondArg(args), opts))
	},
}

var sendFeedCardCmd = &cobra.Command{
	Use:   "feedcard",
	Short: "Send a feed card",
	Long:  `Send a feed card. Each --link is "Title|MessageURL|PicURL"; the picture is optional.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		links, _ := cmd.Flags().GetStringArray("link")
		runOrExit(RunSendFeedCard(cmd.Context(), links))
	},
}

var sendRawCmd = &cobra.Command{
	Use:   "raw [file]",
	Short: "Send a prebuilt JSON payload",
	Long:  "Post a JSON document as is. Without a file argument the document is read from stdin.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunSendRaw(cmd.Context(), firstArg(args)))
	},
}

// RobotCmd is the parent command for robot profiles.
var RobotCmd = &cobra.Command{
	Use:     "robot",
	Aliases: []string{"rb"},
	Short:   "Manage robot profiles",
	Long:    "Add, remove, list, test, or select the default robot profile",
}

var robotAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a robot profile",
	Long: `Add a robot profile. Pass either --from-token with a credential string, or
--access-token with the optional --type, --secret, --webhook-url and --direct-url.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := robotAddOptions{}
		opts.Token, _ = cmd.Flags().GetString("from-token")
		opts.Type, _ = cmd.Flags().GetString("type")
		opts.AccessToken, _ = cmd.Flags().GetString("access-token")
		opts.Secret, _ = cmd.Flags().GetString("secret")
		opts.WebhookURL, _ = cmd.Flags().GetString("webhook-url")
		opts.DirectURL, _ = cmd.Flags().GetString("direct-url")
		runOrExit(RunRobotAdd(args[0], opts))
	},
}

var robotRemoveCmd = &cobra.Command{
	Use:               "remove <name>",
	Aliases:           []string{"rm"},
	Short:             "Remove a robot profile",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRobotNames,
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunRobotRemove(args[0]))
	},
}

var robotListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List robot profiles",
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunRobotList())
	},
}

var robotDefaultCmd = &cobra.Command{
	Use:               "default <name>",
	Short:             "Set the default robot",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRobotNames,
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunRobotDefault(args[0]))
	},
}

var robotTestCmd = &cobra.Command{
	Use:               "test [name]",
	Short:             "Send a test message",
	Long:              "Send a short text message to verify a robot profile, or the selected robot when no name is given",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeRobotNames,
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunRobotTest(cmd.Context(), firstArg(args)))
	},
}

var robotExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print robot profiles as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		reveal, _ := cmd.Flags().GetBool("reveal")
		runOrExit(RunRobotExport(reveal))
	},
}

// SignCmd prints the signed webhook URL.
var SignCmd = &cobra.Command{
	Use:   "sign",
	Short: "Print the signed webhook URL",
	Long:  "Print the request URL for the selected robot, including timestamp and signature when a secret is set",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunSign())
	},
}

// ComposeCmd opens the interactive compose form.
var ComposeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose and send messages interactively",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunCompose(cmd.Context()))
	},
}

// NotifyCmd broadcasts a notification to several robots.
var NotifyCmd = &cobra.Command{
	Use:     "notify <message>",
	Aliases: []string{"n"},
	Short:   "Broadcast a notification to several robots",
	Long:    "Send one notification to the listed robots, or to every configured robot when --robots is not given",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := notifyOptions{}
		opts.Title, _ = cmd.Flags().GetString("title")
		opts.Robots, _ = cmd.Flags().GetStringSlice("robots")
		opts.Template, _ = cmd.Flags().GetString("template")
		opts.AtAll, _ = cmd.Flags().GetBool("at-all")
		opts.Mobiles, _ = cmd.Flags().GetStringSlice("at")
		runOrExit(RunNotify(cmd.Context(), args[0], opts))
	},
}

// ScheduleCmd manages scheduled notifications.
var ScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage scheduled notifications",
	Long: `Manage notifications sent at a fixed time or on a cron expression.

Schedules fire while "dingtalk serve" or "dingtalk schedule run" is running.`,
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add [robot]",
	Short: "Add a scheduled notification (default robot when omitted)",
	Args:  cobra.MaximumNArgs(1),
	Example: `  dingtalk schedule add ops --cron "0 9 * * 1-5" -t Standup -m "Standup in 10 minutes"
  dingtalk schedule add --in 30m -m "Deploy window closes"`,
	ValidArgsFunction: completeRobotNames,
	Run: func(cmd *cobra.Command, args []string) {
		var opts scheduleAddOptions
		opts.Message, _ = cmd.Flags().GetString("message")
		opts.Title, _ = cmd.Flags().GetString("title")
		opts.Cron, _ = cmd.Flags().GetString("cron")
		opts.At, _ = cmd.Flags().GetString("at")
		opts.In, _ = cmd.Flags().GetDuration("in")
		opts.AtAll, _ = cmd.Flags().GetBool("at-all")
		opts.Mobiles, _ = cmd.Flags().GetStringSlice("at-mobile")
		runOrExit(RunScheduleAdd(firstArg(args), opts))
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled notifications",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunScheduleList())
	},
}

var scheduleRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a scheduled notification",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunScheduleRemove(args[0]))
	},
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler in the foreground",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunScheduleRun(cmd.Context()))
	},
}

// ServeCmd runs the HTTP relay.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an authenticated HTTP relay in front of the configured robots",
	Long: `Run an HTTP relay so other services can send through the configured
robots without holding their credentials.

Routes: POST /send[/ROBOT], POST /raw/ROBOT, GET /robots, GET /events
(websocket), GET /metrics, /mcp (MCP over HTTP) and GET /health.
All routes except /health need "Authorization: Bearer TOKEN".
Stored schedules fire while the relay runs.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		tokens, _ := cmd.Flags().GetStringArray("auth-token")
		runOrExit(RunServe(cmd.Context(), serveOptions{Addr: addr, Tokens: tokens}))
	},
}

// MCPCmd serves the robot tools over MCP stdio.
var MCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as an MCP server over stdio",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runOrExit(RunMCP(cmd.Context()))
	},
}

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show dingtalk version",
	Run: func(cmd *cobra.Command, args []string) {
		RunVersion()
	},
}

// CompletionCmd generates shell completion scripts
var CompletionCmd = &cobra.Command{
	Use:    "completion [bash|zsh|fish|powershell]",
	Short:  "Generate shell completion script",
	Hidden: true,
	Long: `Generate shell completion script for the specified shell.

Usage examples:
  # Bash
  source <(dingtalk completion bash)

  # Zsh
  source <(dingtalk completion zsh)

  # Fish
  dingtalk completion fish | source`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(os.Stdout, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		default:
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
	},
}

func init() {
	SendCmd.PersistentFlags().BoolVar(&mentions.AtAll, "at-all", false, "Mention everyone")
	SendCmd.PersistentFlags().StringSliceVar(&mentions.Mobiles, "at", nil, "Mobile numbers to mention")

	sendLinkCmd.Flags().String("pic", "", "Picture URL")
	sendActionCardCmd.Flags().String("single", "", `Single button as "Title=URL"`)
	sendActionCardCmd.Flags().StringArray("button", nil, `Button as "Title=URL" (repeatable)`)
	sendActionCardCmd.Flags().Bool("hide-avatar", false, "Hide the sender avatar")
	sendActionCardCmd.Flags().Bool("landscape", false, "Lay buttons out horizontally")
	sendFeedCardCmd.Flags().StringArray("link", nil, `Feed entry as "Title|MessageURL|PicURL" (repeatable)`)
	_ = sendFeedCardCmd.MarkFlagRequired("link")

	SendCmd.AddCommand(sendTextCmd)
	SendCmd.AddCommand(sendMarkdownCmd)
	SendCmd.AddCommand(sendLinkCmd)
	SendCmd.AddCommand(sendActionCardCmd)
	SendCmd.AddCommand(sendFeedCardCmd)
	SendCmd.AddCommand(sendRawCmd)

	robotAddCmd.Flags().String("from-token", "", "Credential string, e.g. dingtalk:TOKEN?SECRET")
	robotAddCmd.Flags().String("type", "dingtalk", "Provider: dingtalk or wechatwork")
	robotAddCmd.Flags().String("access-token", "", "Access token (DingTalk) or key (WeChat Work)")
	robotAddCmd.Flags().String("secret", "", "Signing secret")
	robotAddCmd.Flags().String("webhook-url", "", "Base webhook URL, provider default when empty")
	robotAddCmd.Flags().String("direct-url", "", "Complete URL used as is")
	robotExportCmd.Flags().Bool("reveal", false, "Print credentials in clear text")

	RobotCmd.AddCommand(robotAddCmd)
	RobotCmd.AddCommand(robotRemoveCmd)
	RobotCmd.AddCommand(robotListCmd)
	RobotCmd.AddCommand(robotDefaultCmd)
	RobotCmd.AddCommand(robotTestCmd)
	RobotCmd.AddCommand(robotExportCmd)

	scheduleAddCmd.Flags().StringP("message", "m", "", "Notification text")
	scheduleAddCmd.Flags().StringP("title", "t", "", "Notification title; plain text when empty")
	scheduleAddCmd.Flags().String("cron", "", `Cron expression, e.g. "0 9 * * 1-5" or "@hourly"`)
	scheduleAddCmd.Flags().String("at", "", "Fire once at an RFC 3339 time")
	scheduleAddCmd.Flags().Duration("in", 0, "Fire once after a delay, e.g. 30m")
	scheduleAddCmd.Flags().Bool("at-all", false, "Mention everyone")
	scheduleAddCmd.Flags().StringSlice("at-mobile", nil, "Mobile numbers to mention")
	_ = scheduleAddCmd.MarkFlagRequired("message")

	ScheduleCmd.AddCommand(scheduleAddCmd)
	ScheduleCmd.AddCommand(scheduleListCmd)
	ScheduleCmd.AddCommand(scheduleRemoveCmd)
	ScheduleCmd.AddCommand(scheduleRunCmd)

	ServeCmd.Flags().String("addr", "127.0.0.1:8787", "Listen address")
	ServeCmd.Flags().StringArray("auth-token", nil, "Accepted bearer token (repeatable, generated when empty)")

	NotifyCmd.Flags().StringP("title", "t", "", "Notification title; plain text when empty")
	NotifyCmd.Flags().StringSlice("robots", nil, "Robot profiles to notify (default: all)")
	NotifyCmd.Flags().String("template", "", "Go template for the markdown body")
	NotifyCmd.Flags().Bool("at-all", false, "Mention everyone")
	NotifyCmd.Flags().StringSlice("at", nil, "Mobile numbers to mention")
}

// completeRobotNames provides dynamic completion for robot profile names
func completeRobotNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	robots, err := config.ListRobots()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, r := range robots {
		names = append(names, r.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func firstArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func secondArg(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return ""
}
