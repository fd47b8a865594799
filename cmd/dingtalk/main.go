package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"dingtalk/internal/commands"
	"dingtalk/internal/output"
)

var jsonFlag bool

var rootCmd = &cobra.Command{
	Use:   "dingtalk",
	Short: "Send messages through DingTalk and WeChat Work group robots",
	Long: `Send text, markdown, link, action card and feed card messages through
DingTalk or WeChat Work group robots.

Run without a subcommand to open the compose form, or pipe text on stdin
to send it as a text message.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := commands.RunDefault(cmd.Context()); err != nil {
			output.PrintError(err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Output in JSON format")
	commands.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(commands.SendCmd)
	rootCmd.AddCommand(commands.RobotCmd)
	rootCmd.AddCommand(commands.SignCmd)
	rootCmd.AddCommand(commands.ComposeCmd)
	rootCmd.AddCommand(commands.NotifyCmd)
	rootCmd.AddCommand(commands.MCPCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ScheduleCmd)
	rootCmd.AddCommand(commands.VersionCmd)
	rootCmd.AddCommand(commands.CompletionCmd)
}

func main() {
	// Propagate --json flag before execution
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		output.JSONMode = jsonFlag
	}

	ctx, stop := commands.SignalContext(context.Background())
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
