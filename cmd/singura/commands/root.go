// Package commands wires the singura CLI.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/singura/singura/pkg/version"
)

var (
	cfgFile string

	// Persistent flags shared by the detection commands.
	flagOrg          string
	flagRulesFile    string
	flagTimezone     string
	flagStartHour    int
	flagEndHour      int
	flagWorkDays     []int
	flagSlackWebhook string
	flagOtelEndpoint string
	flagJSONLogs     bool
	flagVerbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "singura",
	Short: "Shadow AI detection for SaaS audit logs",
	Long: `Singura - Shadow AI Detection Engine

Discover unsanctioned AI integrations and bot-like activity
hiding in your organization's audit trails.`,
	Version: version.Current,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&flagOrg, "org", "", "Organization identifier")
	rootCmd.PersistentFlags().StringVar(&flagRulesFile, "rules", "", "Custom detection rules file (YAML)")
	rootCmd.PersistentFlags().StringVar(&flagTimezone, "timezone", "UTC", "IANA zone for business-hours classification")
	rootCmd.PersistentFlags().IntVar(&flagStartHour, "start-hour", 9, "Business hours start")
	rootCmd.PersistentFlags().IntVar(&flagEndHour, "end-hour", 17, "Business hours end")
	rootCmd.PersistentFlags().IntSliceVar(&flagWorkDays, "work-days", []int{1, 2, 3, 4, 5}, "Business days (0=Sunday)")
	rootCmd.PersistentFlags().StringVar(&flagSlackWebhook, "slack-webhook", "", "Slack Webhook URL")
	rootCmd.PersistentFlags().StringVar(&flagOtelEndpoint, "otel-endpoint", "", "OTLP HTTP endpoint")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	rootCmd.AddCommand(DetectCmd)
	rootCmd.AddCommand(EvaluateCmd)
	rootCmd.AddCommand(ReviewCmd)
	rootCmd.AddCommand(ExportCmd)
	rootCmd.AddCommand(CompletionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".singura.yaml"))
			viper.SetConfigType("yaml")
		}
	}
	viper.SetEnvPrefix("SINGURA")
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

func renderHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	fmt.Println(titleStyle.Render(fmt.Sprintf("SINGURA %s", version.Current)))
	fmt.Println("Shadow AI detection for SaaS audit logs.")

	fmt.Println(titleStyle.Render("USAGE"))
	fmt.Printf("  %s\n\n", cmd.UseLine())

	fmt.Println(titleStyle.Render("COMMANDS"))
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() {
			fmt.Printf("  %-12s %s\n", c.Name(), c.Short)
		}
	}
	fmt.Println("")

	fmt.Println(titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Println(flagStyle.Render(output))
	})
	fmt.Println("")
}
