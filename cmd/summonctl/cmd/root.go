// Package cmd implements the summonctl commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Bidon15/summonpredict/internal/app"
	"github.com/Bidon15/summonpredict/internal/config"
)

// Output formats.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

type rootOptions struct {
	cfgFile string
	output  string
	verbose bool
	v       *viper.Viper
}

// NewRootCmd builds the summonctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: config.New()}

	root := &cobra.Command{
		Use:   "summonctl",
		Short: "Predict Summoner DAO and token addresses",
		Long: `summonctl predicts the addresses a Summoner factory will deploy a DAO and
its shares, badges and loot tokens at, before the summon transaction is sent.

Implementation addresses can be given explicitly or read from the chain with
--rpc and --summoner. Settings are also read from config.yaml and SUMMON_*
environment variables.

Examples:
  summonctl predict --summoner 0x... --rpc https://... --holder 0x... --shares 1000
  summonctl predict --file deploy.yaml -o json
  summonctl daos --from-block 17000000
  summonctl tokens 0x...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case outputText, outputJSON, outputYAML:
			default:
				return fmt.Errorf("invalid --output %q: must be text, json or yaml", opts.output)
			}
			if opts.cfgFile != "" {
				opts.v.SetConfigFile(opts.cfgFile)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "", "config file (default: ./config.yaml)")
	pf.String("rpc", "", "Ethereum JSON-RPC URL")
	pf.String("summoner", "", "Summoner factory address")
	pf.StringVarP(&opts.output, "output", "o", outputText, "output format: text, json or yaml")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	_ = opts.v.BindPFlag("chain.rpc_url", pf.Lookup("rpc"))
	_ = opts.v.BindPFlag("chain.summoner_address", pf.Lookup("summoner"))

	root.AddCommand(
		newPredictCmd(opts),
		newExplainCmd(opts),
		newImplementationsCmd(opts),
		newDAOsCmd(opts),
		newTokensCmd(opts),
		newSyncCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

// Execute runs summonctl and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		printError(root.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// app loads configuration and opens whatever it enables.
func (o *rootOptions) app(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Read(o.v)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, o.logger(cmd.ErrOrStderr()))
}
