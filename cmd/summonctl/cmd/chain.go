package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Bidon15/summonpredict/internal/models"
)

func newImplementationsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "implementations",
		Short: "Read the implementation addresses of the Summoner",
		Long: `Read the DAO implementation from the Summoner and the shares, badges and
loot implementations from the DAO implementation. Requires --rpc and
--summoner.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			impls, err := a.Service.Implementations(cmd.Context())
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), impls, func(w io.Writer) error {
				return printImplementations(w, impls)
			})
		},
	}
}

func printImplementations(w io.Writer, impls *models.ImplementationsResponse) error {
	t := newTable(w)
	fmt.Fprintf(t, "Summoner:\t%s\n", impls.SummonerAddress)
	fmt.Fprintf(t, "Moloch implementation:\t%s\n", impls.MolochImplementation)
	fmt.Fprintf(t, "Shares implementation:\t%s\n", impls.SharesImplementation)
	fmt.Fprintf(t, "Badges implementation:\t%s\n", impls.BadgesImplementation)
	fmt.Fprintf(t, "Loot implementation:\t%s\n", impls.LootImplementation)
	return t.Flush()
}

func newDAOsCmd(opts *rootOptions) *cobra.Command {
	var fromBlock uint64
	cmd := &cobra.Command{
		Use:   "daos",
		Short: "List DAOs deployed by the Summoner",
		Long: `List the NewDAO events of the Summoner. The deployment index is used
when a database is configured, otherwise logs are read from --rpc.

Examples:
  summonctl daos --summoner 0x... --rpc https://...
  summonctl daos --from-block 17000000 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.Service.Deployments(cmd.Context(), fromBlock)
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), list, func(w io.Writer) error {
				return printDeployments(w, list)
			})
		},
	}
	cmd.Flags().Uint64Var(&fromBlock, "from-block", 0, "first block to include")
	return cmd
}

func printDeployments(w io.Writer, list *models.DeploymentList) error {
	if len(list.Deployments) == 0 {
		fmt.Fprintln(w, "No deployed DAOs found")
		return nil
	}

	fmt.Fprintf(w, "Found %d deployed DAOs (source: %s)\n\n", len(list.Deployments), list.Source)
	t := newTable(w)
	fmt.Fprintln(t, "INDEX\tDAO\tSUMMONED BY\tBLOCK\tTX")
	for _, d := range list.Deployments {
		fmt.Fprintf(t, "%d\t%s\t%s\t%d\t%s\n", d.Index, d.DAO, d.Summoner, d.BlockNumber, d.TransactionHash)
	}
	return t.Flush()
}

func newTokensCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <dao>",
		Short: "Read the token addresses of a deployed DAO",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			tokens, err := a.Service.Tokens(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), tokens, func(w io.Writer) error {
				fmt.Fprintf(w, "DAO: %s (%s)\n", tokens.Name, tokens.Symbol)
				t := newTable(w)
				fmt.Fprintf(t, "Address:\t%s\n", tokens.DAO)
				fmt.Fprintf(t, "Shares token:\t%s\n", tokens.Shares)
				fmt.Fprintf(t, "Badges token:\t%s\n", tokens.Badges)
				fmt.Fprintf(t, "Loot token:\t%s\n", tokens.Loot)
				return t.Flush()
			})
		},
	}
}

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var fromBlock uint64
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Index Summoner deployments into PostgreSQL",
		Long: `Copy NewDAO events from the chain into the deployment index. Without
--from-block the sync resumes from the highest indexed block, or
chain.start_block on an empty index. Rows already present are skipped.

Requires database.enabled, --rpc and --summoner.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Service.SyncDeployments(cmd.Context(), fromBlock)
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Synced from block %d: %d found, %d new\n",
					result.FromBlock, result.Found, result.Inserted)
				return err
			})
		},
	}
	cmd.Flags().Uint64Var(&fromBlock, "from-block", 0, "first block to read (default: resume)")
	return cmd
}
