package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Bidon15/summonpredict/internal/create2"
	"github.com/Bidon15/summonpredict/internal/ethereum"
	"github.com/Bidon15/summonpredict/internal/handler"
	"github.com/Bidon15/summonpredict/internal/models"
	apierrors "github.com/Bidon15/summonpredict/internal/pkg/errors"
)

type predictOptions struct {
	file       string
	holders    []string
	shares     []string
	molochImpl string
	sharesImpl string
	badgesImpl string
	lootImpl   string
	customSalt string
}

func (p *predictOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&p.file, "file", "f", "", "YAML deployment config")
	f.StringArrayVar(&p.holders, "holder", nil, "initial share holder (repeatable, order matters)")
	f.StringArrayVar(&p.shares, "shares", nil, "share amount for the holder at the same position (repeatable)")
	f.StringVar(&p.molochImpl, "moloch-impl", "", "DAO implementation address (read from chain when empty)")
	f.StringVar(&p.sharesImpl, "shares-impl", "", "shares token implementation address")
	f.StringVar(&p.badgesImpl, "badges-impl", "", "badges token implementation address")
	f.StringVar(&p.lootImpl, "loot-impl", "", "loot token implementation address")
	f.StringVar(&p.customSalt, "salt", "", "custom salt as 32 byte hex (default: zero)")
}

// request merges the deployment file with flags; flags win.
func (p *predictOptions) request(cmd *cobra.Command) (*models.PredictRequest, error) {
	req := &models.PredictRequest{}
	if p.file != "" {
		data, err := os.ReadFile(p.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p.file, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse %s: %w", p.file, err)
		}
	}

	f := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if f.Changed(name) {
			*dst = val
		}
	}
	override("moloch-impl", &req.MolochImplementation, p.molochImpl)
	override("shares-impl", &req.SharesImplementation, p.sharesImpl)
	override("badges-impl", &req.BadgesImplementation, p.badgesImpl)
	override("loot-impl", &req.LootImplementation, p.lootImpl)
	override("salt", &req.CustomSalt, p.customSalt)
	if f.Changed("holder") || f.Changed("shares") {
		req.InitHolders = p.holders
		req.InitShares = p.shares
	}
	if req.InitHolders == nil {
		req.InitHolders = []string{}
	}
	if req.InitShares == nil {
		req.InitShares = []string{}
	}

	if err := handler.NewValidator().Struct(req); err != nil {
		if fields, ok := handler.ValidationFields(err); ok {
			return nil, apierrors.NewValidationErrors(fields)
		}
		return nil, err
	}
	return req, nil
}

func newPredictCmd(opts *rootOptions) *cobra.Command {
	p := &predictOptions{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the DAO and token addresses of a summoning",
		Long: `Predict the CREATE2 addresses of the DAO and its shares, badges and loot
tokens. Holders and share amounts are paired by position and their order
changes the result.

A deployment file uses the same keys as the HTTP API:

  summoner_address: "0x..."
  moloch_implementation: "0x..."   # optional with --rpc
  init_holders: ["0x...", "0x..."]
  init_shares: ["1000000000000000000", "2000000000000000000"]
  custom_salt: "0x..."             # optional

Examples:
  summonctl predict --summoner 0x... --rpc https://... --holder 0xA --shares 100
  summonctl predict -f deploy.yaml --moloch-impl 0x... -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := p.request(cmd)
			if err != nil {
				return err
			}
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Service.Predict(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), resp, func(w io.Writer) error {
				return printPrediction(w, resp)
			})
		},
	}
	p.register(cmd)
	return cmd
}

func newExplainCmd(opts *rootOptions) *cobra.Command {
	p := &predictOptions{}
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show every intermediate value of a prediction",
		Long: `Explain takes the same inputs as predict and prints the salts, proxy
bytecode and init code hashes the addresses are derived from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := p.request(cmd)
			if err != nil {
				return err
			}
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Service.Explain(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), resp, func(w io.Writer) error {
				return printExplain(w, resp)
			})
		},
	}
	p.register(cmd)
	return cmd
}

func printPrediction(w io.Writer, resp *models.PredictResponse) error {
	t := newTable(w)
	fmt.Fprintf(t, "DAO:\t%s\n", ethereum.EncodeAddress(resp.Addresses.DAO()))
	fmt.Fprintf(t, "Shares token:\t%s\n", ethereum.EncodeAddress(resp.Addresses.Shares()))
	fmt.Fprintf(t, "Badges token:\t%s\n", ethereum.EncodeAddress(resp.Addresses.Badges()))
	fmt.Fprintf(t, "Loot token:\t%s\n", ethereum.EncodeAddress(resp.Addresses.Loot()))
	fmt.Fprintf(t, "Salt:\t%s\n", resp.Salt)
	if err := t.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return printImplementations(w, resp.Implementations)
}

func printExplain(w io.Writer, resp *models.ExplainResponse) error {
	t := newTable(w)
	fmt.Fprintf(t, "Primary salt:\t%s\n", resp.PrimarySalt)
	fmt.Fprintf(t, "Primary bytecode:\t%s\n", resp.PrimaryBytecode)
	fmt.Fprintf(t, "Primary init code hash:\t%s\n", resp.PrimaryInitCodeHash)
	fmt.Fprintf(t, "DAO:\t%s\n", ethereum.EncodeAddress(resp.Addresses.DAO()))
	fmt.Fprintf(t, "Dependent salt:\t%s\n", resp.DependentSalt)
	for i, name := range create2.DependentNames {
		fmt.Fprintf(t, "%s init code hash:\t%s\n", name, resp.DependentInitHashes[name])
		fmt.Fprintf(t, "%s token:\t%s\n", name, ethereum.EncodeAddress(resp.Addresses.Dependents[i]))
	}
	return t.Flush()
}
