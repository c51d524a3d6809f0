package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/NMsby/rotatechain-sub000/internal/app/membership"
	"github.com/NMsby/rotatechain-sub000/internal/daemon"
	"github.com/NMsby/rotatechain-sub000/internal/domain"
	"github.com/NMsby/rotatechain-sub000/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(chainCmd)
	chainCmd.AddCommand(chainCreateCmd)
	chainCmd.AddCommand(chainListCmd)
	chainCmd.AddCommand(chainInviteCmd)

	chainCreateCmd.Flags().StringP("name", "n", "", "Chain name (required)")
	chainCreateCmd.Flags().String("type", "social", "Chain type: social or global")
	chainCreateCmd.Flags().StringP("frequency", "f", "monthly", "Round frequency: weekly, bi-weekly, monthly, quarterly, or seconds")
	chainCreateCmd.Flags().IntP("rounds", "r", 12, "Number of rounds in the season")
	chainCreateCmd.Flags().String("currency", "USD", "Chain currency")
	chainCreateCmd.Flags().Float64("total-funds", 0, "Season contribution target")
	chainCreateCmd.Flags().Float64("interest-rate", 0, "Loan interest rate (percent)")
	chainCreateCmd.Flags().Float64("fine-rate", 0, "Late-payment fine rate (percent)")
	chainCreateCmd.Flags().String("start", "", "Season start (RFC3339, default now)")
}

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Manage savings chains",
	Long:  `Create, list, and produce invite links for savings chains in the local directory.`,
}

// ─── chain create ───────────────────────────────────────────────────────────

var chainCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new savings chain",
	RunE:  runChainCreate,
}

func runChainCreate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		return fmt.Errorf("chain name required: rotatechain chain create -n <name>")
	}
	typeFlag, _ := cmd.Flags().GetString("type")
	freq, _ := cmd.Flags().GetString("frequency")
	rounds, _ := cmd.Flags().GetInt("rounds")
	currency, _ := cmd.Flags().GetString("currency")
	totalFunds, _ := cmd.Flags().GetFloat64("total-funds")
	interest, _ := cmd.Flags().GetFloat64("interest-rate")
	fine, _ := cmd.Flags().GetFloat64("fine-rate")
	startFlag, _ := cmd.Flags().GetString("start")

	start := time.Now().UTC()
	if startFlag != "" {
		t, err := time.Parse(time.RFC3339, startFlag)
		if err != nil {
			return fmt.Errorf("--start must be RFC3339: %w", err)
		}
		start = t
	}
	chainType := domain.ChainSocial
	if typeFlag == string(domain.ChainGlobal) {
		chainType = domain.ChainGlobal
	}

	chain := domain.Chain{
		ID:            uuid.NewString(),
		Name:          name,
		Type:          chainType,
		StartDate:     start,
		RoundDuration: domain.ParseFrequency(freq),
		TotalRounds:   rounds,
		CurrentRound:  1,
		Currency:      currency,
		TotalFunds:    totalFunds,
		InterestRate:  interest,
		FineRate:      fine,
	}
	if err := chain.Validate(); err != nil {
		return err
	}

	cfg, db, err := openDirectory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateChain(cmd.Context(), chain); err != nil {
		return fmt.Errorf("create chain: %w", err)
	}

	fmt.Fprintf(os.Stdout, "✅ Chain %q created.\n", name)
	fmt.Fprintf(os.Stdout, "   ID:     %s\n", chain.ID)
	fmt.Fprintf(os.Stdout, "   Rounds: %d × %s\n", chain.TotalRounds, chain.RoundDuration)
	fmt.Fprintf(os.Stdout, "   Invite: %s\n", membership.InviteLink(cfg.API.Origin, chain.ID))
	return nil
}

// ─── chain list ─────────────────────────────────────────────────────────────

var chainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chains in the directory",
	RunE:  runChainList,
}

func runChainList(cmd *cobra.Command, args []string) error {
	_, db, err := openDirectory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	chains, err := db.ListChains(cmd.Context())
	if err != nil {
		return fmt.Errorf("list chains: %w", err)
	}
	if len(chains) == 0 {
		fmt.Fprintln(os.Stdout, "No chains in the directory.")
		fmt.Fprintln(os.Stdout, "Use 'rotatechain chain create -n <name>' to create one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "Chains (%d):\n", len(chains))
	for _, c := range chains {
		fmt.Fprintf(os.Stdout, "  • %s  %s  [%s]  round %d/%d  %d member(s)\n",
			c.ID, c.Name, c.Type, c.CurrentRound, c.TotalRounds, len(c.Members))
	}
	return nil
}

// ─── chain invite ───────────────────────────────────────────────────────────

var chainInviteCmd = &cobra.Command{
	Use:   "invite CHAIN_ID",
	Short: "Print the invite link for a chain",
	Args:  cobra.ExactArgs(1),
	RunE:  runChainInvite,
}

func runChainInvite(cmd *cobra.Command, args []string) error {
	cfg, db, err := openDirectory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	chain, err := db.GetChain(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get chain: %w", err)
	}
	fmt.Fprintln(os.Stdout, membership.InviteLink(cfg.API.Origin, chain.ID))
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// openDirectory loads config and opens the sqlite chain directory.
func openDirectory(cmd *cobra.Command) (daemon.Config, *sqlite.DB, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return daemon.Config{}, nil, err
	}
	db, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		return daemon.Config{}, nil, fmt.Errorf("open chain directory: %w", err)
	}
	return cfg, db, nil
}
