package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/xhhuango/json"

	"github.com/bcdannyboy/stochvol/models"
	"github.com/bcdannyboy/stochvol/probability"
)

// maxPromptRetries bounds the re-prompt loop so a closed or garbage
// stdin surfaces an error instead of spinning forever.
const maxPromptRetries = 100

var errInputFormat = errors.New("input is not numeric")

var rootCmd = &cobra.Command{
	Use:          "stochvol",
	Short:        "Monte Carlo European call pricing under mean-reverting stochastic volatility",
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.Float64("spot", 0, "initial stock price S0 (prompted if omitted)")
	flags.Float64("strike", 0, "strike price K (prompted if omitted)")
	flags.Float64("rate", 0, "risk-free interest rate r (prompted if omitted)")
	flags.Int("sims", 0, "number of Monte Carlo simulations (prompted if omitted)")
	flags.Int("steps", 0, "time steps per path (overrides STOCHVOL_STEPS)")
	flags.Float64("horizon", 0, "total time period in years (overrides STOCHVOL_HORIZON)")
	flags.Uint64("seed", 0, "random seed, 0 draws a fresh one (overrides STOCHVOL_SEED)")
	flags.String("path-mode", "", "reset or continuous (overrides STOCHVOL_PATH_MODE)")
	flags.String("method", "", "closed-form or payoff (overrides STOCHVOL_METHOD)")
	flags.String("output", "", "write the full result as JSON to this file")
	flags.Bool("quiet", false, "suppress the progress bar")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("stochvol: %v", err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	s0, err := marketFloat(cmd, in, out, "spot", "Enter the initial stock price (S0): ")
	if err != nil {
		return err
	}
	k, err := marketFloat(cmd, in, out, "strike", "Enter the strike price (K): ")
	if err != nil {
		return err
	}
	r, err := marketFloat(cmd, in, out, "rate", "Enter the risk-free interest rate (r): ")
	if err != nil {
		return err
	}
	numSims, err := marketInt(cmd, in, out, "sims", "Enter the number of Monte Carlo simulations: ")
	if err != nil {
		return err
	}
	cfg.Sim.NumSims = numSims

	log.WithFields(log.Fields{
		"theta":     cfg.Model.Theta,
		"kappa":     cfg.Model.Kappa,
		"sigma":     cfg.Model.Sigma,
		"rho":       cfg.Model.Rho,
		"v0":        cfg.Model.V0,
		"steps":     cfg.Sim.Steps,
		"horizon":   cfg.Sim.Horizon,
		"sims":      cfg.Sim.NumSims,
		"path_mode": cfg.Sim.PathMode.String(),
		"method":    cfg.Sim.Method.String(),
	}).Info("starting simulation")

	pricer := probability.NewPricer(cfg.Model, cfg.Sim)
	result, err := pricer.Price(s0, k, r)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Option Price: %v\n", result.Price)
	log.WithFields(log.Fields{
		"std_err": result.Valuations.StdErr,
		"seed":    result.Seed,
	}).Info("simulation complete")

	outPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if outPath != "" {
		jresult, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshalling result: %w", err)
		}
		if err := ioutil.WriteFile(outPath, jresult, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		log.Infof("wrote result to %s", outPath)
	}

	return nil
}

// applyFlags layers command-line overrides on top of the env config.
func applyFlags(cmd *cobra.Command, cfg *runConfig) error {
	flags := cmd.Flags()

	if flags.Changed("steps") {
		steps, _ := flags.GetInt("steps")
		if steps < 1 {
			return fmt.Errorf("degenerate time grid: steps=%d", steps)
		}
		cfg.Sim.Steps = steps
	}
	if flags.Changed("horizon") {
		horizon, _ := flags.GetFloat64("horizon")
		if horizon <= 0 {
			return fmt.Errorf("degenerate time grid: horizon=%v", horizon)
		}
		cfg.Sim.Horizon = horizon
	}
	if flags.Changed("seed") {
		cfg.Sim.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("path-mode") {
		raw, _ := flags.GetString("path-mode")
		mode, err := models.ParsePathMode(raw)
		if err != nil {
			return err
		}
		cfg.Sim.PathMode = mode
	}
	if flags.Changed("method") {
		raw, _ := flags.GetString("method")
		method, err := probability.ParseMethod(raw)
		if err != nil {
			return err
		}
		cfg.Sim.Method = method
	}
	if quiet, _ := flags.GetBool("quiet"); quiet {
		cfg.Sim.Progress = false
	}
	return nil
}

// marketFloat resolves one market input from its flag, or prompts for it.
func marketFloat(cmd *cobra.Command, in *bufio.Reader, out io.Writer, flag, prompt string) (float64, error) {
	if cmd.Flags().Changed(flag) {
		return cmd.Flags().GetFloat64(flag)
	}
	return promptFloat(in, out, prompt)
}

func marketInt(cmd *cobra.Command, in *bufio.Reader, out io.Writer, flag, prompt string) (int, error) {
	if cmd.Flags().Changed(flag) {
		return cmd.Flags().GetInt(flag)
	}
	return promptInt(in, out, prompt)
}

func promptFloat(in *bufio.Reader, out io.Writer, prompt string) (float64, error) {
	for attempt := 0; attempt < maxPromptRetries; attempt++ {
		fmt.Fprint(out, prompt)
		line, err := in.ReadString('\n')
		if v, perr := strconv.ParseFloat(strings.TrimSpace(line), 64); perr == nil {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("%w: reading input: %v", errInputFormat, err)
		}
		fmt.Fprintln(out, "Invalid input. Please enter a numerical value.")
	}
	return 0, fmt.Errorf("%w: giving up after %d attempts", errInputFormat, maxPromptRetries)
}

func promptInt(in *bufio.Reader, out io.Writer, prompt string) (int, error) {
	for attempt := 0; attempt < maxPromptRetries; attempt++ {
		fmt.Fprint(out, prompt)
		line, err := in.ReadString('\n')
		if v, perr := strconv.Atoi(strings.TrimSpace(line)); perr == nil {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("%w: reading input: %v", errInputFormat, err)
		}
		fmt.Fprintln(out, "Invalid input. Please enter a numerical value.")
	}
	return 0, fmt.Errorf("%w: giving up after %d attempts", errInputFormat, maxPromptRetries)
}
