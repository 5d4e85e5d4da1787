package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nanomed-sim/nanomed-sim/sim"
)

var (
	designLigand        string  // Targeting ligand for `design`
	designEncapsulation float64 // Encapsulation efficiency for `design`
)

var designCmd = &cobra.Command{
	Use:   "design NAME TYPE DIAMETER DRUG MATERIAL",
	Short: "Design and save a nanoparticle",
	Args:  cobra.ExactArgs(5),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(cmd, func(s session) error {
			encapsulation := s.cfg.Design.EncapsulationPct
			if cmd.Flags().Changed("encapsulation") {
				encapsulation = designEncapsulation
			}
			return runDesign(s, args, designLigand, encapsulation)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show NP_ID",
	Short: "Show a saved nanoparticle",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(cmd, func(s session) error { return runShow(s, args[0]) })
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate NP_ID TISSUE DOSE_MG",
	Short: "Simulate biodistribution of a dose and log the samples",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(cmd, func(s session) error { return runSimulate(s, args) })
	},
}

var pkCmd = &cobra.Command{
	Use:   "pk NP_ID DOSE_MG",
	Short: "Compute pharmacokinetic parameters",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(cmd, func(s session) error { return runPK(s, args) })
	},
}

var toxicityCmd = &cobra.Command{
	Use:   "toxicity NP_ID",
	Short: "Score the safety of a nanoparticle",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(cmd, func(s session) error { return runToxicity(s, args[0]) })
	},
}

// optimize never touches the store, so it skips withSession.
var optimizeCmd = &cobra.Command{
	Use:   "optimize DRUG TISSUE",
	Short: "Suggest a formulation for a drug and target tissue",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		out := reporter{w: cmd.OutOrStdout(), format: outputFormat}
		if err := runOptimize(out, args[0], args[1]); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

var historyCmd = &cobra.Command{
	Use:   "history NP_ID",
	Short: "Summarize the logged biodistribution samples of a nanoparticle",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(cmd, func(s session) error { return runHistory(s, args[0]) })
	},
}

func runDesign(s session, args []string, ligand string, encapsulationPct float64) error {
	diameter, err := parseFloatArg("diameter", args[2])
	if err != nil {
		return err
	}
	np, err := s.eng.DesignNanoparticle(s.ctx, sim.NanoparticleInput{
		Name:             args[0],
		Category:         args[1],
		DiameterNm:       diameter,
		DrugPayload:      args[3],
		Material:         args[4],
		TargetingLigand:  ligand,
		EncapsulationPct: encapsulationPct,
	})
	if err != nil {
		return err
	}
	return s.out.report("Designed nanoparticle: "+np.ID, np)
}

func runShow(s session, id string) error {
	np, err := s.eng.GetNanoparticle(s.ctx, id)
	if err != nil {
		return err
	}
	return s.out.report(np.String(), np)
}

func runSimulate(s session, args []string) error {
	dose, err := parseFloatArg("dose", args[2])
	if err != nil {
		return err
	}
	dist, err := s.eng.SimulateDelivery(s.ctx, args[0], args[1], dose)
	if err != nil {
		return err
	}
	return s.out.report(fmt.Sprintf("Biodistribution of %s targeting %s (%g mg)", dist.NanoparticleID, dist.TargetTissue, dose),
		concentrationReport(dist))
}

func runPK(s session, args []string) error {
	dose, err := parseFloatArg("dose", args[1])
	if err != nil {
		return err
	}
	pk, err := s.eng.Pharmacokinetics(s.ctx, args[0], dose)
	if err != nil {
		return err
	}
	return s.out.report(fmt.Sprintf("Pharmacokinetics of %s at %g mg", args[0], dose), pk)
}

func runToxicity(s session, id string) error {
	tox, err := s.eng.AssessToxicity(s.ctx, id)
	if err != nil {
		return err
	}
	return s.out.report(fmt.Sprintf("Toxicity of %s: %s risk", id, tox.RiskLevel), tox)
}

func runOptimize(out reporter, drug, tissue string) error {
	suggestion := sim.Optimize(drug, tissue)
	header := fmt.Sprintf("Formulation for %s targeting %s", drug, tissue)
	if suggestion.Systemic {
		header += fmt.Sprintf(" (systemic template; tissue templates: %s)", strings.Join(sim.KnownTemplateTissues(), ", "))
	}
	return out.report(header, suggestion)
}

func runHistory(s session, id string) error {
	summary, err := s.eng.SummarizeHistory(s.ctx, id)
	if err != nil {
		return err
	}
	return s.out.report(fmt.Sprintf("History of %s: %d samples over %d runs", id, summary.TotalSamples, summary.Runs), summary)
}

func parseFloatArg(name, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: not a number", name, value)
	}
	return v, nil
}
