package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nanomed-sim/nanomed-sim/sim"
)

var (
	treatFrequency   string   // Dosing frequency for `treat create`
	treatSideEffects []string // Observed side effects for `treat update`
	treatPatient     string   // Patient filter for `treat list`
	treatStatus      string   // Status filter for `treat list`
)

// treatCmd groups the treatment record subcommands
var treatCmd = &cobra.Command{
	Use:   "treat",
	Short: "Manage patient treatment records",
}

var treatCreateCmd = &cobra.Command{
	Use:   "create PATIENT NP_ID DOSE_MG_KG ROUTE DURATION_DAYS",
	Short: "Plan a treatment with a saved nanoparticle",
	Args:  cobra.ExactArgs(5),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(cmd, func(s session) error {
			frequency := s.cfg.Treatment.Frequency
			if cmd.Flags().Changed("frequency") {
				frequency = treatFrequency
			}
			return runTreatCreate(s, args, frequency)
		})
	},
}

var treatUpdateCmd = &cobra.Command{
	Use:   "update TX_ID EFFICACY_PCT",
	Short: "Record observed efficacy and side effects",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(cmd, func(s session) error { return runTreatUpdate(s, args, treatSideEffects) })
	},
}

var treatCloseCmd = &cobra.Command{
	Use:   "close TX_ID STATUS",
	Short: "Mark a treatment completed or discontinued",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(cmd, func(s session) error { return runTreatClose(s, args) })
	},
}

var treatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List treatments, optionally by patient and status",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withSession(cmd, func(s session) error { return runTreatList(s, treatPatient, treatStatus) })
	},
}

func runTreatCreate(s session, args []string, frequency string) error {
	dose, err := parseFloatArg("dose", args[2])
	if err != nil {
		return err
	}
	days, err := strconv.Atoi(args[4])
	if err != nil {
		return fmt.Errorf("invalid duration %q: not a whole number of days", args[4])
	}
	rec, err := s.eng.CreateTreatment(s.ctx, sim.TreatmentInput{
		PatientID:      args[0],
		NanoparticleID: args[1],
		DoseMgKg:       dose,
		Route:          args[3],
		Frequency:      frequency,
		DurationDays:   days,
	})
	if err != nil {
		return err
	}
	return s.out.report("Created treatment: "+rec.ID, rec)
}

func runTreatUpdate(s session, args []string, sideEffects []string) error {
	efficacy, err := parseFloatArg("efficacy", args[1])
	if err != nil {
		return err
	}
	rec, err := s.eng.UpdateEfficacy(s.ctx, args[0], efficacy, sideEffects)
	if err != nil {
		return err
	}
	return s.out.report(fmt.Sprintf("Updated treatment %s: %s", rec.ID, rec.Status), rec)
}

func runTreatClose(s session, args []string) error {
	status, err := sim.ParseStatus(args[1])
	if err != nil {
		return err
	}
	rec, err := s.eng.CloseTreatment(s.ctx, args[0], status)
	if err != nil {
		return err
	}
	return s.out.report(fmt.Sprintf("Closed treatment %s: %s", rec.ID, rec.Status), rec)
}

func runTreatList(s session, patient, status string) error {
	recs, err := s.eng.ListTreatments(s.ctx, sim.TreatmentFilter{
		PatientID: patient,
		Status:    sim.TreatmentStatus(status),
	})
	if err != nil {
		return err
	}
	return s.out.report(fmt.Sprintf("%d treatment(s)", len(recs)), recs)
}

func init() {
	treatCreateCmd.Flags().StringVar(&treatFrequency, "frequency", "daily", "Dosing frequency (default from defaults.yaml)")
	treatUpdateCmd.Flags().StringArrayVar(&treatSideEffects, "side-effect", nil, "Observed side effect (repeatable)")
	treatListCmd.Flags().StringVar(&treatPatient, "patient", "", "Only treatments of this patient")
	treatListCmd.Flags().StringVar(&treatStatus, "status", "", "Only treatments in this status (planned, active, completed, discontinued)")

	treatCmd.AddCommand(treatCreateCmd, treatUpdateCmd, treatCloseCmd, treatListCmd)
}
