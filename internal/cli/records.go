package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/store"
	"github.com/spf13/cobra"
)

var (
	recordsLimit int
	fhirOut      string
)

// recordsCmd represents the records command
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect and manage stored referral records",
	Long: `Records works with the local referral database:
- List recent referrals in urgency order
- Show one referral in full, including the model's answer
- Search by patient, location, or case text
- Move a referral through the workflow statuses
- Export a referral as a FHIR ReferralRequest resource`,
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List referrals, most urgent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		records, err := s.ListRecords(recordsLimit)
		if err != nil {
			return fmt.Errorf("list records: %w", err)
		}

		printRecordTable(records)

		counts, err := s.PriorityCounts()
		if err == nil && len(counts) > 0 {
			fmt.Fprintf(os.Stderr, "\n  Totals:")
			for _, prio := range []model.Priority{model.PriorityEmergent, model.PriorityUrgent, model.PriorityRoutine, model.PriorityUnknown} {
				if counts[string(prio)] > 0 {
					fmt.Fprintf(os.Stderr, "  %s %d", prio, counts[string(prio)])
				}
			}
			fmt.Fprintf(os.Stderr, "\n")
		}
		return nil
	},
}

var recordsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one referral in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		rec, err := s.GetRecord(id)
		if err != nil {
			return err
		}

		printRecordDetail(rec)
		return nil
	},
}

var recordsSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search referrals by patient, location, or case text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		records, err := s.SearchRecords(args[0], recordsLimit)
		if err != nil {
			return fmt.Errorf("search records: %w", err)
		}

		if len(records) == 0 {
			fmt.Fprintf(os.Stderr, "No referrals match %q\n", args[0])
			return nil
		}
		printRecordTable(records)
		return nil
	},
}

var recordsStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Move a referral to a workflow status",
	Long: `Move a referral to one of the workflow statuses:
pending, in_progress, completed, cancelled.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		if err := s.UpdateStatus(id, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Referral #%d is now %s\n", id, args[1])
		return nil
	},
}

var recordsExportCmd = &cobra.Command{
	Use:   "export-fhir <id>",
	Short: "Export a referral as a FHIR ReferralRequest resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		rec, err := s.GetRecord(id)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(store.FHIRResource(rec), "", "  ")
		if err != nil {
			return fmt.Errorf("marshal resource: %w", err)
		}
		data = append(data, '\n')

		if fhirOut != "" {
			if err := os.WriteFile(fhirOut, data, 0644); err != nil {
				return fmt.Errorf("write resource: %w", err)
			}
			fmt.Fprintf(os.Stderr, "✓ Wrote FHIR resource: %s\n", fhirOut)
			return nil
		}

		fmt.Print(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(recordsSearchCmd)
	recordsCmd.AddCommand(recordsStatusCmd)
	recordsCmd.AddCommand(recordsExportCmd)

	recordsCmd.PersistentFlags().StringVar(&storePath, "db", "", "referral database path (default: referrals.db)")
	recordsListCmd.Flags().IntVar(&recordsLimit, "limit", 50, "maximum referrals to list")
	recordsSearchCmd.Flags().IntVar(&recordsLimit, "limit", 50, "maximum referrals to list")
	recordsExportCmd.Flags().StringVar(&fhirOut, "out", "", "write the resource to this path instead of stdout")
}

func openStore() (*store.Store, error) {
	path := storePath
	if path == "" {
		path = model.DefaultConfig().Store.Path
	}
	return store.Open(path)
}

func parseRecordID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id: %s", arg)
	}
	return id, nil
}

func printRecordTable(records []model.CaseRecord) {
	if len(records) == 0 {
		fmt.Fprintf(os.Stderr, "No referrals stored yet\n")
		return
	}

	fmt.Fprintf(os.Stderr, "\n  %-5s %-9s %-18s %-12s %-12s %s\n", "ID", "Priority", "Specialty", "Patient", "Status", "Created")
	fmt.Fprintf(os.Stderr, "  %s\n", strings.Repeat("─", 78))
	for _, rec := range records {
		specialty := rec.Specialty
		if specialty == "" {
			specialty = "-"
		}
		patient := rec.PatientID
		if patient == "" {
			patient = "-"
		}
		fmt.Fprintf(os.Stderr, "  %-5d %-9s %-18s %-12s %-12s %s\n",
			rec.ID, rec.Priority, truncate(specialty, 18), truncate(patient, 12),
			rec.Status, rec.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func printRecordDetail(rec model.CaseRecord) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Referral #%d\n", rec.ID)
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Printf("  Priority:    %s\n", rec.Priority)
	fmt.Printf("  Specialty:   %s\n", rec.Specialty)
	fmt.Printf("  Status:      %s\n", rec.Status)
	if rec.PatientID != "" {
		fmt.Printf("  Patient ID:  %s\n", rec.PatientID)
	}
	if rec.PatientName != "" {
		fmt.Printf("  Patient:     %s\n", rec.PatientName)
	}
	if rec.StaffName != "" {
		fmt.Printf("  Staff:       %s\n", rec.StaffName)
	}
	if rec.ReferringLocation != "" {
		fmt.Printf("  Location:    %s\n", rec.ReferringLocation)
	}
	if rec.Provider != "" {
		fmt.Printf("  Provider:    %s/%s\n", rec.Provider, rec.Model)
	}
	fmt.Printf("  Created:     %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Println()
	fmt.Println("  Referral text:")
	fmt.Println()
	printIndented(rec.CaseText)
	fmt.Println()
	fmt.Println("  Model answer:")
	fmt.Println()
	printIndented(rec.Response)
	fmt.Println()
}

func printIndented(text string) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		fmt.Printf("  %s\n", line)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
