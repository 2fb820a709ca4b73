package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/homologa-digital/homologa/internal/cli"
	"github.com/homologa-digital/homologa/internal/common"
	"github.com/homologa-digital/homologa/internal/fsm"
	"github.com/homologa-digital/homologa/internal/model"
)

func caseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Manage homologation cases",
	}

	cmd.AddCommand(caseStartCmd())
	cmd.AddCommand(caseResumeCmd())
	cmd.AddCommand(caseStatusCmd())
	cmd.AddCommand(caseListCmd())
	cmd.AddCommand(caseCancelCmd())

	return cmd
}

func newMachine(catalog *model.Catalog) *fsm.Machine {
	maxRetries := viper.GetInt("fsm.max_retries")
	if maxRetries <= 0 {
		maxRetries = fsm.DefaultMaxRetries
	}
	return fsm.NewMachine(catalog, maxRetries)
}

func caseStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <element-code>...",
		Short: "Start a case and collect its data interactively",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			catalog, store, err := loadCatalog(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			machine := newMachine(catalog)
			state, err := machine.NewCase(args)
			if err != nil {
				return err
			}

			if err := store.SaveCase(ctx, state); err != nil {
				return err
			}
			fmt.Println(cli.InfoStyle.Render("Case " + state.CaseID))

			collector := cli.NewCollector(machine, os.Stdin, os.Stdout, store.SaveCase)
			return collector.Run(ctx, state)
		},
	}
}

func caseResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <case-id>",
		Short: "Resume an interrupted case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			catalog, store, err := loadCatalog(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			state, err := store.GetCase(ctx, args[0])
			if err != nil {
				return err
			}
			if state.Step == model.StepCompleted {
				return fmt.Errorf("%w: %s", common.ErrCaseCompleted, state.CaseID)
			}

			machine := newMachine(catalog)
			collector := cli.NewCollector(machine, os.Stdin, os.Stdout, store.SaveCase)
			return collector.Run(ctx, state)
		},
	}
}

func caseStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <case-id>",
		Short: "Show a case's progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			state, err := store.GetCase(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Println(cli.TitleStyle.Render("Case " + state.CaseID))
			fmt.Printf("Step:     %s\n", cli.BoldStyle.Render(string(state.Step)))
			fmt.Printf("Elements: %s\n", strings.Join(state.Elements, ", "))
			fmt.Printf("Images:   %d/%d received\n", len(state.ReceivedImages), len(state.RequiredImages))
			if state.CurrentElement != "" {
				fmt.Printf("Current:  %s (%s)\n", state.CurrentElement, state.Phase)
			}
			if state.RetryCount > 0 {
				fmt.Println(cli.WarningStyle.Render(
					fmt.Sprintf("Retries:  %d (%s)", state.RetryCount, state.ErrorMessage)))
			}

			return nil
		},
	}
}

func caseListCmd() *cobra.Command {
	var stepFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			var step *model.Step
			if stepFilter != "" {
				s := model.Step(strings.ToUpper(stepFilter))
				if !s.Valid() {
					return fmt.Errorf("unknown step %q", stepFilter)
				}
				step = &s
			}

			cases, err := store.ListCases(ctx, step)
			if err != nil {
				return err
			}
			if len(cases) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No cases."))
				return nil
			}

			for _, cs := range cases {
				fmt.Printf("%s  %-18s  %s\n",
					cs.CaseID, cs.Step, strings.Join(cs.Elements, ", "))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&stepFilter, "step", "", "only cases at this step")

	return cmd
}

func caseCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <case-id>",
		Short: "Cancel a case and return it to idle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()

			catalog, store, err := loadCatalog(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			state, err := store.GetCase(ctx, args[0])
			if err != nil {
				return err
			}

			newMachine(catalog).Cancel(state)
			if err := store.SaveCase(ctx, state); err != nil {
				return err
			}

			fmt.Println(cli.InfoStyle.Render("Case cancelled: " + state.CaseID))
			return nil
		},
	}
}
