package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/username/leave-planner/internal/calendar"
	"github.com/username/leave-planner/internal/optimizer"
	"github.com/username/leave-planner/internal/plan"
	"github.com/username/leave-planner/pkg/dateutil"
	"go.uber.org/zap"
)

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage the yearly leave plan",
	}

	cmd.AddCommand(planListCmd())
	cmd.AddCommand(planAddCmd(false))
	cmd.AddCommand(planAddCmd(true))
	cmd.AddCommand(planRemoveCmd())
	cmd.AddCommand(planClearCmd())
	cmd.AddCommand(planSettingsCmd())
	cmd.AddCommand(planHolidayCmd())

	return cmd
}

func planListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the planned leave",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initializeApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			printPlan(app.service.Manager())
			return nil
		},
	}
}

func planAddCmd(custom bool) *cobra.Command {
	var fromStr, toStr, label string
	var force bool

	use, short := "add", "Add a leave window to the plan"
	if custom {
		use, short = "custom", "Add a custom labelled period to the plan"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			r, err := periodFromFlags(fromStr, toStr, false)
			if err != nil {
				return err
			}

			app, err := initializeApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			q := app.service.DefaultQuery()
			candidate, err := app.service.Evaluate(ctx, r, q.IncludeHolySpirit, q.Language)
			if err != nil {
				return fmt.Errorf("failed to evaluate period: %w", err)
			}

			manager := app.service.Manager()
			var saved plan.SavedOpportunity
			if custom {
				saved, err = manager.AddCustomPeriod(candidate, label)
			} else {
				saved, err = manager.AddToPlan(candidate)
			}

			var conflict *plan.ConflictError
			if errors.As(err, &conflict) {
				printf("\n⚠️  %s overlaps planned leave %s (%s)\n",
					conflict.Candidate.Range, conflict.Conflicting.Range, conflict.Conflicting.ID)
				if !force {
					manager.DismissConflictWarning()
					return fmt.Errorf("period not added, use --force to add it anyway")
				}
				saved, err = manager.ForceAddToPlan()
			}
			if err != nil {
				return err
			}

			if err := manager.Save(ctx); err != nil {
				return err
			}

			logger.Info("Plan updated",
				zap.String("id", saved.ID),
				zap.Stringer("range", saved.Range),
				zap.Bool("custom", saved.IsCustom))

			printf("\n✅ Added %s: %d days off for %d leave days (%s)\n",
				saved.Range, saved.TotalDays, saved.LeaveDaysRequired, saved.EfficiencyLabel)
			printf("   ID: %s\n", saved.ID)
			printf("   Remaining leave: %d of %d\n", manager.RemainingLeaveDays(), manager.Entitlement())
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "First day off (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "Last day off (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&force, "force", false, "Add even if it overlaps planned leave")
	if custom {
		cmd.Flags().StringVar(&label, "label", "", "Label for the period")
	}
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

func planRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a window from the plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := initializeApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			manager := app.service.Manager()
			if !manager.RemoveFromPlan(args[0]) {
				printf("Nothing to remove: no plan item %s\n", args[0])
				return nil
			}
			if err := manager.Save(ctx); err != nil {
				return err
			}

			printf("🗑️  Removed %s\n", args[0])
			return nil
		},
	}
}

func planClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every window from the plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := initializeApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			manager := app.service.Manager()
			manager.ClearPlan()
			if err := manager.Save(ctx); err != nil {
				return err
			}

			printf("🗑️  Plan cleared\n")
			return nil
		},
	}
}

func planSettingsCmd() *cobra.Command {
	var entitlement int
	var holySpirit, parentMode, fromToday bool
	var lang string

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the entitlement and saved preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := initializeApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			manager := app.service.Manager()
			prefs := manager.Preferences()
			flags := cmd.Flags()

			changed := false
			if flags.Changed("entitlement") {
				if entitlement < 0 {
					return fmt.Errorf("entitlement must not be negative")
				}
				manager.SetEntitlement(entitlement)
				changed = true
			}
			if flags.Changed("holy-spirit") {
				prefs.IncludeHolySpirit = holySpirit
				changed = true
			}
			if flags.Changed("parent-mode") {
				prefs.ParentMode = parentMode
				changed = true
			}
			if flags.Changed("from-today") {
				prefs.FromToday = fromToday
				changed = true
			}
			if flags.Changed("lang") {
				if lang != string(optimizer.LanguageGreek) && lang != string(optimizer.LanguageEnglish) {
					return fmt.Errorf("unsupported language %q, use el or en", lang)
				}
				prefs.Language = lang
				changed = true
			}

			if changed {
				manager.SetPreferences(prefs)
				if err := manager.Save(ctx); err != nil {
					return err
				}
			}

			prefs = manager.Preferences()
			printf("\n⚙️  Settings\n")
			printLine()
			printf("  Entitlement:        %d days\n", manager.Entitlement())
			printf("  Holy Spirit Monday: %t\n", prefs.IncludeHolySpirit)
			printf("  Parent mode:        %t\n", prefs.ParentMode)
			printf("  From today:         %t\n", prefs.FromToday)
			printf("  Language:           %s\n", app.service.DefaultQuery().Language)
			return nil
		},
	}

	cmd.Flags().IntVar(&entitlement, "entitlement", 0, "Yearly leave days")
	cmd.Flags().BoolVar(&holySpirit, "holy-spirit", false, "Include Holy Spirit Monday")
	cmd.Flags().BoolVar(&parentMode, "parent-mode", false, "Parent mode")
	cmd.Flags().BoolVar(&fromToday, "from-today", false, "Search from today by default")
	cmd.Flags().StringVar(&lang, "lang", "", "Label language: el or en")

	return cmd
}

func planHolidayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holiday",
		Short: "Manage custom holidays saved with the plan",
	}

	cmd.AddCommand(planHolidayListCmd())
	cmd.AddCommand(planHolidayAddCmd())
	cmd.AddCommand(planHolidayRemoveCmd())

	return cmd
}

func planHolidayListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved custom holidays",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initializeApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			specs := app.service.Manager().CustomHolidays()
			year := app.service.Now().Year()

			printf("\n📌 Custom holidays (%d)\n", len(specs))
			printLine()
			for i, spec := range specs {
				value := spec.Date
				if spec.Kind == calendar.KindMovable {
					value = "Easter " + spec.Offset
				}

				when := "not in " + fmt.Sprint(year)
				if h, err := calendar.ParseCustomHoliday(spec); err == nil {
					if date, ok := calendar.ResolveCustomHoliday(h, year); ok {
						when = dateutil.Format(date)
					}
				}
				printf("  %d. %-12s %-12s %s (%s)\n", i+1, spec.Kind, value, spec.Name, when)
			}
			return nil
		},
	}
}

func planHolidayAddCmd() *cobra.Command {
	var spec calendar.CustomHolidaySpec
	var kind string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a custom holiday",
		Long: `Save a custom holiday. Kinds:
  one-time     --date YYYY-MM-DD
  recurring    --date MM-DD (every year)
  movable      --offset N (days from Orthodox Easter)
  conditional  --date MM-DD (moved to Easter Monday when on or before Easter)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			spec.Kind = calendar.CustomHolidayKind(kind)

			app, err := initializeApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			manager := app.service.Manager()
			specs := append(manager.CustomHolidays(), spec)
			if err := manager.SetCustomHolidays(specs); err != nil {
				return err
			}
			if err := manager.Save(ctx); err != nil {
				return err
			}

			printf("✅ Saved custom holiday %s\n", spec.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&spec.Name, "name", "", "Holiday name")
	cmd.Flags().StringVar(&spec.LocalizedName, "localized-name", "", "Greek name (default: name)")
	cmd.Flags().StringVar(&kind, "kind", string(calendar.KindRecurring), "one-time, recurring, movable or conditional")
	cmd.Flags().StringVar(&spec.Date, "date", "", "Date for one-time, recurring and conditional holidays")
	cmd.Flags().StringVar(&spec.Offset, "offset", "", "Days from Easter for movable holidays")
	cmd.MarkFlagRequired("name")

	return cmd
}

func planHolidayRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove saved custom holidays by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := initializeApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			manager := app.service.Manager()
			var kept []calendar.CustomHolidaySpec
			for _, spec := range manager.CustomHolidays() {
				if spec.Name != args[0] {
					kept = append(kept, spec)
				}
			}
			if err := manager.SetCustomHolidays(kept); err != nil {
				return err
			}
			if err := manager.Save(ctx); err != nil {
				return err
			}

			printf("🗑️  Removed custom holiday %s\n", args[0])
			return nil
		},
	}
}

func printPlan(manager *plan.Manager) {
	items := manager.Items()

	printf("\n📋 Leave plan (%s)\n", manager.Status())
	printLine()
	if len(items) == 0 {
		printf("  No planned leave yet. Try: leave-planner suggest\n")
	}
	for _, item := range items {
		label := item.Label
		if item.IsCustom && label == "" {
			label = "custom"
		}
		printf("  %s  %s  %2d days, %d leave  %s\n", item.ID, item.Range, item.TotalDays, item.LeaveDaysRequired, label)
	}

	remaining := manager.RemainingLeaveDays()
	printf("\n  Planned leave:   %d days\n", manager.TotalLeaveDays())
	printf("  Entitlement:     %d days\n", manager.Entitlement())
	if remaining < 0 {
		printf("  Over budget:     %d days ⚠️\n", -remaining)
	} else {
		printf("  Remaining:       %d days\n", remaining)
	}
}
