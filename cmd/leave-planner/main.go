package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/username/leave-planner/internal/api"
	"github.com/username/leave-planner/internal/calendar"
	"github.com/username/leave-planner/internal/config"
	"github.com/username/leave-planner/internal/daemon"
	"github.com/username/leave-planner/internal/optimizer"
	"github.com/username/leave-planner/internal/plan"
	"github.com/username/leave-planner/internal/planner"
	"github.com/username/leave-planner/pkg/dateutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	logger     *zap.Logger
	out        io.Writer = os.Stdout
	clock                = time.Now
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "leave-planner",
		Short: "Greek annual leave optimizer",
		Long:  "Find the leave windows that turn the fewest leave days into the longest breaks around Greek public holidays, and keep a yearly leave plan",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config to get log file path
			cfg, err := config.Load(configPath)
			if err == nil && cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger(cfg.Log.Level) // Fallback to console
				}
			} else if err == nil {
				initLogger(cfg.Log.Level)
			} else {
				initLogger("info") // Default console logger
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: config.yaml in ., ~/.leave-planner, /etc/leave-planner)")

	rootCmd.AddCommand(easterCmd())
	rootCmd.AddCommand(holidaysCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(suggestCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func easterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "easter [year...]",
		Short: "Show Orthodox Easter and the movable feasts",
		RunE: func(cmd *cobra.Command, args []string) error {
			years := []int{clock().Year()}
			if len(args) > 0 {
				years = years[:0]
				for _, arg := range args {
					year, err := strconv.Atoi(arg)
					if err != nil {
						return fmt.Errorf("invalid year %q: %w", arg, err)
					}
					if err := calendar.ValidateYear(year); err != nil {
						return err
					}
					years = append(years, year)
				}
			}

			printf("\n✝️  Orthodox Easter\n")
			printLine()
			printf("  Year | Easter     | Clean Monday | Good Friday | Easter Monday | Holy Spirit\n")
			printf("-------+------------+--------------+-------------+---------------+------------\n")
			for _, year := range years {
				printf("  %4d | %s | %s   | %s  | %s    | %s\n",
					year,
					dateutil.Format(calendar.OrthodoxEaster(year)),
					dateutil.Format(calendar.CleanMonday(year)),
					dateutil.Format(calendar.GoodFriday(year)),
					dateutil.Format(calendar.EasterMonday(year)),
					dateutil.Format(calendar.HolySpiritMonday(year)))
			}
			return nil
		},
	}
}

func holidaysCmd() *cobra.Command {
	var year int
	var holySpirit bool

	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "List the public and custom holidays of a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := initializeApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			q := app.service.DefaultQuery()
			if cmd.Flags().Changed("year") {
				q.Year = year
			}
			if cmd.Flags().Changed("holy-spirit") {
				q.IncludeHolySpirit = holySpirit
			}

			holidays, err := app.service.Holidays(ctx, q.Year, q.IncludeHolySpirit)
			if err != nil {
				return fmt.Errorf("failed to build holidays: %w", err)
			}

			printf("\n📅 Holidays %d (%d)\n", q.Year, len(holidays))
			printLine()
			for _, h := range holidays {
				printf("  %s %-9s %-28s %s%s\n",
					dateutil.Format(h.Date),
					h.Date.Weekday(),
					h.LocalizedName,
					h.Name,
					holidayTags(h))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year (default: current year)")
	cmd.Flags().BoolVar(&holySpirit, "holy-spirit", false, "Include Holy Spirit Monday")

	return cmd
}

func calendarCmd() *cobra.Command {
	var fromStr, toStr string
	var holySpirit bool

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the leave cost of every day in a period",
		Long:  "Show each day of the period as workday, weekend or holiday with monthly totals. Defaults to the current month.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			r, err := periodFromFlags(fromStr, toStr, true)
			if err != nil {
				return err
			}

			app, err := initializeApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			includeHolySpirit := app.service.DefaultQuery().IncludeHolySpirit
			if cmd.Flags().Changed("holy-spirit") {
				includeHolySpirit = holySpirit
			}

			days, err := app.service.Calendar(ctx, r, includeHolySpirit)
			if err != nil {
				return fmt.Errorf("failed to generate calendar: %w", err)
			}

			for _, month := range calendar.SummarizeMonths(days) {
				printf("\n📅 %s %d\n", month.Month, month.Year)
				printLine()
				printf("  Date       | Day       | Cost | Type\n")
				printf("-------------+-----------+------+----------------\n")
				for _, day := range month.Days {
					printf("  %s | %-9s |  %d   | %s\n",
						dateutil.Format(day.Date),
						day.Date.Weekday(),
						day.Cost,
						dayTypeLabel(day))
				}
				printf("\n  Work days: %d   Weekends: %d   Holidays: %d\n",
					month.WorkDays, month.Weekends, month.Holidays)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&holySpirit, "holy-spirit", false, "Include Holy Spirit Monday")

	return cmd
}

func suggestCmd() *cobra.Command {
	var year, budget, maxResults int
	var fromToday, holySpirit, asJSON bool
	var lang string

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest the most efficient leave windows of a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := initializeApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			q := app.service.DefaultQuery()
			flags := cmd.Flags()
			if flags.Changed("year") {
				q.Year = year
			}
			if flags.Changed("budget") {
				q.Budget = budget
			}
			if flags.Changed("max") {
				q.MaxResults = maxResults
			}
			if flags.Changed("from-today") {
				q.FromToday = fromToday
			}
			if flags.Changed("holy-spirit") {
				q.IncludeHolySpirit = holySpirit
			}
			if flags.Changed("lang") {
				q.Language = optimizer.ParseLanguage(lang)
			}

			logger.Info("Searching leave opportunities",
				zap.Int("year", q.Year),
				zap.Int("budget", q.Budget),
				zap.Int("max_results", q.MaxResults),
				zap.Bool("from_today", q.FromToday))

			results, err := app.service.Suggest(ctx, q)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			printf("\n🏖️  Leave opportunities %d (budget %d days per window)\n", q.Year, q.Budget)
			printLine()
			if len(results) == 0 {
				printf("  No opportunities found\n")
				return nil
			}
			manager := app.service.Manager()
			for i, o := range results {
				planned := ""
				if manager.IsInPlan(o) {
					planned = "  ✅ in plan"
				}
				printf("  %2d. %s  %2d days, %d leave, x%.2f  %s%s\n",
					i+1, o.Range, o.TotalDays, o.LeaveDaysRequired, o.Efficiency, o.EfficiencyLabel, planned)
			}
			printf("\n  Add one with: leave-planner plan add --from YYYY-MM-DD --to YYYY-MM-DD\n")
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year (default: current year)")
	cmd.Flags().IntVar(&budget, "budget", 0, "Max leave days per window (default: leave.budget)")
	cmd.Flags().IntVar(&maxResults, "max", 0, "Max results, 0 = unlimited (default: leave.max_results)")
	cmd.Flags().BoolVar(&fromToday, "from-today", false, "Only suggest windows starting today or later")
	cmd.Flags().BoolVar(&holySpirit, "holy-spirit", false, "Include Holy Spirit Monday")
	cmd.Flags().StringVar(&lang, "lang", "", "Label language: el or en")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initializeApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if addr == "" {
				addr = app.cfg.Server.Addr
			}

			handler := api.SetupRoutes(api.NewHandlers(app.service, logger), logger)
			d := daemon.NewDaemon(addr, handler, app.service, app.cfg.Server.GetRefreshInterval(), logger)

			printf("🚀 Serving leave planner API on %s\n", addr)
			return d.Start()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")

	return cmd
}

// app holds the components shared by the commands
type app struct {
	cfg     *config.Config
	service *planner.Service
	closeFn func() error
}

// Close releases the plan store
func (a *app) Close() {
	if a.closeFn == nil {
		return
	}
	if err := a.closeFn(); err != nil {
		logger.Warn("Failed to close plan store", zap.Error(err))
	}
}

func initializeApp(ctx context.Context) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ExpandEnvVars()

	store, closeFn, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Configured preferences apply until a saved plan overrides them
	manager := plan.NewManager(store, cfg.Leave.AnnualDays, clock, logger)
	manager.SetPreferences(plan.Preferences{
		IncludeHolySpirit: cfg.Preferences.IncludeHolySpirit,
		ParentMode:        cfg.Preferences.ParentMode,
		FromToday:         cfg.Preferences.FromToday,
		Language:          cfg.Preferences.Language,
	})
	if err := manager.Load(ctx); err != nil {
		if closeFn != nil {
			closeFn()
		}
		return nil, err
	}

	service := planner.NewService(buildHolidaySource(cfg), manager, clock, planner.Defaults{
		Budget:     cfg.Leave.Budget,
		MaxResults: cfg.Leave.MaxResults,
	}, logger)

	return &app{cfg: cfg, service: service, closeFn: closeFn}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (plan.Store, func() error, error) {
	switch cfg.State.Driver {
	case "sqlite":
		logger.Info("Using SQLite plan store", zap.String("path", cfg.State.Path))
		store, err := plan.OpenSQLiteStore(ctx, cfg.State.Path, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open plan database: %w", err)
		}
		return store, store.Close, nil
	case "json":
		logger.Info("Using JSON plan store", zap.String("file", cfg.State.Path))
		return plan.NewJSONStore(cfg.State.Path, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown state driver: %s", cfg.State.Driver)
	}
}

// buildHolidaySource combines inline, file and remote custom holidays.
// With both a remote URL and a file, the file is the remote's fallback.
func buildHolidaySource(cfg *config.Config) calendar.Source {
	sources := calendar.MultiSource{}
	if len(cfg.Holidays.Custom) > 0 {
		sources = append(sources, calendar.StaticSource(cfg.Holidays.Custom))
	}

	switch {
	case cfg.Holidays.RemoteURL != "" && cfg.Holidays.File != "":
		logger.Info("Using remote custom holidays with file fallback",
			zap.String("url", cfg.Holidays.RemoteURL),
			zap.String("file", cfg.Holidays.File))
		remote := calendar.NewRemoteSource(cfg.Holidays.RemoteURL, cfg.Holidays.GetCacheTTL(), logger)
		file := calendar.NewFileSource(cfg.Holidays.File, logger)
		sources = append(sources, calendar.NewCompositeSource(remote, file, logger))
	case cfg.Holidays.RemoteURL != "":
		logger.Info("Using remote custom holidays", zap.String("url", cfg.Holidays.RemoteURL))
		sources = append(sources, calendar.NewRemoteSource(cfg.Holidays.RemoteURL, cfg.Holidays.GetCacheTTL(), logger))
	case cfg.Holidays.File != "":
		logger.Info("Using custom holidays file", zap.String("file", cfg.Holidays.File))
		sources = append(sources, calendar.NewFileSource(cfg.Holidays.File, logger))
	}

	return sources
}

func initLogger(level string) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	// Setup encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	// Create core with lumberjack writer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}

// periodFromFlags parses --from/--to. With allowDefault, two empty flags
// select the current month.
func periodFromFlags(fromStr, toStr string, allowDefault bool) (calendar.DateRange, error) {
	if fromStr == "" && toStr == "" && allowDefault {
		today := dateutil.StartOfDay(clock())
		start := dateutil.Date(today.Year(), today.Month(), 1)
		return calendar.NewDateRange(start, start.AddDate(0, 1, -1))
	}
	if fromStr == "" || toStr == "" {
		return calendar.DateRange{}, fmt.Errorf("both --from and --to must be specified")
	}

	from, err := dateutil.ParseDate(fromStr)
	if err != nil {
		return calendar.DateRange{}, fmt.Errorf("invalid from date: %w", err)
	}
	to, err := dateutil.ParseDate(toStr)
	if err != nil {
		return calendar.DateRange{}, fmt.Errorf("invalid to date: %w", err)
	}
	return calendar.NewDateRange(from, to)
}

func printf(format string, a ...interface{}) {
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, format, a...)
}

func printLine() {
	printf("═══════════════════════════════════════════════════════\n")
}

func holidayTags(h calendar.Holiday) string {
	tags := ""
	if h.IsMovable {
		tags += " [movable]"
	}
	if h.IsCustom {
		tags += " [custom]"
	}
	return tags
}

func dayTypeLabel(day calendar.DayInfo) string {
	switch day.Type() {
	case calendar.DayTypeHoliday:
		return "🎉 " + day.HolidayName
	case calendar.DayTypeWeekend:
		return "weekend"
	default:
		return "workday"
	}
}
