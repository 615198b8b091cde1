package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hihikaAAa/label-bot/internal/config"
	"github.com/hihikaAAa/label-bot/internal/flows"
	"github.com/hihikaAAa/label-bot/internal/form"
	"github.com/hihikaAAa/label-bot/internal/health"
	"github.com/hihikaAAa/label-bot/internal/jobs"
	"github.com/hihikaAAa/label-bot/internal/lib"
	"github.com/hihikaAAa/label-bot/internal/model"
	"github.com/hihikaAAa/label-bot/internal/notify"
	"github.com/hihikaAAa/label-bot/internal/service"
	"github.com/hihikaAAa/label-bot/internal/storage/sqldb"
	"github.com/hihikaAAa/label-bot/internal/upload"
)

const defaultConfigPath = "config/local.yaml"

var rootCmd = &cobra.Command{
	Use:           "labelbot",
	Short:         "Telegram bot that runs a record label's release checklists",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to YAML config (env LABELBOT_CONFIG or CONFIG_PATH)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	rootCmd.AddCommand(serveCmd(), migrateCmd(), statsCmd(), tasksCmd(), jobCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("ERROR %v", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("LABELBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func loadConfig() (*config.Config, string, error) {
	path := viper.GetString("config")
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, path, nil
}

func withDB(ctx context.Context, fn func(*config.Config, *sqldb.DB) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := sqldb.Open(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	return fn(cfg, db)
}

func newAPI(cfg *config.Config) (*tgbotapi.BotAPI, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("bot_token is not set (BOT_TOKEN)")
	}
	_ = tgbotapi.SetLogger(log.Default())
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("bot: %w", err)
	}
	api.Debug = false
	return api, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, the scheduler and the health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			loc := cfg.Location()
			db, err := sqldb.Open(ctx, cfg.DSN())
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()
			api, err := newAPI(cfg)
			if err != nil {
				return err
			}

			dispatcher := notify.NewDispatcher(lib.Messenger{API: api})
			svc := service.New(db, dispatcher, cfg.AdminIDs, loc)
			svc.Files = lib.Files{API: api, Client: &http.Client{Timeout: time.Minute}}
			if cfg.YandexDisk.Token != "" {
				svc.Uploader = upload.NewYandexDisk(cfg.YandexDisk.Token, cfg.YandexDisk.Folder)
			} else {
				log.Printf("WARN yandex disk token is not set, files stay in Telegram")
			}
			if err := svc.SeedAdmins(ctx); err != nil {
				return err
			}

			var sessions form.Store = db.Sessions()
			if cfg.SessionStore == "memory" {
				sessions = form.NewMemoryStore()
			}
			engine := form.NewEngine(sessions)
			engine.TTL = cfg.FormTTL
			flows.Register(engine, svc)

			j := jobs.New(db, dispatcher, loc, cfg.Schedule.PitchingAlertDays)
			sched := jobs.NewScheduler(j, jobs.Schedule{
				OverdueEvery: cfg.Schedule.OverdueEvery,
				Hours: map[string]int{
					jobs.Reminders:  cfg.Schedule.RemindersHour,
					jobs.Onboarding: cfg.Schedule.OnboardingHour,
					jobs.Pitching:   cfg.Schedule.PitchingHour,
					jobs.SMMDaily:   cfg.Schedule.SMMHour,
				},
			})
			sched.Start(ctx)
			defer sched.Close()

			if cfg.HTTPAddr != "" {
				srv := &http.Server{Addr: cfg.HTTPAddr, Handler: health.Router(db), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Printf("ERROR health server: %v", err)
					}
				}()
				defer func() {
					sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(sctx)
				}()
				log.Printf("INFO health endpoint on %s", cfg.HTTPAddr)
			}

			log.Printf("INFO bot started as @%s with config %s", api.Self.UserName, path)
			return lib.NewBot(api, svc, engine, j).Start(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(_ *config.Config, _ *sqldb.DB) error {
				fmt.Println("schema is up to date")
				return nil
			})
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print record counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(_ *config.Config, db *sqldb.DB) error {
				st, err := db.Stats(cmd.Context())
				if err != nil {
					return err
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Entity", "Count"})
				tw.AppendRows([]table.Row{
					{"users", st.Users},
					{"artists", st.Artists},
					{"releases", st.Releases},
					{"reports", st.Reports},
				})
				tw.AppendSeparator()
				for _, s := range []model.TaskStatus{model.StatusPending, model.StatusInProgress, model.StatusOverdue, model.StatusDone, model.StatusRejected} {
					tw.AppendRow(table.Row{"tasks " + string(s), st.Tasks[s]})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func tasksCmd() *cobra.Command {
	var status string
	var assignee int64
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List open tasks, or tasks in one status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(_ *config.Config, db *sqldb.DB) error {
				ctx := cmd.Context()
				var tasks []*model.Task
				var err error
				if status == "" {
					tasks, err = db.ListOpenTasks(ctx, assignee)
				} else {
					tasks, err = db.ListTasksByStatus(ctx, assignee, model.TaskStatus(status))
				}
				if err != nil {
					return err
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Assignee", "Deadline", "Release"})
				for _, t := range tasks {
					rel := ""
					if t.ReleaseID != 0 {
						rel = fmt.Sprint(t.ReleaseID)
					}
					tw.AppendRow(table.Row{t.ID, t.Title, t.Status, t.AssigneeID, model.FormatDate(t.Deadline), rel})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, in_progress, overdue, done or rejected")
	cmd.Flags().Int64Var(&assignee, "assignee", 0, "telegram id of the assignee")
	return cmd
}

func jobCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "job <" + strings.Join(jobs.Names, "|") + ">",
		Short:     "Run one reconciliation job now",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: jobs.Names,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(cfg *config.Config, db *sqldb.DB) error {
				api, err := newAPI(cfg)
				if err != nil {
					return err
				}
				j := jobs.New(db, notify.NewDispatcher(lib.Messenger{API: api}), cfg.Location(), cfg.Schedule.PitchingAlertDays)
				n, err := j.Run(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Printf("%s: %d item(s)\n", args[0], n)
				return nil
			})
		},
	}
}
