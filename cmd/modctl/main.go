// modctl is the operator CLI for the moderation backend. It talks to
// Postgres directly through the same service layer the API uses, so
// every action taken here lands in the audit log like any other.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/DevAniketIT/Playbharat/internal/config"
	"github.com/DevAniketIT/Playbharat/internal/domain/enums"
	"github.com/DevAniketIT/Playbharat/internal/infra/logger"
	s3infra "github.com/DevAniketIT/Playbharat/internal/infra/s3"
	"github.com/DevAniketIT/Playbharat/internal/jobs/sweep"
	pgrepo "github.com/DevAniketIT/Playbharat/internal/repo/postgres"
	redrepo "github.com/DevAniketIT/Playbharat/internal/repo/redis"
	adminauthsvc "github.com/DevAniketIT/Playbharat/internal/services/adminauth"
	auditsvc "github.com/DevAniketIT/Playbharat/internal/services/audit"
	statsvc "github.com/DevAniketIT/Playbharat/internal/services/stats"
	strikesvc "github.com/DevAniketIT/Playbharat/internal/services/strikes"
	suspsvc "github.com/DevAniketIT/Playbharat/internal/services/suspensions"
)

func main() {
	app := &cli.App{
		Name:  "modctl",
		Usage: "operator CLI for the moderation backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to config file",
				Value:   "configs/config.yaml",
				EnvVars: []string{"APP_CONFIG"},
			},
			&cli.Int64Flag{
				Name:    "actor",
				Usage:   "admin user id performing the action",
				EnvVars: []string{"MODCTL_ACTOR"},
			},
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:  "user",
			Usage: "moderate users",
			Subcommands: []*cli.Command{
				{
					Name:      "strike",
					Usage:     "issue a strike against a user",
					ArgsUsage: "<user-id>",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "type", Usage: "strike type (spam, hate_speech, ...)", Required: true},
						&cli.StringFlag{Name: "severity", Usage: "warning, strike_1, strike_2 or strike_3", Value: string(enums.StrikeSeverityFirst)},
						&cli.StringFlag{Name: "reason", Required: true},
						&cli.StringFlag{Name: "details"},
					},
					Action: runUserStrike,
				},
				{
					Name:      "ban",
					Usage:     "permanently ban a user and suspend their channels",
					ArgsUsage: "<user-id>",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "reason", Required: true},
					},
					Action: runUserBan,
				},
				{
					Name:      "unban",
					Usage:     "lift a user ban and restore cascaded channels",
					ArgsUsage: "<user-id>",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "reason", Required: true},
					},
					Action: runUserUnban,
				},
				{
					Name:      "suspend",
					Usage:     "place a non-ban restriction on a user",
					ArgsUsage: "<user-id>",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "type", Usage: "temporary, shadow_ban, upload_ban or comment_ban", Required: true},
						&cli.StringFlag{Name: "reason", Required: true},
						&cli.IntFlag{Name: "hours", Usage: "duration in hours, 0 means the type default"},
					},
					Action: runUserSuspend,
				},
				{
					Name:      "strikes",
					Usage:     "list a user's strikes with the active count",
					ArgsUsage: "<user-id>",
					Flags: []cli.Flag{
						&cli.IntFlag{Name: "limit", Value: 50},
					},
					Action: runUserStrikes,
				},
			},
		},
		{
			Name:  "channel",
			Usage: "moderate channels",
			Subcommands: []*cli.Command{
				{
					Name:      "suspend",
					Usage:     "suspend a channel or disable one of its capabilities",
					ArgsUsage: "<channel-id>",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "type", Usage: "temporary, permanent, upload_disabled or monetization_disabled", Required: true},
						&cli.StringFlag{Name: "reason", Required: true},
						&cli.IntFlag{Name: "hours", Usage: "duration in hours, 0 means the type default"},
					},
					Action: runChannelSuspend,
				},
			},
		},
		{
			Name:  "suspension",
			Usage: "manage suspensions",
			Subcommands: []*cli.Command{
				{
					Name:      "lift",
					Usage:     "lift an active suspension and restore the target",
					ArgsUsage: "<suspension-id>",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "reason", Required: true},
					},
					Action: runSuspensionLift,
				},
				{
					Name:   "sweep",
					Usage:  "run the expiry sweep once (expired strikes and suspensions)",
					Action: runSweep,
				},
			},
		},
		{
			Name:  "audit",
			Usage: "query and export the audit log",
			Subcommands: []*cli.Command{
				{
					Name:  "export",
					Usage: "export audit entries to stdout or a file",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "format", Value: "csv", Usage: "csv or json"},
						&cli.StringFlag{Name: "out", Usage: "output file, stdout when empty"},
						&cli.StringFlag{Name: "action-type"},
						&cli.Int64Flag{Name: "admin-id"},
						&cli.Int64Flag{Name: "user-id"},
						&cli.StringFlag{Name: "since", Usage: "RFC3339 lower bound"},
						&cli.IntFlag{Name: "limit", Value: 1000},
					},
					Action: runAuditExport,
				},
				{
					Name:  "archive",
					Usage: "export audit entries and upload them to object storage",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "format", Value: "csv", Usage: "csv or json"},
						&cli.StringFlag{Name: "since", Usage: "RFC3339 lower bound"},
						&cli.IntFlag{Name: "limit", Value: 10000},
					},
					Action: runAuditArchive,
				},
			},
		},
		{
			Name:   "stats",
			Usage:  "print the moderation overview",
			Action: runStats,
		},
		{
			Name:  "token",
			Usage: "mint a moderation API token",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "admin-id", Required: true},
				&cli.StringFlag{Name: "handle"},
				&cli.StringFlag{Name: "role", Value: string(enums.RoleModerator)},
			},
			Action: runToken,
		},
	}

	app.RunAndExitOnError()
}

// env is the wired backend a command runs against. Close it when done.
type env struct {
	cfg         config.Config
	log         *zap.Logger
	pool        *pgxpool.Pool
	redis       *goredis.Client
	strikes     *strikesvc.Service
	suspensions *suspsvc.Service
	audit       *auditsvc.Service
	stats       *statsvc.Service
}

func openEnv(cctx *cli.Context) (*env, error) {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := pgrepo.NewPool(cctx.Context, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	runner := pgrepo.NewTxRunner(pool)
	userRepo := pgrepo.NewUserRepo(pool)
	channelRepo := pgrepo.NewChannelRepo(pool)
	strikeRepo := pgrepo.NewStrikeRepo(pool)
	suspensionRepo := pgrepo.NewSuspensionRepo(pool)
	actionRepo := pgrepo.NewAdminActionRepo(pool)
	statsRepo := pgrepo.NewStatsRepo(pool)
	countCache := redrepo.NewStrikeCountRepo(redisClient, cfg.Moderation.CountCacheTTL)

	policy := cfg.Moderation.Policy()
	strikes := strikesvc.NewService(strikesvc.Dependencies{
		Runner:      runner,
		Users:       userRepo,
		Strikes:     strikeRepo,
		Channels:    channelRepo,
		Suspensions: suspensionRepo,
		Audit:       actionRepo,
		Cache:       countCache,
	}, policy)
	suspensions := suspsvc.NewService(suspsvc.Dependencies{
		Runner:      runner,
		Users:       userRepo,
		Channels:    channelRepo,
		Suspensions: suspensionRepo,
		Strikes:     strikeRepo,
		Audit:       actionRepo,
	}, policy)

	var uploader auditsvc.Uploader
	if cfg.Moderation.ArchiveEnabled {
		c, err := s3infra.NewClient(s3infra.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err == nil {
			err = c.EnsureBucket(cctx.Context)
		}
		if err != nil {
			log.Warn("s3 init failed, archive unavailable", zap.Error(err))
		} else {
			uploader = c
		}
	}
	audit := auditsvc.NewService(actionRepo, uploader, auditsvc.ArchiveConfig{
		Prefix: cfg.Moderation.ArchivePrefix,
	})
	stats := statsvc.NewService(statsRepo, strikeRepo, actionRepo)

	return &env{
		cfg:         cfg,
		log:         log,
		pool:        pool,
		redis:       redisClient,
		strikes:     strikes,
		suspensions: suspensions,
		audit:       audit,
		stats:       stats,
	}, nil
}

func (e *env) Close() {
	e.pool.Close()
	_ = e.redis.Close()
	_ = e.log.Sync()
}

func requireActor(cctx *cli.Context) (int64, error) {
	actor := cctx.Int64("actor")
	if actor <= 0 {
		return 0, fmt.Errorf("--actor (or MODCTL_ACTOR) is required for this command")
	}
	return actor, nil
}

func argID(cctx *cli.Context, name string) (int64, error) {
	raw := cctx.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("%s argument is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runUserStrike(cctx *cli.Context) error {
	userID, err := argID(cctx, "user id")
	if err != nil {
		return err
	}
	actor, err := requireActor(cctx)
	if err != nil {
		return err
	}
	e, err := openEnv(cctx)
	if err != nil {
		return err
	}
	defer e.Close()

	strike, err := e.strikes.IssueStrike(cctx.Context, strikesvc.IssueStrikeInput{
		UserID:   userID,
		IssuerID: actor,
		Type:     enums.StrikeType(cctx.String("type")),
		Severity: enums.StrikeSeverity(cctx.String("severity")),
		Reason:   cctx.String("reason"),
		Details:  cctx.String("details"),
	})
	if err != nil {
		return err
	}
	return printJSON(strike)
}

func runUserBan(cctx *cli.Context) error {
	userID, err := argID(cctx, "user id")
	if err != nil {
		return err
	}
	actor, err := requireActor(cctx)
	if err != nil {
		return err
	}
	e, err := openEnv(cctx)
	if err != nil {
		return err
	}
	defer e.Close()

	susp, err := e.suspensions.BanUser(cctx.Context, userID, actor, cctx.String("reason"), "")
	if err != nil {
		return err
	}
	return printJSON(susp)
}

func runUserUnban(cctx *cli.Context) error {
	userID, err := argID(cctx, "user id")
	if err != nil {
		return err
	}
	actor, err := requireActor(cctx)
	if err != nil {
		return err
	}
	e, err := openEnv(cctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.suspensions.UnbanUser(cctx.Context, userID, actor, cctx.String("reason"), ""); err != nil {
		return err
	}
	fmt.Printf("user %d unbanned\n", userID)
	return nil
}

func runUserSuspend(cctx *cli.Context) error {
	userID, err := argID(cctx, "user id")
	if err != nil {
		return err
	}
	actor, err := requireActor(cctx)
	if err != nil {
		return err
	}
	e, err := openEnv(cctx)
	if err != nil {
		return err
	}
	defer e.Close()

	susp, err := e.suspensions.SuspendUser(cctx.Context, suspsvc.SuspendUserInput{
		UserID:   userID,
		IssuerID: actor,
		Type:     enums.SuspensionType(cctx.String("type")),
		Reason:   cctx.String("reason"),
		Duration: time.Duration(cctx.Int("hours")) * time.Hour,
	})
	if err != nil {
		return err
	}
	return printJSON(susp)
}

func runUserStrikes(cctx *cli.Context) error {
	userID, err := argID(cctx, "user id")
	if err != nil {
		return err
	}
	e, err := openEnv(cctx)
	if err != nil {
		return err
	}
	defer e.Close()

	strikes, err := e.strikes.ListUserStrikes(cctx.Context, userID, cctx.Int("limit"))
	if err != nil {
		return err
	}
	active, err := e.strikes.ActiveStrikeCount(cctx.Context, userID)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"active_strikes": active,
		"strikes":        strikes,
	})
}

func runChannelSuspend(cctx *cli.Context) error {
	channelID, err := argID(cctx, "channel id")
	if err != nil {
		return err
	}
	actor, err := requireActor(cctx)
	if err != nil {
		return err
	}
	e, err := openEnv(cctx)
	if err != nil {
		return err
	}
	defer e.Close()

	susp, err := e.suspensions.SuspendChannel(cctx.Context, suspsvc.SuspendChannelInput{
		ChannelID: channelID,
		IssuerID:  actor,
		Type:      enums.SuspensionType(cctx.String("type")),
		Reason:    cctx.String("reason"),
		Duration:  time.Duration(cctx.Int("hours")) * time.Hour,
	})
	if err != nil {
		return err
	}
	return printJSON(susp)
}

func runSuspensionLift(cctx *cli.Context) error {
	suspensionID, err := argID(cctx, "suspension id")
	if err != nil {
		return err
	}
	actor, err := requireActor(cctx)
	if err != nil {
		return err
	}
	e, err := openEnv(cctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.suspensions.Lift(cctx.Context, suspensionID, actor, cctx.String("reason"), ""); err != nil {
		return err
	}
	fmt.Printf("suspension %d lifted\n", suspensionID)
	return nil
}

func runSweep(cctx *cli.Context) error {
	e, err := openEnv(cctx)
	if err != nil {
		return err
	}
	defer e.Close()

	actor := cctx.Int64("actor")
	if actor <= 0 {
		actor = e.cfg.Moderation.SweepActorID
	}
	job := sweep.NewJob(e.strikes, e.suspensions, actor, e.log)
	return job.Run(cctx.Context)
}

func auditFilterFromFlags(cctx *cli.Context) (pgrepo.ActionFilter, error) {
	filter := pgrepo.ActionFilter{
		ActionType:   cctx.String("action-type"),
		AdminID:      cctx.Int64("admin-id"),
		TargetUserID: cctx.Int64("user-id"),
		Limit:        cctx.Int("limit"),
	}
	if raw := cctx.String("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return pgrepo.ActionFilter{}, fmt.Errorf("invalid --since %q: %w", raw, err)
		}
		filter.Since = &since
	}
	return filter, nil
}

func runAuditExport(cctx *cli.Context) error {
	e, err := openEnv(cctx)
	if err != nil {
		return err
	}
	defer e.Close()

	filter, err := auditFilterFromFlags(cctx)
	if err != nil {
		return err
	}

	var payload []byte
	switch format := cctx.String("format"); format {
	case "csv":
		payload, err = e.audit.ExportCSV(cctx.Context, filter)
	case "json":
		payload, err = e.audit.ExportJSON(cctx.Context, filter)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return err
	}

	if out := cctx.String("out"); out != "" {
		if err := os.WriteFile(out, payload, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes to %s\n", len(payload), out)
		return nil
	}
	_, err = os.Stdout.Write(payload)
	return err
}

func runAuditArchive(cctx *cli.Context) error {
	e, err := openEnv(cctx)
	if err != nil {
		return err
	}
	defer e.Close()

	filter, err := auditFilterFromFlags(cctx)
	if err != nil {
		return err
	}
	key, err := e.audit.Archive(cctx.Context, filter, cctx.String("format"))
	if err != nil {
		return err
	}
	fmt.Printf("archived to s3://%s/%s\n", e.cfg.S3.Bucket, key)
	return nil
}

func runStats(cctx *cli.Context) error {
	e, err := openEnv(cctx)
	if err != nil {
		return err
	}
	defer e.Close()

	overview, err := e.stats.Overview(cctx.Context)
	if err != nil {
		return err
	}
	return printJSON(overview)
}

func runToken(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tokens := adminauthsvc.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	token, expiresAt, err := tokens.Issue(
		cctx.Int64("admin-id"),
		cctx.String("handle"),
		enums.Role(cctx.String("role")),
	)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}
