package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/shopify-unhold/internal/config"
	"github.com/Sternrassler/shopify-unhold/pkg/client"
	"github.com/Sternrassler/shopify-unhold/pkg/logging"
	"github.com/Sternrassler/shopify-unhold/pkg/metrics"
	"github.com/Sternrassler/shopify-unhold/pkg/orderid"
	"github.com/Sternrassler/shopify-unhold/pkg/ratelimit"
	"github.com/Sternrassler/shopify-unhold/pkg/unhold"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ConfigDir       string
	Location        string
	LogLevel        string
	Pretty          bool
	Timeout         time.Duration
	PollInterval    time.Duration
	PollAttempts    int
	MetricsTextfile string
	Version         bool
}

// version is set at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var flags cliFlags

	fs := flag.NewFlagSet("unhold", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: unhold [flags] <order>... (e.g. #1001 #1005-#1010)")
		fs.PrintDefaults()
	}
	fs.StringVar(&flags.ConfigDir, "config", ".", "directory holding config.yaml and .env")
	fs.StringVar(&flags.Location, "location", "", "location whose held orders are released (overrides config)")
	fs.StringVar(&flags.LogLevel, "log-level", string(logging.LevelOff), "console log level: debug, info, warn, error, off")
	fs.BoolVar(&flags.Pretty, "pretty", false, "human-readable console logs")
	fs.DurationVar(&flags.Timeout, "timeout", 10*time.Minute, "overall run timeout, 0 for none")
	fs.DurationVar(&flags.PollInterval, "poll-interval", unhold.DefaultPollConfig().Interval, "wait between job polls")
	fs.IntVar(&flags.PollAttempts, "poll-attempts", unhold.DefaultPollConfig().MaxAttempts, "maximum number of job polls")
	fs.StringVar(&flags.MetricsTextfile, "metrics-textfile", "", "write metrics to this file when the run ends (overrides config)")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if flags.Version {
		fmt.Fprintln(stdout, version)
		return 0
	}

	names, err := orderid.Expand(fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(names) == 0 {
		fmt.Fprintln(stdout, "No orders input, exiting")
		return 0
	}

	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if flags.Location != "" {
		cfg.Location = flags.Location
	}
	if flags.MetricsTextfile != "" {
		cfg.MetricsTextfile = flags.MetricsTextfile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	logCfg := logging.Config{
		Level:  logging.LogLevel(flags.LogLevel),
		Pretty: flags.Pretty,
		Output: stderr,
	}
	runLog, err := logging.OpenRunLog(cfg.LogDir, time.Now())
	if err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
	} else {
		defer runLog.Close()
		logCfg.File = runLog
	}
	logging.Setup(logCfg)
	logger := logging.NewLogger("unhold")

	if cfg.MetricsTextfile != "" {
		defer func() {
			if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
				logger.Warn().Err(err).Msg("Failed to write metrics")
				fmt.Fprintf(stderr, "warning: %v\n", err)
			}
		}()
	}

	if flags.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.Timeout)
		defer cancel()
	}

	store, closeStore := newThrottleStore(ctx, cfg.RedisURL, logger)
	defer closeStore()

	shop := cfg.Store
	if shop == "" {
		shop = cfg.Endpoint
	}

	clientCfg := client.DefaultConfig(cfg.Store, cfg.Token)
	clientCfg.Endpoint = cfg.Endpoint
	clientCfg.UserAgent = "shopify-unhold/" + version
	clientCfg.Throttle = ratelimit.NewTracker(store, shop, logging.NewLogger("throttle"))
	if cfg.APIVersion != "" {
		clientCfg.APIVersion = cfg.APIVersion
	}

	shopify, err := client.New(clientCfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	unholder := unhold.New(unhold.NewShopifyRemote(shopify), unhold.Config{
		Location: cfg.Location,
		Poll: unhold.PollConfig{
			Interval:    flags.PollInterval,
			MaxAttempts: flags.PollAttempts,
		},
	}, logger)

	fmt.Fprintf(stdout, "Total of %d orders\n", len(names))

	report, err := unholder.RunNames(ctx, names)
	if err == nil || report.Matched > 0 {
		fmt.Fprintf(stdout, "Found %d fulfillment orders\n", report.Matched)
	}
	if err != nil {
		logger.Error().
			Err(err).
			Str("outcome", unhold.KindOf(err).String()).
			Msg("Run failed")
		printFailure(stderr, err)
		return 1
	}

	fmt.Fprintf(stdout, "Removed hold on %d orders\n", report.Released)
	return 0
}

// newThrottleStore connects to Redis when configured and falls back to
// process memory when Redis is absent or unreachable.
func newThrottleStore(ctx context.Context, redisURL string, logger zerolog.Logger) (ratelimit.Store, func()) {
	if redisURL == "" {
		return ratelimit.NewMemoryStore(), func() {}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid Redis URL, keeping throttle state in memory")
		return ratelimit.NewMemoryStore(), func() {}
	}

	redisClient := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis unreachable, keeping throttle state in memory")
		redisClient.Close()
		return ratelimit.NewMemoryStore(), func() {}
	}

	logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	return ratelimit.NewRedisStore(redisClient), func() { redisClient.Close() }
}

// printFailure writes the message of a failed run followed by its details.
func printFailure(w io.Writer, err error) {
	var (
		notFound   *unhold.NotFoundError
		userErrors *unhold.UserErrorsError
		unmodified *unhold.UnmodifiedOrdersError
	)

	switch unhold.KindOf(err) {
	case unhold.KindNotFound:
		errors.As(err, &notFound)
		fmt.Fprintln(w, "Could not find held fulfillment orders for:")
		for _, name := range notFound.Names {
			fmt.Fprintf(w, "  %s\n", name)
		}
	case unhold.KindUserErrors:
		errors.As(err, &userErrors)
		fmt.Fprintln(w, "User errors were present in the response:")
		for _, ue := range userErrors.Errors {
			if field := ue.FieldPath(); field != "" {
				fmt.Fprintf(w, "  %s: %s\n", field, ue.Message)
			} else {
				fmt.Fprintf(w, "  %s\n", ue.Message)
			}
		}
	case unhold.KindUnmodified:
		errors.As(err, &unmodified)
		fmt.Fprintf(w, "Job %s left fulfillment orders on hold:\n", unmodified.JobID)
		for _, id := range unmodified.IDs {
			fmt.Fprintf(w, "  %s\n", id)
		}
	case unhold.KindCancelled:
		fmt.Fprintf(w, "Cancelled: %v\n", err)
	case unhold.KindFormat, unhold.KindJobTimeout:
		fmt.Fprintln(w, err)
	default:
		fmt.Fprintf(w, "Unexpected error: %v\n", err)
	}
}
