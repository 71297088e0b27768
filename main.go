// aa-memberaudit periodically syncs EVE Online character data from ESI into
// a local SQLite database. One binary, no daemon manager required.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antihax/goesi"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/staropera/aa-memberaudit/internal/app/characterservice"
	"github.com/staropera/aa-memberaudit/internal/app/eveuniverseservice"
	"github.com/staropera/aa-memberaudit/internal/app/statuscacheservice"
	"github.com/staropera/aa-memberaudit/internal/app/storage"
	"github.com/staropera/aa-memberaudit/internal/errorcounter"
	"github.com/staropera/aa-memberaudit/internal/httptransport"
	"github.com/staropera/aa-memberaudit/internal/memcache"
	"github.com/staropera/aa-memberaudit/internal/sso"
	"github.com/staropera/aa-memberaudit/internal/taskqueue"
)

const (
	userAgent       = "aa-memberaudit"
	esiRateLimit    = 20 // requests per second
	esiRateBurst    = 40
	errorTimeWindow = time.Minute
)

// defined flags
var (
	levelFlag    logLevelFlag
	clientIDFlag = flag.String("clientid", "", "Eve SSO client ID used for token refresh")
	dbFlag       = flag.String("db", "memberaudit.sqlite", "Path to the SQLite database file")
	intervalFlag = flag.Duration("interval", 30*time.Minute, "Time between full sync runs")
	logFileFlag  = flag.String("logfile", "", "Write logs to this file instead of the console")
	maxMailsFlag = flag.Int("maxmails", 1000, "Maximum number of mail headers fetched per sync, 0 for no limit")
	statsFlag    = flag.Bool("stats", false, "Print sync statistics as JSON and exit")
	workersFlag  = flag.Int("workers", 10, "Number of task queue workers")
)

func init() {
	levelFlag.value = slog.LevelInfo
	flag.Var(&levelFlag, "loglevel", "set log level")
}

func main() {
	flag.Parse()
	slog.SetLogLoggerLevel(levelFlag.value)
	if *logFileFlag != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   *logFileFlag,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
		})
	}
	db, err := storage.InitDB(*dbFlag)
	if err != nil {
		log.Fatalf("Failed to initialize database %s: %s", *dbFlag, err)
	}
	defer db.Close()
	st := storage.New(db)

	httpClient := &http.Client{
		Transport: httptransport.LoggedTransport{},
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = slog.Default()
	rc.ResponseLogHook = logResponse
	rc.HTTPClient.Transport = httptransport.RateLimitedTransport{
		Limiter: rate.NewLimiter(esiRateLimit, esiRateBurst),
	}
	esiClient := goesi.NewAPIClient(rc.StandardClient(), userAgent)

	cache := memcache.New()
	defer cache.Close()
	scs := statuscacheservice.New(cache, st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := scs.InitCache(ctx); err != nil {
		log.Fatal(err)
	}
	if *statsFlag {
		if err := printStatistics(ctx, scs); err != nil {
			log.Fatal(err)
		}
		return
	}
	if *clientIDFlag == "" {
		slog.Warn("No SSO client ID configured, expired tokens can not be refreshed")
	}

	queue := taskqueue.New()
	eus := eveuniverseservice.New(eveuniverseservice.Params{
		ESIClient:    esiClient,
		ErrorCounter: errorcounter.New(cache, errorTimeWindow),
		Queue:        queue,
		Storage:      st,
	})
	cs := characterservice.New(characterservice.Params{
		ESIClient:          esiClient,
		EveUniverseService: eus,
		HTTPClient:         httpClient,
		MaxMails:           *maxMailsFlag,
		Queue:              queue,
		SSOService:         sso.New(httpClient, *clientIDFlag),
		StatusCacheService: scs,
		Storage:            st,
	})
	eus.TokenForCharacter = cs.TokenForCharacter

	go queue.Start(ctx, *workersFlag)
	slog.Info("Started", "workers", *workersFlag, "interval", *intervalFlag, "db", *dbFlag)

	ticker := time.NewTicker(*intervalFlag)
	defer ticker.Stop()
	for {
		if err := cs.UpdateAllCharacters(ctx); err != nil {
			slog.Error("Failed to submit character updates", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("Shutting down")
			queue.Wait()
			return
		case <-ticker.C:
		}
	}
}

// printStatistics writes the current sync statistics to stdout.
func printStatistics(ctx context.Context, scs *statuscacheservice.StatusCacheService) error {
	stats, err := scs.CalculateStatistics(ctx)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if stats.OldestUpdate != nil {
		fmt.Printf("Oldest update: %s\n", humanize.Time(*stats.OldestUpdate))
	}
	if stats.NewestUpdate != nil {
		fmt.Printf("Newest update: %s\n", humanize.Time(*stats.NewestUpdate))
	}
	return nil
}
