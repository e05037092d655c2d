package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ldelia/ratewatch/internal/alerts"
	"github.com/ldelia/ratewatch/internal/calendar"
	"github.com/ldelia/ratewatch/internal/compare"
	"github.com/ldelia/ratewatch/internal/config"
	"github.com/ldelia/ratewatch/internal/currency"
	"github.com/ldelia/ratewatch/internal/logger"
	"github.com/ldelia/ratewatch/internal/models"
	"github.com/ldelia/ratewatch/internal/normalize"
	"github.com/ldelia/ratewatch/internal/storage"
	"github.com/ldelia/ratewatch/internal/telegram"
	"github.com/ldelia/ratewatch/internal/xotelo"
)

const isoDate = "2006-01-02"

var (
	configPath       = flag.String("config", "configs/config.yaml", "Path to configuration file")
	checkInFlag      = flag.String("check-in", "", "Check-in date (YYYY-MM-DD, default today)")
	checkOutFlag     = flag.String("check-out", "", "Check-out date (YYYY-MM-DD, default check-in plus 3 nights)")
	currencyFlag     = flag.String("currency", "", "Override the configured display currency")
	showCalendarFlag = flag.Bool("calendar", false, "Print the reference property's price-level calendar")
)

// Seed factors for a fresh FX store; live fetches overwrite them.
var seedRates = map[[2]string]float64{
	{"USD", "EUR"}: 0.92,
	{"EUR", "USD"}: 1.09,
	{"GBP", "EUR"}: 1.17,
	{"EUR", "GBP"}: 0.85,
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *currencyFlag != "" {
		cfg.Search.Currency = *currencyFlag
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	checkIn, checkOut, err := stayWindow(*checkInFlag, *checkOutFlag)
	if err != nil {
		logger.Fatal("Invalid stay window: %v", err)
	}

	fxStore, err := storage.Open(cfg.Storage.FXDBPath)
	if err != nil {
		logger.Fatal("Failed to open FX store: %v", err)
	}
	defer func() {
		if err := fxStore.Close(); err != nil {
			logger.Error("Failed to close FX store: %v", err)
		}
	}()
	if err := fxStore.Seed(seedRates, time.Now()); err != nil {
		logger.Warn("Failed to seed FX store: %v", err)
	}

	cache := currency.New(
		currency.NewFrankfurterClient(cfg.Currency.PrimaryURL, cfg.Currency.Timeout),
		currency.NewExchangeHostClient(cfg.Currency.SecondaryURL, cfg.Currency.Timeout),
		fxStore,
		cfg.Currency.TTL,
	)

	client := xotelo.NewClient(cfg.Xotelo.BaseURL, cfg.Xotelo.Timeout, cfg.Xotelo.MaxRetries, cfg.Xotelo.RetryDelayBase)

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	properties := cfg.Properties
	if len(properties) == 0 {
		properties, err = discoverProperties(ctx, client, cfg)
		if err != nil {
			logger.Fatal("Competitor discovery failed: %v", err)
		}
	}
	reference := cfg.ReferenceKey()
	if reference == "" && len(properties) > 0 {
		reference = properties[0].Key
	}

	if err := runSearch(ctx, client, cache, telegramClient, cfg, properties, reference, checkIn, checkOut); err != nil {
		if telegramClient != nil {
			if sendErr := telegramClient.SendError(err); sendErr != nil {
				logger.Error("Failed to send error notification: %v", sendErr)
			}
		}
		logger.Fatal("Search failed: %v", err)
	}

	if *showCalendarFlag {
		if err := printCalendar(ctx, client, reference, checkIn, checkOut); err != nil {
			logger.Error("Calendar fetch failed: %v", err)
		}
	}
}

func stayWindow(inFlag, outFlag string) (time.Time, time.Time, error) {
	checkIn := time.Now().Truncate(24 * time.Hour)
	if inFlag != "" {
		t, err := time.Parse(isoDate, inFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad check-in date: %w", err)
		}
		checkIn = t
	}
	checkOut := checkIn.AddDate(0, 0, 3)
	if outFlag != "" {
		t, err := time.Parse(isoDate, outFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad check-out date: %w", err)
		}
		checkOut = t
	}
	return checkIn, checkOut, nil
}

func discoverProperties(ctx context.Context, client *xotelo.Client, cfg *config.Config) ([]config.PropertyConfig, error) {
	logger.Info("Discovering competitors for location %s", cfg.Xotelo.LocationKey)
	listed, err := client.List(ctx, cfg.Xotelo.LocationKey, cfg.Xotelo.DiscoveryLimit, 0, cfg.Xotelo.DiscoverySort)
	if err != nil {
		return nil, err
	}
	properties := make([]config.PropertyConfig, 0, len(listed))
	for _, p := range listed {
		properties = append(properties, config.PropertyConfig{Key: p.Key, Name: p.Name})
	}
	logger.Info("Discovered %d properties", len(properties))
	return properties, nil
}

func runSearch(
	ctx context.Context,
	client *xotelo.Client,
	cache *currency.Cache,
	telegramClient *telegram.Client,
	cfg *config.Config,
	properties []config.PropertyConfig,
	reference string,
	checkIn, checkOut time.Time,
) error {
	searchID := uuid.New().String()
	startTime := time.Now()
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	occupancy := models.Occupancy{
		Adults:       cfg.Search.Adults,
		ChildrenAges: cfg.Search.ChildrenAges,
		Rooms:        cfg.Search.Rooms,
	}
	normCfg := normalize.Config{
		TaxInclusive: cfg.Normalize.TaxInclusive,
		Denylist:     cfg.Normalize.Denylist,
	}

	logger.Info("Search %s: %d properties, %s to %s (%d nights, %s)",
		searchID, len(properties), checkIn.Format(isoDate), checkOut.Format(isoDate), nights, cfg.Search.Currency)

	contexts := make([]models.ComparisonContext, len(properties))
	for i, p := range properties {
		contexts[i] = models.ComparisonContext{
			PropertyID:   p.Key,
			PropertyName: p.Name,
			CheckIn:      checkIn,
			CheckOut:     checkOut,
			Nights:       nights,
			Occupancy:    occupancy,
			Currency:     cfg.Search.Currency,
			Reference:    reference,
		}
		if err := contexts[i].Validate(); err != nil {
			return err
		}
	}

	// Per-property fetches are independent; partial failure is expected and
	// surfaces as sentinel datasets, not as an error.
	datasets := make([]models.PropertyDataset, len(properties))
	var wg sync.WaitGroup
	for i := range properties {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pctx := contexts[i]
			payload := client.Rates(ctx, pctx.PropertyID, pctx.CheckIn, pctx.CheckOut, pctx.Occupancy, pctx.Currency)
			records := normalize.Normalize(payload, pctx, normCfg)
			records, degraded := normalize.ConvertRecords(records, cache, pctx.Currency)
			if degraded {
				logger.Warn("Conversion degraded for %s; static or heuristic factors in use", pctx.PropertyName)
			}
			datasets[i] = models.PropertyDataset{
				PropertyID:   pctx.PropertyID,
				PropertyName: pctx.PropertyName,
				Records:      records,
			}
		}(i)
	}
	wg.Wait()

	dataset := models.ComparisonDataset{Properties: datasets}
	if err := dataset.Validate(); err != nil {
		logger.Warn("Dataset inconsistency: %v", err)
	}

	cmpCfg := compare.Config{Field: priceField(cfg.Search.PriceField), RankTies: rankMode(cfg.Compare.RankTies)}
	summaries := compare.Aggregate(dataset, reference, cmpCfg)
	parity := compare.Parity(dataset, reference, cmpCfg)
	findings := alerts.Evaluate(summaries, parity, alerts.Thresholds{
		OverpricedDeviationPct: cfg.Alerts.OverpricedDeviationPct,
		ParityTolerancePct:     cfg.Alerts.ParityTolerancePct,
		DistributionFloor:      cfg.Alerts.DistributionFloor,
		DistributionCeiling:    cfg.Alerts.DistributionCeiling,
		SpreadPct:              cfg.Alerts.SpreadPct,
	})

	printDigest(os.Stdout, cfg.Search.Currency, reference, summaries, parity, findings)

	if telegramClient != nil {
		refName := reference
		for _, p := range properties {
			if p.Key == reference && p.Name != "" {
				refName = p.Name
			}
		}
		if err := telegramClient.SendDigest(refName, cfg.Search.Currency, summaries, findings); err != nil {
			logger.Error("Failed to send Telegram digest: %v", err)
		} else {
			logger.Info("Sent Telegram digest")
		}
	}

	logger.Info("Search %s completed in %v", searchID, time.Since(startTime))
	return nil
}

func priceField(s string) compare.PriceField {
	if s == "price_total" {
		return compare.FieldTotal
	}
	return compare.FieldPerNight
}

func rankMode(s string) compare.RankMode {
	if s == "weak" {
		return compare.RankWeak
	}
	return compare.RankStrict
}

func printDigest(w io.Writer, curr, reference string, summaries []models.CompetitiveSummary, parity []models.ParityRow, findings []models.Alert) {
	fmt.Fprintf(w, "\nRate comparison (%s)\n", curr)
	for _, s := range summaries {
		marker := " "
		if s.PropertyID == reference {
			marker = "*"
		}
		if !s.Available {
			fmt.Fprintf(w, "%s %-35s no rates available\n", marker, s.PropertyName)
			continue
		}
		fmt.Fprintf(w, "%s %-35s min %8.2f  max %8.2f  mean %8.2f  best %-15s (%d OTAs)\n",
			marker, s.PropertyName, s.Min, s.Max, s.Mean, s.BestDistributor, s.DistributorCount)
		if s.Reference != nil {
			fmt.Fprintf(w, "  rank %d | gap vs nearest %+.2f | market avg %.2f | deviation %+.2f%%\n",
				s.Reference.Rank, s.Reference.GapVsNearest, s.Reference.MarketAverage, s.Reference.DeviationVsMarket)
		}
	}

	if len(parity) > 0 {
		fmt.Fprintf(w, "\nParity vs reference\n")
		for _, row := range parity {
			fmt.Fprintf(w, "  %-35s min %8.2f  diff %+8.2f  (%+.2f%%)\n",
				row.PropertyName, row.MinPrice, row.PriceDiff, row.PercDiff)
		}
	}

	if len(findings) > 0 {
		fmt.Fprintf(w, "\nAlerts\n")
		for _, a := range findings {
			fmt.Fprintf(w, "  [%s] %s\n", a.Severity, a.Code)
		}
	}
	fmt.Fprintln(w)
}

var levelSymbols = map[models.PriceLevel]string{
	models.LevelCheap:       "c",
	models.LevelAverage:     "a",
	models.LevelHigh:        "h",
	models.LevelUnavailable: "·",
}

func printCalendar(ctx context.Context, client *xotelo.Client, reference string, checkIn, checkOut time.Time) error {
	sets, err := client.Heatmap(ctx, reference, checkOut)
	if err != nil {
		return err
	}
	levels := calendar.Classify([]models.DaySets{sets})
	grid := calendar.MonthGrid(checkIn, levels, reference)

	fmt.Printf("\nPrice calendar %s (c=cheap a=average h=high)\n", grid.Month.Format("January 2006"))
	fmt.Println("  Mo   Tu   We   Th   Fr   Sa   Su")
	for _, week := range grid.Weeks {
		for _, cell := range week {
			if cell.Empty {
				fmt.Print("     ")
				continue
			}
			fmt.Printf(" %2d%s ", cell.Day, levelSymbols[cell.Level])
		}
		fmt.Println()
	}
	fmt.Println()
	return nil
}
