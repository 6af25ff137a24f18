package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rendis/storetap/internal/config"
	"github.com/rendis/storetap/internal/engine/crawler"
	"github.com/rendis/storetap/internal/engine/export"
	"github.com/rendis/storetap/internal/engine/geo"
	"github.com/rendis/storetap/internal/engine/oracle"
	"github.com/rendis/storetap/internal/engine/storage"
	"github.com/rendis/storetap/internal/metrics"
	"github.com/rendis/storetap/internal/model"
	"github.com/rendis/storetap/internal/tui"
	"github.com/rendis/storetap/internal/tui/views"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Discover a brand's locations through its store locator",
	Long: `Crawl a brand's store-locator API outward from seed points.

Every location found seeds new queries on two rings around it, so the crawl
follows the store network until no unvisited cell is left, the --max-cells
budget is spent or --timeout expires. Seeds come from --grid, --bounds,
--region, --seed-file, --metros and --center (combinable; --grid us when none
is given). --grid, --bounds and --region keep the crawl inside their box;
--region-file restricts it to GeoJSON polygons.

Writes <brand>_<timestamp>.db, .csv and .log under output.dir.`,
	Example: `  storetap crawl --brand starbucks --grid us --workers 2
  storetap crawl --brand raisingcanes --region "Texas, US" --max-cells 500
  storetap crawl --brand starbucks --bounds 40,-75,41,-73 --tui`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		brandName, _ := cmd.Flags().GetString("brand")
		brand, err := lookupBrand(brandName, kindCrawl)
		if err != nil {
			return err
		}
		if err := applyCrawlFlags(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		useTUI, _ := cmd.Flags().GetBool("tui")
		skipProbe, _ := cmd.Flags().GetBool("skip-probe")

		base, err := sessionBase(cfg.Output.Dir, brand.name, time.Now())
		if err != nil {
			return err
		}
		logCfg := cfg.Log
		logCfg.File = base + ".log"
		logCfg.Quiet = useTUI
		if err := config.InitLogger(logCfg); err != nil {
			return eris.Wrap(err, "crawl: init session logger")
		}
		log := zap.L().With(zap.String("command", "crawl"), zap.String("brand", brand.name))

		plan, err := resolveSeeds(ctx, readSeedFlags(cmd), cfg.Crawl.GridStepDeg, &geo.Geocoder{})
		if err != nil {
			return err
		}
		log.Info("seeds resolved",
			zap.Int("seeds", len(plan.seeds)),
			zap.Strings("sources", plan.sources),
			zap.Bool("region", !plan.region.IsZero()),
		)

		fetcher := oracle.NewFetcher(oracle.NewHTTPClient(cfg.HTTP.Client()))
		o, err := brand.newOracle(cfg, fetcher)
		if err != nil {
			return eris.Wrapf(err, "crawl: build %s oracle", brand.name)
		}

		if !skipProbe {
			n, err := oracle.Probe(ctx, o, oracle.ProbePoint, cfg.Crawl.Limit)
			if err != nil {
				return eris.Wrapf(err, "crawl: sanity probe failed, %s", brand.hint)
			}
			log.Info("probe ok", zap.Int("items", n), zap.Stringer("point", oracle.ProbePoint))
		}

		out, err := executeCrawl(ctx, crawlRun{
			brand:  brand,
			cfg:    cfg,
			plan:   plan,
			base:   base,
			useTUI: useTUI,
		}, o)
		if out != nil {
			printCrawlSummary(cmd.ErrOrStderr(), brand, out)
		}
		return err
	},
}

func init() {
	registerCrawlFlags(crawlCmd)
	_ = crawlCmd.MarkFlagRequired("brand")
	rootCmd.AddCommand(crawlCmd)
}

func registerCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("brand", "", "brand to crawl ("+strings.Join(brandNames(kindCrawl), ", ")+")")
	f.String("grid", "", "seed grid over a named area (us)")
	f.String("bounds", "", "seed grid over and restrict to minLat,minLng,maxLat,maxLng")
	f.String("region", "", "seed grid over and restrict to a geocoded region (e.g. \"Texas, US\")")
	f.String("region-file", "", "GeoJSON polygons the crawl must stay inside")
	f.String("seed-file", "", "GeoJSON points to seed from")
	f.Bool("metros", false, "add the major US metro areas as seeds")
	f.String("center", "", "seed a radius grid around lat,lng")
	f.Float64("radius-km", 50, "radius of the --center grid")
	f.Float64("grid-step", geo.DefaultGridStep, "seed grid spacing in degrees")

	f.Float64("cell-deg", geo.DefaultCellSize, "dedup cell size in degrees")
	f.Float64Slice("ring-radii", geo.DefaultRingRadii, "expansion ring radii in degrees")
	f.Int("limit", 50, "results requested per query")
	f.Duration("delay", 350*time.Millisecond, "minimum spacing between queries")
	f.Int("workers", 1, "concurrent queries")
	f.Int("max-cells", 0, "stop after this many cells (0 = unbounded)")
	f.Duration("timeout", 0, "stop after this long (0 = none)")
	f.Duration("call-timeout", 25*time.Second, "deadline for a single query")
	f.Bool("strict-retry", false, "retry a failed query once before giving up on it")

	f.String("output", "", "output directory (overrides output.dir)")
	f.String("proxy", "", "HTTP/SOCKS5 proxy URL")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address")
	f.Bool("tui", false, "show the interactive progress view")
	f.Bool("skip-probe", false, "skip the sanity query before crawling")
}

// applyCrawlFlags copies explicitly set flags over the loaded config.
func applyCrawlFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && f.Changed(name) {
			err = apply()
		}
	}

	set("cell-deg", func() (e error) { c.Crawl.CellDeg, e = f.GetFloat64("cell-deg"); return })
	set("ring-radii", func() (e error) { c.Crawl.RingRadii, e = f.GetFloat64Slice("ring-radii"); return })
	set("limit", func() (e error) { c.Crawl.Limit, e = f.GetInt("limit"); return })
	set("delay", func() (e error) { c.Crawl.Delay, e = f.GetDuration("delay"); return })
	set("workers", func() (e error) { c.Crawl.Workers, e = f.GetInt("workers"); return })
	set("max-cells", func() (e error) { c.Crawl.MaxCells, e = f.GetInt("max-cells"); return })
	set("timeout", func() (e error) { c.Crawl.Timeout, e = f.GetDuration("timeout"); return })
	set("call-timeout", func() (e error) { c.Crawl.CallTimeout, e = f.GetDuration("call-timeout"); return })
	set("strict-retry", func() (e error) { c.Crawl.StrictRetry, e = f.GetBool("strict-retry"); return })
	set("grid-step", func() (e error) { c.Crawl.GridStepDeg, e = f.GetFloat64("grid-step"); return })
	set("output", func() (e error) { c.Output.Dir, e = f.GetString("output"); return })
	set("proxy", func() (e error) { c.HTTP.ProxyURL, e = f.GetString("proxy"); return })
	set("metrics-addr", func() (e error) { c.Metrics.Addr, e = f.GetString("metrics-addr"); return })

	return eris.Wrap(err, "crawl: read flags")
}

type seedFlags struct {
	grid       string
	bounds     string
	region     string
	regionFile string
	seedFile   string
	metros     bool
	center     string
	radiusKm   float64
}

func readSeedFlags(cmd *cobra.Command) seedFlags {
	f := cmd.Flags()
	var sf seedFlags
	sf.grid, _ = f.GetString("grid")
	sf.bounds, _ = f.GetString("bounds")
	sf.region, _ = f.GetString("region")
	sf.regionFile, _ = f.GetString("region-file")
	sf.seedFile, _ = f.GetString("seed-file")
	sf.metros, _ = f.GetBool("metros")
	sf.center, _ = f.GetString("center")
	sf.radiusKm, _ = f.GetFloat64("radius-km")
	return sf
}

// seedPlan is where a crawl starts and what area it may cover.
type seedPlan struct {
	seeds   []model.GeoPoint
	region  geo.Region
	frame   *orb.Bound
	sources []string
}

// resolveSeeds turns the seed flags into seed points and a region. --bounds,
// --region and the US grid restrict the crawl to their box.
func resolveSeeds(ctx context.Context, sf seedFlags, step float64, gc *geo.Geocoder) (seedPlan, error) {
	var plan seedPlan

	if sf.regionFile != "" {
		r, err := geo.LoadRegion(sf.regionFile)
		if err != nil {
			return plan, err
		}
		plan.region = r
		plan.sources = append(plan.sources, "region-file")
	}

	var bound *orb.Bound
	switch {
	case sf.bounds != "":
		b, err := geo.ParseBound(sf.bounds)
		if err != nil {
			return plan, err
		}
		bound = &b
		plan.region.Bound = bound
		plan.sources = append(plan.sources, "bounds")
	case sf.region != "":
		b, err := gc.GeocodeRegion(ctx, sf.region)
		if err != nil {
			return plan, eris.Wrapf(err, "crawl: geocode region %q", sf.region)
		}
		bound = &b
		plan.region.Bound = bound
		plan.sources = append(plan.sources, "region")
	case sf.grid != "":
		if !strings.EqualFold(sf.grid, "us") {
			return plan, eris.Errorf("crawl: unknown grid %q (available: us)", sf.grid)
		}
		b := geo.ContiguousUS
		bound = &b
		if plan.region.Bound == nil {
			plan.region.Bound = bound
		}
		plan.sources = append(plan.sources, "grid")
	}

	if bound == nil && plan.region.Bound != nil && sf.seedFile == "" && !sf.metros && sf.center == "" {
		bound = plan.region.Bound
	}
	if bound != nil {
		plan.seeds = append(plan.seeds, geo.GenerateGrid(*bound, step)...)
	}

	if sf.seedFile != "" {
		pts, err := geo.LoadSeeds(sf.seedFile)
		if err != nil {
			return plan, err
		}
		plan.seeds = append(plan.seeds, pts...)
		plan.sources = append(plan.sources, "seed-file")
	}
	if sf.metros {
		plan.seeds = append(plan.seeds, geo.USMetros...)
		plan.sources = append(plan.sources, "metros")
	}
	if sf.center != "" {
		c, err := parseLatLng(sf.center)
		if err != nil {
			return plan, err
		}
		plan.seeds = append(plan.seeds, geo.GenerateRadiusGrid(c, sf.radiusKm, step)...)
		plan.sources = append(plan.sources, "center")
	}

	if len(plan.sources) == 0 {
		b := geo.ContiguousUS
		bound = &b
		plan.region.Bound = bound
		plan.seeds = geo.GenerateGrid(b, step)
		plan.sources = append(plan.sources, "grid")
	}

	plan.frame = bound
	if plan.region.Bound != nil {
		plan.frame = plan.region.Bound
	}
	return plan, nil
}

func parseLatLng(s string) (model.GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.GeoPoint{}, eris.Errorf("crawl: center %q must be lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.GeoPoint{}, eris.Wrapf(err, "crawl: parse center %q", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.GeoPoint{}, eris.Wrapf(err, "crawl: parse center %q", s)
	}
	return model.GeoPoint{Lat: lat, Lng: lng}, nil
}

// sessionBase returns <dir>/<brand>_<timestamp> and creates dir.
func sessionBase(dir, brand string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "create output dir %s", dir)
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s", brand, now.Format("20060102_150405"))), nil
}

type crawlRun struct {
	brand  brandSpec
	cfg    *config.Config
	plan   seedPlan
	base   string
	useTUI bool
}

type crawlOutput struct {
	DBPath  string
	CSVPath string
	LogPath string
	Seeds   int
	Stored  int
	Stats   *crawler.Stats
}

// executeCrawl runs the crawler, streaming accepted records into SQLite, and
// writes the CSV once the run stops.
func executeCrawl(ctx context.Context, run crawlRun, o crawler.Oracle) (*crawlOutput, error) {
	log := zap.L().With(zap.String("component", "crawl"), zap.String("brand", run.brand.name))
	out := &crawlOutput{
		DBPath:  run.base + ".db",
		CSVPath: run.base + ".csv",
		LogPath: run.base + ".log",
		Seeds:   len(run.plan.seeds),
		Stats:   &crawler.Stats{},
	}

	store, err := storage.NewStore(out.DBPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	recorder := metrics.NewRecorder(run.brand.name)
	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	metrics.Serve(metricsCtx, run.cfg.Metrics.Addr, recorder)

	var result *crawler.Result
	crawl := func(ctx context.Context, onRecords func([]model.Record)) error {
		opts := &crawler.Options{
			Stats:    out.Stats,
			Observer: recorder,
			Logger:   zap.L().With(zap.String("brand", run.brand.name)),
			OnRecords: func(recs []model.Record) {
				n, err := store.InsertBatch(recs)
				if err != nil {
					log.Error("store batch", zap.Error(err), zap.Int("records", len(recs)))
				}
				out.Stored += n
				if onRecords != nil {
					onRecords(recs)
				}
			},
		}
		res, err := crawler.Run(ctx, run.plan.seeds, o, run.brand.normalizer(), run.cfg.Crawl.Driver(run.plan.region), opts)
		result = res
		return err
	}

	if run.useTUI {
		err = tui.RunCrawl(ctx, views.CrawlJob{
			Brand:    run.brand.title,
			DBPath:   out.DBPath,
			MaxCells: run.cfg.Crawl.MaxCells,
			Frame:    run.plan.frame,
			Stats:    out.Stats,
			Run:      crawl,
		}, tui.DefaultHistory())
	} else {
		err = crawl(ctx, nil)
	}
	if err != nil {
		return out, eris.Wrap(err, "crawl")
	}
	if result == nil {
		return out, eris.New("crawl: interrupted before the crawl started")
	}

	if err := export.WriteCSVFile(out.CSVPath, result.Records); err != nil {
		return out, err
	}
	log.Info("crawl finished",
		zap.String("stop_reason", string(out.Stats.StopReason())),
		zap.Int("records", len(result.Records)),
		zap.Int("stored", out.Stored),
		zap.String("db", out.DBPath),
		zap.String("csv", out.CSVPath),
	)
	return out, nil
}

func printCrawlSummary(w io.Writer, brand brandSpec, out *crawlOutput) {
	s := out.Stats
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "══════════════════════════════\n")
	fmt.Fprintf(w, "  storetap crawl: %s\n", brand.title)
	fmt.Fprintf(w, "══════════════════════════════\n")
	fmt.Fprintf(w, "  Stopped:    %s\n", s.StopReason())
	fmt.Fprintf(w, "  Seeds:      %d\n", out.Seeds)
	fmt.Fprintf(w, "  Cells:      %d\n", s.CellsVisited.Load())
	fmt.Fprintf(w, "  Queries:    %d (%d failed, %d rate limited)\n",
		s.OracleCalls.Load(), s.OracleErrors.Load(), s.RateLimits.Load())
	fmt.Fprintf(w, "  Found:      %d\n", s.RecordsFound.Load())
	fmt.Fprintf(w, "  Unique:     %d\n", s.RecordsAccepted.Load())
	fmt.Fprintf(w, "  Stored:     %d\n", out.Stored)
	fmt.Fprintf(w, "  Duration:   %s\n", s.Elapsed().Truncate(time.Second))
	fmt.Fprintf(w, "  Database:   %s\n", out.DBPath)
	if !s.Aborted() {
		fmt.Fprintf(w, "  CSV:        %s\n", out.CSVPath)
	}
	fmt.Fprintf(w, "  Log:        %s\n", out.LogPath)
	fmt.Fprintf(w, "══════════════════════════════\n")
}
