package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/akshita2580/btp/pkg/api"
	"github.com/akshita2580/btp/pkg/artifact"
	"github.com/akshita2580/btp/pkg/config"
	"github.com/akshita2580/btp/pkg/crime"
	"github.com/akshita2580/btp/pkg/geocode"
	"github.com/akshita2580/btp/pkg/graph"
	osmnet "github.com/akshita2580/btp/pkg/osm"
	"github.com/akshita2580/btp/pkg/routing"
)

var logLevels = map[string]logrus.Level{
	"debug": logrus.DebugLevel,
	"info":  logrus.InfoLevel,
	"warn":  logrus.WarnLevel,
	"error": logrus.ErrorLevel,
	"fatal": logrus.FatalLevel,
	"panic": logrus.PanicLevel,
}

var log = logrus.WithField("module", "main")

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if level, ok := logLevels[cfg.LogLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Warnf("unknown log level %q, using info", cfg.LogLevel)
	}

	// The crime snapshot is required for risk weighting. A failed load keeps
	// the server up but unhealthy, so orchestration can see what is wrong.
	incidents, crimeErr := crime.Load(cfg.CrimeDataPath)
	if crimeErr != nil {
		log.Errorf("crime data load failed: %v", crimeErr)
	} else {
		log.Infof("loaded %d crime incidents from %s", len(incidents), cfg.CrimeDataPath)
	}

	store := graph.NewStore(buildFunc(cfg, incidents), cfg.BuildTimeout)

	// Warm the graph in the background so the first route request does not
	// pay for the network fetch. Errors are retried on demand.
	if crimeErr == nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.BuildTimeout)
			defer cancel()
			if _, err := store.Get(ctx, cfg.CityName); err != nil {
				log.Warnf("background graph warm-up failed: %v", err)
			}
		}()
	}

	builder, err := artifact.NewBuilder(cfg.MapsDir)
	if err != nil {
		log.Fatalf("map output directory: %v", err)
	}

	h := api.NewHandlers(
		cfg,
		geocode.NewClient(cfg.GeocodeURL),
		store,
		routing.New(cfg.RiskAlpha, cfg.MaxSnapMeters),
		builder,
		crimeErr,
	)

	if err := api.ListenAndServe(cfg.Addr, api.NewEngine(h)); err != nil {
		log.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
}

// buildFunc assembles the one-shot graph build: fetch the road network from a
// local PBF extract or Overpass, compact it, then weight edges with the crime
// snapshot.
func buildFunc(cfg config.Config, incidents []crime.Incident) graph.BuildFunc {
	return func(ctx context.Context, cityKey string) (*graph.Graph, error) {
		var result *osmnet.ParseResult
		var err error

		if cfg.PBFPath != "" {
			var f *os.File
			f, err = os.Open(cfg.PBFPath)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			result, err = osmnet.Parse(ctx, f, osmnet.ParseOptions{BBox: cfg.CityBBox})
		} else {
			result, err = osmnet.NewOverpassClient(cfg.OverpassURL).FetchNetwork(ctx, cfg.CityBBox)
		}
		if err != nil {
			return nil, err
		}

		g := graph.Build(result, cityKey)

		start := time.Now()
		summary := crime.ApplyRisk(g, incidents)
		log.Infof("risk model applied in %s: %d/%d incidents mapped, %d risk edges",
			time.Since(start).Round(time.Millisecond),
			summary.MappedIncidents, len(incidents), summary.RiskEdges)
		return g, nil
	}
}
