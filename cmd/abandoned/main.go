// Command abandoned detects objects left in place on every video listed in a test file
// and prints "file: rectangle: (x, y, w, h) - timespan: (first, last)" per video.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/LdDl/abandoned-go/config"
	"github.com/LdDl/abandoned-go/detect"
	"github.com/LdDl/abandoned-go/mot"
	"github.com/LdDl/abandoned-go/pipeline"
	"github.com/LdDl/abandoned-go/render"
	"github.com/LdDl/abandoned-go/report"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	listFile   = flag.String("list", "test_sample.txt", "Text file containing whitespace separated list of inputs to process")
	configFile = flag.String("config", "", "Optional JSON configuration file")
	boxesMode  = flag.Bool("boxes", false, "Treat inputs as JSON lines files with pre-computed candidate boxes instead of videos")
	vizFlag    = flag.Bool("viz", false, "Show processing windows (videos only). Overrides enable_visualization")
	jsonOutput = flag.Bool("json", false, "Print results as JSON lines")
	dbPath     = flag.String("db", "", "SQLite database to store results in. Overrides database_path")
	auditFlag  = flag.Bool("audit", false, "Log frames where first-fit association is worse than optimal one. Overrides audit_assignments")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Can't load configuration: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "viz":
			cfg.EnableVisualization = *vizFlag
		case "db":
			cfg.DatabasePath = *dbPath
		case "audit":
			cfg.AuditAssignments = *auditFlag
		}
	})
	setupLogger(cfg)

	files, err := pipeline.ReadTestFile(*listFile)
	if err != nil {
		logrus.Fatalf("Cannot read sample from file: %v", err)
	}

	var rdb *report.ResultDB
	if cfg.DatabasePath != "" {
		rdb, err = report.NewResultDB(cfg.DatabasePath)
		if err != nil {
			logrus.Fatalf("Can't open results database: %v", err)
		}
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	process := func(ctx context.Context, file string) ([]mot.AbandonedObject, error) {
		return processFile(ctx, file, cfg, *boxesMode)
	}
	if err := pipeline.ProcessAll(ctx, files, process, resultHandler(ctx, *jsonOutput, rdb), logrus.StandardLogger()); err != nil {
		logrus.WithError(err).Error("Error processing input from test sample")
		if rdb != nil {
			rdb.Close()
		}
		stop()
		os.Exit(1)
	}
}

// resultHandler prints result line (text or JSON) and stores it in the database if any
func resultHandler(ctx context.Context, jsonOutput bool, rdb *report.ResultDB) pipeline.ResultHandler {
	return func(file string, found []mot.AbandonedObject) error {
		if jsonOutput {
			line, err := report.FormatJSON(file, found)
			if err != nil {
				return errors.Wrap(err, "can't format result")
			}
			fmt.Println(line)
		} else {
			fmt.Println(report.FormatText(file, found))
		}
		if rdb == nil {
			return nil
		}
		runID, err := rdb.SaveRun(ctx, file, found)
		if err != nil {
			return errors.Wrap(err, "can't store result")
		}
		logrus.WithFields(logrus.Fields{"input": file, "run_id": runID}).Debug("result stored")
		return nil
	}
}

func processFile(ctx context.Context, file string, cfg config.Config, boxes bool) ([]mot.AbandonedObject, error) {
	log := logrus.WithField("input", file)
	opts := []pipeline.Option{
		pipeline.WithTrackerParams(cfg.MaxSimilarDistance, cfg.MinFrames),
		pipeline.WithAssignmentAudit(cfg.AuditAssignments),
		pipeline.WithLogger(log),
	}
	if boxes {
		src, err := pipeline.OpenBoxStreamFile(file)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		found, err := pipeline.Run(ctx, src, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "can't process boxes %s", file)
		}
		return found, nil
	}

	src, err := detect.OpenVideo(file, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.WithError(err).Warn("can't release video source")
		}
	}()
	if cfg.EnableVisualization {
		viz := render.NewVisualizer(src, cfg.VisualizationDelayMs)
		defer viz.Close()
		opts = append(opts, pipeline.WithObservers(viz))
	}
	found, err := pipeline.Run(ctx, src, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "can't process video %s", file)
	}
	return found, nil
}

func setupLogger(cfg config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.LogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetOutput(os.Stderr)
}
