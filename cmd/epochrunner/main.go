// Command epochrunner compresses one epoch's worth of samples into
// geoBatches and a super-root, persists them, and best-effort submits
// them to the external sinks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/nrg-champ/geohgc/internal/admin"
	"github.com/nrg-champ/geohgc/internal/aggregate"
	"github.com/nrg-champ/geohgc/internal/batch"
	"github.com/nrg-champ/geohgc/internal/circuitbreaker"
	"github.com/nrg-champ/geohgc/internal/compress"
	"github.com/nrg-champ/geohgc/internal/config"
	"github.com/nrg-champ/geohgc/internal/ingest"
	"github.com/nrg-champ/geohgc/internal/metrics"
	"github.com/nrg-champ/geohgc/internal/model"
	"github.com/nrg-champ/geohgc/internal/persistence"
	"github.com/nrg-champ/geohgc/internal/simulate"
	"github.com/nrg-champ/geohgc/internal/sink"
	"github.com/nrg-champ/geohgc/internal/superroot"
	"github.com/nrg-champ/geohgc/internal/validate"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	epoch, err := epochFromArgs()
	if err != nil {
		log.Error("invalid epoch argument", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load(os.Args[2:])
	if err != nil {
		log.Error("config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.KafkaAddr == "" {
		go func() {
			log.Info("admin server listening", slog.String("addr", ":9090"))
			if err := http.ListenAndServe(":9090", admin.NewRouter()); err != nil {
				log.Warn("admin server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	if err := runEpoch(context.Background(), epoch, cfg, log); err != nil {
		log.Error("epoch run failed", slog.Int64("epoch", epoch), slog.String("error", err.Error()))
		metrics.EpochErrors.WithLabelValues(errorKind(err)).Inc()
		os.Exit(1)
	}
	metrics.EpochsProcessed.Inc()
	os.Exit(0)
}

func epochFromArgs() (int64, error) {
	if len(os.Args) < 2 {
		return 0, fmt.Errorf("usage: epochrunner <epoch> [flags]")
	}
	return strconv.ParseInt(os.Args[1], 10, 64)
}

func runEpoch(ctx context.Context, epoch int64, cfg config.Config, log *slog.Logger) error {
	start := time.Now()
	defer func() { metrics.EpochDuration.Observe(time.Since(start).Seconds()) }()

	samples, err := collectSamples(ctx, epoch, cfg, log)
	if err != nil {
		return err
	}

	validated, err := validate.Run(samples, cfg.HGC.BaseRes, cfg.OnInvalid)
	if err != nil {
		return err
	}
	for _, inv := range validated.InvalidSamples {
		metrics.InvalidSamples.WithLabelValues(inv.Field).Inc()
	}

	table := aggregate.Build(validated.EntriesByCell)

	segments, err := compress.Run(table.Cells, table.SampleCountByCell, cfg.HGC)
	if err != nil {
		return err
	}

	batches := make([]model.Batch, 0, len(segments))
	leafToBatch := make(map[string]string)
	for _, seg := range segments {
		b, err := batch.Assemble(seg, epoch, cfg.HGC.BaseRes, table, cfg.HGC)
		if err != nil {
			return err
		}
		batches = append(batches, b)
		metrics.BatchesEmitted.Inc()
		for _, cell := range b.CompressedFrom {
			leafToBatch[cell] = b.GeoBatchID
		}
	}

	sr, err := superroot.Build(batches)
	if err != nil {
		return err
	}

	batchesTotal, samplesTotal := 0, 0
	var tsMin, tsMax *int64
	for _, b := range batches {
		batchesTotal++
		samplesTotal += b.CountSamples
		if b.TsMin != nil && (tsMin == nil || *b.TsMin < *tsMin) {
			tsMin = b.TsMin
		}
		if b.TsMax != nil && (tsMax == nil || *b.TsMax > *tsMax) {
			tsMax = b.TsMax
		}
	}

	doc := model.SuperRootDocument{
		Epoch:         epoch,
		SuperRoot:     sr.SuperRoot,
		BatchIDs:      sr.BatchIDs,
		BatchRoots:    sr.BatchRoots,
		SchemaVersion: model.SchemaVersion,
		HGCParams:     cfg.HGC,
		TsMin:         tsMin,
		TsMax:         tsMax,
		BatchesTotal:  batchesTotal,
		SamplesTotal:  samplesTotal,
	}

	store, err := persistence.New(cfg.DataDir, log)
	if err != nil {
		return err
	}
	if err := store.WriteEpoch(epoch, batches, doc, leafToBatch); err != nil {
		return err
	}

	submitToSinks(ctx, cfg, epoch, batches, log)
	return nil
}

func collectSamples(ctx context.Context, epoch int64, cfg config.Config, log *slog.Logger) ([]model.Sample, error) {
	if cfg.KafkaAddr != "" {
		return ingest.ReadEpochWindow(ctx, ingest.Config{
			Brokers: []string{cfg.KafkaAddr},
			Topic:   "geohgc-samples",
			GroupID: "geohgc-epochrunner",
		}, log)
	}
	return simulate.Generate(simulate.Config{
		NumSamples: cfg.NumSamples,
		NumNodes:   cfg.NumNodes,
		RNGSeed:    cfg.RNGSeed,
		EpochStart: epoch * model.WindowMs,
	}), nil
}

// submitToSinks best-effort uploads the epoch directory and registers
// every batch; failures here are logged but never invalidate the
// already-written local artifacts.
func submitToSinks(ctx context.Context, cfg config.Config, epoch int64, batches []model.Batch, log *slog.Logger) {
	uploadBreaker := circuitbreaker.New("upload", circuitbreaker.Config{MaxFailures: 5, ResetTimeout: 30 * time.Second}, log)
	registerBreaker := circuitbreaker.New("register", circuitbreaker.Config{MaxFailures: 5, ResetTimeout: 30 * time.Second}, log)
	s := sink.NewMockSink(cfg.DataDir+"/registry.jsonl", uploadBreaker, registerBreaker)

	epochDir := fmt.Sprintf("%s/data/epoch_%d", cfg.DataDir, epoch)
	cid, err := s.UploadFolder(ctx, epochDir)
	if err != nil {
		log.Warn("upload sink failed", slog.String("error", err.Error()))
		metrics.SinkCircuitOpen.WithLabelValues("upload").Set(float64(uploadBreaker.State()))
		return
	}
	metrics.SinkCircuitOpen.WithLabelValues("upload").Set(0)

	for _, b := range batches {
		if err := s.RegisterBatch(ctx, epoch, b.GeoBatchID, b.MerkleRoot, cid); err != nil {
			log.Warn("register sink failed", slog.String("geoBatchId", b.GeoBatchID), slog.String("error", err.Error()))
			metrics.SinkCircuitOpen.WithLabelValues("register").Set(float64(registerBreaker.State()))
		}
	}
}

func errorKind(err error) string {
	switch err.(type) {
	case *model.ValidationError:
		return "validation"
	case *model.ConfigError:
		return "config"
	case *model.CellMapConflict:
		return "cellMapConflict"
	case *model.ConcurrentMergeError:
		return "concurrentMerge"
	case *model.IOError:
		return "io"
	default:
		return "other"
	}
}
