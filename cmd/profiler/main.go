package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand" //nolint:gosec // intentional use for reproducible benchmarks
	"net/http"
	_ "net/http/pprof" //nolint:gosec // intentional profiling endpoint
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/meigma/multistream"
	"github.com/meigma/multistream/internal/testutil"
)

type config struct {
	mode            string
	compression     string
	streams         int
	pages           int
	lookups         int
	workers         int
	dataURL         string
	dataHTTPLatency time.Duration
	dataHTTPBPS     int64
	duration        time.Duration
	iterations      int
	pprofAddr       string
	cpuProfile      string
	memProfile      string
	traceFile       string
	randomSeed      int64
}

//nolint:unused // sink variables prevent compiler optimizations in profiling
var (
	sinkRecords []multistream.Record
	sinkDocs    []*multistream.Document
)

//nolint:gocognit // main function complexity is acceptable for CLI tool
func main() {
	cfg := parseFlags()

	if cfg.pprofAddr != "" {
		go func() {
			log.Printf("pprof listening on %s", cfg.pprofAddr)
			//nolint:gosec // intentional pprof server without timeouts for profiling
			if err := http.ListenAndServe(cfg.pprofAddr, nil); err != nil {
				log.Printf("pprof server error: %v", err)
			}
		}()
	}

	compression, err := multistream.ParseCompression(cfg.compression)
	if err != nil {
		log.Fatal(err)
	}
	archive, err := testutil.NewArchive(compression, cfg.streams, cfg.pages)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("archive: %d blocks, %d documents, %d bytes", len(archive.Offsets), len(archive.Records), len(archive.Data))

	var source multistream.ByteSource = testutil.NewMockByteSource(archive.Data)
	if cfg.dataURL != "" {
		httpSource, cleanup, err := newHTTPSource(cfg, archive.Data)
		if err != nil {
			log.Fatal(err)
		}
		if cleanup != nil {
			defer cleanup()
		}
		source = httpSource
	}

	if cfg.cpuProfile != "" {
		cpuFile, cpuErr := os.Create(cfg.cpuProfile)
		if cpuErr != nil {
			log.Fatal(cpuErr) //nolint:gocritic // exitAfterDefer is intentional - cleanup is best-effort
		}
		if cpuErr = pprof.StartCPUProfile(cpuFile); cpuErr != nil {
			log.Fatal(cpuErr)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		}()
	}

	if cfg.traceFile != "" {
		traceFile, traceErr := os.Create(cfg.traceFile)
		if traceErr != nil {
			log.Fatal(traceErr)
		}
		if traceErr = trace.Start(traceFile); traceErr != nil {
			log.Fatal(traceErr)
		}
		defer func() {
			trace.Stop()
			_ = traceFile.Close()
		}()
	}

	stats, err := runProfile(cfg, archive, source)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile != "" {
		runtime.GC()
		f, err := os.Create(cfg.memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
		_ = f.Close()
	}

	fmt.Printf("mode=%s ops=%d docs=%d bytes=%d elapsed=%s throughput=%.2f MB/s\n",
		cfg.mode,
		stats.ops,
		stats.docs,
		stats.bytes,
		stats.elapsed,
		float64(stats.bytes)/(1024*1024)/stats.elapsed.Seconds(),
	)
}

type profileStats struct {
	ops     int
	docs    int
	bytes   int64
	elapsed time.Duration
}

// runProfile repeats one search or extraction of cfg.lookups random
// documents until the iteration count or duration is reached. Scan bytes are
// index bytes read; extract bytes are compressed block bytes decoded.
//
//nolint:gocritic // hugeParam acceptable for profiler
func runProfile(cfg config, archive *testutil.Archive, source multistream.ByteSource) (profileStats, error) {
	ctx := context.Background()
	start := time.Now()
	ops := 0
	docs := 0
	var byteCount int64

	shouldContinue := func() bool {
		if cfg.iterations > 0 {
			return ops < cfg.iterations
		}
		return time.Since(start) < cfg.duration
	}

	rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // intentional for reproducible benchmarks
	pick := func() []multistream.Record {
		records := make([]multistream.Record, cfg.lookups)
		for i := range records {
			records[i] = archive.Records[rng.Intn(len(archive.Records))]
		}
		return records
	}

	switch cfg.mode {
	case "scan":
		index := []byte(testutil.BuildIndex(archive.Records, multistream.DefaultSeparator))
		scanner := multistream.NewScanner(bytes.NewReader(index), int64(len(index)))
		for shouldContinue() {
			picked := pick()
			ids := make([]int64, len(picked))
			for i, rec := range picked {
				ids[i] = rec.ID
			}
			records, err := scanner.SearchByIDs(ctx, ids...)
			if err != nil {
				return profileStats{}, err
			}
			sinkRecords = records
			byteCount += int64(len(index))
			docs += len(records)
			ops++
		}
	case "extract":
		blockSizes := blockSizes(archive)
		extractor := multistream.NewExtractor(source, multistream.WithWorkers(cfg.workers))
		for shouldContinue() {
			records := pick()
			result, err := extractor.Extract(ctx, records)
			if err != nil {
				return profileStats{}, err
			}
			sinkDocs = result
			seen := make(map[uint64]struct{}, len(records))
			for _, rec := range records {
				if _, ok := seen[rec.Offset]; !ok {
					seen[rec.Offset] = struct{}{}
					byteCount += blockSizes[rec.Offset]
				}
			}
			docs += len(result)
			ops++
		}
	default:
		return profileStats{}, fmt.Errorf("unknown mode %q", cfg.mode)
	}

	return profileStats{
		ops:     ops,
		docs:    docs,
		bytes:   byteCount,
		elapsed: time.Since(start),
	}, nil
}

// blockSizes maps each block offset to its compressed length.
func blockSizes(archive *testutil.Archive) map[uint64]int64 {
	sizes := make(map[uint64]int64, len(archive.Offsets))
	for i, off := range archive.Offsets {
		end := uint64(len(archive.Data))
		if i+1 < len(archive.Offsets) {
			end = archive.Offsets[i+1]
		}
		sizes[off] = int64(end - off) //nolint:gosec // bounded by archive size
	}
	return sizes
}

func parseFlags() config {
	var cfg config
	var dataHTTPBPS string
	flag.StringVar(&cfg.mode, "mode", "extract", "mode: scan, extract")
	flag.StringVar(&cfg.compression, "compression", "bzip2", "compression: bzip2, gzip, zstd")
	flag.IntVar(&cfg.streams, "streams", 200, "number of compressed blocks")
	flag.IntVar(&cfg.pages, "pages", 100, "documents per block")
	flag.IntVar(&cfg.lookups, "lookups", 16, "documents requested per operation")
	flag.IntVar(&cfg.workers, "workers", 4, "blocks decoded in parallel")
	flag.StringVar(&cfg.dataURL, "data-url", "", "HTTP archive source (use \"local\" to serve generated data)")
	flag.DurationVar(&cfg.dataHTTPLatency, "data-http-latency", 0, "per-request latency for HTTP data source")
	flag.StringVar(&dataHTTPBPS, "data-http-bps", "", "bytes/sec throttle for HTTP data source (e.g. 10MBps)")
	flag.DurationVar(&cfg.duration, "duration", 10*time.Second, "duration to run (ignored if iterations > 0)")
	flag.IntVar(&cfg.iterations, "iterations", 0, "number of iterations to run")
	flag.StringVar(&cfg.pprofAddr, "pprof-addr", "", "pprof listen address (e.g. :6060)")
	flag.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flag.StringVar(&cfg.memProfile, "memprofile", "", "write heap profile to file")
	flag.StringVar(&cfg.traceFile, "trace", "", "write trace to file")
	flag.Int64Var(&cfg.randomSeed, "seed", 1, "random seed")
	flag.Parse()
	if cfg.lookups < 1 {
		log.Fatal("lookups must be at least 1")
	}
	if dataHTTPBPS != "" {
		bps, err := parseBytesPerSecond(dataHTTPBPS)
		if err != nil {
			log.Fatalf("data-http-bps: %v", err)
		}
		cfg.dataHTTPBPS = bps
	}
	return cfg
}
