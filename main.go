package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/meshkit/meshdist/mesh"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	meshAFile   = flag.String("a", "", "Source mesh OBJ file")
	meshBFile   = flag.String("b", "", "Target mesh OBJ file")
	method      = flag.String("method", "approx", "Comparison method: approx, symmetric, bounded, naive")
	errorBound  = flag.Float64("error-bound", 0.001, "Error bound for bounded and naive methods")
	sampleSeed  = flag.Int64("seed", 0, "Random seed for sampling (0 = time-based)")
	totalPoints = flag.Int("total-points", 0, "Total face sample count (0 = derive from mesh)")
	parallel    = flag.Bool("parallel", false, "Use all CPUs for the sampled methods")
	reportFile  = flag.String("report", "", "Write an SVG distance report to this file")
	serviceMode = flag.Bool("service", false, "Run service mode driven by the config file")
	configFile  = flag.String("config", "config.yaml", "Path to configuration file")
	httpPort    = flag.Int("http-port", 8080, "HTTP server port for service mode")
)

func main() {
	flag.Parse()
	fmt.Printf("meshdist version: %s\n", Version)

	if *serviceMode {
		runService()
		return
	}

	if *meshAFile != "" && *meshBFile != "" {
		runCompare()
		return
	}

	fmt.Println("Usage:")
	fmt.Println("  meshdist -a mesh1.obj -b mesh2.obj [-method approx|symmetric|bounded|naive]")
	fmt.Println("  meshdist -a mesh1.obj -b mesh2.obj -report report.svg")
	fmt.Println("  meshdist -service -config config.yaml")
	os.Exit(1)
}

func execMode() mesh.ExecutionMode {
	if *parallel {
		return mesh.Parallel
	}
	return mesh.Sequential
}

func samplingConfig(seed int64, total int) mesh.SamplingConfig {
	cfg := mesh.DefaultSamplingConfig()
	if seed != 0 {
		cfg.RNG = rand.New(rand.NewSource(seed))
	}
	if total > 0 {
		cfg.TotalFacePoints = total
		cfg.TotalEdgePoints = total
	}
	return cfg
}

// runCompare compares two OBJ files and prints the result.
func runCompare() {
	a, err := mesh.LoadOBJ(*meshAFile)
	if err != nil {
		log.Fatalf("Error loading source mesh: %v", err)
	}
	b, err := mesh.LoadOBJ(*meshBFile)
	if err != nil {
		log.Fatalf("Error loading target mesh: %v", err)
	}
	log.Printf("Loaded %s (%d faces) and %s (%d faces)",
		*meshAFile, a.FaceCount(), *meshBFile, b.FaceCount())

	pair := mesh.PairConfig{
		Name:        "cli",
		Method:      *method,
		ErrorBound:  errorBound,
		SampleSeed:  sampleSeed,
		TotalPoints: *totalPoints,
	}
	result, samples, err := comparePair(a, b, &pair, execMode())
	if err != nil {
		log.Fatalf("Error comparing meshes: %v", err)
	}

	fmt.Printf("%s distance: %.9g\n", result.Method, result.Distance)
	if result.Bound > 0 {
		fmt.Printf("guaranteed within: %.9g\n", result.Bound)
	}
	fmt.Printf("elapsed: %.3fs\n", result.Elapsed)

	if *reportFile != "" {
		if err := writeReport(*reportFile, result, samples); err != nil {
			log.Fatalf("Error writing report: %v", err)
		}
		fmt.Printf("Report written to %s\n", *reportFile)
	}
}

// comparePair runs one comparison and returns the result plus the per-sample
// distances (nil for the subdivision-based methods).
func comparePair(a, b *mesh.TriangleMesh, pc *mesh.PairConfig, mode mesh.ExecutionMode) (*mesh.ComparisonResult, []float64, error) {
	var seed int64
	if pc.SampleSeed != nil {
		seed = *pc.SampleSeed
	}
	cfg := samplingConfig(seed, pc.TotalPoints)

	start := time.Now()
	result := &mesh.ComparisonResult{
		Pair:      pc.Name,
		Method:    pc.GetMethod(),
		Timestamp: start.Unix(),
	}

	var sampleDists []float64
	var err error
	switch pc.GetMethod() {
	case "approx":
		samples, serr := mesh.SampleSurface(a, cfg)
		if serr != nil {
			return nil, nil, serr
		}
		sampleDists, err = mesh.DistancesToMesh(samples, b)
		if err == nil {
			for _, d := range sampleDists {
				if d > result.Distance {
					result.Distance = d
				}
			}
			result.Samples = len(samples)
		}
	case "symmetric":
		result.Distance, err = mesh.ApproximateSymmetricDistance(a, b, cfg, mode)
	case "bounded":
		result.Distance, err = mesh.BoundedErrorDistance(a, b, pc.GetErrorBound(*errorBound))
		result.Bound = pc.GetErrorBound(*errorBound)
	case "naive":
		result.Distance, err = mesh.BoundedErrorDistanceNaive(a, b, pc.GetErrorBound(*errorBound))
		result.Bound = pc.GetErrorBound(*errorBound)
	default:
		err = fmt.Errorf("unknown method %q", pc.GetMethod())
	}
	if err != nil {
		return nil, nil, err
	}

	result.Elapsed = time.Since(start).Seconds()
	return result, sampleDists, nil
}

func writeReport(path string, result *mesh.ComparisonResult, sampleDists []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	renderer := mesh.NewReportRenderer([]*mesh.ComparisonResult{result})
	if len(sampleDists) > 0 {
		renderer.Distances[result.Pair] = sampleDists
	}
	return renderer.RenderToSVG(f)
}

// runService loads the config, compares every configured pair, publishes the
// results over MQTT and serves them over HTTP until interrupted.
func runService() {
	config, err := mesh.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	mqttClient, err := mesh.InitMQTT(config)
	if err != nil {
		log.Fatalf("Error initializing MQTT: %v", err)
	}

	var publisher *mesh.Publisher
	if mqttClient != nil {
		publisher = mesh.NewPublisher(mqttClient.GetClient())
		publisher.SetPublishPrefix(config.MQTT.PublishPrefix)
	}

	store := mesh.NewResultStore()
	var distsMu sync.RWMutex
	sampleDists := make(map[string][]float64)

	mode := mesh.Sequential
	if config.Parallel {
		mode = mesh.Parallel
	}

	go func() {
		for _, pc := range config.Pairs {
			pc := pc
			a, err := mesh.LoadOBJ(pc.MeshA)
			if err != nil {
				log.Printf("Pair %s: %v", pc.Name, err)
				continue
			}
			b, err := mesh.LoadOBJ(pc.MeshB)
			if err != nil {
				log.Printf("Pair %s: %v", pc.Name, err)
				continue
			}

			result, dists, err := comparePair(a, b, &pc, mode)
			if err != nil {
				log.Printf("Pair %s: comparison failed: %v", pc.Name, err)
				continue
			}
			store.Put(result)
			if dists != nil {
				distsMu.Lock()
				sampleDists[pc.Name] = dists
				distsMu.Unlock()
			}
			log.Printf("Pair %s: %s distance %.9g", pc.Name, result.Method, result.Distance)

			if publisher != nil {
				if err := publisher.PublishResult(result); err != nil {
					log.Printf("Pair %s: publish failed: %v", pc.Name, err)
				}
			}
		}
		log.Printf("All %d pairs compared", len(config.Pairs))
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := map[string]interface{}{
			"status":  "ok",
			"version": Version,
			"results": store.Len(),
			"mqtt":    mqttClient != nil && mqttClient.IsConnected(),
		}
		json.NewEncoder(w).Encode(status)
	})
	mux.HandleFunc("/results", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(store.All())
	})
	mux.HandleFunc("/report.svg", func(w http.ResponseWriter, r *http.Request) {
		results := store.All()
		if len(results) == 0 {
			http.Error(w, "no results yet", http.StatusServiceUnavailable)
			return
		}
		renderer := mesh.NewReportRenderer(results)
		distsMu.RLock()
		for pair, dists := range sampleDists {
			renderer.Distances[pair] = dists
		}
		distsMu.RUnlock()
		w.Header().Set("Content-Type", "image/svg+xml")
		if err := renderer.RenderToSVG(w); err != nil {
			log.Printf("Error rendering report: %v", err)
		}
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", *httpPort),
		Handler: mux,
	}
	go func() {
		log.Printf("HTTP server listening on :%d", *httpPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	server.Close()
}
