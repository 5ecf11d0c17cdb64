package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/brightline-vision/trackcore/internal/config"
	"github.com/brightline-vision/trackcore/internal/kalman"
	"github.com/brightline-vision/trackcore/internal/pipeline"
	"github.com/brightline-vision/trackcore/internal/telemetry"
)

var (
	listen      = flag.String("listen", ":8081", "HTTP listen address")
	configFile  = flag.String("config", "", "Path to a tuning config JSON file (default: built-in defaults)")
	replayFile  = flag.String("replay", "", "Path to a JSONL recorded-detections file to drive the tracker")
	tickHz      = flag.Float64("tick-hz", 50, "Ticks per second to run against the replay file")
	variantName = flag.String("variant", "linear2d", "Kalman variant: linear2d, linear3d, extended2dh, fixed3d")
	logInterval = flag.Int("log-interval", 2, "Statistics logging interval in seconds")
)

// formatWithCommas formats a number with thousands separators.
func formatWithCommas(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(char)
	}
	return result
}

// frameStats tracks per-tick tracker throughput, mirroring the packet
// counters the UDP listener this replaced used to keep.
type frameStats struct {
	mu           sync.Mutex
	frameCount   int64
	objectCount  int64
	droppedCount int64
	lastReset    time.Time
}

func (fs *frameStats) addFrame(objects int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.frameCount++
	fs.objectCount += int64(objects)
}

func (fs *frameStats) addError() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.droppedCount++
}

func (fs *frameStats) getAndReset() (frames, objects, dropped int64, duration time.Duration) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := time.Now()
	duration = now.Sub(fs.lastReset)
	frames, objects, dropped = fs.frameCount, fs.objectCount, fs.droppedCount

	fs.frameCount, fs.objectCount, fs.droppedCount = 0, 0, 0
	fs.lastReset = now
	return
}

func parseVariant(name string) (kalman.Variant, error) {
	switch name {
	case "linear2d":
		return kalman.Linear2D, nil
	case "linear3d":
		return kalman.Linear3D, nil
	case "extended2dh":
		return kalman.Extended2DH, nil
	case "fixed3d":
		return kalman.Fixed3D, nil
	default:
		return 0, fmt.Errorf("unknown kalman variant %q", name)
	}
}

// runTicker drives the pipeline off the replay detector at tickHz until
// ctx is cancelled, logging throughput every logInterval seconds.
func runTicker(ctx context.Context, core *pipeline.Core, stats *frameStats) {
	period := time.Duration(float64(time.Second) / *tickHz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	logTicker := time.NewTicker(time.Duration(*logInterval) * time.Second)
	defer logTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("tracker tick loop shutting down")
			return
		case now := <-ticker.C:
			out, err := core.Tick(nil, nil, now)
			if err != nil {
				stats.addError()
				log.Printf("tick error: %v", err)
				continue
			}
			stats.addFrame(len(out.Objects))
		case <-logTicker.C:
			frames, objects, dropped, duration := stats.getAndReset()
			if frames == 0 && dropped == 0 {
				continue
			}
			framesPerSec := float64(frames) / duration.Seconds()
			objectsPerSec := float64(objects) / duration.Seconds()
			msg := fmt.Sprintf("tracker stats (/sec): %.1f ticks, %s objects",
				framesPerSec, formatWithCommas(int64(objectsPerSec)))
			if dropped > 0 {
				msg += fmt.Sprintf(", %d tick errors", dropped)
			}
			log.Print(msg)
		}
	}
}

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("HTTP listen address is required")
	}

	var cfg *config.TuningConfig
	if *configFile != "" {
		loaded, err := config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		cfg = loaded
		log.Printf("loaded tuning config from %s", *configFile)
	} else {
		cfg = config.EmptyTuningConfig()
		log.Print("no -config given, using built-in tuning defaults")
	}

	variant, err := parseVariant(*variantName)
	if err != nil {
		log.Fatalf("invalid -variant: %v", err)
	}

	if *replayFile == "" {
		log.Fatal("a -replay JSONL detections file is required")
	}
	detector, err := loadReplayDetector(*replayFile, cfg.GetNumClasses())
	if err != nil {
		log.Fatalf("failed to load replay file: %v", err)
	}
	log.Printf("loaded %d replay frame(s) across %d class(es)", len(detector.frames), cfg.GetNumClasses())

	wsSink := telemetry.NewWebSocketSink()
	core := pipeline.NewCore(detector, variant, cfg, pipeline.WithTelemetry(wsSink))
	stats := &frameStats{lastReset: time.Now()}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runTicker(ctx, core, stats)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"status": "ok", "service": "tracker", "timestamp": "%s"}`, time.Now().UTC().Format(time.RFC3339))
		})

		mux.HandleFunc("/tick", func(w http.ResponseWriter, r *http.Request) {
			out, err := core.Tick(nil, nil, time.Now())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(out); err != nil {
				log.Printf("failed to encode tick output: %v", err)
			}
		})

		mux.HandleFunc("/ws", wsSink.ServeHTTP)

		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head><title>Tracker</title></head>
<body>
	<h1>Tracker</h1>
	<p>Kalman variant: %s</p>
	<p>Replay file: %s</p>
	<ul>
		<li><a href="/health">Health check</a></li>
		<li><a href="/tick">Force a tick, return its output</a></li>
		<li>/ws: live telemetry websocket</li>
	</ul>
</body>
</html>`, *variantName, *replayFile)
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: mux,
		}

		go func() {
			log.Printf("starting HTTP server on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("graceful shutdown complete")
}
