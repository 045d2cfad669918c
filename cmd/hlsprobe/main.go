// Command hlsprobe resolves an HLS master playlist and prints its variants,
// the bitrates available for selection and how each media playlist fared.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	hls "github.com/turtletowerz/hls-manifest"
	"github.com/turtletowerz/hls-manifest/m3u8"
	"github.com/turtletowerz/hls-manifest/metrics"
	"github.com/turtletowerz/hls-manifest/progressbar"
)

type headerFlags []string

func (h *headerFlags) String() string {
	return strings.Join(*h, ", ")
}

func (h *headerFlags) Set(value string) error {
	if !strings.Contains(value, ":") {
		return fmt.Errorf("header %q must look like Name: value", value)
	}
	*h = append(*h, value)
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "hlsprobe:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hlsprobe", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		headers     headerFlags
		configPath  = fs.String("config", "", "YAML configuration file")
		timeout     = fs.Duration("timeout", 0, "timeout for each playlist fetch (overrides config)")
		concurrency = fs.Int("concurrency", 0, "media playlists fetched at once (overrides config)")
		media       = fs.Bool("media", false, "treat the input as a media playlist")
		progress    = fs.Bool("progress", false, "draw a progress bar while resolving variants")
		metricsAddr = fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
		logLevel    = fs.String("log-level", "", "log level (overrides config)")
	)
	fs.Var(&headers, "header", "extra request header, may be repeated")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one playlist url or path")
	}
	target := fs.Arg(0)

	cfg := hls.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = hls.LoadConfig(*configPath); err != nil {
			return err
		}
	}

	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *concurrency > 0 {
		cfg.Concurrency = *concurrency
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}).
		Level(cfg.Level()).
		With().Timestamp().Logger()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error().Err(err).Str("addr", *metricsAddr).Msg("metrics server stopped")
			}
		}()
	}

	header := make(http.Header)
	for _, h := range headers {
		name, value, _ := strings.Cut(h, ":")
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := hls.New(cfg, hls.WithLogger(logger), hls.WithRecorder(metrics.Prometheus{}))

	if *media {
		pl, err := client.FetchMedia(ctx, target, header, nil)
		if err != nil {
			return err
		}
		printMedia(stdout, pl)
		return nil
	}

	master, err := client.FetchMaster(ctx, target, header)
	if err != nil {
		return err
	}

	var bar *progressbar.Bar
	if *progress {
		bar = progressbar.New(master.Count())
		client.SetResolvedFunc(func(out hls.VariantOutcome) {
			if out.Err != nil {
				fmt.Fprint(stderr, bar.Fail())
				return
			}
			line, _ := bar.UpdateBar(1)
			fmt.Fprint(stderr, line)
		})
	}

	res := client.ResolveMaster(ctx, target, header, master)
	if bar != nil {
		fmt.Fprintln(stderr, bar.Done())
	}

	printResolution(stdout, res)
	return res.Err()
}

func printResolution(w io.Writer, res *hls.Resolution) {
	fmt.Fprintf(w, "%d variants\n", res.Master.Count())
	for i, variant := range res.Master.Variants {
		out := res.Outcomes[i]
		status := "ok"
		if out.Err != nil {
			status = "failed: " + out.Err.Error()
		}
		fmt.Fprintf(w, "  [%d] bandwidth=%s resolution=%s segments=%d duration=%.3fs %s\n      %s\n",
			i, optInt(variant.Bandwidth), optString(variant.Resolution), variant.Count(), variant.Duration(), status, out.URL)
	}

	fmt.Fprintln(w, "bitrates:")
	for _, b := range res.Master.Bitrates() {
		fmt.Fprintf(w, "  %d %s\n", b.Bitrate, optString(b.Resolution))
	}
}

func printMedia(w io.Writer, pl *m3u8.MediaPlaylist) {
	fmt.Fprintf(w, "%d segments, media sequence %d, %.3fs, endlist=%t\n", pl.Count(), pl.MediaSequence, pl.Duration(), pl.EndList)
	for _, seg := range pl.Segments {
		flags := ""
		if seg.Discontinuity {
			flags = " discontinuity"
		}
		fmt.Fprintf(w, "  #%d %.3fs %s%s\n", seg.Sequence, seg.Duration, seg.Path, flags)
	}
	for _, issue := range pl.Issues {
		fmt.Fprintf(w, "  issue: %v\n", issue)
	}
}

func optInt(n int) string {
	if n == m3u8.Unset {
		return "-"
	}
	return fmt.Sprint(n)
}

func optString(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
