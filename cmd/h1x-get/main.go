// Command h1x-get performs a single HTTP/1.1 request with the h1x
// engine and prints the response.
package main

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"ekzo.dev/go/h1x/h1x"
	"ekzo.dev/go/h1x/internal/obs"
)

var (
	flagMethod  string
	flagHeaders []string
	flagData    string
	flagTimeout time.Duration
	flagLogFile string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "h1x-get URL",
		Short: "Fetch a URL over HTTP/1.1 using the h1x protocol engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
		SilenceUsage: true,
	}
	root.Flags().StringVarP(&flagMethod, "request", "X", "GET", "request method")
	root.Flags().StringArrayVarP(&flagHeaders, "header", "H", nil, "extra header, 'Name: value' (repeatable)")
	root.Flags().StringVarP(&flagData, "data", "d", "", "request body")
	root.Flags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "transport timeout")
	root.Flags().StringVar(&flagLogFile, "log-file", "", "write logs to a rotating file instead of stderr")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log request/response details")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(rawURL string) error {
	logger, err := buildLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	host := u.Hostname()
	port := 80
	if u.Scheme == "https" {
		port = 443
	}
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("parse port: %w", err)
		}
	}

	hdr := h1x.Header{}
	for _, raw := range flagHeaders {
		name, value, ok := strings.Cut(raw, ":")
		if !ok {
			return fmt.Errorf("malformed header %q, want 'Name: value'", raw)
		}
		hdr.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	if hdr.Get("X-Request-Id") == "" {
		hdr.Set("X-Request-Id", uuid.NewString())
	}

	minLevel := obs.Warn
	if flagVerbose {
		minLevel = obs.Debug
	}
	conn := h1x.New()
	conn.Logger = obs.NewZapLogger(logger, minLevel)

	if err := conn.Connect(host, port, &h1x.ConnConfig{Timeout: flagTimeout}); err != nil {
		return err
	}
	defer conn.Close()

	spec := h1x.RequestSpec{
		Method:   flagMethod,
		Path:     u.Path,
		RawQuery: u.RawQuery,
		Header:   hdr,
	}
	if flagData != "" {
		spec.Body = []byte(flagData)
	}

	res, err := conn.Request(spec)
	if err != nil {
		return err
	}
	logger.Debug("exchange complete",
		zap.Int("status", res.Status),
		zap.Int("body_bytes", len(res.Body)))

	fmt.Printf("HTTP %d\n", res.Status)
	names := make([]string, 0, len(res.Header))
	for k := range res.Header {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		for _, v := range res.Header[k] {
			fmt.Printf("%s: %s\n", k, v)
		}
	}
	fmt.Println()
	os.Stdout.Write(res.Body)
	return nil
}

func buildLogger() (*zap.Logger, error) {
	if flagLogFile == "" {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   flagLogFile,
		MaxSize:    50, // MiB
		MaxBackups: 3,
		MaxAge:     14, // days
	})
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(enc, sink, zapcore.DebugLevel)
	return zap.New(core), nil
}
