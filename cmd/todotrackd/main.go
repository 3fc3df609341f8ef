package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"todotrack/internal/config"
	"todotrack/internal/logging"
	"todotrack/internal/todod"
)

func main() {
	cwd, _ := os.Getwd()
	settings, err := config.LoadSettings(cwd)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	listen := flag.String("listen", "127.0.0.1:7337", "listen address (tcp)")
	logLevel := flag.String("log-level", settings.LogLevel, "log level: debug|info|warn|error")
	logFormat := flag.String("log-format", settings.LogFormat, "log format: text|json")
	workers := flag.Int("workers", settings.Workers, "parallel file readers per scan (0: CPU count)")
	flag.Parse()

	log, err := logging.New(*logLevel, *logFormat, os.Stderr)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	s := todod.NewServer(todod.Options{Listen: *listen, Workers: *workers, Logger: log})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		_ = s.Close()
	}()

	if err := s.Run(); err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			_, _ = fmt.Fprintf(os.Stderr, "listen address in use: %s\nTry: -listen 127.0.0.1:7338\n", *listen)
		} else {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
