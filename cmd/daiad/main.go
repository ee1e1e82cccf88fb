// daiad serves document availability over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gbv/daia"
	"github.com/gbv/daia/catalog"
	"github.com/gbv/daia/config"
	"github.com/gbv/daia/provider"
	"github.com/gbv/daia/web"
	"github.com/gbv/daia/z3950"
	log "github.com/sirupsen/logrus"
)

var docs = strings.TrimLeft(`
# daiad - document availability service

Serves DAIA for catalog records, with settings from a daia.ini file.

$ daiad -c daia.ini -l :8080
$ curl "localhost:8080/?id=123456789&format=json"

Formats: xml, ns (namespaced xml), json, nt, ttl. Prometheus metrics are
available at /metrics.

## flags

`, "\n")

var (
	configFile  = flag.String("c", "", "config file (default: XDG config dir)")
	listen      = flag.String("l", "localhost:8080", "address to listen on")
	method      = flag.String("m", catalog.MethodHTTP, "default retrieval method: http, z3950, file")
	maxRetries  = flag.Int("r", 3, "max retries for HTTP requests")
	timeout     = flag.Duration("T", 30*time.Second, "request timeout")
	logJSON     = flag.Bool("log-json", false, "log as JSON")
	verbose     = flag.Bool("v", false, "verbose output")
	showVersion = flag.Bool("version", false, "show version")
)

func main() {
	flag.Usage = func() {
		io.WriteString(os.Stderr, docs)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Println(daia.Version)
		os.Exit(0)
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *logJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	filename := *configFile
	if filename == "" {
		var err error
		if filename, err = config.DefaultPath(); err != nil {
			log.Fatal(err)
		}
	}
	c, err := config.Load(filename)
	if err != nil {
		log.Fatal(err)
	}
	if err := c.Validate(*method); err != nil {
		log.Fatal(err)
	}
	var session *z3950.Session
	if c.Z3950Host != "" {
		session = z3950.NewSession(z3950.YazDialer(z3950.Target{
			Address:  c.Z3950Host,
			User:     c.Z3950User,
			Password: c.Z3950Password,
		}))
		defer session.Close()
	}
	client := catalog.NewClient(*maxRetries)
	client.Timeout = *timeout
	p, err := provider.New(c, client, session)
	if err != nil {
		log.Fatal(err)
	}
	p.Method = *method
	srv := &http.Server{
		Addr:         *listen,
		Handler:      http.TimeoutHandler(web.NewHandler(p), *timeout, "timeout"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: *timeout + 5*time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("shutdown: %v", err)
		}
	}()
	log.WithFields(log.Fields{
		"addr":    *listen,
		"methods": strings.Join(p.Methods(), ","),
	}).Info("serving")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
