// daia prints the availability of catalog records as DAIA.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/gbv/daia"
	"github.com/gbv/daia/catalog"
	"github.com/gbv/daia/config"
	"github.com/gbv/daia/encode"
	"github.com/gbv/daia/exdep"
	"github.com/gbv/daia/pica"
	"github.com/gbv/daia/pproc"
	"github.com/gbv/daia/provider"
	"github.com/gbv/daia/z3950"
	log "github.com/sirupsen/logrus"
)

var docs = strings.TrimLeft(`
# daia - document availability from PICA+ records

Fetches the PICA+ record of a document and prints the availability of its
items. Settings are read from an ini file, by default
~/.config/daia/daia.ini:

	name = Universitätsbibliothek
	infoUrl = https://www.example.org/
	basicUrl = https://opac.example.org/DB=1/PPNSET?PPN=
	picaPlusUrl = https://opac.example.org/DB=1/XML=1.0/PRS=PP/PPN?PPN=
	documentIdPrefix = http://uri.gbv.de/document/opac-de-830:ppn:
	itemIdPrefix = http://uri.gbv.de/document/opac-de-830:epn:
	locationsFile = locations.txt

## single document

$ daia -id 123456789
$ daia -id 123456789 -f json -m z3950

## batch, one JSON response per line, unordered

$ cat ppns.txt | daia -b -w 8

## offline conversion of a record dump, records separated by blank lines

$ daia -dump records.pica.zst > daia.ndjson

## flags

`, "\n")

var (
	configFile   = flag.String("c", "", "config file (default: XDG config dir)")
	id           = flag.String("id", "", "document identifier (PPN)")
	outputFormat = flag.String("f", encode.DefaultFormat, "output format: "+strings.Join(encode.Formats(), ", "))
	method       = flag.String("m", catalog.MethodHTTP, "retrieval method: http, z3950, file")
	batch        = flag.Bool("b", false, "read identifiers from stdin, write JSON lines")
	dumpFile     = flag.String("dump", "", "convert records from a file (.gz, .zst) instead of fetching them")
	numWorkers   = flag.Int("w", 4, "number of parallel workers for batch and dump")
	maxRetries   = flag.Int("r", 3, "max retries for HTTP requests")
	picaPlusURL  = flag.String("u", "", "override picaPlusUrl")
	recordDir    = flag.String("d", "", "override recordDir")
	z3950Host    = flag.String("z", "", "override z3950Host")
	rawMessages  = flag.Bool("raw", false, "add the subfields of each item as messages")
	unguarded    = flag.Bool("unguarded", false, "resolve items even if copies have been looked up")
	checkDeps    = flag.Bool("check", false, "check external programs and exit")
	verbose      = flag.Bool("v", false, "verbose output")
	showVersion  = flag.Bool("version", false, "show version")
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
	if *checkDeps {
		errs := exdep.Check([]exdep.Dep{exdep.YazClient})
		for _, err := range errs {
			log.Println(err)
		}
		if len(errs) > 0 {
			os.Exit(1)
		}
		os.Exit(0)
	}
	c, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	var session *z3950.Session
	if c.Z3950Host != "" {
		session = z3950.NewSession(z3950.YazDialer(z3950.Target{
			Address:  c.Z3950Host,
			User:     c.Z3950User,
			Password: c.Z3950Password,
		}))
		defer session.Close()
	}
	p, err := provider.New(c, catalog.NewClient(*maxRetries), session)
	if err != nil {
		log.Fatal(err)
	}
	p.Method = *method
	p.Options.RawMessages = *rawMessages
	p.Options.Unguarded = *unguarded
	switch {
	case *dumpFile != "":
		if err := runDump(ctx, p, *dumpFile, os.Stdout); err != nil {
			log.Fatal(err)
		}
	case *batch:
		if err := c.Validate(*method); err != nil {
			log.Fatal(err)
		}
		if err := runBatch(ctx, p, os.Stdin, os.Stdout); err != nil {
			log.Fatal(err)
		}
	case *id != "":
		if err := c.Validate(*method); err != nil {
			log.Fatal(err)
		}
		resp, err := p.Response(ctx, []string{*id}, *method)
		if err != nil {
			log.Fatal(err)
		}
		bw := bufio.NewWriter(os.Stdout)
		defer bw.Flush()
		if err := encode.Write(bw, resp, *outputFormat); err != nil {
			log.Fatal(err)
		}
	default:
		flag.Usage()
		os.Exit(1)
	}
}

// loadConfig reads the config file, if it exists, and applies flag
// overrides.
func loadConfig() (*config.Config, error) {
	filename := *configFile
	if filename == "" {
		var err error
		if filename, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	c := &config.Config{}
	if _, err := os.Stat(filename); err == nil || *configFile != "" {
		if c, err = config.Load(filename); err != nil {
			return nil, err
		}
		log.WithField("file", filename).Debug("loaded config")
	}
	if *picaPlusURL != "" {
		c.PicaPlusURL = *picaPlusURL
	}
	if *recordDir != "" {
		c.RecordDir = *recordDir
	}
	if *z3950Host != "" {
		c.Z3950Host = *z3950Host
	}
	return c, nil
}

// runBatch resolves identifiers read from r, one per line, and writes one
// JSON response per line.
func runBatch(ctx context.Context, p *provider.Provider, r io.Reader, w io.Writer) error {
	var ids []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if v := strings.TrimSpace(scanner.Text()); v != "" {
			ids = append(ids, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	var (
		mu sync.Mutex
		bw = bufio.NewWriter(w)
	)
	defer bw.Flush()
	return pproc.Each(ctx, ids, *numWorkers, func(ctx context.Context, id string) error {
		resp, err := p.Response(ctx, []string{id}, "")
		if err != nil {
			return err
		}
		b, err := encode.MarshalJSON(resp)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		bw.Write(b)
		return bw.WriteByte('\n')
	})
}

// runDump converts all records of a dump file into JSON lines.
func runDump(ctx context.Context, p *provider.Provider, filename string, w io.Writer) error {
	f, err := pproc.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	proc := pproc.NewProcessor(func(ctx context.Context, record []byte) ([]byte, error) {
		resp := daia.NewResponse(p.Config.Institution())
		resp.AddDocument(p.Convert(ctx, string(record), pica.HTTP))
		b, err := encode.MarshalJSON(resp)
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	}, pproc.WithWorkers(*numWorkers))
	return proc.Process(ctx, f, w)
}
