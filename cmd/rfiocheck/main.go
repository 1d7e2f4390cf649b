/*******************************************************************************
*
* rfiocheck opens a DDS directory (--dataset) and/or an RFITS file (--fits),
* as chosen by the flags, and reports structural validity with a process exit code, in
* the spirit of a go-vet-style structural check. Grounded on holo-build's
* main.go argument-parsing shape and dump-package's showError convention,
* rewired onto pflag instead of a hand-rolled switch loop.
*
*******************************************************************************/

package main

import (
	"fmt"
	"os"

	"github.com/ogier/pflag"

	"github.com/nrao/rfio/dds"
	"github.com/nrao/rfio/dds/config"
	"github.com/nrao/rfio/rfioerr"
	"github.com/nrao/rfio/rfits"
)

func main() {
	var (
		datasetPath = pflag.StringP("dataset", "d", "", "path to a DDS dataset directory to check")
		fitsPath    = pflag.StringP("fits", "f", "", "path to an RFITS file to check")
		configPath  = pflag.StringP("config", "c", "", "path to a TOML policy config file")
		verbose     = pflag.BoolP("verbose", "v", false, "print a line for every item/HDU examined")
	)
	pflag.Parse()

	if *datasetPath == "" && *fitsPath == "" {
		fmt.Fprintln(os.Stderr, "rfiocheck: one of --dataset or --fits is required")
		pflag.Usage()
		os.Exit(2)
	}

	opts := config.Default()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			showError(err)
			os.Exit(2)
		}
		loaded, err := config.Load(f)
		f.Close()
		if err != nil {
			showError(err)
			os.Exit(2)
		}
		opts = loaded
	}

	var collector rfioerr.ErrorCollector
	if *datasetPath != "" {
		checkDataset(*datasetPath, opts, *verbose, &collector)
	}
	if *fitsPath != "" {
		checkFits(*fitsPath, *verbose, &collector)
	}

	if len(collector.Errors) > 0 {
		for _, err := range collector.Errors {
			showError(err)
		}
		os.Exit(1)
	}
	fmt.Println("rfiocheck: OK")
}

func checkDataset(path string, opts config.Options, verbose bool, c *rfioerr.ErrorCollector) {
	ds, err := dds.OpenWithOptions(path, opts)
	if err != nil {
		c.Add(fmt.Errorf("opening dataset %s: %w", path, err))
		return
	}
	defer ds.Close()

	names, err := ds.ItemNames()
	if err != nil {
		c.Add(fmt.Errorf("listing items in %s: %w", path, err))
		return
	}
	for _, name := range names {
		h, ok, err := ds.Get(name)
		if err != nil {
			c.Add(fmt.Errorf("reading item %s: %w", name, err))
			continue
		}
		if !ok {
			c.Add(fmt.Errorf("item %s vanished mid-scan", name))
			continue
		}
		if verbose {
			info := h.Info()
			fmt.Printf("  %s: %v, storage=%v, elements=%d\n", name, info.Type, info.Storage, info.ElementCount)
		}
	}
}

func checkFits(path string, verbose bool, c *rfioerr.ErrorCollector) {
	f, err := os.Open(path)
	if err != nil {
		c.Add(fmt.Errorf("opening %s: %w", path, err))
		return
	}
	defer f.Close()

	p, err := rfits.NewParser(f)
	if err != nil {
		c.Add(fmt.Errorf("parsing %s: %w", path, err))
		return
	}
	for i, hdu := range p.Hdus() {
		if verbose {
			fmt.Printf("  HDU %d: kind=%v bitpix=%v naxis=%v header_offset=%d n_header_records=%d\n",
				i, hdu.Kind, hdu.Bitpix, hdu.Naxis, hdu.HeaderByteOffset, hdu.NHeaderRecords)
		}
		if _, err := hdu.DataByteLen(); err != nil {
			c.Add(fmt.Errorf("HDU %d in %s: %w", i, path, err))
		}
	}
	if verbose {
		fmt.Printf("  special_record_size=%d\n", p.SpecialRecordSize())
	}
}

func showError(err error) {
	fmt.Fprintf(os.Stderr, "\x1b[31m\x1b[1m!!\x1b[0m %s\n", err.Error())
}
