package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/wudi/shardscan/observability/zaplog"
	"github.com/wudi/shardscan/ocr"
	"github.com/wudi/shardscan/ocr/hocr"
	"github.com/wudi/shardscan/ocr/tesseract"
	"github.com/wudi/shardscan/scan"
	"github.com/wudi/shardscan/shard"
)

func main() {
	hocrMode := flag.Bool("hocr", false, "treat the input file as saved hOCR output instead of an image")
	upscale := flag.Int("upscale", 1, "integer upscale factor applied before recognition")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: scanshards [-hocr] [-upscale N] [-v] <file>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	opts := []scan.Option{}
	if *verbose {
		z, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
			os.Exit(1)
		}
		defer z.Sync()
		opts = append(opts, scan.WithLogger(zaplog.New(z)))
	}

	var counts scan.Counts
	if *hocrMode {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open %s: %v\n", path, err)
			os.Exit(1)
		}
		defer f.Close()
		tokens, err := hocr.Parse(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse hocr: %v\n", err)
			os.Exit(1)
		}
		counts = scan.New(ocr.DefaultEngine(), opts...).ScanTokens(tokens)
	} else {
		img, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
			os.Exit(1)
		}
		inputOpts := []ocr.InputOption{ocr.WithLanguages("eng")}
		if *upscale > 1 {
			inputOpts = append(inputOpts, tesseract.WithUpscale(*upscale))
		}
		counts, err = scan.New(ocr.DefaultEngine(), opts...).Scan(context.Background(), img, inputOpts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan: %v\n", err)
			os.Exit(1)
		}
	}

	for _, c := range shard.Categories() {
		if n, ok := counts[c]; ok {
			fmt.Printf("%-13s %d\n", c, n)
		}
	}
	fmt.Printf("%-13s %d\n", "Total", counts.Total())
}
