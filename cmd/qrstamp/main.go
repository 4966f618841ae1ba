// qrstamp is a command-line tool for stamping per-page QR codes onto a PDF.
//
// Each row of the CSV's URL column is encoded as a QR code and drawn on the
// page with the same index, inside an optional content layer on top of the
// existing page content.
//
// Usage:
//
//	qrstamp -pdf document.pdf -csv urls.csv [options]
//
// Required flags:
//
//	-pdf string       Path to the PDF to stamp
//	-csv string       Path to a CSV file with a URL column
//
// Placement options:
//
//	-config string    YAML config file with placement and QR defaults
//	-anchor string    Horizontal anchor, right or left (default right)
//	-offset float     Distance from the anchor edge in points (default 40)
//	-y float          Distance of the QR bottom edge from the page bottom (default 83)
//	-size float       QR side length in points (default 70)
//	-caption          Draw the caption beneath the QR code (default true)
//	-caption-text     Caption text
//	-font-size float  Caption font size (default 7)
//
// Processing options:
//
//	-output string    Output PDF path (default output_qr.pdf)
//	-column string    CSV column holding the payloads (default URL)
//	-normalize        Normalize payloads as http(s) URLs before encoding
//	-debug            Enable debug mode (outlines QR placements)
//	-force            Stamp even if a QR layer is already present
//	-overwrite        Overwrite output file if it exists
//	-debug-pdf        Dump PDF structure for debugging
//
// Examples:
//
// Stamp with the default placement:
//
//	qrstamp -pdf letters.pdf -csv enrollments.csv
//
// Anchor to the left edge without a caption:
//
//	qrstamp -pdf letters.pdf -csv enrollments.csv -anchor left -offset 36 -caption=false -output stamped.pdf
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gardar/qrstamp/internal/config"
	"github.com/gardar/qrstamp/pkg/qrstamp"
	"github.com/gardar/qrstamp/pkg/urlcsv"
)

func main() {
	pdfPath := flag.String("pdf", "", "Path to the PDF to stamp")
	csvPath := flag.String("csv", "", "Path to a CSV file with a URL column")
	outputPath := flag.String("output", qrstamp.OutputFilename, "Output PDF path")
	configPath := flag.String("config", "", "Path to a YAML config file")
	anchor := flag.String("anchor", qrstamp.DefaultPlacement.Anchor.String(), "Horizontal anchor: right or left")
	offset := flag.Float64("offset", qrstamp.DefaultPlacement.Offset, "Distance from the anchor edge in points")
	y := flag.Float64("y", qrstamp.DefaultPlacement.Y, "Distance of the QR bottom edge from the page bottom in points")
	size := flag.Float64("size", qrstamp.DefaultPlacement.Size, "QR side length in points")
	showCaption := flag.Bool("caption", true, "Draw the caption beneath the QR code")
	captionText := flag.String("caption-text", qrstamp.DefaultPlacement.Caption, "Caption text")
	fontSize := flag.Float64("font-size", qrstamp.DefaultPlacement.CaptionFontSize, "Caption font size in points")
	column := flag.String("column", urlcsv.DefaultColumn, "CSV column holding the payloads")
	normalize := flag.Bool("normalize", false, "Normalize payloads as http(s) URLs before encoding")
	debug := flag.Bool("debug", false, "Enable debug mode")
	force := flag.Bool("force", false, "Stamp even if a QR layer is already detected")
	overwriteOutput := flag.Bool("overwrite", false, "Overwrite the output PDF if it already exists")
	dumpPDF := flag.Bool("debug-pdf", false, "Dump PDF structure for debugging")
	flag.Parse()

	if *pdfPath == "" || *csvPath == "" {
		fmt.Println("Error: Must provide both -pdf and -csv paths")
		os.Exit(1)
	}

	if _, err := os.Stat(*outputPath); err == nil {
		if !*overwriteOutput {
			fmt.Printf("Output file %s already exists. Use -overwrite to overwrite.\n", *outputPath)
			os.Exit(1)
		}
	}

	// Start from the config file (or built-in defaults), then apply flags
	file, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	stampConfig, err := file.StampConfig()
	if err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	// Only flags set on the command line override the config
	flag.Visit(func(f *flag.Flag) {
		p := &stampConfig.Placement
		switch f.Name {
		case "anchor":
			a, err := qrstamp.ParseAnchor(*anchor)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
			p.Anchor = a
		case "offset":
			p.Offset = *offset
		case "y":
			p.Y = *y
		case "size":
			p.Size = *size
		case "caption":
			p.ShowCaption = *showCaption
		case "caption-text":
			p.Caption = *captionText
		case "font-size":
			p.CaptionFontSize = *fontSize
		case "column":
			stampConfig.Column = *column
		case "normalize":
			stampConfig.NormalizeURLs = *normalize
		}
	})

	stampConfig.Debug = *debug
	stampConfig.Force = *force
	stampConfig.DumpPDF = *dumpPDF
	stampConfig.Progress = func(f float64) {
		fmt.Printf("\rStamping... %3.0f%%", f*100)
		if f >= 1 {
			fmt.Println()
		}
	}

	pdfData, err := os.ReadFile(*pdfPath)
	if err != nil {
		fmt.Printf("Failed to read input PDF: %v\n", err)
		os.Exit(1)
	}
	csvData, err := os.ReadFile(*csvPath)
	if err != nil {
		fmt.Printf("Failed to read CSV file: %v\n", err)
		os.Exit(1)
	}

	result, err := qrstamp.Stamp(pdfData, csvData, stampConfig)
	if err != nil {
		fmt.Printf("Error stamping PDF: %v\n", err)
		os.Exit(1)
	}

	// Write final PDF to disk
	if err := os.WriteFile(*outputPath, result.PDF, 0666); err != nil {
		fmt.Printf("Failed to write output PDF: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Stamped %d of %d pages: %s\n", result.Stamped, len(result.Pages), *outputPath)
}
