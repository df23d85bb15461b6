// Command sav-cli reads a .sav/.zsav file and prints its metadata or
// data rows in a single pass: one file in, one rendered result out,
// with no interactive session in between.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"

	"github.com/cyw0ng95/savreader/internal/model"
	"github.com/cyw0ng95/savreader/pkg/sav"
)

var (
	filePath = flag.String("file", "", "Path to a .sav or .zsav file")
	mode     = flag.String("mode", "table", "Output mode: table, csv, json, list")
	limit    = flag.Int("limit", 0, "Maximum rows to print (0 = unbounded)")
	columns  = flag.String("cols", "", "Comma-separated column names to project (default: all)")
	metaOnly = flag.Bool("metadata", false, "Print file metadata only; read no row data")
	ipcOut   = flag.String("ipc", "", "Also write the first batch read to this path in Arrow IPC format")
)

func main() {
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		os.Exit(1)
	}

	if *metaOnly {
		runMetadata()
		return
	}
	runRead()
}

func runMetadata() {
	meta, err := sav.ReadMetadata(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading metadata: %v\n", err)
		os.Exit(1)
	}
	printMetadata(meta)
}

func runRead() {
	scanner, err := sav.OpenScanner(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", *filePath, err)
		os.Exit(1)
	}
	defer scanner.Close()

	if *columns != "" {
		names := strings.Split(*columns, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		if err := scanner.SelectColumns(names); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *limit > 0 {
		scanner.SetRowLimit(*limit)
	}

	formatter := NewFormatter(*mode)
	batchSize := 4096
	var ipcWritten bool

	for {
		rec, err := scanner.NextBatch(batchSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading rows: %v\n", err)
			os.Exit(1)
		}
		if rec == nil {
			break
		}
		fmt.Print(formatter.Format(rec))

		if *ipcOut != "" && !ipcWritten {
			if err := writeIPCFile(*ipcOut, rec); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing IPC file: %v\n", err)
				os.Exit(1)
			}
			ipcWritten = true
		}
		rec.Release()
	}
}

func writeIPCFile(path string, rec arrow.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return sav.WriteIPC(f, rec)
}

func printMetadata(meta *model.Metadata) {
	fmt.Printf("file_format: %s\n", meta.File.FileFormat)
	fmt.Printf("encoding: %s\n", meta.File.Encoding)
	fmt.Printf("compression: %v\n", meta.File.Compression)
	if meta.File.FileLabel != "" {
		fmt.Printf("file_label: %s\n", meta.File.FileLabel)
	}
	if meta.File.NumRows != nil {
		fmt.Printf("num_rows: %d\n", *meta.File.NumRows)
	} else {
		fmt.Println("num_rows: unknown")
	}
	fmt.Printf("num_columns: %d\n", meta.File.NumColumns)
	fmt.Println("variables:")
	for _, name := range meta.VariableNames {
		vm, _ := meta.Variables.Get(name)
		fmt.Printf("  %-16s type=%-6s format=%s\n", name, vm.OutputType, vm.Format)
	}
}
