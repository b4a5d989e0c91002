// Command parse-receipt prints the purchase date and items of a receipt PDF.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/Zikrig/garantee-datamatrix/internal/receipt"
)

func main() {
	fs := ff.NewFlagSet("parse-receipt")
	var (
		asJSON  = fs.BoolLong("json", "Print the parsed receipt as JSON")
		showRaw = fs.BoolLong("raw", "Also print the extracted text")
	)

	if err := ff.Parse(fs, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(fs.GetArgs()) != 1 {
		fmt.Fprintf(os.Stderr, "usage: parse-receipt [flags] <receipt.pdf>\n%s\n", ffhelp.Flags(fs))
		os.Exit(2)
	}

	data, err := receipt.ParseFile(fs.GetArgs()[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	date := data.Date
	if date == "" {
		date = "(не найдено)"
	}
	fmt.Printf("Дата: %s\n", date)
	fmt.Println("Товары:")
	fmt.Println(receipt.RenderItems(data.Items))
	if *showRaw {
		fmt.Println()
		fmt.Println(data.RawText)
	}
}
