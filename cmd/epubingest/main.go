package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/okonomi/epubingest/internal/book"
	"github.com/okonomi/epubingest/internal/epub"
)

var rootCmd = &cobra.Command{
	Use:   "epubingest [file]",
	Short: "Inspect an e-book file through the ingestion pipeline",
	Long: `epubingest runs an EPUB (or plain text) file through the full
ingestion pipeline (archive parsing, package descriptors, chapter
extraction, pagination and TOC resolution) and prints the resulting
book structure.

Malformed files degrade through the fallback strategies instead of
failing; the strategy that produced the output is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		verbose, _ := cmd.Flags().GetBool("verbose")
		showTOC, _ := cmd.Flags().GetBool("toc")
		pageNum, _ := cmd.Flags().GetInt("page")

		logger := zap.NewNop()
		if verbose {
			var err error
			logger, err = zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		importer := book.NewImporter(book.Options{Logger: logger})

		var doc *book.Document
		if strings.EqualFold(filepath.Ext(path), ".txt") {
			title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			doc, err = importer.ImportText(cmd.Context(), data, title)
		} else {
			doc, err = importer.ImportEPUB(cmd.Context(), data, path)
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		printDocument(doc)
		if showTOC {
			fmt.Println("\nTable of contents:")
			printTOC(doc.TOC)
		}
		if pageNum >= 0 {
			page, ok := doc.PageAt(pageNum)
			if !ok {
				return fmt.Errorf("page %d out of range (total %d)", pageNum, doc.TotalPages())
			}
			fmt.Printf("\n--- page %d ---\n%s\n", pageNum, page.Content)
		}
		return nil
	},
}

func printDocument(doc *book.Document) {
	fmt.Printf("Title:     %s\n", doc.Metadata.Title)
	if doc.Metadata.Creator != "" {
		fmt.Printf("Creator:   %s\n", doc.Metadata.Creator)
	}
	if doc.Metadata.Language != "" {
		fmt.Printf("Language:  %s\n", doc.Metadata.Language)
	}
	fmt.Printf("Strategy:  %s\n", doc.Strategy)
	fmt.Printf("Chapters:  %d\n", len(doc.Chapters))
	fmt.Printf("Pages:     %d\n", doc.TotalPages())
	if doc.Cover != nil {
		fmt.Printf("Cover:     %s (%d bytes)\n", doc.Cover.MediaType, len(doc.Cover.Data))
	}
	for _, ch := range doc.Chapters {
		fmt.Printf("  %3d  %-40s  %d pages\n", ch.Order, ch.Title, len(ch.Pages))
	}
}

func printTOC(items []epub.TOCItem) {
	for _, item := range items {
		fmt.Printf("%s%s (%s)\n", strings.Repeat("  ", item.Level+1), item.Title, item.Src)
		printTOC(item.Children)
	}
}

func init() {
	rootCmd.Flags().BoolP("verbose", "v", false, "Log skipped items and strategy transitions")
	rootCmd.Flags().Bool("toc", false, "Print the table of contents")
	rootCmd.Flags().Int("page", -1, "Print the content of a page by global page number")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
