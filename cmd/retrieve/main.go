package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/seanblong/docask/internal/config"
	"github.com/seanblong/docask/internal/extract"
	"github.com/seanblong/docask/internal/retrieval"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("docask-retrieve", pflag.ExitOnError)
	file := fs.String("file", "", "PDF or text document (- reads text from stdin)")
	query := fs.String("query", "", "Question to retrieve context for")
	scores := fs.Bool("scores", false, "Print the selected chunks and their scores")
	asJSON := fs.Bool("json", false, "Print the full retrieval result as JSON")

	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	if *file == "" || strings.TrimSpace(*query) == "" {
		log.Fatal("--file and --query are required")
	}

	text, err := readDocument(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}
	text = extract.Truncate(text, cfg.MaxContextChars)

	r, err := retrieval.New(cfg.RetrievalOptions())
	if err != nil {
		log.Fatal(err)
	}
	res := r.Retrieve(text, *query)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Fatal(err)
		}
		return
	}
	if *scores {
		printScores(os.Stderr, res)
	}
	fmt.Println(res.Context)
}

func readDocument(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return extract.FromText(string(b))
	}
	return extract.FromFile(path)
}

func printScores(w io.Writer, res retrieval.Result) {
	fmt.Fprintf(w, "path: %s, chunks: %d, keywords: %s\n", res.Path, res.Total, strings.Join(res.Keywords, " "))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tSCORE\tMATCHED\tTF")
	for _, c := range res.Chunks {
		fmt.Fprintf(tw, "%d\t%.0f\t%d\t%d\n", c.Index, c.Value, c.Matched, c.TermFrequency)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
}
