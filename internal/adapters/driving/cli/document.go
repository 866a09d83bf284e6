package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsuite/internal/core/services"
)

var putCmd = &cobra.Command{
	Use:   "put [application/collection] [file]",
	Short: "Store documents",
	Long: `Reads a JSON object or an array of objects from file, or from standard
input when file is omitted or "-", and stores each one in the collection.

Existing documents are replaced unless --create is given.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPut,
}

var getCmd = &cobra.Command{
	Use:   "get [application/collection] [key]",
	Short: "Print a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runGet,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [application/collection] [key...]",
	Short: "Delete documents",
	Long:  `Deletes the documents stored under the given keys, or every document with --all.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

var listCmd = &cobra.Command{
	Use:   "list [application/collection]",
	Short: "List documents in a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

// Flags for the document commands.
var (
	putCreate  bool
	deleteAll  bool
	listRender bool
)

func init() {
	putCmd.Flags().BoolVar(&putCreate, "create", false, "Fail when a document with the same key exists")
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Delete every document in the collection")
	listCmd.Flags().BoolVarP(&listRender, "render", "r", false, "Print each document's rendered template instead of JSON")

	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	suite, release, err := openSuite(ctx)
	if err != nil {
		return err
	}
	defer release()

	coll, err := collectionArg(suite, args[0])
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 2 && args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}
	objs, err := readObjects(in)
	if err != nil {
		return err
	}

	for i, obj := range objs {
		doc, err := putObject(ctx, coll, obj)
		if err != nil {
			return fmt.Errorf("failed to store document %d: %w", i, err)
		}
		cmd.Printf("Stored %s\n", doc.URL())
	}
	return nil
}

func putObject(ctx context.Context, coll *services.Collection, obj map[string]any) (*services.Document, error) {
	if putCreate {
		return coll.Create(ctx, obj)
	}
	doc, err := coll.New(ctx, obj)
	if err != nil {
		return nil, err
	}
	if err := doc.Save(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

// readObjects decodes a single JSON object or an array of objects.
func readObjects(r io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	switch v := raw.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		objs := make([]map[string]any, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("input item %d is not an object", i)
			}
			objs = append(objs, obj)
		}
		return objs, nil
	default:
		return nil, fmt.Errorf("input must be an object or an array of objects")
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	suite, release, err := openSuite(ctx)
	if err != nil {
		return err
	}
	defer release()

	coll, err := collectionArg(suite, args[0])
	if err != nil {
		return err
	}
	doc, err := coll.Get(ctx, args[1])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	out, err := coll.JSON(doc)
	if err != nil {
		return err
	}
	return writeJSON(cmd, out)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	suite, release, err := openSuite(ctx)
	if err != nil {
		return err
	}
	defer release()

	coll, err := collectionArg(suite, args[0])
	if err != nil {
		return err
	}

	if deleteAll {
		n, err := coll.DeleteAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete documents: %w", err)
		}
		cmd.Printf("Deleted %d documents from %s\n", n, coll.URL())
		return nil
	}

	if len(args) < 2 {
		return fmt.Errorf("no keys given; pass keys or --all")
	}
	for _, key := range args[1:] {
		if err := coll.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		cmd.Printf("Deleted %s/%s\n", coll.URL(), key)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	suite, release, err := openSuite(ctx)
	if err != nil {
		return err
	}
	defer release()

	coll, err := collectionArg(suite, args[0])
	if err != nil {
		return err
	}
	docs, err := coll.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if listRender {
		if len(docs) == 0 {
			cmd.Printf("No documents found in %s\n", coll.URL())
			return nil
		}
		for _, doc := range docs {
			text, err := doc.Render()
			if err != nil {
				return err
			}
			cmd.Printf("  %s\n    %s\n", doc.Key(), text)
		}
		cmd.Printf("\nTotal: %d documents\n", len(docs))
		return nil
	}

	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		m, err := coll.JSON(doc)
		if err != nil {
			return err
		}
		out = append(out, m)
	}
	return writeJSON(cmd, out)
}
