package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"netquiz/domain"
	"netquiz/infrastructure/storage"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "", "Prefix to scan (quiz:, score:, file:, account:), empty for all")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				kind, detail, err := describe(key, v)
				if err != nil {
					// One bad value should not hide the rest of the store.
					color.Red.Printf("Error decoding key %s: %v\n", key, err)
					return nil
				}
				table.Append([]string{key, kind, detail})
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	color.Green.Printf("%d entries\n", rows)
}

func describe(key string, v []byte) (string, string, error) {
	switch {
	case strings.HasPrefix(key, storage.QuizPrefix):
		var q domain.Quiz
		if err := json.Unmarshal(v, &q); err != nil {
			return "", "", err
		}
		return "QUIZ", fmt.Sprintf("%s (%d questions)", q.Title, len(q.Questions)), nil
	case strings.HasPrefix(key, storage.ScorePrefix):
		var score wrapperspb.Int32Value
		if err := proto.Unmarshal(v, &score); err != nil {
			return "", "", err
		}
		return "SCORE", strconv.Itoa(int(score.GetValue())), nil
	case strings.HasPrefix(key, storage.FilePrefix):
		fields, err := structFields(v)
		if err != nil {
			return "", "", err
		}
		return "FILE", fmt.Sprintf("%v bytes, %v, by %v at %v",
			fields["size"], fields["mime_type"], fields["uploader"], fields["uploaded_at"]), nil
	case strings.HasPrefix(key, storage.AccountPrefix):
		fields, err := structFields(v)
		if err != nil {
			return "", "", err
		}
		created := "?"
		if sec, ok := fields["created_at"].(float64); ok {
			created = time.Unix(int64(sec), 0).UTC().Format(time.RFC3339)
		}
		return "ACCOUNT", "registered " + created, nil
	default:
		return "RAW", fmt.Sprintf("%d bytes", len(v)), nil
	}
}

func structFields(v []byte) (map[string]any, error) {
	var pb structpb.Struct
	if err := proto.Unmarshal(v, &pb); err != nil {
		return nil, err
	}
	return pb.AsMap(), nil
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
