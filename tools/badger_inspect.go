package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"chat-relay/domain/chat"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// Debug CLI: dumps the chat records stored under a key prefix.
// Prefixes in use: "dm:" direct messages, "gm:" group messages,
// "group:" groups, "user:" credentials.
func main() {
	dbPath := flag.String("db", "/tmp/badger", "Path to badger DB")
	prefix := flag.String("prefix", "dm:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Timestamp", "Sender", "Detail", "Likes"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Secondary index entries only hold a pointer to the primary key.
			if strings.HasPrefix(key, "dmidx:") || strings.HasPrefix(key, "gmidx:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append(rowFor(key, v))
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
}

func rowFor(key string, value []byte) []string {
	switch {
	case strings.HasPrefix(key, "dm:"):
		var msg chat.DirectMessage
		if err := json.Unmarshal(value, &msg); err != nil {
			return []string{key, "DIRECT", "", "", fmt.Sprintf("unmarshal error: %v", err), ""}
		}
		return []string{
			key, "DIRECT", msg.Timestamp.Format("15:04:05"),
			msg.SenderID, truncate(msg.Content), strings.Join(msg.Likes, " "),
		}
	case strings.HasPrefix(key, "gm:"):
		var msg chat.GroupMessage
		if err := json.Unmarshal(value, &msg); err != nil {
			return []string{key, "GROUP_MSG", "", "", fmt.Sprintf("unmarshal error: %v", err), ""}
		}
		return []string{
			key, "GROUP_MSG", msg.Timestamp.Format("15:04:05"),
			msg.SenderID, truncate(msg.Content), strings.Join(msg.Likes, " "),
		}
	case strings.HasPrefix(key, "group:"):
		var group chat.Group
		if err := json.Unmarshal(value, &group); err != nil {
			return []string{key, "GROUP", "", "", fmt.Sprintf("unmarshal error: %v", err), ""}
		}
		return []string{
			key, "GROUP", group.CreatedAt.Format("15:04:05"),
			strings.Join(group.Admins, " "), group.Name, fmt.Sprintf("%d members", len(group.Members)),
		}
	case strings.HasPrefix(key, "user:"):
		// Credential documents: show the handle only, never the hash.
		return []string{key, "USER", "", "", key[len("user:"):], ""}
	default:
		return []string{key, "?", "", "", truncate(string(value)), ""}
	}
}

func truncate(s string) string {
	if len(s) > 48 {
		return s[:48] + "…"
	}
	return s
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)
	return badger.Open(opts)
}
