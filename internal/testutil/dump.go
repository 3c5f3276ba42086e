package testutil

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// Message is one row of a channel's messages.csv.
type Message struct {
	ID        string
	Timestamp string
	Contents  string
}

// DumpBuilder writes a miniature chat-export dump into a temp directory.
//
//	<root>/
//	  messages/<channel>/messages.csv
//	  activity/<type>/events-<n>.json
//	  servers/index.json
type DumpBuilder struct {
	t    *testing.T
	root string
	seq  int
}

// NewDumpBuilder creates an empty dump under t.TempDir().
func NewDumpBuilder(t *testing.T) *DumpBuilder {
	t.Helper()
	return &DumpBuilder{t: t, root: t.TempDir()}
}

// Root returns the dump directory.
func (b *DumpBuilder) Root() string {
	return b.root
}

// AddChannel writes messages/<channel>/messages.csv.
func (b *DumpBuilder) AddChannel(channel string, msgs ...Message) string {
	b.t.Helper()

	dir := b.mkdir("messages", channel)
	path := filepath.Join(dir, "messages.csv")
	f, err := os.Create(path)
	if err != nil {
		b.t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	records := [][]string{{"ID", "Timestamp", "Contents", "Attachments"}}
	for _, m := range msgs {
		records = append(records, []string{m.ID, m.Timestamp, m.Contents, ""})
	}
	if err := w.WriteAll(records); err != nil {
		b.t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// AddActivity writes one JSON-lines file of events for eventType and
// returns its path.
func (b *DumpBuilder) AddActivity(eventType string, events ...map[string]any) string {
	b.t.Helper()

	dir := b.mkdir("activity", eventType)
	b.seq++
	path := filepath.Join(dir, "events-"+strconv.Itoa(b.seq)+".json")
	f, err := os.Create(path)
	if err != nil {
		b.t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			b.t.Fatalf("writing %s: %v", path, err)
		}
	}
	return path
}

// SetServers writes servers/index.json.
func (b *DumpBuilder) SetServers(servers map[string]string) {
	b.t.Helper()

	data, err := json.Marshal(servers)
	if err != nil {
		b.t.Fatal(err)
	}
	path := filepath.Join(b.mkdir("servers"), "index.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		b.t.Fatalf("writing %s: %v", path, err)
	}
}

func (b *DumpBuilder) mkdir(parts ...string) string {
	b.t.Helper()
	dir := filepath.Join(append([]string{b.root}, parts...)...)
	if err := os.MkdirAll(dir, 0755); err != nil {
		b.t.Fatalf("creating %s: %v", dir, err)
	}
	return dir
}

// Event builds an activity event at the given timestamp with extra
// key/value attributes.
func Event(ts string, kv ...string) map[string]any {
	e := map[string]any{"timestamp": ts}
	for i := 0; i+1 < len(kv); i += 2 {
		e[kv[i]] = kv[i+1]
	}
	return e
}
