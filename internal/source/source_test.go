package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"dumpstats/internal/source"
	"dumpstats/internal/table"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeFile(t, "messages.csv",
		"ID,Timestamp,Contents,Attachments\n"+
			"1,2021-01-01 00:10:00.000000+00:00,\"hello, world\",\n"+
			"2,2021-01-01 23:50:00.000000+00:00,,https://example.com/a.png\n")

	t.Run("all columns", func(t *testing.T) {
		tb, err := source.ReadCSV(path, nil)
		if err != nil {
			t.Fatalf("ReadCSV() error = %v", err)
		}
		if len(tb.Columns) != 4 || tb.Len() != 2 {
			t.Fatalf("got %d columns, %d rows", len(tb.Columns), tb.Len())
		}
		if tb.Rows[0][2].Str != "hello, world" {
			t.Errorf("Contents = %v", tb.Rows[0][2])
		}
		if !tb.Rows[1][2].IsNull() {
			t.Errorf("empty cell = %v, want null", tb.Rows[1][2])
		}
	})

	t.Run("selected columns", func(t *testing.T) {
		tb, err := source.ReadCSV(path, source.Columns("Contents", "Timestamp"))
		if err != nil {
			t.Fatalf("ReadCSV() error = %v", err)
		}
		if len(tb.Columns) != 2 || tb.Columns[0] != "Contents" {
			t.Errorf("Columns = %v", tb.Columns)
		}
		if tb.Rows[0][1].Kind != table.KindString {
			t.Errorf("Timestamp kind = %v, want string", tb.Rows[0][1].Kind)
		}
	})

	t.Run("missing column", func(t *testing.T) {
		if _, err := source.ReadCSV(path, source.Columns("Author")); err == nil {
			t.Error("ReadCSV() expected error for missing column")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		if _, err := source.ReadCSV(writeFile(t, "empty.csv", ""), nil); err == nil {
			t.Error("ReadCSV() expected error for empty file")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := source.ReadCSV(filepath.Join(t.TempDir(), "nope.csv"), nil); err == nil {
			t.Error("ReadCSV() expected error for missing file")
		}
	})
}

func TestReadJSONLines(t *testing.T) {
	path := writeFile(t, "events-2021-00000-of-00001.json",
		`{"timestamp":"2021-01-01T03:15:00Z","os":"Linux","private":true,"client_send_timestamp":1609470900000}`+"\n"+
			"\n"+
			`{"timestamp":"2021-01-02T09:00:00Z","city":"Oslo","score":1.25,"extra":{"a":1}}`+"\n")

	t.Run("union of keys", func(t *testing.T) {
		tb, err := source.ReadJSONLines(path, nil)
		if err != nil {
			t.Fatalf("ReadJSONLines() error = %v", err)
		}
		if tb.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", tb.Len())
		}
		for _, c := range []string{"timestamp", "os", "private", "client_send_timestamp", "city", "score", "extra"} {
			if !tb.HasColumn(c) {
				t.Errorf("missing column %q in %v", c, tb.Columns)
			}
		}

		get := func(row int, col string) table.Value {
			return tb.Rows[row][tb.Index(col)]
		}
		if v := get(0, "private"); v.Kind != table.KindBool || !v.Bool {
			t.Errorf("private = %v", v)
		}
		if v := get(0, "client_send_timestamp"); v.Kind != table.KindInt || v.Int != 1609470900000 {
			t.Errorf("client_send_timestamp = %v", v)
		}
		if v := get(1, "score"); v.Kind != table.KindFloat || v.Float != 1.25 {
			t.Errorf("score = %v", v)
		}
		if v := get(1, "extra"); v.Str != `{"a":1}` {
			t.Errorf("extra = %v", v)
		}
		if v := get(1, "os"); !v.IsNull() {
			t.Errorf("absent os = %v, want null", v)
		}
	})

	t.Run("selected columns always present", func(t *testing.T) {
		tb, err := source.ReadJSONLines(path, source.Columns("timestamp", "guild_id"))
		if err != nil {
			t.Fatalf("ReadJSONLines() error = %v", err)
		}
		if len(tb.Columns) != 2 || tb.Columns[1] != "guild_id" {
			t.Fatalf("Columns = %v", tb.Columns)
		}
		for _, row := range tb.Rows {
			if !row[1].IsNull() {
				t.Errorf("guild_id = %v, want null", row[1])
			}
		}
	})

	t.Run("malformed line", func(t *testing.T) {
		bad := writeFile(t, "bad.json", "{\"timestamp\":\"x\"}\n{not json\n")
		if _, err := source.ReadJSONLines(bad, nil); err == nil {
			t.Error("ReadJSONLines() expected error for malformed line")
		}
	})

	t.Run("bad params", func(t *testing.T) {
		if _, err := source.ReadJSONLines(path, table.Params{source.ParamColumns: "timestamp"}); err == nil {
			t.Error("ReadJSONLines() expected error for non-list columns")
		}
	})
}

func TestReadServerIndex(t *testing.T) {
	t.Run("reads names", func(t *testing.T) {
		path := writeFile(t, "index.json", `{"111":"Gophers","222":"Rustaceans"}`)
		servers, err := source.ReadServerIndex(path)
		if err != nil {
			t.Fatalf("ReadServerIndex() error = %v", err)
		}
		if servers["111"] != "Gophers" || len(servers) != 2 {
			t.Errorf("servers = %v", servers)
		}
	})

	t.Run("missing file is empty", func(t *testing.T) {
		servers, err := source.ReadServerIndex(filepath.Join(t.TempDir(), "index.json"))
		if err != nil {
			t.Fatalf("ReadServerIndex() error = %v", err)
		}
		if len(servers) != 0 {
			t.Errorf("servers = %v, want empty", servers)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := source.ReadServerIndex(writeFile(t, "index.json", "[1,2]")); err == nil {
			t.Error("ReadServerIndex() expected error")
		}
	})
}
