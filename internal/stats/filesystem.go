package stats

// DumpFinder locates the files of a chat-export dump.
// It abstracts directory globbing so the orchestrator can be tested
// against an in-memory layout.
type DumpFinder interface {
	// MessageFiles returns every messages/<channel>/messages.csv under root.
	MessageFiles(root string) ([]string, error)

	// ActivityTypes returns the event-type directory names under root/activity.
	ActivityTypes(root string) ([]string, error)

	// ActivityFiles returns the JSON-lines files of one event type.
	ActivityFiles(root, eventType string) ([]string, error)

	// ServerIndex returns the path of servers/index.json under root.
	ServerIndex(root string) string
}
