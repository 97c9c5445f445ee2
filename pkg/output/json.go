package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sdejongh/ftpvault/pkg/models"
	"github.com/sdejongh/ftpvault/pkg/storage"
)

// JSONFormatter writes one JSON event per line for automation and scripting
type JSONFormatter struct {
	encoder *json.Encoder
}

// JSONEvent represents a single event in the JSON output stream
type JSONEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
}

// JSONListingData is the payload of a listing event
type JSONListingData struct {
	Location string                    `json:"location"`
	Entries  []storage.FileDescription `json:"entries"`
}

// JSONDoneData is the payload of a done event
type JSONDoneData struct {
	Action   string `json:"action"`
	Location string `json:"location"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	return &JSONFormatter{encoder: json.NewEncoder(writer)}
}

func (f *JSONFormatter) emit(eventType string, data any) error {
	return f.encoder.Encode(JSONEvent{
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Data:      data,
	})
}

// Listing emits a "listing" event
func (f *JSONFormatter) Listing(location string, files []storage.FileDescription) error {
	if files == nil {
		files = []storage.FileDescription{}
	}
	return f.emit("listing", JSONListingData{Location: location, Entries: files})
}

// Stat emits a "stat" event
func (f *JSONFormatter) Stat(file *storage.FileDescription) error {
	return f.emit("stat", file)
}

// Transfer emits a "transfer" event
func (f *JSONFormatter) Transfer(report *models.TransferReport) error {
	return f.emit("transfer", report)
}

// Done emits a "done" event
func (f *JSONFormatter) Done(action, location string) error {
	return f.emit("done", JSONDoneData{Action: action, Location: location})
}

// Error emits an "error" event carrying the error kind
func (f *JSONFormatter) Error(err error) error {
	return f.emit("error", JSONErrorData{
		Kind:  storage.KindOf(err).String(),
		Error: storage.UserMessage(err),
	})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
