package output

import (
	"fmt"
	"io"
	"time"

	"github.com/sdejongh/ftpvault/pkg/models"
	"github.com/sdejongh/ftpvault/pkg/storage"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer io.Writer
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter(writer io.Writer) *HumanFormatter {
	return &HumanFormatter{writer: writer}
}

// Listing prints one line per entry, directories first marked with a slash
func (f *HumanFormatter) Listing(location string, files []storage.FileDescription) error {
	if len(files) == 0 {
		fmt.Fprintf(f.writer, "%s is empty\n", location)
		return nil
	}

	for _, file := range files {
		if !file.IsDirectory {
			continue
		}
		fmt.Fprintf(f.writer, "%-10s  %-16s  %s/\n", "-", formatTime(file.LastModified), file.DisplayName)
	}
	for _, file := range files {
		if file.IsDirectory {
			continue
		}
		fmt.Fprintf(f.writer, "%10s  %-16s  %s\n", formatBytes(file.SizeInBytes), formatTime(file.LastModified), file.DisplayName)
	}
	return nil
}

// Stat prints a file description as key/value lines
func (f *HumanFormatter) Stat(file *storage.FileDescription) error {
	kind := "file"
	if file.IsDirectory {
		kind = "directory"
	}
	fmt.Fprintf(f.writer, "Name:      %s\n", file.DisplayName)
	fmt.Fprintf(f.writer, "Location:  %s\n", file.Path)
	fmt.Fprintf(f.writer, "Type:      %s\n", kind)
	fmt.Fprintf(f.writer, "Size:      %s (%d bytes)\n", formatBytes(file.SizeInBytes), file.SizeInBytes)
	fmt.Fprintf(f.writer, "Modified:  %s\n", formatTime(file.LastModified))
	return nil
}

// Transfer prints a short summary of a copy
func (f *HumanFormatter) Transfer(report *models.TransferReport) error {
	mode := "direct"
	if report.Transacted {
		mode = "transacted"
	}

	fmt.Fprintf(f.writer, "%s -> %s\n", report.Source, report.Dest)
	fmt.Fprintf(f.writer, "  Mode:           %s\n", mode)
	fmt.Fprintf(f.writer, "  Data:           %s\n", formatBytes(report.BytesTransferred))
	fmt.Fprintf(f.writer, "  Duration:       %s\n", formatDuration(report.Duration))
	if report.AverageSpeed > 0 {
		fmt.Fprintf(f.writer, "  Average speed:  %s/s\n", formatBytes(report.AverageSpeed))
	}
	if report.Verified {
		fmt.Fprintf(f.writer, "  Verified:       sha-256\n")
	}
	fmt.Fprintf(f.writer, "  Status:         %s\n", report.Status)
	if report.Error != "" {
		fmt.Fprintf(f.writer, "  Error:          %s\n", report.Error)
	}
	return nil
}

// Done prints "<action> <location>"
func (f *HumanFormatter) Done(action, location string) error {
	fmt.Fprintf(f.writer, "%s %s\n", action, location)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	fmt.Fprintf(f.writer, "Error: %s\n", storage.UserMessage(err))
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats duration in human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// formatTime prints local minutes, or "-" for an unknown time
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
