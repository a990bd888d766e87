package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/codestack/cli/pkg/config"
	"github.com/fatih/color"
	json "github.com/json-iterator/go"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatText  OutputFormat = "text"
)

// GetOutputFormat returns the configured output format
func GetOutputFormat() OutputFormat {
	return ParseFormat(config.GetString("output.format"))
}

// ParseFormat maps a flag or config value to a format, defaulting to text.
func ParseFormat(format string) OutputFormat {
	switch format {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// ValidateOutputFormat checks if format is valid
func ValidateOutputFormat(format string) bool {
	return format == "json" || format == "table" || format == "text"
}

// Field is one labelled value of a record. Records keep field order.
type Field struct {
	Key   string
	Value interface{}
}

// Printer renders view output to a writer in one format.
type Printer struct {
	W      io.Writer
	Format OutputFormat
}

// New creates a printer.
func New(w io.Writer, format OutputFormat) *Printer {
	return &Printer{W: w, Format: format}
}

// Stdout is a printer on the color-aware stdout in the configured format.
func Stdout() *Printer {
	return New(color.Output, GetOutputFormat())
}

// Heading prints a section title. JSON output skips headings.
func (p *Printer) Heading(title string) {
	if p.Format == FormatJSON || title == "" {
		return
	}
	color.New(color.Bold, color.Underline).Fprintln(p.W, title)
}

// Print outputs data in the configured format with optional title
func (p *Printer) Print(title string, data interface{}) error {
	if p.Format == FormatJSON {
		return p.printJSON(data)
	}
	if title != "" {
		fmt.Fprintf(p.W, "%s:\n", title)
	}
	s, err := FormatAsPrettyJSON(data)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.W, s)
	return nil
}

// PrintTable prints rows under headers. In JSON mode the raw items are
// encoded instead, since the rows are a lossy rendering.
func (p *Printer) PrintTable(headers []string, rows [][]string, raw interface{}) error {
	if p.Format == FormatJSON {
		return p.printJSON(raw)
	}

	w := tabwriter.NewWriter(p.W, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)

	for i, h := range headers {
		bold.Fprint(w, h)
		if i < len(headers)-1 {
			fmt.Fprint(w, "\t")
		}
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			fmt.Fprint(w, cell)
			if i < len(row)-1 {
				fmt.Fprint(w, "\t")
			}
		}
		fmt.Fprintln(w)
	}

	return w.Flush()
}

// PrintRecord outputs a single record in the configured format
func (p *Printer) PrintRecord(title string, fields []Field) error {
	switch p.Format {
	case FormatJSON:
		m := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			m[f.Key] = f.Value
		}
		return p.printJSON(m)
	case FormatTable:
		rows := make([][]string, 0, len(fields))
		for _, f := range fields {
			rows = append(rows, []string{f.Key, fmt.Sprintf("%v", f.Value)})
		}
		return p.PrintTable([]string{"Field", "Value"}, rows, nil)
	default:
		if title != "" {
			fmt.Fprintf(p.W, "%s:\n", title)
		}
		bold := color.New(color.Bold)
		for _, f := range fields {
			bold.Fprint(p.W, f.Key+": ")
			fmt.Fprintf(p.W, "%v\n", f.Value)
		}
		return nil
	}
}

// Line prints a plain line. JSON output skips it.
func (p *Printer) Line(format string, args ...interface{}) {
	if p.Format == FormatJSON {
		return
	}
	fmt.Fprintf(p.W, format+"\n", args...)
}

// Success prints a success message
func (p *Printer) Success(msg string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(p.W, msg+"\n", args...)
}

// Error prints an error message
func (p *Printer) Error(msg string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(p.W, "Error: "+msg+"\n", args...)
}

// Info prints an info message
func (p *Printer) Info(msg string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(p.W, msg+"\n", args...)
}

// Warning prints a warning message
func (p *Printer) Warning(msg string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(p.W, "Warning: "+msg+"\n", args...)
}

func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.W)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FormatAsJSON converts data to JSON string (convenience function)
func FormatAsJSON(data interface{}) (string, error) {
	jsonData, err := json.ConfigDefault.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

// FormatAsPrettyJSON converts data to pretty JSON string (convenience function)
func FormatAsPrettyJSON(data interface{}) (string, error) {
	prettyJSON, err := json.ConfigCompatibleWithStandardLibrary.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(prettyJSON), nil
}
