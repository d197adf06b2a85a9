package queue

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	markdownHeading    = "# Songs Queue"
	markdownEmptyQueue = "*No songs in queue*"
)

// Labels of the per-song fields in the markdown document.
const (
	labelTitle   = "Title"
	labelArtist  = "Artist"
	labelStatus  = "Status"
	labelImage   = "Image"
	labelCreated = "Created"
)

// MarkdownRepository keeps the queue in a hand-editable markdown file.
type MarkdownRepository struct {
	path   string
	logger Logger
}

func NewMarkdownRepository(path string, logger Logger) *MarkdownRepository {
	return &MarkdownRepository{path: path, logger: logger}
}

func (r *MarkdownRepository) Path() string {
	return r.path
}

// Load returns an empty collection when the file does not exist yet.
func (r *MarkdownRepository) Load(_ context.Context) ([]Song, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Song{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorage, r.path, err)
	}
	defer f.Close()

	records, err := ParseMarkdown(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, r.path, err)
	}

	songs := make([]Song, 0, len(records))
	for _, rec := range records {
		if song, ok := rec.Song(); ok {
			songs = append(songs, song)
			continue
		}
		r.logger.Warnf("dropping song record at line %d of %s: %s", rec.Line, r.path, rec.Reason())
	}
	return songs, nil
}

// Save writes the whole document to a temporary file next to the target and
// renames it into place.
func (r *MarkdownRepository) Save(_ context.Context, songs []Song) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrStorage, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := WriteMarkdown(w, songs); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrStorage, r.path, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrStorage, r.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrStorage, tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("%w: replace %s: %v", ErrStorage, r.path, err)
	}
	return nil
}

func (r *MarkdownRepository) Close() error {
	return nil
}

// WriteMarkdown renders songs in the document format read by ParseMarkdown.
func WriteMarkdown(w io.Writer, songs []Song) error {
	var b strings.Builder
	b.WriteString(markdownHeading + "\n\n")

	if len(songs) == 0 {
		b.WriteString(markdownEmptyQueue + "\n")
	}
	for _, s := range songs {
		image := s.Image
		if image == "" {
			image = DefaultImage
		}
		fmt.Fprintf(&b, "## %s\n", s.ID)
		fmt.Fprintf(&b, "- **%s:** %s\n", labelTitle, escapeValue(s.Title))
		fmt.Fprintf(&b, "- **%s:** %s\n", labelArtist, escapeValue(s.Artist))
		fmt.Fprintf(&b, "- **%s:** %s\n", labelStatus, s.Status)
		fmt.Fprintf(&b, "- **%s:** %s\n", labelImage, escapeValue(image))
		fmt.Fprintf(&b, "- **%s:** %s\n\n", labelCreated, s.CreatedAt)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ParsedRecord is the outcome of parsing one "## <id>" section: either a
// complete song or the reason it was skipped.
type ParsedRecord struct {
	Line   int
	song   Song
	reason string
}

func okRecord(line int, s Song) ParsedRecord {
	return ParsedRecord{Line: line, song: s}
}

func skippedRecord(line int, reason string) ParsedRecord {
	return ParsedRecord{Line: line, reason: reason}
}

// Song returns the parsed song and true, or false if the record was skipped.
func (p ParsedRecord) Song() (Song, bool) {
	return p.song, p.reason == ""
}

func (p ParsedRecord) Reason() string {
	return p.reason
}

// rawRecord collects the labelled fields of a section before validation.
type rawRecord struct {
	line   int
	id     string
	fields map[string]string
}

func (r rawRecord) validate() ParsedRecord {
	var missing []string
	if r.id == "" {
		missing = append(missing, "id")
	}
	for _, label := range []string{labelTitle, labelArtist, labelStatus} {
		if r.fields[label] == "" {
			missing = append(missing, strings.ToLower(label))
		}
	}
	if len(missing) > 0 {
		return skippedRecord(r.line, "missing "+strings.Join(missing, ", "))
	}

	status, ok := ParseStatus(r.fields[labelStatus])
	if !ok {
		return skippedRecord(r.line, fmt.Sprintf("unknown status %q", r.fields[labelStatus]))
	}

	return okRecord(r.line, Song{
		ID:        r.id,
		Title:     r.fields[labelTitle],
		Artist:    r.fields[labelArtist],
		Image:     r.fields[labelImage],
		Status:    status,
		CreatedAt: r.fields[labelCreated],
	})
}

// ParseMarkdown splits the document into song sections. Lines that are not
// a section heading or a known "- **Label:** value" field are ignored.
func ParseMarkdown(rd io.Reader) ([]ParsedRecord, error) {
	var (
		records []ParsedRecord
		cur     *rawRecord
	)

	scanner := bufio.NewScanner(rd)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "##" || strings.HasPrefix(line, "## ") {
			if cur != nil {
				records = append(records, cur.validate())
			}
			id := strings.TrimSpace(strings.TrimPrefix(line, "##"))
			cur = &rawRecord{line: lineNo, id: id, fields: map[string]string{}}
			continue
		}
		if cur == nil {
			continue
		}
		if label, value, ok := parseField(line); ok {
			cur.fields[label] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		records = append(records, cur.validate())
	}
	return records, nil
}

// parseField reads "- **Label:** value", tolerating stray asterisks left by
// manual edits.
func parseField(line string) (label, value string, ok bool) {
	rest, ok := strings.CutPrefix(line, "- **")
	if !ok {
		return "", "", false
	}
	label, value, ok = strings.Cut(rest, ":**")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(label), strings.TrimSpace(unescapeValue(value)), true
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`)

// escapeValue protects literal asterisks and backslashes from the
// markdown emphasis stripping done by unescapeValue.
func escapeValue(v string) string {
	return valueEscaper.Replace(v)
}

// unescapeValue drops bare asterisks, which hand edits tend to leave around
// values, and turns \* and \\ back into the literal characters. Any other
// backslash is kept as is.
func unescapeValue(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c == '\\' && i+1 < len(v) && (v[i+1] == '*' || v[i+1] == '\\'):
			b.WriteByte(v[i+1])
			i++
		case c == '*':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
