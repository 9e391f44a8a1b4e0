package results

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Header lists the artifact columns in their wire order.
var Header = []string{"trained_env", "trial", "step", "mvmt", "score"}

// Record is one sampled observation of a trial: which model ran, which trial
// and logical step, under which variant, and the score at that point.
type Record struct {
	TrainedEnv string
	Trial      int
	Step       int
	Mvmt       string
	Score      float64
}

// Buffer is the append-only, insertion-ordered sample sequence for one
// campaign.
type Buffer struct {
	records []Record
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Append(r Record) {
	b.records = append(b.records, r)
}

func (b *Buffer) Len() int {
	return len(b.records)
}

func (b *Buffer) Records() []Record {
	return append([]Record(nil), b.records...)
}

// WriteTSV emits the header row followed by one row per record, fields
// separated by literal tabs, rows newline-terminated, no quoting.
func (b *Buffer) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Header, "\t") + "\n"); err != nil {
		return err
	}
	for _, r := range b.records {
		row := strings.Join([]string{
			r.TrainedEnv,
			strconv.Itoa(r.Trial),
			strconv.Itoa(r.Step),
			r.Mvmt,
			strconv.FormatFloat(r.Score, 'f', -1, 64),
		}, "\t")
		if _, err := bw.WriteString(row + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (b *Buffer) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := b.WriteTSV(file); err != nil {
		return err
	}
	return file.Sync()
}

// ReadTSV parses an artifact written by WriteTSV.
func ReadTSV(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("results artifact is empty")
	}
	header := strings.Split(scanner.Text(), "\t")
	if len(header) != len(Header) {
		return nil, fmt.Errorf("results header must have %d columns, got %d", len(Header), len(header))
	}
	for i, name := range Header {
		if header[i] != name {
			return nil, fmt.Errorf("results header column %d: got %s want %s", i, header[i], name)
		}
	}

	records := make([]Record, 0, 128)
	line := 1
	for scanner.Scan() {
		line++
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != len(Header) {
			return nil, fmt.Errorf("results row %d must have %d columns, got %d", line, len(Header), len(fields))
		}
		trial, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("results row %d trial: %w", line, err)
		}
		step, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("results row %d step: %w", line, err)
		}
		scoreValue, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("results row %d score: %w", line, err)
		}
		records = append(records, Record{
			TrainedEnv: fields[0],
			Trial:      trial,
			Step:       step,
			Mvmt:       fields[3],
			Score:      scoreValue,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func ReadFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadTSV(file)
}

// ArtifactPath derives the deterministic artifact location for a campaign,
// e.g. amidar_no_enemies_model7.tsv.
func ArtifactPath(dir, scapeName, variantLabel, sourceID string) string {
	name := fmt.Sprintf("%s_%s_%s.tsv", slug(scapeName), slug(variantLabel), slug(sourceID))
	return filepath.Join(dir, name)
}

func slug(s string) string {
	var sb strings.Builder
	lastUnderscore := false
	for _, c := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			sb.WriteRune(c)
			lastUnderscore = false
		default:
			if !lastUnderscore && sb.Len() > 0 {
				sb.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}
