package calendar

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// FileSource reads custom holidays from a local text file.
//
// One holiday per line, "#" starts a comment:
//
//	# kind value name [| localized name]
//	conditional 04-23 Saint George | Αγίου Γεωργίου
//	recurring   11-30 Saint Andrew | Αγίου Ανδρέα
//	movable     -7    Lazarus Saturday
//	one-time    2026-06-12 Office move
type FileSource struct {
	filePath string
	logger   *zap.Logger
}

// NewFileSource creates a new FileSource instance
func NewFileSource(filePath string, logger *zap.Logger) *FileSource {
	return &FileSource{
		filePath: filePath,
		logger:   logger,
	}
}

// CustomHolidays loads and validates the file
func (fs *FileSource) CustomHolidays(ctx context.Context) ([]CustomHolidaySpec, error) {
	file, err := os.Open(fs.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open holiday file: %w", err)
	}
	defer file.Close()

	specs, err := ParseHolidayFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday file %s: %w", fs.filePath, err)
	}

	fs.logger.Info("Holiday file loaded",
		zap.String("file", fs.filePath),
		zap.Int("holidays", len(specs)))

	return specs, nil
}

// ParseHolidayFile parses the FileSource line format. Every spec is
// validated, and the first bad line fails with a *ParseError carrying its
// line number.
func ParseHolidayFile(r io.Reader) ([]CustomHolidaySpec, error) {
	scanner := bufio.NewScanner(r)
	var specs []CustomHolidaySpec
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		spec, err := parseHolidayLine(line)
		if err == nil {
			_, err = ParseCustomHoliday(spec)
		}
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = lineNo
				return nil, pe
			}
			return nil, &ParseError{Field: "line", Value: line, Line: lineNo, Err: err}
		}

		specs = append(specs, spec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading holiday file: %w", err)
	}

	return specs, nil
}

func parseHolidayLine(line string) (CustomHolidaySpec, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return CustomHolidaySpec{}, &ParseError{
			Field: "line",
			Value: line,
			Err:   errors.New("expected: kind value name"),
		}
	}

	name := strings.Join(fields[2:], " ")
	localized := ""
	if i := strings.Index(name, "|"); i >= 0 {
		localized = strings.TrimSpace(name[i+1:])
		name = strings.TrimSpace(name[:i])
	}

	spec := CustomHolidaySpec{
		Name:          name,
		LocalizedName: localized,
		Kind:          CustomHolidayKind(fields[0]),
	}
	if spec.Kind == KindMovable {
		spec.Offset = fields[1]
	} else {
		spec.Date = fields[1]
	}

	return spec, nil
}
