package pipeline_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"telegram-number-checker/internal/domain/pipeline"
)

// writeWorkbook собирает временный xlsx из строк, первая строка считается заголовком.
func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "numbers.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestParseWorkbook(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		rows [][]string
		want []pipeline.RawRecord
	}{
		{
			name: "только номера",
			rows: [][]string{
				{"phone"},
				{"911111111"},
				{"+922222222"},
			},
			want: []pipeline.RawRecord{
				{Number: "911111111"},
				{Number: "+922222222"},
			},
		},
		{
			name: "номера с сообщениями",
			rows: [][]string{
				{"phone", "Message"},
				{"911111111", "привет"},
				{"+922222222", ""},
			},
			want: []pipeline.RawRecord{
				{Number: "911111111", Message: "привет"},
				{Number: "+922222222"},
			},
		},
		{
			name: "вторая колонка не message",
			rows: [][]string{
				{"phone", "note"},
				{"911111111", "игнорируется"},
			},
			want: []pipeline.RawRecord{
				{Number: "911111111"},
			},
		},
		{
			name: "пустые первые ячейки пропускаются",
			rows: [][]string{
				{"phone"},
				{""},
				{"911111111"},
				{""},
			},
			want: []pipeline.RawRecord{
				{Number: "911111111"},
			},
		},
		{
			name: "только заголовок",
			rows: [][]string{
				{"phone", "message"},
			},
			want: []pipeline.RawRecord{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeWorkbook(t, tc.rows)
			got, err := pipeline.ParseWorkbook(path)
			if err != nil {
				t.Fatalf("ParseWorkbook() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseWorkbook() = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestParseWorkbookUnreadable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.xlsx")
	if err := os.WriteFile(path, []byte("this is not a workbook"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := pipeline.ParseWorkbook(path)
	if !errors.Is(err, pipeline.ErrUnreadableFile) {
		t.Fatalf("ParseWorkbook() error = %v, want ErrUnreadableFile", err)
	}
}

func TestParseText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		want    []pipeline.RawRecord
	}{
		{
			name:    "по номеру на строку",
			content: "911111111\n+922222222\n",
			want: []pipeline.RawRecord{
				{Number: "911111111"},
				{Number: "+922222222"},
			},
		},
		{
			name:    "разделители вперемешку",
			content: "  911111111 \t +922222222\n\n5550000\n",
			want: []pipeline.RawRecord{
				{Number: "911111111"},
				{Number: "+922222222"},
				{Number: "5550000"},
			},
		},
		{
			name:    "пустой файл",
			content: "",
			want:    []pipeline.RawRecord{},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "numbers.txt")
			if err := os.WriteFile(path, []byte(tc.content), 0o600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			got, err := pipeline.ParseText(path)
			if err != nil {
				t.Fatalf("ParseText() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseText() = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestParseTextMissingFile(t *testing.T) {
	t.Parallel()

	_, err := pipeline.ParseText(filepath.Join(t.TempDir(), "no-such-file.txt"))
	if !errors.Is(err, pipeline.ErrUnreadableFile) {
		t.Fatalf("ParseText() error = %v, want ErrUnreadableFile", err)
	}
}
