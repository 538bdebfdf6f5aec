package pipeline_test

import (
	"errors"
	"reflect"
	"testing"

	"telegram-number-checker/internal/domain/pipeline"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "без префикса", raw: "911111111", want: "+911111111"},
		{name: "уже с префиксом", raw: "+922222222", want: "+922222222"},
		{name: "пробелы по краям", raw: "  34600111222\t", want: "+34600111222"},
		{name: "мусор пропускается без валидации", raw: "abc-123", want: "+abc-123"},
		{name: "пустая строка", raw: "", wantErr: pipeline.ErrEmptyNumber},
		{name: "одни пробелы", raw: "   ", wantErr: pipeline.ErrEmptyNumber},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := pipeline.Normalize(tc.raw)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Normalize(%q) error = %v, want %v", tc.raw, err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) error = %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"911111111", "+922222222", " 5551234 ", "abc"}
	for _, raw := range inputs {
		once, err := pipeline.Normalize(raw)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", raw, err)
		}
		twice, err := pipeline.Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(Normalize(%q)) error = %v", raw, err)
		}
		if once != twice {
			t.Fatalf("normalize is not idempotent: %q -> %q -> %q", raw, once, twice)
		}
	}
}

func TestNormalizeRecords(t *testing.T) {
	t.Parallel()

	raws := []pipeline.RawRecord{
		{Number: "911111111", Message: "hi"},
		{Number: "   "},
		{Number: "+922222222"},
	}
	records, skipped := pipeline.NormalizeRecords(raws)

	want := []pipeline.Record{
		{Number: "+911111111", Message: "hi", Index: 0},
		{Number: "+922222222", Index: 1},
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("NormalizeRecords() = %#v, want %#v", records, want)
	}
}
