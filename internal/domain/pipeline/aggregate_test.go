package pipeline_test

import (
	"reflect"
	"testing"

	"telegram-number-checker/internal/domain/pipeline"
)

func sampleResults() []pipeline.Result {
	return []pipeline.Result{
		{Number: "+911111111", Message: "hi", Status: pipeline.StatusRegistered, Index: 0},
		{Number: "+922222222", Status: pipeline.StatusNonRegistered, Index: 1},
		{Number: "+933333333", Message: "later", Status: pipeline.StatusInvalid, Index: 2},
		{Number: "+944444444", Status: pipeline.StatusError, Index: 3},
		{Number: "+955555555", Status: pipeline.StatusRegistered, Index: 4},
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	got := pipeline.Summarize(sampleResults())
	want := pipeline.Summary{TotalChecked: 5, Registered: 2, NonRegistered: 1}
	if got != want {
		t.Fatalf("Summarize() = %+v, want %+v", got, want)
	}
	// Invalid и Error учитываются только в общем счётчике.
	if got.Registered+got.NonRegistered > got.TotalChecked {
		t.Fatalf("счётчики статусов превышают общий: %+v", got)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	if got := pipeline.Summarize(nil); got != (pipeline.Summary{}) {
		t.Fatalf("Summarize(nil) = %+v, want zero", got)
	}
}

func TestAllLines(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		style pipeline.TickStyle
		want  []string
	}{
		{
			name:  "стиль a",
			style: pipeline.StyleA,
			want: []string{
				"✅ +911111111",
				"❌ +922222222",
				"⚠️ +933333333 (invalid)",
				"⚠️ +944444444 (check failed)",
				"✅ +955555555",
			},
		},
		{
			name:  "стиль b",
			style: pipeline.StyleB,
			want: []string{
				"[+] +911111111",
				"[-] +922222222",
				"[!] +933333333 (invalid)",
				"[!] +944444444 (check failed)",
				"[+] +955555555",
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := pipeline.AllLines(sampleResults(), tc.style)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("AllLines() = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestFilteredViews(t *testing.T) {
	t.Parallel()

	results := sampleResults()

	if got, want := pipeline.RegisteredLines(results), []string{"+911111111", "+955555555"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("RegisteredLines() = %#v, want %#v", got, want)
	}
	if got, want := pipeline.NonRegisteredLines(results), []string{"+922222222"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("NonRegisteredLines() = %#v, want %#v", got, want)
	}
	if got, want := pipeline.NumbersOnly(results), []string{
		"+911111111", "+922222222", "+933333333", "+944444444", "+955555555",
	}; !reflect.DeepEqual(got, want) {
		t.Fatalf("NumbersOnly() = %#v, want %#v", got, want)
	}
}

func TestMessagesOnlyKeepsAlignment(t *testing.T) {
	t.Parallel()

	got := pipeline.MessagesOnly(sampleResults())
	want := []string{"hi", "", "later", "", ""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MessagesOnly() = %#v, want %#v", got, want)
	}
}

func TestHasMessages(t *testing.T) {
	t.Parallel()

	if !pipeline.HasMessages(sampleResults()) {
		t.Fatal("HasMessages() = false, want true")
	}
	bare := []pipeline.Result{{Number: "+911111111", Status: pipeline.StatusRegistered}}
	if pipeline.HasMessages(bare) {
		t.Fatal("HasMessages() = true, want false")
	}
}

func TestNumberMessageLines(t *testing.T) {
	t.Parallel()

	got := pipeline.NumberMessageLines(sampleResults())
	want := []string{
		"+911111111\thi",
		"+922222222",
		"+933333333\tlater",
		"+944444444",
		"+955555555",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NumberMessageLines() = %#v, want %#v", got, want)
	}
}

func TestRecordViews(t *testing.T) {
	t.Parallel()

	records := []pipeline.Record{
		{Number: "+911111111", Message: "hi", Index: 0},
		{Number: "+922222222", Index: 1},
	}

	if got, want := pipeline.RecordNumbers(records), []string{"+911111111", "+922222222"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("RecordNumbers() = %#v, want %#v", got, want)
	}
	if got, want := pipeline.RecordMessages(records), []string{"hi", ""}; !reflect.DeepEqual(got, want) {
		t.Fatalf("RecordMessages() = %#v, want %#v", got, want)
	}
	if !pipeline.RecordsHaveMessages(records) {
		t.Fatal("RecordsHaveMessages() = false, want true")
	}
	if pipeline.RecordsHaveMessages(records[1:]) {
		t.Fatal("RecordsHaveMessages() = true, want false")
	}
}
