package configuration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

type joinOptions struct {
	Finder  string   `cfg:"overlap_finder"`
	Window  int      `cfg:"join_window"`
	NFC     bool     `yaml:"join_nfc"`
	Stops   []string `json:"join_stops"`
	Ignored string   `cfg:"-"`
	hidden  string
}

func TestUnmarshal(t *testing.T) {
	cf := Overlay{
		Map{`overlap_finder`: {`kmp`}},
		nil,
		Map{`overlap_finder`: {`scan`}, `join_window`: {`16`}, `join_nfc`: {`YES`}, `join_stops`: {`a`, `b`}},
	}
	var opts joinOptions
	if err := Unmarshal(&opts, cf); err != nil {
		t.Fatal(err)
	}
	want := joinOptions{Finder: `kmp`, Window: 16, NFC: true, Stops: []string{`a`, `b`}}
	if diff := cmp.Diff(want, opts, cmp.AllowUnexported(joinOptions{})); diff != `` {
		t.Errorf(`unexpected options (-want +got):\n%s`, diff)
	}

	if err := Unmarshal(opts, cf); err == nil {
		t.Errorf(`expected an error when unmarshalling into a non-pointer`)
	}
	if err := Unmarshal(&opts, Map{`join_window`: {`wide`}}); err == nil {
		t.Errorf(`expected an error for a non-integer window`)
	}
	if err := Unmarshal(&opts, Map{`join_window`: {`1`, `2`}}); err == nil {
		t.Errorf(`expected an error for multiple window values`)
	}
}

func TestGet(t *testing.T) {
	n := 7
	if err := Get(&n, Map{}, `max_sessions`); err != nil || n != 7 {
		t.Errorf(`expected an unconfigured item to be left alone, got %v, %v`, n, err)
	}
	if err := Get(&n, Map{`max_sessions`: {`1024`}}, `max_sessions`); err != nil || n != 1024 {
		t.Errorf(`expected 1024, got %v, %v`, n, err)
	}
	if err := Get(&n, Map{`max_sessions`: {`many`}}, `max_sessions`); err == nil || n != 1024 {
		t.Errorf(`expected an error that leaves the value alone, got %v, %v`, n, err)
	}

	for _, test := range []struct {
		Value  string
		Expect bool
	}{
		{`true`, true}, {`YES`, true}, {`On`, true}, {`1`, true},
		{`false`, false}, {`no`, false}, {`OFF`, false}, {`0`, false},
	} {
		b := !test.Expect
		if err := Get(&b, Map{`join_nfc`: {test.Value}}, `join_nfc`); err != nil || b != test.Expect {
			t.Errorf(`%q: got %v, %v, want %v`, test.Value, b, err, test.Expect)
		}
	}
	var b bool
	if err := Get(&b, Map{`join_nfc`: {`maybe`}}, `join_nfc`); err == nil {
		t.Errorf(`expected an error for an invalid boolean`)
	}

	var f float64
	if err := Get(&f, Map{`ratio`: {`0.5`}}, `ratio`); err == nil {
		t.Errorf(`expected an error for an unsupported type`)
	}
}

func TestMarshal(t *testing.T) {
	cf, err := Marshal(&joinOptions{Finder: `kmp`, Window: 8, Stops: []string{`x`, `y`}})
	if err != nil {
		t.Fatal(err)
	}
	m := MapOf(cf)
	if diff := cmp.Diff([]string{`kmp`}, m[`overlap_finder`]); diff != `` {
		t.Errorf(`overlap_finder (-want +got):\n%s`, diff)
	}
	if diff := cmp.Diff([]string{`8`}, m[`join_window`]); diff != `` {
		t.Errorf(`join_window (-want +got):\n%s`, diff)
	}
	if _, ok := m[`Ignored`]; ok {
		t.Errorf(`expected "-" tagged field to be skipped`)
	}
}

func TestMapJSON(t *testing.T) {
	var cf Map
	err := json.Unmarshal([]byte(`{"overlap_finder":"kmp","join_window":4096,"join_nfc":true,"join_stops":["a","b"]}`), &cf)
	if err != nil {
		t.Fatal(err)
	}
	want := Map{
		`overlap_finder`: {`kmp`},
		`join_window`:    {`4096`},
		`join_nfc`:       {`true`},
		`join_stops`:     {`a`, `b`},
	}
	if diff := cmp.Diff(want, cf); diff != `` {
		t.Errorf(`unexpected map (-want +got):\n%s`, diff)
	}
	js, err := json.Marshal(cf)
	if err != nil {
		t.Fatal(err)
	}
	var back Map
	if err := json.Unmarshal(js, &back); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, back); diff != `` {
		t.Errorf(`map changed after a round trip (-want +got):\n%s`, diff)
	}
	if err := json.Unmarshal([]byte(`{"nested":{"a":1}}`), &cf); err == nil {
		t.Errorf(`expected nested maps to be refused`)
	}
	if err := json.Unmarshal([]byte(`{"nested":[["a"]]}`), &cf); err == nil {
		t.Errorf(`expected nested lists to be refused`)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), `overlap.yaml`)
	err := os.WriteFile(path, []byte("overlap_finder: kmp\njoin_window: 8192\njoin_stops:\n  - END\n  - STOP\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	cf, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	var opts joinOptions
	if err := Unmarshal(&opts, cf); err != nil {
		t.Fatal(err)
	}
	if opts.Finder != `kmp` || opts.Window != 8192 || len(opts.Stops) != 2 || opts.Stops[1] != `STOP` {
		t.Errorf(`unexpected options %+v`, opts)
	}

	out, err := yaml.Marshal(cf)
	if err != nil {
		t.Fatal(err)
	}
	var back Map
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cf, back); diff != `` {
		t.Errorf(`map changed after a YAML round trip (-want +got):\n%s`, diff)
	}

	bad := filepath.Join(t.TempDir(), `bad.yaml`)
	if err := os.WriteFile(bad, []byte("- a\n- b\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := File(bad); err == nil {
		t.Errorf(`expected a sequence document to be refused`)
	}
}

func TestFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), `overlap.JSON`)
	err := os.WriteFile(path, []byte(`{"overlap_finder":"kmp","join_window":8192,"join_nfc":true,"join_stops":["END","STOP"]}`), 0644)
	if err != nil {
		t.Fatal(err)
	}
	cf, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	var opts joinOptions
	if err := Unmarshal(&opts, cf); err != nil {
		t.Fatal(err)
	}
	want := joinOptions{Finder: `kmp`, Window: 8192, NFC: true, Stops: []string{`END`, `STOP`}}
	if diff := cmp.Diff(want, opts, cmp.AllowUnexported(joinOptions{})); diff != `` {
		t.Errorf(`unexpected options (-want +got):\n%s`, diff)
	}

	bad := filepath.Join(t.TempDir(), `bad.json`)
	if err := os.WriteFile(bad, []byte("overlap_finder: kmp\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := File(bad); err == nil {
		t.Errorf(`expected YAML in a .json file to be refused`)
	}
}

func TestEnvironment(t *testing.T) {
	t.Setenv(`OVERLAPTEST_JOIN_WINDOW`, `32`)
	t.Setenv(`OVERLAPTEST_OVERLAP_FINDER`, `kmp`)
	cf := Environment(`OVERLAPTEST_`)
	if got := cf.GetConfiguration(`join_window`); len(got) != 1 || got[0] != `32` {
		t.Errorf(`unexpected join_window %q`, got)
	}
	if got := cf.GetConfiguration(`nats_url`); got != nil {
		t.Errorf(`expected nil for an unset variable, got %q`, got)
	}
	items := cf.Configured()
	sort.Strings(items)
	if diff := cmp.Diff([]string{`join_window`, `overlap_finder`}, items); diff != `` {
		t.Errorf(`unexpected configured items (-want +got):\n%s`, diff)
	}
}

func TestWith(t *testing.T) {
	if got := With(nil, `join_nfc`, true).GetConfiguration(`join_nfc`); len(got) != 1 || got[0] != `true` {
		t.Errorf(`unexpected join_nfc %q`, got)
	}

	cf := With(Map{`join_window`: {`1`}}, `overlap_finder`, `kmp`)
	if got := cf.GetConfiguration(`overlap_finder`); len(got) != 1 || got[0] != `kmp` {
		t.Errorf(`unexpected overlap_finder %q`, got)
	}
	if got := cf.GetConfiguration(`join_window`); len(got) != 1 || got[0] != `1` {
		t.Errorf(`unexpected join_window %q`, got)
	}
	items := Configured(cf, nil, Map{`join_window`: {`2`}})
	sort.Strings(items)
	if diff := cmp.Diff([]string{`join_window`, `overlap_finder`}, items); diff != `` {
		t.Errorf(`unexpected configured items (-want +got):\n%s`, diff)
	}
}
