package commerce

import (
	"reflect"
	"testing"
)

func TestParseMetafieldDescriptor(t *testing.T) {
	tests := []struct {
		in     string
		want   Metafield
		wantOK bool
	}{
		{"custom.category", Metafield{"custom", "category"}, true},
		{"custom.nested.key", Metafield{"custom", "nested.key"}, true},
		{" custom . category ", Metafield{"custom", "category"}, true},
		{"nodot", Metafield{}, false},
		{".key", Metafield{}, false},
		{"ns.", Metafield{}, false},
		{"ns.bad key", Metafield{}, false},
		{`ns.k"ey`, Metafield{}, false},
		{"", Metafield{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseMetafieldDescriptor(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("ParseMetafieldDescriptor(%q) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMetafieldValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
		typ   string
		want  []string
	}{
		{"empty", "  ", "list.single_line_text_field", []string{}},
		{"json list", `["Reptiles", " ", "Amphibians"]`, "list.single_line_text_field", []string{"Reptiles", "Amphibians"}},
		{"json list numbers", `[1, 2.5, true]`, "list.number_integer", []string{"1", "2.5", "true"}},
		{"json object keeps order", `{"b":"Beta","a":"Alpha"}`, "json", []string{"Beta", "Alpha"}},
		{"json scalar", `"Solo"`, "json", []string{"Solo"}},
		{"empty json list falls back to raw", `[]`, "list.single_line_text_field", []string{"[]"}},
		{"bad json falls back to comma split", `a, b`, "json", []string{"a", "b"}},
		{"number verbatim", "1,000", "number_integer", []string{"1,000"}},
		{"comma split", "Frogs, Geckos ,,", "single_line_text_field", []string{"Frogs", "Geckos"}},
		{"only commas", ",,,", "single_line_text_field", []string{",,,"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MetafieldValues(tt.value, tt.typ); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("MetafieldValues(%q, %q) = %#v, want %#v", tt.value, tt.typ, got, tt.want)
			}
		})
	}
}
