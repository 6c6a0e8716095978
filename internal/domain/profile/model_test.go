package profile

import (
	"reflect"
	"testing"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{",,", nil},
		{"Penicillin", []string{"Penicillin"}},
		{"Penicillin, Latex", []string{"Penicillin", "Latex"}},
		{" Penicillin ,  , Latex, ", []string{"Penicillin", "Latex"}},
	}
	for _, tt := range tests {
		if got := SplitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
