package main

import (
	"testing"

	"github.com/itchyny/gojq"

	"github.com/solmint/launchpad/client"
)

func compileFilter(t *testing.T, filter string) *gojq.Code {
	t.Helper()
	query, err := gojq.Parse(filter)
	if err != nil {
		t.Fatalf("failed to parse jq filter: %v", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		t.Fatalf("failed to compile jq filter: %v", err)
	}
	return code
}

func TestMatchesJQFilters(t *testing.T) {
	price := 0.000042
	url := "https://pump.fun/MintPub"
	token := &client.Token{
		ID:                "tok-1",
		TokenName:         "Test Token",
		TokenSymbol:       "TT",
		TargetWallet:      "TargetPub",
		TokenURL:          &url,
		InitialPriceInSol: &price,
		Status:            "priced",
	}

	tests := []struct {
		name    string
		filters []string
		want    bool
	}{
		{
			name:    "status match",
			filters: []string{`.status == "priced"`},
			want:    true,
		},
		{
			name:    "status mismatch",
			filters: []string{`.status == "draft"`},
			want:    false,
		},
		{
			name:    "price threshold",
			filters: []string{`.initialPriceInSol > 0.00001`},
			want:    true,
		},
		{
			name:    "all filters must match",
			filters: []string{`.status == "priced"`, `.tokenSymbol == "XX"`},
			want:    false,
		},
		{
			name:    "field selection is truthy when present",
			filters: []string{`.tokenUrl`},
			want:    true,
		},
		{
			name:    "missing field is falsy",
			filters: []string{`.nonexistent`},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filters := make([]*gojq.Code, len(tt.filters))
			for i, f := range tt.filters {
				filters[i] = compileFilter(t, f)
			}

			got, err := matchesJQFilters(token, filters)
			if err != nil {
				t.Fatalf("matchesJQFilters returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("matchesJQFilters() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"true", true, true},
		{"zero is truthy in jq", 0.0, true},
		{"empty string is truthy in jq", "", true},
		{"object", map[string]interface{}{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTruthy(tt.value); got != tt.want {
				t.Errorf("isTruthy(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
