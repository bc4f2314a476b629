package population

import (
	"strings"
	"testing"
)

func TestParseDistribution(t *testing.T) {
	tests := []struct {
		in      string
		want    DistributionKind
		wantErr bool
	}{
		{"", Uniform, false},
		{"uniform", Uniform, false},
		{"Normal", Normal, false},
		{" NORMAL ", Normal, false},
		{"gaussian", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDistribution(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDistribution(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDistribution(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDistributionString(t *testing.T) {
	tests := []struct {
		d    Distribution
		want string
	}{
		{Distribution{}, "uniform"},
		{UniformDist(0.1, 1.5), "uniform(min=0.1, max=1.5)"},
		{NormalDist(0.5, 0.1), "normal(mean=0.5, std_dev=0.1)"},
		{Distribution{Kind: Normal}, "normal(mean=?, std_dev=?)"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDefaultOptionsValid(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.Validate(); err != nil {
		t.Fatalf("default options should validate: %v", err)
	}
	if opts.Total() != 0 {
		t.Errorf("expected no agents by default, got %d", opts.Total())
	}
	if *opts.PersonalParameter.Min != 0.1 || *opts.PersonalParameter.Max != 1.5 {
		t.Errorf("unexpected default personal parameter range %s", opts.PersonalParameter)
	}
}

func TestCategoryAt(t *testing.T) {
	opts := Options{Believers: 2, Sceptics: 1, Neutrals: 2}
	want := []Category{Believer, Believer, Sceptic, Neutral, Neutral}
	for i, c := range want {
		if got := opts.CategoryAt(i); got != c {
			t.Errorf("CategoryAt(%d) = %s, want %s", i, got, c)
		}
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Field: "charisma.mean", Reason: "required for normal distribution"}
	if !strings.Contains(err.Error(), "charisma.mean") {
		t.Errorf("error message should name the field: %s", err)
	}
}
