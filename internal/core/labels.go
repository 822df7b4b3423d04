package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Labels maps category, frequency and month keys to display names. Lookups
// never fail: unknown keys are returned unchanged.
type Labels struct {
	Categories   map[string]string `yaml:"categories"`
	Frequencies  map[string]string `yaml:"frequencies"`
	Months       []string          `yaml:"months"`
	Installments string            `yaml:"installments"`
}

var builtinLabels = map[string]Labels{
	"en": {
		Categories: map[string]string{
			"salary":         "Salary",
			"rent":           "Rent",
			"groceries":      "Groceries",
			"bills":          "Bills",
			"transportation": "Transportation",
			"entertainment":  "Entertainment",
			"health":         "Health",
			"education":      "Education",
			"loan":           "Loan",
			"other":          "Other",
		},
		Frequencies: map[string]string{
			"once":      "One-time",
			"monthly":   "Monthly",
			"quarterly": "Every 3 months",
			"biannual":  "Every 6 months",
			"yearly":    "Yearly",
			"custom":    "Installments",
		},
		Months:       []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		Installments: "installments",
	},
	"tr": {
		Categories: map[string]string{
			"salary":         "Maaş",
			"rent":           "Kira",
			"groceries":      "Market",
			"bills":          "Faturalar",
			"transportation": "Ulaşım",
			"entertainment":  "Eğlence",
			"health":         "Sağlık",
			"education":      "Eğitim",
			"loan":           "Kredi",
			"other":          "Diğer",
		},
		Frequencies: map[string]string{
			"once":      "Tek Seferlik",
			"monthly":   "Her Ay",
			"quarterly": "3 Ayda Bir",
			"biannual":  "6 Ayda Bir",
			"yearly":    "Yıllık",
			"custom":    "Taksitli",
		},
		Months:       []string{"Oca", "Şub", "Mar", "Nis", "May", "Haz", "Tem", "Ağu", "Eyl", "Eki", "Kas", "Ara"},
		Installments: "Taksit",
	},
}

// Locales returns the built-in locale codes.
func Locales() []string {
	return []string{"en", "tr"}
}

// LabelsFor returns a copy of the built-in labels for locale, falling back to
// English for unknown locales.
func LabelsFor(locale string) Labels {
	base, ok := builtinLabels[strings.ToLower(strings.TrimSpace(locale))]
	if !ok {
		base = builtinLabels["en"]
	}
	return base.clone()
}

// LoadLabels returns the built-in labels for locale with the entries of the
// YAML file at path layered on top. An empty path skips the file.
func LoadLabels(locale, path string) (Labels, error) {
	labels := LabelsFor(locale)
	if path == "" {
		return labels, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return labels, fmt.Errorf("read labels file: %w", err)
	}
	var overrides Labels
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return labels, fmt.Errorf("parse labels file %s: %w", path, err)
	}
	labels.merge(overrides)
	return labels, nil
}

func (l Labels) clone() Labels {
	out := Labels{
		Categories:   make(map[string]string, len(l.Categories)),
		Frequencies:  make(map[string]string, len(l.Frequencies)),
		Months:       append([]string(nil), l.Months...),
		Installments: l.Installments,
	}
	for k, v := range l.Categories {
		out.Categories[k] = v
	}
	for k, v := range l.Frequencies {
		out.Frequencies[k] = v
	}
	return out
}

func (l *Labels) merge(o Labels) {
	for k, v := range o.Categories {
		l.Categories[k] = v
	}
	for k, v := range o.Frequencies {
		l.Frequencies[k] = v
	}
	if len(o.Months) == 12 {
		l.Months = append([]string(nil), o.Months...)
	}
	if o.Installments != "" {
		l.Installments = o.Installments
	}
}

// Category returns the display name of c.
func (l Labels) Category(c Category) string {
	if name, ok := l.Categories[string(c)]; ok {
		return name
	}
	return string(c)
}

// Frequency returns the display name of f.
func (l Labels) Frequency(f Frequency) string {
	if name, ok := l.Frequencies[string(f)]; ok {
		return name
	}
	return string(f)
}

// FrequencyLabel describes how t repeats. Installment plans render their
// current position as of asOf, e.g. "3/12 installments".
func (l Labels) FrequencyLabel(t Transaction, asOf time.Time) string {
	if current, total, ok := t.InstallmentPosition(asOf); ok {
		return fmt.Sprintf("%d/%d %s", current, total, l.Installments)
	}
	return l.Frequency(t.Frequency)
}

// MonthLabel renders a short month name and a two-digit year ("Mar 24").
func (l Labels) MonthLabel(year, month int) string {
	name := fmt.Sprintf("%02d", month)
	if month >= 1 && month <= len(l.Months) {
		name = l.Months[month-1]
	}
	return fmt.Sprintf("%s %02d", name, ((year%100)+100)%100)
}
