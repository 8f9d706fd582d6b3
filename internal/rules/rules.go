// Package rules holds the ordered keyword and lookup tables that drive merchant
// cleaning, classification, subscription detection and fee detection.
//
// Every table is a slice: order encodes priority and the first match wins.
// Tables can be replaced from a YAML file without touching the matching code.
package rules

import (
	"fmt"
	"os"

	"github.com/dvloznov/spendscan/internal/domain"
	"gopkg.in/yaml.v3"
)

// Abbreviation rewrites a merchant whose cleaned text starts with Prefix.
type Abbreviation struct {
	Prefix string `yaml:"prefix"`
	Name   string `yaml:"name"`
}

// CategoryKeyword maps a substring to a spending category.
type CategoryKeyword struct {
	Keyword  string          `yaml:"keyword"`
	Category domain.Category `yaml:"category"`
}

// Service is a known subscription service. MinAmount, when positive, is the
// smallest charge accepted as a real subscription payment.
type Service struct {
	Pattern   string                      `yaml:"pattern"`
	Name      string                      `yaml:"name"`
	Category  domain.SubscriptionCategory `yaml:"category"`
	MinAmount float64                     `yaml:"min_amount"`
}

// ServiceKind lists keywords that identify a subscription category.
type ServiceKind struct {
	Category domain.SubscriptionCategory `yaml:"category"`
	Keywords []string                    `yaml:"keywords"`
}

// Fee maps a substring to a money-leak type.
type Fee struct {
	Keyword string          `yaml:"keyword"`
	Type    domain.LeakType `yaml:"type"`
	Label   string          `yaml:"label"`
}

// Set is a complete, versioned collection of tables.
type Set struct {
	Version string `yaml:"version"`

	// Merchant normalizer.
	Prefixes      []string       `yaml:"prefixes"`
	AdminWords    []string       `yaml:"admin_words"`
	Cities        []string       `yaml:"cities"`
	StopWords     []string       `yaml:"stop_words"`
	Abbreviations []Abbreviation `yaml:"abbreviations"`

	// Classifier.
	IncomeKeywords   []string          `yaml:"income_keywords"`
	TransferKeywords []string          `yaml:"transfer_keywords"`
	CategoryKeywords []CategoryKeyword `yaml:"category_keywords"`

	// Recurrence detector.
	Services     []Service     `yaml:"services"`
	Blacklist    []string      `yaml:"blacklist"`
	ServiceKinds []ServiceKind `yaml:"service_kinds"`

	// Money leaks.
	Fees []Fee `yaml:"fees"`
}

// Parse decodes a YAML rules document. Tables present in the document replace
// the corresponding default table; absent tables keep their defaults.
func Parse(data []byte) (*Set, error) {
	var overlay Set
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("Parse: decoding yaml: %w", err)
	}

	set := Default()
	set.merge(&overlay)

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}
	return set, nil
}

// LoadFile reads and parses a YAML rules file.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: reading %q: %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: %q: %w", path, err)
	}
	return set, nil
}

// Validate checks that every table entry is usable.
func (s *Set) Validate() error {
	for i, ab := range s.Abbreviations {
		if ab.Prefix == "" || ab.Name == "" {
			return fmt.Errorf("abbreviation %d: prefix and name are required", i)
		}
	}
	for i, kw := range s.CategoryKeywords {
		if kw.Keyword == "" {
			return fmt.Errorf("category keyword %d: keyword is required", i)
		}
		if err := kw.Category.Validate(); err != nil {
			return fmt.Errorf("category keyword %q: %w", kw.Keyword, err)
		}
		if !kw.Category.IsSpending() {
			return fmt.Errorf("category keyword %q: %s is detected separately", kw.Keyword, kw.Category)
		}
	}
	for i, svc := range s.Services {
		if svc.Pattern == "" || svc.Name == "" {
			return fmt.Errorf("service %d: pattern and name are required", i)
		}
		if svc.MinAmount < 0 {
			return fmt.Errorf("service %q: negative min_amount", svc.Name)
		}
	}
	for i, fee := range s.Fees {
		if fee.Keyword == "" || fee.Type == "" {
			return fmt.Errorf("fee %d: keyword and type are required", i)
		}
	}
	return nil
}

func (s *Set) merge(o *Set) {
	if o.Version != "" {
		s.Version = o.Version
	}
	if len(o.Prefixes) > 0 {
		s.Prefixes = o.Prefixes
	}
	if len(o.AdminWords) > 0 {
		s.AdminWords = o.AdminWords
	}
	if len(o.Cities) > 0 {
		s.Cities = o.Cities
	}
	if len(o.StopWords) > 0 {
		s.StopWords = o.StopWords
	}
	if len(o.Abbreviations) > 0 {
		s.Abbreviations = o.Abbreviations
	}
	if len(o.IncomeKeywords) > 0 {
		s.IncomeKeywords = o.IncomeKeywords
	}
	if len(o.TransferKeywords) > 0 {
		s.TransferKeywords = o.TransferKeywords
	}
	if len(o.CategoryKeywords) > 0 {
		s.CategoryKeywords = o.CategoryKeywords
	}
	if len(o.Services) > 0 {
		s.Services = o.Services
	}
	if len(o.Blacklist) > 0 {
		s.Blacklist = o.Blacklist
	}
	if len(o.ServiceKinds) > 0 {
		s.ServiceKinds = o.ServiceKinds
	}
	if len(o.Fees) > 0 {
		s.Fees = o.Fees
	}
}
