// Package report reads Cucumber JSON execution reports.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Status values of an executed scenario.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

type feature struct {
	Name     string    `json:"name"`
	URI      string    `json:"uri"`
	Elements []element `json:"elements"`
}

type element struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Tags  []tag  `json:"tags"`
	Steps []step `json:"steps"`
}

type tag struct {
	Name string `json:"name"`
}

type step struct {
	Result struct {
		Status string `json:"status"`
	} `json:"result"`
}

// DecodeError reports content that is not a Cucumber JSON report.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "error decoding report: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Scenario is one executed scenario of a report.
type Scenario struct {
	Feature string
	Name    string
	Tags    []string
	Status  string
}

// Report is the decoded content of a Cucumber JSON report.
type Report struct {
	Scenarios []Scenario
}

// Read decodes the Cucumber JSON report at path.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading report: %w", err)
	}
	return Decode(data)
}

// Decode parses Cucumber JSON report content. Background elements are skipped.
func Decode(data []byte) (*Report, error) {
	var features []feature
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, &DecodeError{Err: err}
	}

	r := &Report{}
	for _, f := range features {
		for _, el := range f.Elements {
			if el.Type == "background" {
				continue
			}
			s := Scenario{
				Feature: f.Name,
				Name:    el.Name,
				Status:  StatusPassed,
			}
			for _, t := range el.Tags {
				s.Tags = append(s.Tags, strings.TrimPrefix(t.Name, "@"))
			}
			for _, st := range el.Steps {
				if st.Result.Status != StatusPassed {
					s.Status = StatusFailed
					break
				}
			}
			r.Scenarios = append(r.Scenarios, s)
		}
	}
	return r, nil
}

// KeysForProject returns the issue keys referenced by scenario tags, such as
// @XSP-12, for the given project. Keys are returned once, in report order.
func (r *Report) KeysForProject(projectKey string) []string {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(projectKey) + `-\d+$`)

	seen := make(map[string]bool)
	var keys []string
	for _, s := range r.Scenarios {
		for _, t := range s.Tags {
			if pattern.MatchString(t) && !seen[t] {
				seen[t] = true
				keys = append(keys, t)
			}
		}
	}
	return keys
}

// Summary counts passed and failed scenarios.
func (r *Report) Summary() (passed, failed int) {
	for _, s := range r.Scenarios {
		if s.Status == StatusPassed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
