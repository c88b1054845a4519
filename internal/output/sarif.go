package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/deltacheck/internal/correlate"
	"github.com/dshills/deltacheck/internal/review"
)

// SARIFWriter outputs line-addressed findings in SARIF v2.1.0 format.
// Raw, repository-wide sections carry no location and are left out.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *review.Report) error {
	sarif := buildSARIF(report)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func buildSARIF(report *review.Report) sarifLog {
	rules := []sarifRule{}
	results := []sarifResult{}

	for _, sec := range report.Sections {
		if sec.Status != review.StatusOK || sec.Raw {
			continue
		}
		ruleID := "deltacheck/" + sec.Check
		level := checkLevel(sec.Check)
		n := len(results)

		for _, r := range sec.Rows {
			for _, line := range r.Lines.Lines() {
				results = append(results, sarifResult{
					RuleID:    ruleID,
					Level:     level,
					Message:   sarifMessage{Text: sec.Title},
					Locations: []sarifLocation{location(r.Path, line)},
				})
			}
		}
		for _, text := range sec.Text {
			f, ok := correlate.ParseFinding(text)
			if !ok {
				continue
			}
			msg := f.Message
			if msg == "" {
				msg = sec.Title
			}
			results = append(results, sarifResult{
				RuleID:    ruleID,
				Level:     level,
				Message:   sarifMessage{Text: msg},
				Locations: []sarifLocation{location(f.Path, f.Line)},
			})
		}

		if len(results) > n {
			rules = append(rules, sarifRule{
				ID:               ruleID,
				Name:             sec.Check,
				ShortDescription: sarifMessage{Text: sec.Title},
				DefaultConfig:    sarifDefaultConfig{Level: level},
			})
		}
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    report.Tool,
						Version: report.Version,
						Rules:   rules,
					},
				},
				Results: results,
			},
		},
	}
}

func location(path string, line int) sarifLocation {
	return sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: path},
			Region:           sarifRegion{StartLine: line},
		},
	}
}

// checkLevel maps a check to a SARIF level. Type errors are errors, the
// rest are warnings.
func checkLevel(check string) string {
	switch check {
	case "mypy":
		return "error"
	case "coverage", "comments":
		return "note"
	default:
		return "warning"
	}
}
