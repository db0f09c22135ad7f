// Package scenario turns Gherkin feature files into test case definitions.
//
// The parser is structural only: it finds the feature title, every scenario
// header, the tags written above each header and the verbatim scenario block.
// It never fails; unparseable input yields fewer (or zero) definitions.
package scenario

import (
	"regexp"
	"strings"
)

// UnknownFeature is used when a file has no Feature: header.
const UnknownFeature = "Unknown Feature"

var (
	featurePattern  = regexp.MustCompile(`^\s*Feature:\s*(.+)$`)
	scenarioPattern = regexp.MustCompile(`^\s*((?:@\S+\s+)*)(?:Scenario(?: Outline| Template)?|Example):\s*(.*)$`)
	tagPattern      = regexp.MustCompile(`@([^\s@]+)`)
)

// Definition is a single scenario extracted from a feature file.
type Definition struct {
	Title        string
	Tags         []string
	Body         string
	FeatureTitle string
	SourceFile   string
}

// Parse extracts scenario definitions from feature file content, in source order.
func Parse(content string) []Definition {
	lines := splitLines(content)
	feature := FeatureTitle(content)

	var (
		defs    []Definition
		current *Definition
		body    []string
		open    bool
	)

	flush := func() {
		if current == nil {
			return
		}
		if current.Title != "" {
			current.Body = strings.TrimSpace(strings.Join(body, "\n"))
			defs = append(defs, *current)
		}
		current, body = nil, nil
	}

	for i, line := range lines {
		if m := scenarioPattern.FindStringSubmatch(line); m != nil {
			flush()

			tags := tagsAbove(lines, i)
			tags = append(tags, extractTags(m[1])...)

			current = &Definition{
				Title:        strings.TrimSpace(m[2]),
				Tags:         tags,
				FeatureTitle: feature,
			}
			body = []string{line}
			open = true
			continue
		}

		if !open {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if i+1 < len(lines) && startsBlock(lines[i+1]) {
				open = false
			}
			continue
		}
		body = append(body, line)
	}
	flush()

	return defs
}

// FeatureTitle returns the title of the first Feature: header, or UnknownFeature.
func FeatureTitle(content string) string {
	for _, line := range splitLines(content) {
		if m := featurePattern.FindStringSubmatch(line); m != nil {
			if title := strings.TrimSpace(m[1]); title != "" {
				return title
			}
		}
	}
	return UnknownFeature
}

// tagsAbove walks up from the header through tag and blank lines. Tags keep
// their left-to-right, top-to-bottom order.
func tagsAbove(lines []string, header int) []string {
	var blocks [][]string
	for i := header - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "@") {
			blocks = append(blocks, extractTags(trimmed))
			continue
		}
		if trimmed != "" {
			break
		}
	}

	var tags []string
	for i := len(blocks) - 1; i >= 0; i-- {
		tags = append(tags, blocks[i]...)
	}
	return tags
}

func extractTags(line string) []string {
	var tags []string
	for _, m := range tagPattern.FindAllStringSubmatch(line, -1) {
		tags = append(tags, m[1])
	}
	return tags
}

// startsBlock reports whether a line opens a tag, scenario, rule or feature block.
func startsBlock(line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "@"):
		return true
	case strings.HasPrefix(trimmed, "Feature:"), strings.HasPrefix(trimmed, "Rule:"):
		return true
	default:
		return scenarioPattern.MatchString(line)
	}
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}
