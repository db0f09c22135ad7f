//go:build unit

package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginFeature = `@auth
Feature: User login
  As a shopper I want to sign in

  @smoke @login
  Scenario: Successful login
    Given I am on the login page
    When I sign in with valid credentials
    Then I see my account

  @regression
  @XSP-42
  Scenario Outline: Rejected login for <user>
    Given I am on the login page
    When I sign in as "<user>"

    Then I see an error
    Examples:
      | user    |
      | blocked |

  Scenario: Untagged logout
    Given I am signed in
    When I sign out
`

func TestParse_Scenarios(t *testing.T) {
	defs := Parse(loginFeature)
	require.Len(t, defs, 3)

	tests := []struct {
		title string
		tags  []string
	}{
		{title: "Successful login", tags: []string{"smoke", "login"}},
		{title: "Rejected login for <user>", tags: []string{"regression", "XSP-42"}},
		{title: "Untagged logout", tags: nil},
	}

	for i, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			def := defs[i]
			assert.Equal(t, tt.title, def.Title)
			assert.Equal(t, tt.tags, def.Tags)
			assert.Equal(t, "User login", def.FeatureTitle)
			assert.True(t, strings.HasPrefix(def.Body, "Scenario"), "body should start with the header line: %q", def.Body)
			assert.NotContains(t, def.Body, "@", "tag lines of the next scenario must not leak into the body")
		})
	}
}

func TestParse_BodyContent(t *testing.T) {
	defs := Parse(loginFeature)
	require.Len(t, defs, 3)

	assert.Equal(t, "Scenario: Successful login\n"+
		"    Given I am on the login page\n"+
		"    When I sign in with valid credentials\n"+
		"    Then I see my account", defs[0].Body)

	// Blank lines inside a scenario are dropped but the block continues.
	outline := defs[1].Body
	assert.Contains(t, outline, "Then I see an error")
	assert.Contains(t, outline, "| blocked |")
	assert.NotContains(t, outline, "\n\n")
}

func TestParse_NoScenarios(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty", content: ""},
		{name: "feature only", content: "Feature: X\n"},
		{name: "free text", content: "just some notes\nwithout any structure\n"},
		{name: "tags only", content: "@a @b\n@c\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := Parse(tt.content)
			assert.Empty(t, defs)
		})
	}
}

func TestParse_TagEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "tags across lines keep order",
			content:  "@one @two\n@three\nScenario: S\n  Given x\n",
			expected: []string{"one", "two", "three"},
		},
		{
			name:     "blank lines between tags and header",
			content:  "@one\n\n@two\n\nScenario: S\n",
			expected: []string{"one", "two"},
		},
		{
			name:     "stray at sign ignored",
			content:  "@ @valid\nScenario: S\n",
			expected: []string{"valid"},
		},
		{
			name:     "duplicates kept",
			content:  "@dup @dup\nScenario: S\n",
			expected: []string{"dup", "dup"},
		},
		{
			name:     "scan stops at non tag line",
			content:  "@feature\nFeature: F\n@inner\nScenario: S\n",
			expected: []string{"inner"},
		},
		{
			name:     "inline tags on header",
			content:  "@above\n@inline Scenario: S\n",
			expected: []string{"above", "inline"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := Parse(tt.content)
			require.Len(t, defs, 1)
			assert.Equal(t, tt.expected, defs[0].Tags)
		})
	}
}

func TestParse_BodyTermination(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains []string
		excludes []string
	}{
		{
			name:     "blank line before examples continues",
			content:  "Scenario Outline: Login as <user>\n  Given I log in as <user>\n\n  Examples:\n    | user |\n    | bob  |\n",
			contains: []string{"Examples:", "| bob  |"},
		},
		{
			name:     "tagged examples without blank line continue",
			content:  "Feature: F\n\n  @outline\n  Scenario Outline: Login as <user>\n    Given I log in as <user>\n    @fast\n    Examples:\n      | user |\n      | bob  |\n",
			contains: []string{"@fast", "Examples:", "| bob  |"},
		},
		{
			name:     "blank line then tagged examples ends body",
			content:  "Scenario Outline: Login as <user>\n  Given I log in as <user>\n\n  @fast\n  Examples:\n    | user |\n    | bob  |\n",
			contains: []string{"Given I log in as <user>"},
			excludes: []string{"@fast", "Examples:", "| bob  |"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := Parse(tt.content)
			require.Len(t, defs, 1)
			assert.Equal(t, "Login as <user>", defs[0].Title)
			for _, s := range tt.contains {
				assert.Contains(t, defs[0].Body, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, defs[0].Body, s)
			}
		})
	}
}

func TestParse_TagWithoutBlankLineStaysInBody(t *testing.T) {
	content := "Scenario: First\n  Given a\n@next\nScenario: Second\n  Given b\n"

	defs := Parse(content)
	require.Len(t, defs, 2)
	assert.Equal(t, "Scenario: First\n  Given a\n@next", defs[0].Body)
	assert.Equal(t, []string{"next"}, defs[1].Tags)
	assert.Equal(t, "Scenario: Second\n  Given b", defs[1].Body)
}

func TestParse_UntitledScenarioSkipped(t *testing.T) {
	content := "Feature: F\nScenario:   \n  Given nothing\nScenario: Titled\n  Given something\n"

	defs := Parse(content)
	require.Len(t, defs, 1)
	assert.Equal(t, "Titled", defs[0].Title)
	assert.Equal(t, "Scenario: Titled\n  Given something", defs[0].Body)
}

func TestParse_CRLF(t *testing.T) {
	content := "Feature: Windows\r\n@win\r\nScenario: Line endings\r\n  Given CRLF\r\n"

	defs := Parse(content)
	require.Len(t, defs, 1)
	assert.Equal(t, "Windows", defs[0].FeatureTitle)
	assert.Equal(t, []string{"win"}, defs[0].Tags)
	assert.NotContains(t, defs[0].Body, "\r")
}

func TestFeatureTitle(t *testing.T) {
	assert.Equal(t, "Checkout", FeatureTitle("# comment\n  Feature:  Checkout \n"))
	assert.Equal(t, UnknownFeature, FeatureTitle("Scenario: lonely\n"))
	assert.Equal(t, UnknownFeature, FeatureTitle(""))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "login.feature")
	require.NoError(t, os.WriteFile(path, []byte(loginFeature), 0o600))

	defs, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, defs, 3)
	for _, def := range defs {
		assert.Equal(t, "login.feature", def.SourceFile)
	}

	_, err = ParseFile(filepath.Join(dir, "missing.feature"))
	assert.Error(t, err)
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "checkout", "payments")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	for _, path := range []string{
		filepath.Join(root, "login.feature"),
		filepath.Join(root, "notes.txt"),
		filepath.Join(nested, "card.feature"),
	} {
		require.NoError(t, os.WriteFile(path, []byte("Feature: X\n"), 0o600))
	}

	files, err := Walk(root, ".feature")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(nested, "card.feature"),
		filepath.Join(root, "login.feature"),
	}, files)

	_, err = Walk(filepath.Join(root, "missing"), ".feature")
	assert.Error(t, err)

	_, err = Walk(filepath.Join(root, "login.feature"), ".feature")
	assert.Error(t, err)
}
