package ado

import "testing"

func TestParseBuildURL(t *testing.T) {
	d, ok := ParseBuildURL("https://dev.azure.com/contoso/Shop/_build?definitionId=42")
	if !ok {
		t.Fatal("expected match")
	}
	if d.Organization != "contoso" || d.Project != "Shop" || d.ID != "42" {
		t.Errorf("unexpected definition: %+v", d)
	}
}

func TestParseBuildURL_Whitespace(t *testing.T) {
	if _, ok := ParseBuildURL("  https://dev.azure.com/org/proj/_build?definitionId=7\n"); !ok {
		t.Error("expected trimmed line to match")
	}
}

func TestParseBuildURL_Rejects(t *testing.T) {
	cases := []string{
		"",
		"not a url",
		"https://example.com/org/proj/_build?definitionId=1",
		"https://dev.azure.com/org/proj/_build?definitionId=abc",
		"https://dev.azure.com/org/proj/_apis/build/definitions/1/yaml",
	}
	for _, c := range cases {
		if _, ok := ParseBuildURL(c); ok {
			t.Errorf("expected no match for %q", c)
		}
	}
}

func TestParseDefinitionURL(t *testing.T) {
	d, err := ParseDefinitionURL("https://dev.azure.com/contoso/Shop/_apis/build/definitions/42/yaml")
	if err != nil {
		t.Fatal(err)
	}
	if d.Organization != "contoso" || d.Project != "Shop" || d.ID != "42" {
		t.Errorf("unexpected definition: %+v", d)
	}
	if got := d.YAMLEndpoint(); got != "https://dev.azure.com/contoso/Shop/_apis/build/definitions/42/yaml" {
		t.Errorf("yaml endpoint: %s", got)
	}
}

func TestParseDefinitionURL_UnsupportedHost(t *testing.T) {
	if _, err := ParseDefinitionURL("https://gitlab.com/a/b/_apis/build/definitions/1/yaml"); err == nil {
		t.Error("expected error for non dev.azure.com host")
	}
}

func TestParseDefinitionURL_BadPath(t *testing.T) {
	if _, err := ParseDefinitionURL("https://dev.azure.com/org/proj/_apis/git/repositories"); err == nil {
		t.Error("expected error for non-definition path")
	}
}
