package core

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

func TestEmitHTMLShell(t *testing.T) {
	html, err := EmitHTML("My Band", "bundle.js", "bundle.css", map[string]any{
		"bandName": "The Band Name",
		"tagline":  "New Album Out Now",
	})
	if err != nil {
		t.Fatalf("EmitHTML failed: %v", err)
	}

	snaps.WithConfig(snaps.Ext(".html")).MatchSnapshot(t, html)
}

func TestEmitHTMLDefaultsTitle(t *testing.T) {
	html, err := EmitHTML("", "bundle.js", "", nil)
	if err != nil {
		t.Fatalf("EmitHTML failed: %v", err)
	}

	if !strings.Contains(html, "<title>"+DefaultTitle+"</title>") {
		t.Errorf("expected default title, got:\n%s", html)
	}

	if strings.Contains(html, "stylesheet") {
		t.Errorf("expected no stylesheet link without a CSS file, got:\n%s", html)
	}
}

func TestEmitHTMLRequiresBundle(t *testing.T) {
	if _, err := EmitHTML("x", "", "", nil); err == nil {
		t.Error("expected error for missing bundle file name")
	}
}

func TestEmitHTMLEscapesConfigScriptBreakout(t *testing.T) {
	html, err := EmitHTML("x", "bundle.js", "", map[string]any{
		"tagline": "</script><script>alert(1)</script>",
	})
	if err != nil {
		t.Fatalf("EmitHTML failed: %v", err)
	}

	if strings.Contains(html, "</script><script>alert(1)") {
		t.Error("config value closed the embedding script tag")
	}

	if !strings.Contains(html, `<\/script>`) {
		t.Error("expected escaped closing tag in embedded config")
	}
}

func TestEmitHTMLEscapesTitle(t *testing.T) {
	html, err := EmitHTML("<b>x</b> & co", "bundle.js", "", nil)
	if err != nil {
		t.Fatalf("EmitHTML failed: %v", err)
	}

	if !strings.Contains(html, "<title>&lt;b&gt;x&lt;/b&gt; &amp; co</title>") {
		t.Errorf("title not escaped:\n%s", html)
	}
}

func TestEmitHTMLReferencesBundleAndRoot(t *testing.T) {
	html, err := EmitHTML("x", "bundle.js", "bundle.css", map[string]any{})
	if err != nil {
		t.Fatalf("EmitHTML failed: %v", err)
	}

	for _, want := range []string{
		`<div id="root"></div>`,
		`<script src="./bundle.js" type="module"></script>`,
		`<link rel="stylesheet" href="./bundle.css" />`,
		`<meta charset="UTF-8" />`,
		`<meta name="viewport"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q in:\n%s", want, html)
		}
	}
}
