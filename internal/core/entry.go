package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// The synthesized entry never embeds the template configuration in source
// text. It reads the JSON payload the HTML emitter placed in the document,
// which keeps attacker-controlled config out of the compiled module.
const entryTemplate = `import React from "react";
import { createRoot } from "react-dom/client";
import * as Mod from "{{.ComponentImport}}";

const rootElement = document.getElementById("root");
if (!rootElement) {
  throw new Error("Root element not found in the DOM");
}

const configScript = document.getElementById("{{.ConfigScriptID}}");
const config = configScript ? JSON.parse(configScript.textContent || "{}") : {};

const Component =
  Mod.default ||
  Object.values(Mod).find((x: any) => typeof x === "function");
if (!Component) {
  throw new Error("No component export found in {{.ComponentImport}}");
}

createRoot(rootElement).render(React.createElement(Component, { config }));
`

var entryTemplateParsed = template.Must(template.New("entry").Parse(entryTemplate))

// SynthesizeEntry generates the source text of the browser entry module that
// mounts the given template component. Pure text generation, no side effects.
func SynthesizeEntry(componentImport string) (string, error) {
	if componentImport == "" {
		return "", fmt.Errorf("missing component import")
	}

	var buf bytes.Buffer
	err := entryTemplateParsed.Execute(&buf, map[string]string{
		"ComponentImport": filepath.ToSlash(componentImport),
		"ConfigScriptID":  ConfigScriptID,
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

// WriteEntry synthesizes the entry module and persists it where the bundler
// can read it, creating parent directories as needed.
func WriteEntry(path string, componentImport string) error {
	if path == "" {
		return fmt.Errorf("missing entry path")
	}

	source, err := SynthesizeEntry(componentImport)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(source), 0o644)
}
