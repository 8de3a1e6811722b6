package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

const DefaultTitle = "Generated Page"

// ConfigScriptID is the element id of the JSON payload the synthesized entry
// reads its configuration from at mount time.
const ConfigScriptID = "__SITE_CONFIG__"

// EmitHTML produces the shell document for a built site: charset and viewport
// metas, the given title, an optional stylesheet link, the root mount div, the
// embedded configuration payload and a module script tag for the bundle.
//
// The configuration is embedded as JSON inside a script tag, so "</" sequences
// are escaped to keep a config value from closing the tag early.
func EmitHTML(title string, bundleFile string, cssFile string, config map[string]any) (string, error) {
	if bundleFile == "" {
		return "", fmt.Errorf("missing bundle file name")
	}

	if title == "" {
		title = DefaultTitle
	}

	if config == nil {
		config = map[string]any{}
	}

	configJSON, err := json.Marshal(config)
	if err != nil {
		return "", err
	}

	escapedConfig := strings.ReplaceAll(string(configJSON), "</", "<\\/")

	cssLink := ""
	if cssFile != "" {
		cssLink = fmt.Sprintf(`
    <link rel="stylesheet" href="./%s" />`, cssFile)
	}

	html := fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>%s</title>%s
  </head>
  <body>
    <div id="root"></div>
    <script id="%s" type="application/json">%s</script>
    <script src="./%s" type="module"></script>
  </body>
</html>
`, escapeTitle(title), cssLink, ConfigScriptID, escapedConfig, bundleFile)

	return html, nil
}

func escapeTitle(title string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(title)
}
