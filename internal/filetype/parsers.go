package filetype

import "strings"

// builtinParser maps well-known structured-data and markup files to the
// parser identifiers used by the external backend.
//
//nolint:cyclop,gocyclo // flat lookup chain, order matters
func builtinParser(base, ext string) (string, bool) {
	// JSON and variants
	switch {
	case base == "package.json" || base == "composer.json" || ext == "importmap":
		return "json-stringify", true
	case has(jsonFileNames, base), has(jsonExtensions, ext),
		strings.HasSuffix(base, ".json.example"),
		strings.HasSuffix(base, ".tfstate.backup"):
		return "json", true
	case has(jsoncExtensions, ext):
		return "jsonc", true
	case ext == "json5":
		return "json5", true
	}

	// YAML
	if has(yamlFileNames, base) || has(yamlExtensions, ext) {
		return "yaml", true
	}

	// TOML
	if ext == "toml" || base == "Pipfile" || strings.HasSuffix(base, ".toml.example") {
		return "toml", true
	}

	// Markdown and variants
	if has(markdownFileNames, base) || has(markdownExtensions, ext) {
		return "markdown", true
	}
	if ext == "mdx" {
		return "mdx", true
	}

	// HTML and variants; angular templates before generic HTML
	switch {
	case strings.HasSuffix(base, ".component.html"):
		return "angular", true
	case has(htmlExtensions, ext):
		return "html", true
	case ext == "vue":
		return "vue", true
	case ext == "mjml":
		return "mjml", true
	}

	// CSS and variants
	switch {
	case has(cssExtensions, ext):
		return "css", true
	case ext == "less":
		return "less", true
	case ext == "scss":
		return "scss", true
	}

	// GraphQL and templates
	switch {
	case has(graphqlExtensions, ext):
		return "graphql", true
	case has(handlebarsExtensions, ext):
		return "glimmer", true
	}

	// Languages served by the built-in Go backend
	switch {
	case has(hclExtensions, ext):
		return "hcl", true
	case ext == "sh" || ext == "bash":
		return "sh", true
	case ext == "go":
		return "go", true
	}

	return "", false
}

func has(m map[string]struct{}, key string) bool {
	if key == "" {
		return false
	}
	_, ok := m[key]
	return ok
}

//nolint:gochecknoglobals // static tables
var (
	jsonExtensions = set(
		"json", "4DForm", "4DProject", "avsc", "geojson", "gltf", "har", "ice",
		"JSON-tmLanguage", "mcmeta", "sarif", "tact", "tfstate", "topojson",
		"webapp", "webmanifest", "yy", "yyp",
	)
	jsonFileNames = set(
		".all-contributorsrc", ".arcconfig", ".auto-changelog", ".c8rc",
		".htmlhintrc", ".imgbotconfig", ".nycrc", ".tern-config",
		".tern-project", ".watchmanconfig", ".babelrc", ".jscsrc", ".jshintrc",
		".jslintrc", ".swcrc",
	)
	jsoncExtensions = set(
		"jsonc", "code-snippets", "code-workspace", "sublime-build",
		"sublime-color-scheme", "sublime-commands", "sublime-completions",
		"sublime-keymap", "sublime-macro", "sublime-menu", "sublime-mousemap",
		"sublime-project", "sublime-settings", "sublime-theme",
		"sublime-workspace", "sublime_metrics", "sublime_session",
	)
	yamlFileNames = set(
		".clang-format", ".clang-tidy", ".clangd", ".gemrc", "CITATION.cff",
		"glide.lock", "pixi.lock", ".prettierrc", ".stylelintrc", ".lintstagedrc",
	)
	yamlExtensions = set(
		"yml", "mir", "reek", "rviz", "sublime-syntax", "syntax", "yaml",
		"yaml-tmlanguage",
	)
	markdownFileNames  = set("contents.lr", "README")
	markdownExtensions = set(
		"md", "livemd", "markdown", "mdown", "mdwn", "mkd", "mkdn", "mkdown",
		"ronn", "scd", "workbook",
	)
	htmlExtensions       = set("html", "hta", "htm", "inc", "xht", "xhtml")
	cssExtensions        = set("css", "wxss", "pcss", "postcss")
	graphqlExtensions    = set("graphql", "gql", "graphqls")
	handlebarsExtensions = set("handlebars", "hbs")
	hclExtensions        = set("hcl", "tf", "tfvars")
)
