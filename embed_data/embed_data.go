package embed_data

import _ "embed"

//go:embed prompts/site_context_prompt.tmpl
var SiteContextPrompt []byte

//go:embed models_details.json
var ModelDetails []byte

//go:embed queries/html.json
var HTMLQuery []byte

//go:embed queries/javascript.json
var JavascriptQuery []byte

//go:embed queries/css.json
var CSSQuery []byte
