package lsp

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"mqltools/internal/complog"
	"mqltools/internal/dialect"
	"mqltools/internal/help"
)

func (s *Server) handleHover(msg *rpcMessage) error {
	var params hoverParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return s.sendResponse(msg.ID, nil)
	}
	text, ok := s.documentText(uri)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	h := s.buildHover(uri, text, params.Position)
	if h == nil {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, h)
}

func (s *Server) documentText(uri string) (string, bool) {
	s.mu.Lock()
	text, ok := s.openDocs[uri]
	s.mu.Unlock()
	if ok {
		return text, true
	}
	data, err := os.ReadFile(uriToPath(uri))
	if err != nil {
		return "", false
	}
	text, err = complog.Decode(data)
	if err != nil {
		return "", false
	}
	return text, true
}

// buildHover returns a markdown link to the documentation search for the
// identifier under pos, or nil when pos is not on an identifier.
func (s *Server) buildHover(uri, text string, pos position) *hover {
	line, ok := lineAt(text, pos.Line)
	if !ok {
		return nil
	}
	keyword := help.KeywordAt(line, runeColumn(line, pos.Character))
	if keyword == "" {
		return nil
	}
	path := uriToPath(uri)
	s.mu.Lock()
	kind := dialect.Detect(s.workspaceRoot, path)
	lang := s.helpLang
	s.mu.Unlock()
	if lang == "" {
		lang = s.cfg.HelpLanguage(kind)
	}
	topic := help.Resolve(kind, keyword, lang)
	return &hover{
		Contents: markupContent{
			Kind:  "markdown",
			Value: fmt.Sprintf("[%s](%s) (%s)", keyword, topic.URL, strings.ToUpper(topic.Dialect.String())),
		},
	}
}

func lineAt(text string, n int) (string, bool) {
	if n < 0 {
		return "", false
	}
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			return "", false
		}
		text = text[idx+1:]
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSuffix(text, "\r"), true
}

// runeColumn converts a UTF-16 character offset into a rune index.
func runeColumn(line string, character int) int {
	units, col := 0, 0
	for _, r := range line {
		if units >= character {
			break
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		col++
	}
	return col
}

