package complog

import (
	"regexp"
	"strconv"
	"strings"

	"mqltools/internal/diag"
)

var (
	reDrivePath   = regexp.MustCompile(`([a-zA-Z]:\\.+) :`)
	reCompileName = regexp.MustCompile(`(?i)compiling.(.+')`)
	reCheckName   = regexp.MustCompile(`(?i)checking.(.+')`)
	reIncludeName = regexp.MustCompile(`(?i)information: including (.+')`)
	reInfoName    = regexp.MustCompile(`(?i)information: (.+)`)
	reTally       = regexp.MustCompile(`^\d+ errors?(?:\(s\))?, \d+ warnings?`)
	reErrWarCount = regexp.MustCompile(`[1-9]\d*.(?:error|warning)`)
	reShortResult = regexp.MustCompile(`\d+.error.+`)
	reLinePath    = regexp.MustCompile(`(?:([a-zA-Z]:\\.+)|^(\(\d+,\d+\))) : (.+)`)
	reCode        = regexp.MustCompile(`(?:error|warning) (\d+)`)
	reLabel       = regexp.MustCompile(`(?i)^(?:error|warning)\s*:\s*`)
	reFullPath    = regexp.MustCompile(`(?i)[a-z]:\\.+`)
	rePosition    = regexp.MustCompile(`\((\d+),(\d+)\)$`)

	// reAnchored stops the path at the first "(line,col) : " so a message
	// containing " : " keeps its location.
	reAnchored = regexp.MustCompile(`([a-zA-Z]:\\.+?\(\d+,\d+\)) : (.+)`)
)

// classifier pairs a cheap predicate with the extractor run when it accepts.
// A nil Entry from parse drops the line.
type classifier struct {
	match func(line string) bool
	parse func(line string) Entry
}

// classifiers are tried in order; the first match wins.
var classifiers = []classifier{
	{
		match: func(line string) bool {
			return strings.Contains(line, ": information: compiling") ||
				strings.Contains(line, ": information: checking")
		},
		parse: parseCompiling,
	},
	{
		match: func(line string) bool { return strings.Contains(line, ": information: including") },
		parse: parseIncluding,
	},
	{
		match: func(line string) bool {
			return strings.Contains(line, "information: generating code") ||
				strings.Contains(line, "information: code generated")
		},
		parse: func(string) Entry { return nil },
	},
	{
		match: func(line string) bool { return strings.Contains(line, ": information: info") },
		parse: parseInfo,
	},
	{
		match: func(line string) bool {
			return strings.Contains(line, "Result:") ||
				strings.Contains(line, ": information: result") ||
				reTally.MatchString(line)
		},
		parse: parseResult,
	},
	{
		match: reLinePath.MatchString,
		parse: parseDiagnostic,
	},
}

// Classify maps a single log line to its entry. It returns nil for lines that
// are dropped from the transcript and PlainText for unrecognised lines.
func Classify(line string) Entry {
	for _, c := range classifiers {
		if c.match(line) {
			return c.parse(line)
		}
	}
	return PlainText{Text: line}
}

// notice extracts the quoted name and the drive path of an informational line.
func notice(line string, nameRe *regexp.Regexp) (name, path string, ok bool) {
	mName := nameRe.FindStringSubmatch(line)
	mPath := reDrivePath.FindStringSubmatch(line)
	if mName == nil || mPath == nil {
		return "", "", false
	}
	return mName[1], mPath[1], true
}

func parseCompiling(line string) Entry {
	re := reCheckName
	if strings.Contains(line, "compiling") {
		re = reCompileName
	}
	name, path, ok := notice(line, re)
	if !ok {
		return nil
	}
	return CompilingNotice{Name: name, Path: path}
}

func parseIncluding(line string) Entry {
	name, path, ok := notice(line, reIncludeName)
	if !ok {
		return nil
	}
	return IncludeNotice{Name: name, Path: path}
}

func parseInfo(line string) Entry {
	name, path, ok := notice(line, reInfoName)
	if !ok {
		return nil
	}
	return InfoNotice{Name: name, Path: path}
}

func parseResult(line string) Entry {
	r := ResultSummary{Raw: line, Short: line}
	if m := reShortResult.FindString(line); m != "" {
		r.Short = m
	}
	if m := reErrWarCount.FindString(line); m != "" {
		if strings.Contains(m, "error") {
			r.IsError = true
		} else {
			r.IsWarning = true
		}
	}
	return r
}

func parseDiagnostic(line string) Entry {
	var link, msg string
	if m := reAnchored.FindStringSubmatch(line); m != nil {
		link, msg = m[1], m[2]
	} else {
		m := reLinePath.FindStringSubmatch(line)
		if m == nil {
			return PlainText{Text: line}
		}
		link, msg = m[1], m[3]
		if link == "" {
			link = m[2]
		}
	}

	var code string
	if loc := reCode.FindStringSubmatchIndex(msg); loc != nil {
		code = msg[loc[2]:loc[3]]
		msg = msg[:loc[2]] + msg[loc[3]:]
	}
	msg = strings.TrimSpace(reLabel.ReplaceAllString(strings.TrimSpace(msg), ""))

	d := PositionedDiagnostic{Message: msg, Code: code}
	pos := rePosition.FindStringSubmatchIndex(link)
	if !reFullPath.MatchString(link) || msg == "" || pos == nil {
		return d
	}
	line1, err1 := strconv.Atoi(link[pos[2]:pos[3]])
	col1, err2 := strconv.Atoi(link[pos[4]:pos[5]])
	if err1 != nil || err2 != nil {
		return d
	}
	d.File = strings.TrimSpace(link[:pos[0]])
	d.Line = max(line1-1, 0)
	d.Column = max(col1-1, 0)
	d.Position = link[pos[0]:pos[1]]
	d.Precise = true
	d.Severity = diag.SevWarning
	if strings.Contains(strings.ToLower(line), "error") {
		d.Severity = diag.SevError
	}
	return d
}
