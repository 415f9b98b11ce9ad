package compiler

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// reParent matches the first-line marker naming the program a header belongs
// to, e.g. `//###<Experts/Robot.mq5>`. The last marker on the line wins.
var reParent = regexp.MustCompile(`(?i)//###<([^>]+\.mq[45])>`)

// ParentFile reads the first line of header and returns the parent program
// named by its marker, joined to workspace. It returns "" when the header
// carries no marker.
func ParentFile(header, workspace string) (string, error) {
	f, err := os.Open(header)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", header, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read %s: %w", header, err)
		}
		return "", nil
	}
	return parentFromLine(sc.Text(), workspace), nil
}

func parentFromLine(line, workspace string) string {
	line = strings.TrimPrefix(line, "\ufeff")
	matches := reParent.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return ""
	}
	rel := matches[len(matches)-1][1]
	rel = filepath.FromSlash(strings.ReplaceAll(rel, `\`, "/"))
	if filepath.IsAbs(rel) || workspace == "" {
		return rel
	}
	return filepath.Join(workspace, rel)
}
