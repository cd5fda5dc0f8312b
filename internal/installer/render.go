package installer

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/streamforge/winstaller/pkg/xos"
)

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// RenderTemplate reads a template file and substitutes ${NAME} placeholders
// from vars. There are no templating features beyond variable
// interpolation. Unresolved placeholders are left in place and reported as
// warnings so a broken template does not silently ship.
func RenderTemplate(templatePath, outputPath string, vars map[string]string, logger hclog.Logger) error {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", templatePath, err)
	}

	rendered := placeholderRe.ReplaceAllStringFunc(string(content), func(m string) string {
		name := m[2 : len(m)-1]
		if value, ok := vars[name]; ok {
			return value
		}
		return m
	})

	for _, m := range placeholderRe.FindAllString(rendered, -1) {
		logger.Warn("unresolved template placeholder", "template", templatePath, "placeholder", m)
	}

	rendered = normalizeLineEndings(rendered)
	if err := xos.WriteFile(outputPath, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}

// normalizeLineEndings rewrites CRLF to LF.
func normalizeLineEndings(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// ExciseSection removes a configuration block from the rendered file: the
// line whose first field is marker, plus every contiguous following
// indented continuation line. Used to drop the local_wheels section when no
// wheel artifacts were downloaded.
func ExciseSection(path, marker string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	var kept []string
	skipping := false
	for _, line := range lines {
		if skipping {
			if isContinuation(line) {
				continue
			}
			skipping = false
		}
		if isBlockStart(line, marker) {
			skipping = true
			continue
		}
		kept = append(kept, line)
	}

	if err := xos.WriteFile(path, []byte(strings.Join(kept, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", path, err)
	}
	return nil
}

func isBlockStart(line, marker string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == marker || strings.HasPrefix(trimmed, marker+"=") || strings.HasPrefix(trimmed, marker+" ")
}

// isContinuation reports whether the line belongs to the block being
// excised: indented lines and blank lines inside the block continue it.
func isContinuation(line string) bool {
	if line == "" {
		return false
	}
	return line[0] == ' ' || line[0] == '\t'
}
