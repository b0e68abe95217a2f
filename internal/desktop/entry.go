package desktop

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/squashmate/squashmate/internal/core"
)

// Parse reads a .desktop file, keeping only the keys squashmate manages
func Parse(r io.Reader) (*core.DesktopEntry, error) {
	de := &core.DesktopEntry{}
	scanner := bufio.NewScanner(r)
	inDesktopEntry := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inDesktopEntry = line == "[Desktop Entry]"
			continue
		}
		if !inDesktopEntry || !strings.Contains(line, "=") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "Type":
			de.Type = value
		case "Name":
			de.Name = value
		case "Comment":
			de.Comment = value
		case "Exec":
			de.Exec = value
		case "Icon":
			de.Icon = value
		case "Categories":
			de.Categories = parseSemicolonList(value)
		case "MimeType":
			de.MimeType = parseSemicolonList(value)
		case "Terminal":
			de.Terminal = value == "true"
		case "StartupNotify":
			de.StartupNotify = value == "true"
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan desktop file: %w", err)
	}
	return de, nil
}

// Write serializes a desktop entry in the freedesktop key order
func Write(w io.Writer, de *core.DesktopEntry) error {
	if err := Validate(de); err != nil {
		return err
	}

	fmt.Fprintln(w, "[Desktop Entry]")
	fmt.Fprintf(w, "Type=%s\n", de.Type)
	fmt.Fprintf(w, "Name=%s\n", de.Name)
	if de.Comment != "" {
		fmt.Fprintf(w, "Comment=%s\n", de.Comment)
	}
	fmt.Fprintf(w, "Exec=%s\n", de.Exec)
	if de.Icon != "" {
		fmt.Fprintf(w, "Icon=%s\n", de.Icon)
	}
	if len(de.Categories) > 0 {
		fmt.Fprintf(w, "Categories=%s;\n", strings.Join(de.Categories, ";"))
	}
	if len(de.MimeType) > 0 {
		fmt.Fprintf(w, "MimeType=%s;\n", strings.Join(de.MimeType, ";"))
	}
	fmt.Fprintf(w, "Terminal=%t\n", de.Terminal)
	if de.StartupNotify {
		fmt.Fprintln(w, "StartupNotify=true")
	}
	return nil
}

// Validate checks the fields a launchable entry cannot do without
func Validate(de *core.DesktopEntry) error {
	if de.Type == "" {
		return fmt.Errorf("desktop entry missing Type")
	}
	if de.Name == "" {
		return fmt.Errorf("desktop entry missing Name")
	}
	if de.Exec == "" {
		return fmt.Errorf("desktop entry missing Exec")
	}
	return nil
}

func parseSemicolonList(value string) []string {
	value = strings.TrimSuffix(value, ";")
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ";")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// QuoteExecArg quotes an Exec field argument per the desktop entry
// spec when it contains reserved characters
func QuoteExecArg(arg string) string {
	if !strings.ContainsAny(arg, " \t\"'\\><~|&;$*?#()`") {
		return arg
	}
	escaped := strings.ReplaceAll(arg, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "`", "\\`")
	escaped = strings.ReplaceAll(escaped, `$`, `\$`)
	return `"` + escaped + `"`
}
